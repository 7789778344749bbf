package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/domain/repository"
)

// ClickHouseSeriesStore implements SeriesStore for ClickHouse.
// Appends serialize through a mutex so the strictly-increasing
// timestamp invariant holds even under concurrent ingestion; reads see
// a consistent prefix of the series.
type ClickHouseSeriesStore struct {
	db     *sql.DB
	table  string
	symbol string

	mu     sync.Mutex
	lastTS time.Time
}

// NewClickHouseSeriesStore creates a ClickHouse-backed series store.
func NewClickHouseSeriesStore(db *sql.DB, table, symbol string) repository.SeriesStore {
	return &ClickHouseSeriesStore{db: db, table: table, symbol: symbol}
}

// Init loads the append watermark so restarts keep rejecting stale
// timestamps. Schema creation happens in pkg/clickhouse.
func (s *ClickHouseSeriesStore) Init(ctx context.Context) error {
	q := fmt.Sprintf("SELECT max(ts) FROM %s WHERE symbol = ?", s.table)
	var last time.Time
	if err := s.db.QueryRowContext(ctx, q, s.symbol).Scan(&last); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("load watermark: %w", err)
	}
	s.mu.Lock()
	s.lastTS = last
	s.mu.Unlock()
	return nil
}

// Append stores one sample. Timestamps at or before the watermark are
// rejected with ErrDuplicateSample; the ingestion layer treats that as
// a skip, not a failure.
func (s *ClickHouseSeriesStore) Append(ctx context.Context, sample *models.Sample) error {
	if sample == nil {
		return fmt.Errorf("sample is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !sample.Timestamp.After(s.lastTS) {
		return models.ErrDuplicateSample
	}

	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, source) VALUES (?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, sample.Timestamp, s.symbol, sample.Price, sample.Source); err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	s.lastTS = sample.Timestamp
	return nil
}

// LastN returns up to n most recent samples in ascending timestamp
// order, the orientation the feature engine consumes.
func (s *ClickHouseSeriesStore) LastN(ctx context.Context, n int) ([]models.Sample, error) {
	q := fmt.Sprintf("SELECT ts, price, source FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, s.symbol, n)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []models.Sample
	for rows.Next() {
		var sm models.Sample
		if err := rows.Scan(&sm.Timestamp, &sm.Price, &sm.Source); err != nil {
			return nil, err
		}
		sm.Symbol = s.symbol
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest first; reverse to ascending.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *ClickHouseSeriesStore) Count(ctx context.Context) (int64, error) {
	q := fmt.Sprintf("SELECT count() FROM %s WHERE symbol = ?", s.table)
	var n int64
	if err := s.db.QueryRowContext(ctx, q, s.symbol).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

func (s *ClickHouseSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSeriesStore) Close() error {
	return nil // pool managed by pkg/clickhouse
}
