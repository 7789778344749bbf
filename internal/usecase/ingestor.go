package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
)

// SampleIngestor pulls spot prices from the configured feed and
// appends them to the series store, fanning each stored sample out to
// the publisher. Duplicate timestamps (the feed not having moved yet)
// are skipped, not failed.
type SampleIngestor struct {
	source  drepo.PriceSource
	store   drepo.SeriesStore
	pub     drepo.Publisher
	metrics drepo.Metrics
}

// NewSampleIngestor creates a new SampleIngestor.
func NewSampleIngestor(
	source drepo.PriceSource,
	store drepo.SeriesStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
) *SampleIngestor {
	return &SampleIngestor{source: source, store: store, pub: pub, metrics: metrics}
}

// IngestOnce fetches the current price and stores it. stored is false
// when the sample was a duplicate and skipped.
func (i *SampleIngestor) IngestOnce(ctx context.Context) (*models.Sample, bool, error) {
	start := time.Now()

	s, err := i.source.FetchSpot(ctx)
	if err != nil {
		i.metrics.RecordError("feed_fetch")
		return nil, false, fmt.Errorf("fetch spot: %w", err)
	}

	if err := i.Store(ctx, s); err != nil {
		if errors.Is(err, models.ErrDuplicateSample) {
			return s, false, nil
		}
		return nil, false, err
	}

	i.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	return s, true, nil
}

// Store appends one sample (pull or stream path) and publishes it.
func (i *SampleIngestor) Store(ctx context.Context, s *models.Sample) error {
	if err := i.store.Append(ctx, s); err != nil {
		if errors.Is(err, models.ErrDuplicateSample) {
			return err
		}
		i.metrics.RecordError("store_append")
		return fmt.Errorf("append: %w", err)
	}

	i.metrics.RecordSampleIngested(s.Source)
	i.metrics.RecordLastPrice(s.Symbol, s.Price)

	// Fan-out is best effort; a broker outage must not lose samples.
	if i.pub != nil {
		if err := i.pub.Publish(ctx, s); err != nil {
			i.metrics.RecordError("publish")
		}
	}
	return nil
}
