package usecase

import (
	"context"
	"sync"
	"time"

	"CryptoPulse/internal/domain/models"
	applogger "CryptoPulse/pkg/logger"
)

// memSeriesStore is an in-memory SeriesStore for tests, enforcing the
// same strictly-increasing timestamp invariant as the real store.
type memSeriesStore struct {
	mu      sync.Mutex
	samples []models.Sample
}

func (m *memSeriesStore) Init(ctx context.Context) error { return nil }

func (m *memSeriesStore) Append(ctx context.Context, s *models.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.samples); n > 0 && !s.Timestamp.After(m.samples[n-1].Timestamp) {
		return models.ErrDuplicateSample
	}
	m.samples = append(m.samples, *s)
	return nil
}

func (m *memSeriesStore) LastN(ctx context.Context, n int) ([]models.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := len(m.samples) - n
	if start < 0 {
		start = 0
	}
	out := make([]models.Sample, len(m.samples)-start)
	copy(out, m.samples[start:])
	return out, nil
}

func (m *memSeriesStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.samples)), nil
}

func (m *memSeriesStore) Health(ctx context.Context) error { return nil }
func (m *memSeriesStore) Close() error                     { return nil }

// fakeSource emits a strictly rising price with strictly increasing
// timestamps, one step per call.
type fakeSource struct {
	mu    sync.Mutex
	i     int
	price float64
}

func (f *fakeSource) FetchSpot(ctx context.Context) (*models.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.price == 0 {
		f.price = 100
	}
	f.i++
	f.price *= 1.001
	return &models.Sample{
		Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.i) * time.Second),
		Symbol:    "bitcoin",
		Price:     f.price,
		Source:    "test",
	}, nil
}

// stuckSource repeats the same timestamp, as a feed does when polled
// faster than it updates.
type stuckSource struct{}

func (stuckSource) FetchSpot(ctx context.Context) (*models.Sample, error) {
	return &models.Sample{
		Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Symbol:    "bitcoin",
		Price:     100,
		Source:    "test",
	}, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSampleIngested(string)     {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, s *models.Sample) error { return nil }
func (nopPublisher) Close() error                                        { return nil }

func testLogger(t interface{ Fatalf(string, ...interface{}) }) *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}
