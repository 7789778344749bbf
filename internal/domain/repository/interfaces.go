package repository

import (
	"context"

	"CryptoPulse/internal/domain/models"
)

// SeriesStore holds the append-only, timestamp-ordered price series.
type SeriesStore interface {
	Init(ctx context.Context) error // ensure tables, load append watermark
	Append(ctx context.Context, s *models.Sample) error
	LastN(ctx context.Context, n int) ([]models.Sample, error) // ascending by timestamp
	Count(ctx context.Context) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// ArtifactStore is the single current-model slot with atomic
// replace-and-read semantics. A reader never observes a partially
// written artifact.
type ArtifactStore interface {
	Current(ctx context.Context) (*models.ModelArtifact, bool, error)
	Replace(ctx context.Context, a *models.ModelArtifact) error
}

// PriceSource fetches the current spot price from an external feed.
type PriceSource interface {
	FetchSpot(ctx context.Context) (*models.Sample, error)
}

// PriceStream is a live push feed of samples (optional ingestion path).
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Sample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans ingested samples out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, s *models.Sample) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordSampleIngested(source string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
