package repository

import (
	"context"

	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/domain/repository"
	pkgkafka "CryptoPulse/pkg/kafka"
)

// KafkaSamplePublisher fans ingested samples out to a ticks topic for
// downstream consumers (dashboards, archival).
type KafkaSamplePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSamplePublisher creates a Kafka-backed publisher.
func NewKafkaSamplePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaSamplePublisher{producer: producer, topic: topic}
}

func (p *KafkaSamplePublisher) Publish(ctx context.Context, s *models.Sample) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), map[string]interface{}{
		"symbol": s.Symbol,
		"t":      s.Timestamp.Unix(),
		"p":      s.Price,
		"src":    s.Source,
	})
}

func (p *KafkaSamplePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher is used when Kafka fan-out is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, s *models.Sample) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }
