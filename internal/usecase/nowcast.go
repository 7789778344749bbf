package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	pipemetrics "CryptoPulse/internal/service/metrics"
	"CryptoPulse/internal/services/model"
	applogger "CryptoPulse/pkg/logger"
)

// NowcastService orchestrates the training and prediction pipeline
// over the stored series and the single current artifact slot.
type NowcastService struct {
	series    drepo.SeriesStore
	artifacts drepo.ArtifactStore
	logger    *applogger.Logger

	seriesLimit int
	minRows     int
}

// NewNowcastService creates the pipeline orchestrator. seriesLimit
// caps how many recent samples are read per operation; <= 0 selects a
// default of 2000. minRows is the labeled-row threshold used when a
// training request does not specify one; <= 0 defers to the trainer's
// built-in default.
func NewNowcastService(
	series drepo.SeriesStore,
	artifacts drepo.ArtifactStore,
	logger *applogger.Logger,
	seriesLimit int,
	minRows int,
) *NowcastService {
	if seriesLimit <= 0 {
		seriesLimit = 2000
	}
	return &NowcastService{
		series:      series,
		artifacts:   artifacts,
		logger:      logger,
		seriesLimit: seriesLimit,
		minRows:     minRows,
	}
}

// Dataset reads a snapshot of the series and derives the supervised
// dataset from it, without fitting anything.
func (n *NowcastService) Dataset(ctx context.Context, limit int) (*models.Dataset, error) {
	if limit <= 0 {
		limit = n.seriesLimit
	}
	samples, err := n.series.LastN(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	return model.BuildDataset(samples)
}

// Train reads a snapshot of the series, fits a fresh artifact and, on
// success only, replaces the current one. A failed fit leaves any
// previously persisted artifact untouched and servable.
func (n *NowcastService) Train(ctx context.Context, minRows, limit int) (*models.ModelArtifact, error) {
	start := time.Now()
	if limit <= 0 {
		limit = n.seriesLimit
	}
	if minRows <= 0 {
		minRows = n.minRows
	}

	samples, err := n.series.LastN(ctx, limit)
	if err != nil {
		pipemetrics.PipelineErrors.WithLabelValues("train").Inc()
		return nil, fmt.Errorf("read series: %w", err)
	}

	trainer := model.NewTrainer(minRows)
	artifact, err := trainer.Train(samples)
	if err != nil {
		pipemetrics.PipelineErrors.WithLabelValues("train").Inc()
		return nil, err
	}

	if err := n.artifacts.Replace(ctx, artifact); err != nil {
		pipemetrics.PipelineErrors.WithLabelValues("train").Inc()
		return nil, fmt.Errorf("persist artifact: %w", err)
	}

	pipemetrics.ModelTestAccuracy.Set(artifact.Metadata.TestAccuracy)
	pipemetrics.PipelineLatency.WithLabelValues("train").Observe(time.Since(start).Seconds())

	n.logger.Info("model trained",
		applogger.String("version", artifact.Version),
		applogger.Float64("test_accuracy", artifact.Metadata.TestAccuracy),
		applogger.Int("train_rows", artifact.Metadata.TrainRows),
		applogger.Int("test_rows", artifact.Metadata.TestRows),
	)
	return artifact, nil
}

// Predict nowcasts the direction of the next horizon step from the
// latest observation, using the current artifact. It never retrains.
func (n *NowcastService) Predict(ctx context.Context) (*models.Prediction, error) {
	start := time.Now()

	artifact, ok, err := n.artifacts.Current(ctx)
	if err != nil {
		pipemetrics.PipelineErrors.WithLabelValues("predict").Inc()
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	if !ok {
		return nil, models.ErrNoModel
	}

	samples, err := n.series.LastN(ctx, n.seriesLimit)
	if err != nil {
		pipemetrics.PipelineErrors.WithLabelValues("predict").Inc()
		return nil, fmt.Errorf("read series: %w", err)
	}

	pred, err := model.Predict(samples, artifact)
	if err != nil {
		pipemetrics.PipelineErrors.WithLabelValues("predict").Inc()
		return nil, err
	}

	pipemetrics.PredictionProbability.Set(pred.ProbabilityUp)
	pipemetrics.PipelineLatency.WithLabelValues("predict").Observe(time.Since(start).Seconds())
	return pred, nil
}

// CurrentModel returns the persisted artifact, if any.
func (n *NowcastService) CurrentModel(ctx context.Context) (*models.ModelArtifact, error) {
	artifact, ok, err := n.artifacts.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	if !ok {
		return nil, models.ErrNoModel
	}
	return artifact, nil
}

// Prices returns the most recent samples in ascending timestamp order.
func (n *NowcastService) Prices(ctx context.Context, limit int) ([]models.PricePoint, error) {
	if limit <= 0 || limit > n.seriesLimit {
		limit = n.seriesLimit
	}
	samples, err := n.series.LastN(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	out := make([]models.PricePoint, len(samples))
	for i, s := range samples {
		out[i] = models.PricePoint{Timestamp: s.Timestamp, Price: s.Price}
	}
	return out, nil
}

// SampleCount reports how many samples the store holds.
func (n *NowcastService) SampleCount(ctx context.Context) (int64, error) {
	return n.series.Count(ctx)
}
