package model

import (
	"errors"
	"testing"

	"CryptoPulse/internal/domain/models"
)

func TestPredictWithoutArtifact(t *testing.T) {
	_, err := Predict(risingSeries(130), nil)
	if !errors.Is(err, models.ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
}

func TestPredictFeatureOrderMismatch(t *testing.T) {
	samples := risingSeries(130)
	artifact, err := NewTrainer(50).Train(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	artifact.FeatureOrder[0], artifact.FeatureOrder[1] = artifact.FeatureOrder[1], artifact.FeatureOrder[0]
	_, err = Predict(samples, artifact)
	if !errors.Is(err, models.ErrFeatureOrderMismatch) {
		t.Fatalf("expected ErrFeatureOrderMismatch, got %v", err)
	}
}

func TestPredictInsufficientData(t *testing.T) {
	samples := risingSeries(130)
	artifact, err := NewTrainer(50).Train(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Predict(risingSeries(10), artifact)
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestPredictRisingSeries(t *testing.T) {
	samples := risingSeries(130)
	artifact, err := NewTrainer(50).Train(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pred, err := Predict(samples, artifact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.ProbabilityUp <= 0.5 {
		t.Fatalf("expected upward probability on rising series, got %v", pred.ProbabilityUp)
	}
	if pred.PredictedClass != 1 {
		t.Fatalf("expected class 1, got %d", pred.PredictedClass)
	}
	if pred.ModelVersion != artifact.Version {
		t.Fatalf("prediction must carry the artifact version")
	}

	last := samples[len(samples)-1]
	if !pred.BasisTimestamp.Equal(last.Timestamp) {
		t.Fatalf("prediction basis must be the latest sample")
	}
	if pred.BasisPrice != last.Price {
		t.Fatalf("basis price: got %v want %v", pred.BasisPrice, last.Price)
	}
}
