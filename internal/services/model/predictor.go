package model

import (
	"fmt"

	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/services/features"
)

// Predict computes the nowcast for the most recent observation of the
// series using a fitted artifact. It never trains as a side effect;
// artifact staleness relative to the series is the caller's concern.
func Predict(samples []models.Sample, artifact *models.ModelArtifact) (*models.Prediction, error) {
	if artifact == nil {
		return nil, models.ErrNoModel
	}
	if err := checkFeatureOrder(artifact.FeatureOrder); err != nil {
		return nil, err
	}

	rows, err := features.Compute(samples)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.ErrInsufficientData
	}
	latest := rows[len(rows)-1]

	scaler := NewScalerFromParams(artifact.Scaler)
	clf := &LogisticRegression{
		Weights: artifact.Classifier.Weights,
		Bias:    artifact.Classifier.Bias,
	}

	p := clf.PredictProba(scaler.Transform(latest.Vector()))
	class := 0
	if p > 0.5 {
		class = 1
	}
	return &models.Prediction{
		ProbabilityUp:  p,
		PredictedClass: class,
		BasisTimestamp: latest.Timestamp,
		BasisPrice:     latest.Price,
		ModelVersion:   artifact.Version,
	}, nil
}

func checkFeatureOrder(order []string) error {
	if len(order) != len(models.FeatureNames) {
		return fmt.Errorf("%w: got %d features, want %d",
			models.ErrFeatureOrderMismatch, len(order), len(models.FeatureNames))
	}
	for i := range order {
		if order[i] != models.FeatureNames[i] {
			return fmt.Errorf("%w: position %d is %q, want %q",
				models.ErrFeatureOrderMismatch, i, order[i], models.FeatureNames[i])
		}
	}
	return nil
}
