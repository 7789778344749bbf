package models

import "time"

// ScalerParams are the fitted per-feature standardization parameters.
// Means and Scales follow FeatureOrder.
type ScalerParams struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// ClassifierParams are the fitted logistic regression parameters.
type ClassifierParams struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainingMetadata records how the artifact was produced.
type TrainingMetadata struct {
	RawRows      int       `json:"raw_rows"`
	LabeledRows  int       `json:"labeled_rows"`
	TrainRows    int       `json:"train_rows"`
	TestRows     int       `json:"test_rows"`
	TestAccuracy float64   `json:"test_accuracy"`
	TrainedAt    time.Time `json:"trained_at"`
}

// ModelArtifact is the persisted bundle of everything needed to
// reproduce predictions. It replaces any prior artifact atomically and
// is consumed read-only by the predictor. FeatureOrder must match the
// engine's FeatureNames exactly; a mismatch is a configuration defect.
type ModelArtifact struct {
	Version      string           `json:"version"`
	FeatureOrder []string         `json:"feature_order"`
	Scaler       ScalerParams     `json:"scaler"`
	Classifier   ClassifierParams `json:"classifier"`
	Metadata     TrainingMetadata `json:"metadata"`
}
