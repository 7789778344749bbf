package models

import "time"

// Prediction is the nowcast answer for the most recent observation.
type Prediction struct {
	ProbabilityUp  float64   `json:"probability_up"`
	PredictedClass int       `json:"predicted_class"`
	BasisTimestamp time.Time `json:"basis_timestamp"`
	BasisPrice     float64   `json:"basis_price"`
	ModelVersion   string    `json:"model_version"`
}
