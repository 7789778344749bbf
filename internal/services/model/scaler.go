package model

import (
	"fmt"
	"math"

	"CryptoPulse/internal/domain/models"
)

// degenerateScale is the threshold below which a feature column is
// considered constant and unfit for standardization.
const degenerateScale = 1e-12

// StandardScaler standardizes feature columns to zero mean and unit
// scale. Parameters are fit on training data only and reused verbatim
// at serving time.
type StandardScaler struct {
	Means  []float64
	Scales []float64
}

// FitScaler computes per-column mean and population standard deviation.
// A constant column is a numerical fitting failure reported as a
// TrainingError naming the offending feature.
func FitScaler(x [][]float64, featureOrder []string) (*StandardScaler, error) {
	if len(x) == 0 {
		return nil, &models.TrainingError{Reason: "empty training matrix"}
	}
	cols := len(x[0])
	means := make([]float64, cols)
	scales := make([]float64, cols)

	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := range x {
			sum += x[i][j]
		}
		means[j] = sum / float64(len(x))
	}
	for j := 0; j < cols; j++ {
		sum2 := 0.0
		for i := range x {
			d := x[i][j] - means[j]
			sum2 += d * d
		}
		scales[j] = math.Sqrt(sum2 / float64(len(x)))
		if scales[j] < degenerateScale {
			name := fmt.Sprintf("column %d", j)
			if j < len(featureOrder) {
				name = featureOrder[j]
			}
			return nil, &models.TrainingError{Feature: name, Reason: "constant feature column"}
		}
	}
	return &StandardScaler{Means: means, Scales: scales}, nil
}

// NewScalerFromParams rebuilds a scaler from persisted parameters.
func NewScalerFromParams(p models.ScalerParams) *StandardScaler {
	return &StandardScaler{Means: p.Means, Scales: p.Scales}
}

// Params exports the fitted parameters for persistence.
func (s *StandardScaler) Params() models.ScalerParams {
	return models.ScalerParams{Means: s.Means, Scales: s.Scales}
}

// Transform standardizes a single feature vector.
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j := range x {
		out[j] = (x[j] - s.Means[j]) / s.Scales[j]
	}
	return out
}

// TransformAll standardizes every row of a matrix.
func (s *StandardScaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.Transform(x[i])
	}
	return out
}
