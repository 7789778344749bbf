package model

import "math"

// LogisticRegression is a linear probabilistic binary classifier fit
// with full-batch gradient descent. Zero initialization and a fixed
// iteration count make training deterministic: identical inputs yield
// identical parameters.
type LogisticRegression struct {
	Weights []float64
	Bias    float64

	LearningRate float64
	Iterations   int
}

// NewLogisticRegression creates an untrained classifier for the given
// feature count.
func NewLogisticRegression(nFeatures int) *LogisticRegression {
	return &LogisticRegression{
		Weights:      make([]float64, nFeatures),
		LearningRate: 0.1,
		Iterations:   1000,
	}
}

// Fit runs gradient descent on the mean log-loss over standardized
// training data.
func (lr *LogisticRegression) Fit(x [][]float64, y []int) {
	n := len(x)
	if n == 0 {
		return
	}
	for iter := 0; iter < lr.Iterations; iter++ {
		gradW := make([]float64, len(lr.Weights))
		gradB := 0.0
		for i := 0; i < n; i++ {
			err := lr.PredictProba(x[i]) - float64(y[i])
			for j := range lr.Weights {
				gradW[j] += err * x[i][j]
			}
			gradB += err
		}
		inv := 1.0 / float64(n)
		for j := range lr.Weights {
			lr.Weights[j] -= lr.LearningRate * gradW[j] * inv
		}
		lr.Bias -= lr.LearningRate * gradB * inv
	}
}

// PredictProba returns the probability of the positive class.
func (lr *LogisticRegression) PredictProba(x []float64) float64 {
	z := lr.Bias
	for j := range lr.Weights {
		z += lr.Weights[j] * x[j]
	}
	return sigmoid(z)
}

// PredictClass thresholds the probability at 0.5.
func (lr *LogisticRegression) PredictClass(x []float64) int {
	if lr.PredictProba(x) > 0.5 {
		return 1
	}
	return 0
}

// Accuracy computes the fraction of rows classified correctly.
func Accuracy(lr *LogisticRegression, x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i := range x {
		if lr.PredictClass(x[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

func sigmoid(z float64) float64 {
	// Clamp to keep exp finite on extreme margins.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
