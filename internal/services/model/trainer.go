package model

import (
	"fmt"
	"time"

	"CryptoPulse/internal/domain/models"
	"CryptoPulse/internal/services/features"
)

const (
	// DefaultMinRows is the minimum number of labeled rows required
	// before a training run is allowed to proceed. With the 15-sample
	// warm-up and 5-step horizon this needs at least 140 raw samples.
	DefaultMinRows = 120

	// TrainFraction is the chronological split point: the first 75%
	// of labeled rows train, the remainder evaluate.
	TrainFraction = 0.75
)

// Trainer fits the standardization transform and classifier on a
// temporally ordered split and packages the result into an artifact.
type Trainer struct {
	MinRows int
}

// NewTrainer creates a trainer. minRows <= 0 selects the default.
func NewTrainer(minRows int) *Trainer {
	if minRows <= 0 {
		minRows = DefaultMinRows
	}
	return &Trainer{MinRows: minRows}
}

// BuildDataset derives features and labels from an ordered series.
// A series too short to produce a single feature row yields
// ErrInsufficientData.
func BuildDataset(samples []models.Sample) (*models.Dataset, error) {
	rows, err := features.Compute(samples)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.ErrInsufficientData
	}
	ds := features.Assemble(samples, rows)
	return &ds, nil
}

// Train runs the full pipeline: features, labels, chronological split,
// scaler fit on the training prefix only, classifier fit, held-out
// accuracy, artifact assembly. It never touches the artifact store;
// persisting the result is the caller's concern so a failed fit leaves
// any previous artifact servable.
func (t *Trainer) Train(samples []models.Sample) (*models.ModelArtifact, error) {
	ds, err := BuildDataset(samples)
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) < t.MinRows {
		return nil, models.ErrInsufficientData
	}

	train, test := ds.Split(TrainFraction)
	if len(test) == 0 {
		return nil, models.ErrInsufficientData
	}

	xTrain, yTrain := matrix(train)
	xTest, yTest := matrix(test)

	scaler, err := FitScaler(xTrain, models.FeatureNames)
	if err != nil {
		return nil, err
	}

	clf := NewLogisticRegression(len(models.FeatureNames))
	clf.Fit(scaler.TransformAll(xTrain), yTrain)
	acc := Accuracy(clf, scaler.TransformAll(xTest), yTest)

	now := time.Now().UTC()
	return &models.ModelArtifact{
		Version:      fmt.Sprintf("%d", now.UnixNano()),
		FeatureOrder: append([]string(nil), models.FeatureNames...),
		Scaler:       scaler.Params(),
		Classifier:   models.ClassifierParams{Weights: clf.Weights, Bias: clf.Bias},
		Metadata: models.TrainingMetadata{
			RawRows:      len(samples),
			LabeledRows:  len(ds.Rows),
			TrainRows:    len(train),
			TestRows:     len(test),
			TestAccuracy: acc,
			TrainedAt:    now,
		},
	}, nil
}

func matrix(rows []models.LabeledRow) ([][]float64, []int) {
	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i := range rows {
		x[i] = rows[i].Vector()
		y[i] = rows[i].Label
	}
	return x, y
}
