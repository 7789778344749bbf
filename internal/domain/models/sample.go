package models

import "time"

// Sample is a single observation of the tracked price series.
// Samples are immutable once appended and ordered by strictly
// increasing timestamps.
type Sample struct {
	Timestamp time.Time
	Symbol    string
	Price     float64
	Source    string
}

// FeatureNames is the canonical feature order produced by the feature
// engine and recorded in every model artifact. Training and serving
// must agree on this order.
var FeatureNames = []string{"ret1", "ret3", "vol5", "ma5", "ma15", "mom5"}

// FeatureRow holds the derived features for one eligible series index.
// A row exists only when the full 15-sample warm-up window before its
// timestamp is available.
type FeatureRow struct {
	Timestamp time.Time
	Price     float64
	Ret1      float64
	Ret3      float64
	Vol5      float64
	MA5       float64
	MA15      float64
	Mom5      float64
}

// Vector returns the feature values in FeatureNames order.
func (r *FeatureRow) Vector() []float64 {
	return []float64{r.Ret1, r.Ret3, r.Vol5, r.MA5, r.MA15, r.Mom5}
}

// LabeledRow is a FeatureRow whose future outcome is known.
// Label is 1 when the price 5 steps ahead is strictly greater.
type LabeledRow struct {
	FeatureRow
	Label int
}
