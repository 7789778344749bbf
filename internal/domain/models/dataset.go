package models

// Dataset is the supervised table assembled from features and labels.
// Rows are ordered oldest first. Unlabeled holds the label-censored
// tail of the series; its last entry is the live prediction basis.
type Dataset struct {
	Rows      []LabeledRow
	Unlabeled []FeatureRow
}

// Matrix returns the labeled rows as a feature matrix plus label slice,
// preserving order.
func (d *Dataset) Matrix() ([][]float64, []int) {
	x := make([][]float64, len(d.Rows))
	y := make([]int, len(d.Rows))
	for i := range d.Rows {
		x[i] = d.Rows[i].Vector()
		y[i] = d.Rows[i].Label
	}
	return x, y
}

// Split partitions the labeled rows chronologically: the first
// floor(frac*n) rows become the training prefix, the remainder the
// test suffix. No shuffling, so every train timestamp precedes every
// test timestamp.
func (d *Dataset) Split(frac float64) (train, test []LabeledRow) {
	cut := int(frac * float64(len(d.Rows)))
	return d.Rows[:cut], d.Rows[cut:]
}
