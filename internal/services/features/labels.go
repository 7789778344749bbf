package features

import "CryptoPulse/internal/domain/models"

// Assemble joins feature rows with future-direction labels into a
// dataset. A row at series index t is labeled only when a sample at
// t+Horizon exists: label 1 iff that future price is strictly greater.
// The most recent Horizon rows are always label-censored; they land in
// Unlabeled and are the live prediction candidates.
func Assemble(samples []models.Sample, rows []models.FeatureRow) models.Dataset {
	var ds models.Dataset
	for i, row := range rows {
		t := i + Warmup
		future := t + Horizon
		if future >= len(samples) {
			ds.Unlabeled = append(ds.Unlabeled, row)
			continue
		}
		label := 0
		if samples[future].Price > samples[t].Price {
			label = 1
		}
		ds.Rows = append(ds.Rows, models.LabeledRow{FeatureRow: row, Label: label})
	}
	return ds
}
