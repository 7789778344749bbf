package features

import (
	"math"

	"CryptoPulse/internal/domain/models"
)

const (
	// Warmup is the number of prior samples the longest rolling window
	// needs before a feature row can be produced.
	Warmup = 15

	// Horizon is the number of steps ahead used to define labels.
	Horizon = 5

	volWindow = 5
	maShort   = 5
	maLong    = 15
)

// Compute transforms an ordered price series into feature rows.
// Rows before index Warmup lack the longest window and produce no
// output, so the result has length max(0, len(samples)-Warmup).
// Non-positive prices and non-increasing timestamps violate the input
// contract and return a DataIntegrityError.
func Compute(samples []models.Sample) ([]models.FeatureRow, error) {
	if err := validate(samples); err != nil {
		return nil, err
	}
	if len(samples) <= Warmup {
		return nil, nil
	}

	// 1-step log returns; ret1[i] corresponds to samples[i], i >= 1.
	ret1 := make([]float64, len(samples))
	for i := 1; i < len(samples); i++ {
		ret1[i] = math.Log(samples[i].Price / samples[i-1].Price)
	}

	rows := make([]models.FeatureRow, 0, len(samples)-Warmup)
	for t := Warmup; t < len(samples); t++ {
		p := samples[t].Price
		rows = append(rows, models.FeatureRow{
			Timestamp: samples[t].Timestamp,
			Price:     p,
			Ret1:      ret1[t],
			Ret3:      math.Log(p / samples[t-3].Price),
			Vol5:      sampleStddev(ret1[t-volWindow+1 : t+1]),
			MA5:       mean(prices(samples[t-maShort+1 : t+1])),
			MA15:      mean(prices(samples[t-maLong+1 : t+1])),
			Mom5:      p - samples[t-Horizon].Price,
		})
	}
	return rows, nil
}

func validate(samples []models.Sample) error {
	for i := range samples {
		if samples[i].Price <= 0 {
			return &models.DataIntegrityError{Index: i, Reason: "non-positive price"}
		}
		if i > 0 && !samples[i].Timestamp.After(samples[i-1].Timestamp) {
			return &models.DataIntegrityError{Index: i, Reason: "non-increasing timestamp"}
		}
	}
	return nil
}

func prices(samples []models.Sample) []float64 {
	out := make([]float64, len(samples))
	for i := range samples {
		out[i] = samples[i].Price
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStddev computes the sample standard deviation (n-1 denominator)
// of the window.
func sampleStddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	variance := sum2 / float64(len(xs)-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
