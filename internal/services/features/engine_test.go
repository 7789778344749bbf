package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"CryptoPulse/internal/domain/models"
)

func series(prices []float64) []models.Sample {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Sample, len(prices))
	for i, p := range prices {
		out[i] = models.Sample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "bitcoin",
			Price:     p,
			Source:    "test",
		}
	}
	return out
}

func flatPrices(n int, p float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestComputeTooShort(t *testing.T) {
	rows, err := Compute(series(flatPrices(Warmup, 100)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != nil {
		t.Fatalf("expected no rows for %d samples, got %d", Warmup, len(rows))
	}
}

func TestComputeRowCount(t *testing.T) {
	for _, n := range []int{Warmup + 1, 30, 130} {
		rows, err := Compute(series(flatPrices(n, 100)))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(rows) != n-Warmup {
			t.Fatalf("n=%d: expected %d rows, got %d", n, n-Warmup, len(rows))
		}
	}
}

func TestComputeFlatSeries(t *testing.T) {
	rows, err := Compute(series(flatPrices(40, 250)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if r.Ret1 != 0 || r.Ret3 != 0 || r.Vol5 != 0 || r.Mom5 != 0 {
			t.Fatalf("row %d: expected zero returns on flat series, got %+v", i, r)
		}
		if r.MA5 != 250 || r.MA15 != 250 {
			t.Fatalf("row %d: expected moving averages 250, got ma5=%v ma15=%v", i, r.MA5, r.MA15)
		}
	}
}

func TestComputeValues(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i) // arithmetic ramp
	}
	samples := series(prices)

	rows, err := Compute(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First row corresponds to series index Warmup.
	r := rows[0]
	tIdx := Warmup
	wantRet1 := math.Log(prices[tIdx] / prices[tIdx-1])
	wantRet3 := math.Log(prices[tIdx] / prices[tIdx-3])
	if math.Abs(r.Ret1-wantRet1) > 1e-12 {
		t.Fatalf("ret1: got %v want %v", r.Ret1, wantRet1)
	}
	if math.Abs(r.Ret3-wantRet3) > 1e-12 {
		t.Fatalf("ret3: got %v want %v", r.Ret3, wantRet3)
	}
	if r.Mom5 != prices[tIdx]-prices[tIdx-5] {
		t.Fatalf("mom5: got %v want %v", r.Mom5, prices[tIdx]-prices[tIdx-5])
	}

	wantMA5 := (prices[tIdx] + prices[tIdx-1] + prices[tIdx-2] + prices[tIdx-3] + prices[tIdx-4]) / 5
	if math.Abs(r.MA5-wantMA5) > 1e-12 {
		t.Fatalf("ma5: got %v want %v", r.MA5, wantMA5)
	}
}

func TestComputeVol5SampleStddev(t *testing.T) {
	// A ramp of equal multiplicative steps has constant ret1, so the
	// 5-return window is constant and its sample stddev must be 0.
	prices := make([]float64, 20)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.01
	}
	rows, err := Compute(series(prices))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if math.Abs(r.Vol5) > 1e-12 {
			t.Fatalf("row %d: expected zero vol5 on constant returns, got %v", i, r.Vol5)
		}
	}
}

func TestComputeRejectsNonPositivePrice(t *testing.T) {
	prices := flatPrices(20, 100)
	prices[7] = 0
	_, err := Compute(series(prices))

	var ie *models.DataIntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
	if ie.Index != 7 {
		t.Fatalf("expected index 7, got %d", ie.Index)
	}
}

func TestComputeRejectsNonIncreasingTimestamp(t *testing.T) {
	samples := series(flatPrices(20, 100))
	samples[5].Timestamp = samples[4].Timestamp

	_, err := Compute(samples)
	var ie *models.DataIntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("expected DataIntegrityError, got %v", err)
	}
	if ie.Index != 5 {
		t.Fatalf("expected index 5, got %d", ie.Index)
	}
}
