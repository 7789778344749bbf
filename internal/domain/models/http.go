package models

import "time"

// Request DTOs bound and validated by the HTTP layer.

// TrainRequest configures a training run. MinRows is the minimum
// number of labeled rows required before fitting; zero selects the
// configured service default. Limit caps the series snapshot read
// from the store.
type TrainRequest struct {
	MinRows int `json:"min_rows" validate:"omitempty,gte=8,lte=100000"`
	Limit   int `json:"limit" default:"2000" validate:"gte=21,lte=1000000"`
}

// BatchIngestRequest starts a server-side collection loop.
type BatchIngestRequest struct {
	Count        int     `json:"count" default:"60" validate:"gte=1,lte=2000"`
	DelaySeconds float64 `json:"delay_seconds" default:"12" validate:"gte=1,lte=600"`
}

// PricesRequest selects how many recent samples to return. Since
// optionally drops samples at or before the given time (RFC3339 or
// unix seconds).
type PricesRequest struct {
	Limit int    `query:"limit" default:"200" validate:"gte=1,lte=10000"`
	Since string `query:"since"`
}

// Response DTOs.

// TrainResponse summarizes a completed training run.
type TrainResponse struct {
	Version      string    `json:"version"`
	TestAccuracy float64   `json:"test_accuracy"`
	TrainRows    int       `json:"train_rows"`
	TestRows     int       `json:"test_rows"`
	LabeledRows  int       `json:"labeled_rows"`
	TrainedAt    time.Time `json:"trained_at"`
}

// IngestResponse reports one stored observation.
type IngestResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Stored    bool      `json:"stored"`
}

// BatchStatus is a snapshot of the server-side collection loop.
type BatchStatus struct {
	Running    bool      `json:"running"`
	Done       int       `json:"done"`
	Failed     int       `json:"failed"`
	Target     int       `json:"target"`
	Delay      float64   `json:"delay_seconds"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	ETASeconds int       `json:"eta_seconds"`
}

// PricePoint is one sample in a /prices response.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}
