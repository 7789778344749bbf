package models

import (
	"errors"
	"fmt"
)

// Sentinel outcomes of the nowcasting pipeline. These are recoverable
// conditions the surrounding service layer maps onto its own response
// conventions; they are never raised as panics.
var (
	// ErrInsufficientData means fewer rows are available than the
	// requested operation needs (feature warm-up, label horizon, or
	// minimum training threshold). Recoverable by collecting more
	// samples.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoModel means prediction was requested before any artifact
	// was ever produced. Recoverable by training first.
	ErrNoModel = errors.New("no model artifact")

	// ErrFeatureOrderMismatch means the artifact's feature order does
	// not match the engine's. This is a configuration defect, not a
	// recoverable data condition.
	ErrFeatureOrderMismatch = errors.New("artifact feature order does not match engine")

	// ErrDuplicateSample means an append carried a timestamp at or
	// before the latest stored one. The ingestion layer skips these.
	ErrDuplicateSample = errors.New("duplicate or out-of-order sample")
)

// TrainingError reports a numerical fitting failure, identifying the
// offending feature. The previous artifact, if any, stays in place.
type TrainingError struct {
	Feature string
	Reason  string
}

func (e *TrainingError) Error() string {
	if e.Feature != "" {
		return fmt.Sprintf("training failed on feature %q: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("training failed: %s", e.Reason)
}

// DataIntegrityError reports a precondition violation of the core's
// input contract: non-monotonic timestamps or non-positive prices
// reaching the feature engine. Never silently repaired.
type DataIntegrityError struct {
	Index  int
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation at index %d: %s", e.Index, e.Reason)
}
