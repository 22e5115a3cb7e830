package analysis

import (
	"context"

	"clauseguard-backend/models"
)

// Classifier decides whether a segment expresses one or more
// contractual risks. Implementations may be rule-based or backed by a
// language model; the pipeline depends only on this contract.
//
// A returned error marks the single segment as skipped. An error
// wrapping ErrClassifierUnavailable aborts the whole run.
type Classifier interface {
	Classify(ctx context.Context, seg Segment, doc *DocumentContext) ([]models.RiskRecord, error)
}
