package analysis

import (
	"fmt"

	"clauseguard-backend/models"
)

// ValidateRecord enforces the output contract on a candidate risk
// record: the four required fields must be present and the enum fields
// must take allowed values. Recommendation is optional. Invalid records
// are rejected, never coerced.
func ValidateRecord(rec models.RiskRecord) error {
	if rec.Title == "" {
		return fmt.Errorf("missing required field: title")
	}
	if rec.Description == "" {
		return fmt.Errorf("missing required field: description")
	}
	if rec.Severity == "" {
		return fmt.Errorf("missing required field: severity")
	}
	if rec.Category == "" {
		return fmt.Errorf("missing required field: category")
	}
	if !rec.Severity.IsValid() {
		return fmt.Errorf("unknown severity value: %q", rec.Severity)
	}
	if !rec.Category.IsValid() {
		return fmt.Errorf("unknown category value: %q", rec.Category)
	}
	return nil
}
