package analysis

import (
	"testing"

	"clauseguard-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateRecord(t *testing.T) {
	valid := models.RiskRecord{
		Title:       "Uncapped Indemnification",
		Description: "The indemnification obligation has no monetary cap.",
		Severity:    models.SeverityHigh,
		Category:    models.CategoryLiability,
	}

	tests := []struct {
		name    string
		mutate  func(r *models.RiskRecord)
		wantErr string
	}{
		{
			name:   "valid record",
			mutate: func(r *models.RiskRecord) {},
		},
		{
			name: "valid with recommendation",
			mutate: func(r *models.RiskRecord) {
				recommendation := "Cap indemnification at fees paid."
				r.Recommendation = &recommendation
			},
		},
		{
			name:    "missing title",
			mutate:  func(r *models.RiskRecord) { r.Title = "" },
			wantErr: "title",
		},
		{
			name:    "missing description",
			mutate:  func(r *models.RiskRecord) { r.Description = "" },
			wantErr: "description",
		},
		{
			name:    "missing severity",
			mutate:  func(r *models.RiskRecord) { r.Severity = "" },
			wantErr: "severity",
		},
		{
			name:    "missing category",
			mutate:  func(r *models.RiskRecord) { r.Category = "" },
			wantErr: "category",
		},
		{
			name:    "unknown severity",
			mutate:  func(r *models.RiskRecord) { r.Severity = "critical" },
			wantErr: "unknown severity",
		},
		{
			name:    "unknown category",
			mutate:  func(r *models.RiskRecord) { r.Category = "warranty" },
			wantErr: "unknown category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := valid
			tt.mutate(&record)

			err := ValidateRecord(record)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
