package analysis

import (
	"time"

	"clauseguard-backend/models"
)

// AssembleReport is the single construction point for a RiskReport. It
// combines the validated risks, the summary computed from them, and a
// timestamp captured once here. The returned report is treated as
// immutable: a reanalysis produces a new report.
func AssembleReport(risks []models.RiskRecord, diagnostics []models.Diagnostic) *models.RiskReport {
	if risks == nil {
		risks = make([]models.RiskRecord, 0)
	}
	return &models.RiskReport{
		Risks:       risks,
		Summary:     BuildSummary(risks),
		Timestamp:   time.Now().UTC(),
		Diagnostics: diagnostics,
	}
}
