package analysis

import "clauseguard-backend/models"

// BuildSummary computes the derived summary over a validated risk
// list in a single pass. Every category key is initialized to an empty
// list up front, so a category with zero hits still appears in the
// output, and per-category lists preserve the input order.
func BuildSummary(risks []models.RiskRecord) models.Summary {
	summary := models.Summary{
		RisksByCategory: make(map[models.Category][]models.RiskRecord, len(models.Categories)),
	}
	for _, category := range models.Categories {
		summary.RisksByCategory[category] = make([]models.RiskRecord, 0)
	}

	for _, risk := range risks {
		summary.TotalRisks++
		switch risk.Severity {
		case models.SeverityHigh:
			summary.HighPriorityCount++
		case models.SeverityMedium:
			summary.MediumPriorityCount++
		case models.SeverityLow:
			summary.LowPriorityCount++
		}
		summary.RisksByCategory[risk.Category] = append(summary.RisksByCategory[risk.Category], risk)
	}

	return summary
}
