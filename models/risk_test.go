package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityIsValid(t *testing.T) {
	assert.True(t, SeverityHigh.IsValid())
	assert.True(t, SeverityMedium.IsValid())
	assert.True(t, SeverityLow.IsValid())

	assert.False(t, Severity("").IsValid())
	assert.False(t, Severity("critical").IsValid())
	assert.False(t, Severity("High").IsValid())
}

func TestCategoryIsValid(t *testing.T) {
	for _, category := range Categories {
		assert.True(t, category.IsValid(), "category %q", category)
	}
	assert.Len(t, Categories, 6)

	assert.False(t, Category("").IsValid())
	assert.False(t, Category("warranty").IsValid())
	assert.False(t, Category("IP").IsValid())
}

func TestRiskRecordJSON(t *testing.T) {
	record := RiskRecord{
		Title:       "Uncapped Indemnification",
		Description: "No monetary cap on the indemnity.",
		Severity:    SeverityHigh,
		Category:    CategoryLiability,
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	// recommendation is omitted entirely when absent
	assert.NotContains(t, string(data), "recommendation")

	recommendation := "Cap indemnification at fees paid."
	record.Recommendation = &recommendation
	data, err = json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"recommendation":"Cap indemnification at fees paid."`)
}

func TestSummaryJSONKeys(t *testing.T) {
	summary := Summary{
		TotalRisks:        1,
		HighPriorityCount: 1,
		RisksByCategory:   map[Category][]RiskRecord{},
	}

	data, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"totalRisks", "highPriorityCount", "mediumPriorityCount", "lowPriorityCount", "risksByCategory"} {
		assert.Contains(t, decoded, key)
	}
}

func TestRiskReportTermsJSON(t *testing.T) {
	report := RiskReport{Risks: []RiskRecord{}}

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"terms"`)

	report.Terms = &ContractTerms{
		Liability: LiabilityTerms{Capped: true, CapDescription: "capped at fees paid"},
	}
	data, err = json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "terms")

	var terms map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["terms"], &terms))
	for _, key := range []string{"compensation", "termination", "intellectualProperty",
		"restrictiveCovenants", "confidentiality", "liability"} {
		assert.Contains(t, terms, key)
	}
}
