package models

import "time"

// Severity is the ordinal exposure level of a risk
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IsValid reports whether s is one of the allowed severity values
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Category is the taxonomy bucket a risk belongs to
type Category string

const (
	CategoryCompensation    Category = "compensation"
	CategoryTermination     Category = "termination"
	CategoryIP              Category = "ip"
	CategoryCovenants       Category = "covenants"
	CategoryConfidentiality Category = "confidentiality"
	CategoryLiability       Category = "liability"
)

// Categories lists every category in its canonical order. Aggregation
// iterates this slice so summaries always carry all six keys.
var Categories = []Category{
	CategoryCompensation,
	CategoryTermination,
	CategoryIP,
	CategoryCovenants,
	CategoryConfidentiality,
	CategoryLiability,
}

// IsValid reports whether c is one of the allowed category values
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RiskRecord is one identified contractual risk
type RiskRecord struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Category       Category `json:"category"`
	Recommendation *string  `json:"recommendation,omitempty"`
}

// Summary holds the derived aggregates over a report's risk list.
// It is computed from the risks, never supplied by a caller.
type Summary struct {
	TotalRisks          int                       `json:"totalRisks"`
	HighPriorityCount   int                       `json:"highPriorityCount"`
	MediumPriorityCount int                       `json:"mediumPriorityCount"`
	LowPriorityCount    int                       `json:"lowPriorityCount"`
	RisksByCategory     map[Category][]RiskRecord `json:"risksByCategory"`
}

// Diagnostic records a recoverable problem encountered during a run:
// a skipped segment or a rejected candidate record.
type Diagnostic struct {
	Stage     string `json:"stage"`
	SegmentID string `json:"segment_id,omitempty"`
	Reason    string `json:"reason"`
}

// RiskReport is the final output of one analysis run. It is assembled
// once and never mutated; a reanalysis produces a new report.
type RiskReport struct {
	Risks       []RiskRecord   `json:"risks"`
	Summary     Summary        `json:"summary"`
	Terms       *ContractTerms `json:"terms,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}
