package models

import (
	"github.com/google/uuid"
)

// ClausePattern is one annotated example clause from the pattern
// knowledge base. Patterns are embedded and retrieved by vector
// similarity to give the LLM classifier grounded few-shot context.
type ClausePattern struct {
	ID             uuid.UUID `json:"id"`
	ClauseText     string    `json:"clause_text"`
	Category       Category  `json:"category"`
	Severity       Severity  `json:"severity"`
	Title          string    `json:"title"`
	Recommendation *string   `json:"recommendation,omitempty"`
	SourceDocument string    `json:"source_document"`
	Distance       float64   `json:"distance,omitempty"` // Vector similarity distance
}
