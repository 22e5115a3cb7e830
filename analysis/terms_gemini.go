package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"clauseguard-backend/models"
)

// defaultChunkChars bounds one extraction prompt's clause text. Long
// contracts are split into sentence-aligned chunks; the per-chunk
// readings are merged afterwards.
const defaultChunkChars = 12000

// GeminiTermsExtractor reads structured terms with the Gemini
// generation API, reusing the classifier's transport, key handling and
// retry policy.
type GeminiTermsExtractor struct {
	classifier *GeminiClassifier
	chunkChars int
}

// GeminiTermsOption is a functional option for GeminiTermsExtractor
type GeminiTermsOption func(*GeminiTermsExtractor)

// TermsWithChunkChars overrides the per-chunk character budget
func TermsWithChunkChars(n int) GeminiTermsOption {
	return func(e *GeminiTermsExtractor) {
		if n > 0 {
			e.chunkChars = n
		}
	}
}

// NewGeminiTermsExtractor creates a terms extractor sharing the given
// classifier's Gemini transport
func NewGeminiTermsExtractor(classifier *GeminiClassifier, opts ...GeminiTermsOption) *GeminiTermsExtractor {
	e := &GeminiTermsExtractor{
		classifier: classifier,
		chunkChars: defaultChunkChars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractTerms analyzes the document chunk by chunk and merges the
// per-chunk readings into one structured terms object. A chunk whose
// answer cannot be parsed is skipped with a logged diagnostic; the call
// fails only when the transport fails or no chunk parsed at all.
func (e *GeminiTermsExtractor) ExtractTerms(ctx context.Context, segments []Segment, doc *DocumentContext) (*models.ContractTerms, error) {
	if e.classifier == nil {
		return nil, fmt.Errorf("%w: gemini classifier not set", ErrClassifierUnavailable)
	}

	var full strings.Builder
	for _, seg := range segments {
		full.WriteString(seg.Text)
		full.WriteString("\n\n")
	}

	chunks := chunkText(full.String(), e.chunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text to analyze")
	}

	merged := &models.ContractTerms{}
	parsed := 0
	for i, chunk := range chunks {
		prompt := buildTermsPrompt(chunk, i, len(chunks))

		answer, err := e.classifier.callGenerationAPI(ctx, prompt, 0)
		if err != nil {
			return nil, err
		}

		var terms models.ContractTerms
		if err := json.Unmarshal([]byte(stripFences(answer)), &terms); err != nil {
			log.Printf("Warning: Failed to parse terms for chunk %d/%d: %v. Skipping chunk.", i+1, len(chunks), err)
			continue
		}
		mergeTerms(merged, &terms)
		parsed++
	}

	if parsed == 0 {
		return nil, fmt.Errorf("no chunk produced a parseable terms analysis")
	}
	return merged, nil
}

// chunkText splits text into sentence-aligned chunks of at most
// maxChars characters. A single oversized sentence becomes its own
// chunk rather than being split mid-sentence.
func chunkText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	sentences := strings.SplitAfter(text, ". ")
	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence) > maxChars {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(sentence)
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}

// stripFences removes the markdown code fences Gemini sometimes wraps
// JSON answers in
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func buildTermsPrompt(chunk string, index, total int) string {
	return fmt.Sprintf(`You are a contract analysis expert. You are reading part %d of %d of a contract. Extract the structured terms present in this part.

CONTRACT TEXT:
%s

Return a JSON object with exactly this structure. Omit any field this part of the contract says nothing about. Use decimals for percentages (0.20, not 20%%), plain numbers for monetary amounts, and months for durations.

{
    "compensation": {
        "baseCompensation": {"type": "salary", "amount": 90000, "currency": "USD", "frequency": "annual", "isGuaranteed": true},
        "commission": {"present": true, "baseRate": 0.2, "capped": false}
    },
    "termination": {
        "noticeDays": 30,
        "immediateTerminationClauses": ["..."],
        "postTerminationObligations": ["..."]
    },
    "intellectualProperty": {"ownership": "company", "assignmentScope": ["..."], "moralRightsWaived": true},
    "restrictiveCovenants": {
        "nonCompete": {"present": true, "durationMonths": 24, "scope": "..."},
        "nonSolicitation": {"present": false}
    },
    "confidentiality": {"scope": ["..."], "perpetual": true, "durationMonths": null, "exceptions": ["..."]},
    "liability": {"indemnificationRequired": true, "indemnificationScope": "...", "capped": false, "capDescription": ""}
}

IMPORTANT: Return only the JSON object, no other text.`, index+1, total, chunk)
}

// mergeTerms folds src into dst: lists union case-insensitively
// preserving first-seen order, scalars keep the first non-empty value,
// booleans latch once any chunk sets them
func mergeTerms(dst, src *models.ContractTerms) {
	mergeBaseCompensation(&dst.Compensation.BaseCompensation, &src.Compensation.BaseCompensation)
	mergeCommission(&dst.Compensation.Commission, &src.Compensation.Commission)

	if dst.Termination.NoticeDays == nil {
		dst.Termination.NoticeDays = src.Termination.NoticeDays
	}
	dst.Termination.ImmediateTerminationClauses = mergeStrings(
		dst.Termination.ImmediateTerminationClauses, src.Termination.ImmediateTerminationClauses)
	dst.Termination.PostTerminationObligations = mergeStrings(
		dst.Termination.PostTerminationObligations, src.Termination.PostTerminationObligations)

	if dst.IntellectualProperty.Ownership == "" {
		dst.IntellectualProperty.Ownership = src.IntellectualProperty.Ownership
	}
	dst.IntellectualProperty.AssignmentScope = mergeStrings(
		dst.IntellectualProperty.AssignmentScope, src.IntellectualProperty.AssignmentScope)
	dst.IntellectualProperty.MoralRightsWaived = dst.IntellectualProperty.MoralRightsWaived ||
		src.IntellectualProperty.MoralRightsWaived

	mergeCovenant(&dst.RestrictiveCovenants.NonCompete, &src.RestrictiveCovenants.NonCompete)
	mergeCovenant(&dst.RestrictiveCovenants.NonSolicitation, &src.RestrictiveCovenants.NonSolicitation)

	dst.Confidentiality.Scope = mergeStrings(dst.Confidentiality.Scope, src.Confidentiality.Scope)
	dst.Confidentiality.Exceptions = mergeStrings(dst.Confidentiality.Exceptions, src.Confidentiality.Exceptions)
	dst.Confidentiality.Perpetual = dst.Confidentiality.Perpetual || src.Confidentiality.Perpetual
	if dst.Confidentiality.DurationMonths == nil {
		dst.Confidentiality.DurationMonths = src.Confidentiality.DurationMonths
	}

	dst.Liability.IndemnificationRequired = dst.Liability.IndemnificationRequired ||
		src.Liability.IndemnificationRequired
	if dst.Liability.IndemnificationScope == "" {
		dst.Liability.IndemnificationScope = src.Liability.IndemnificationScope
	}
	dst.Liability.Capped = dst.Liability.Capped || src.Liability.Capped
	if dst.Liability.CapDescription == "" {
		dst.Liability.CapDescription = src.Liability.CapDescription
	}
}

func mergeBaseCompensation(dst, src *models.BaseCompensation) {
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.Amount == nil {
		dst.Amount = src.Amount
	}
	if dst.Currency == "" {
		dst.Currency = src.Currency
	}
	if dst.Frequency == "" {
		dst.Frequency = src.Frequency
	}
	dst.IsGuaranteed = dst.IsGuaranteed || src.IsGuaranteed
}

func mergeCommission(dst, src *models.Commission) {
	dst.Present = dst.Present || src.Present
	if dst.BaseRate == nil {
		dst.BaseRate = src.BaseRate
	}
	dst.Capped = dst.Capped || src.Capped
}

func mergeCovenant(dst, src *models.Covenant) {
	dst.Present = dst.Present || src.Present
	if dst.DurationMonths == nil {
		dst.DurationMonths = src.DurationMonths
	}
	if dst.Scope == "" {
		dst.Scope = src.Scope
	}
}
