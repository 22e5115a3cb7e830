package analysis

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"clauseguard-backend/models"
)

// rule is one deterministic pattern the rule classifier checks a
// segment against
type rule struct {
	title          string
	category       models.Category
	severity       models.Severity
	match          *regexp.Regexp
	description    string
	recommendation string
	// guard, when set, must also hold for the rule to fire
	guard func(seg Segment, doc *DocumentContext) bool
}

// RuleClassifier classifies segments with keyword and pattern rules.
// It is fully deterministic: identical input bytes produce identical
// risk records, which makes it the default backend and the reference
// for pipeline tests.
type RuleClassifier struct {
	rules []rule
}

// NewRuleClassifier creates a rule classifier with the built-in rule set
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: builtinRules}
}

// Classify checks the segment against every rule and emits one record
// per matching rule. Severity follows the exposure policy: quantifiable
// financial or legal exposure is high, procedural asymmetry is medium,
// low-exposure drafting issues are low.
func (c *RuleClassifier) Classify(ctx context.Context, seg Segment, doc *DocumentContext) ([]models.RiskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []models.RiskRecord
	for _, r := range c.rules {
		loc := r.match.FindStringIndex(seg.Text)
		if loc == nil {
			continue
		}
		if r.guard != nil && !r.guard(seg, doc) {
			continue
		}

		rec := models.RiskRecord{
			Title:       r.title,
			Description: fmt.Sprintf("%s Basis: %q (page %d).", r.description, excerpt(seg.Text, loc[0]), seg.Location.Page),
			Severity:    r.severity,
			Category:    r.category,
		}
		if r.recommendation != "" {
			recommendation := r.recommendation
			rec.Recommendation = &recommendation
		}
		records = append(records, rec)
	}
	return records, nil
}

// excerpt returns a short window of clause text around a match start,
// collapsed to a single line
func excerpt(text string, start int) string {
	const window = 90
	end := start + window
	if end > len(text) {
		end = len(text)
	}
	// back off to a rune boundary so the window never splits a
	// multibyte character
	for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	s := strings.Join(strings.Fields(text[start:end]), " ")
	if end < len(text) {
		s += "..."
	}
	return s
}

var builtinRules = []rule{
	{
		title:       "No Guaranteed Compensation Floor",
		category:    models.CategoryCompensation,
		severity:    models.SeverityHigh,
		match:       regexp.MustCompile(`(?i)\b(commission[- ]only|no (base|guaranteed) (salary|compensation|pay)|solely (on|from) commission)\b`),
		description: "Compensation is commission-only with no guaranteed floor, leaving income fully exposed to sales outcomes.",
		recommendation: "Negotiate a guaranteed base salary or minimum monthly draw " +
			"against commission.",
		guard: func(seg Segment, doc *DocumentContext) bool {
			return !doc.HasCompensationFloor
		},
	},
	{
		title:          "Unilateral Compensation Changes",
		category:       models.CategoryCompensation,
		severity:       models.SeverityMedium,
		match:          regexp.MustCompile(`(?i)\b(company|employer)\s+(may|reserves the right to)\s+(modify|change|adjust|revise)\b[^.]*\b(compensation|commission|rate|pay)`),
		description:    "The company may change compensation terms unilaterally, without the contractor's consent.",
		recommendation: "Require mutual written agreement for any change to compensation terms.",
	},
	{
		title:          "Vague Immediate Termination Grounds",
		category:       models.CategoryTermination,
		severity:       models.SeverityMedium,
		match:          regexp.MustCompile(`(?i)\bterminat\w+\s+(this agreement\s+)?immediately\b|\bimmediate(ly)? terminat|\bwithout (prior )?(notice|cause)\b`),
		description:    "The agreement permits immediate termination on broadly worded or subjective grounds.",
		recommendation: "Define objective termination criteria and add a cure period before termination takes effect.",
	},
	{
		title:          "Broad IP Assignment",
		category:       models.CategoryIP,
		severity:       models.SeverityHigh,
		match:          regexp.MustCompile(`(?i)\ball\s+(intellectual property|inventions?|work product|works?)\b[^.]*\b(assign|belong|property of|vest|owned by)`),
		description:    "All intellectual property, potentially including pre-existing and personal work, is assigned to the company.",
		recommendation: "Add exclusions for pre-existing work and projects created outside the engagement.",
	},
	{
		title:          "Moral Rights Waiver",
		category:       models.CategoryIP,
		severity:       models.SeverityMedium,
		match:          regexp.MustCompile(`(?i)\bwaiv\w+[^.]*\bmoral rights\b|\bmoral rights\b[^.]*\bwaiv`),
		description:    "Moral rights in created works are waived irrevocably.",
		recommendation: "Limit the waiver to works created within the scope of the engagement.",
	},
	{
		title:          "Extended Non-Compete Duration",
		category:       models.CategoryCovenants,
		severity:       models.SeverityHigh,
		match:          regexp.MustCompile(`(?i)\b(non[- ]?compete|not\s+(directly or indirectly\s+)?compete)\b[^.]*\b(two|three|four|five|[2-5])[- ](year|years)\b`),
		description:    "The non-compete restriction runs longer than the customary 6-12 months, restricting future work in the field.",
		recommendation: "Negotiate the non-compete period down to 6-12 months and narrow its geographic scope.",
	},
	{
		title:          "Restrictive Covenant",
		category:       models.CategoryCovenants,
		severity:       models.SeverityMedium,
		match:          regexp.MustCompile(`(?i)\b(non[- ]?solicit\w*|shall not\s+(hire|recruit|solicit))\b`),
		description:    "A non-solicitation covenant restricts dealings with the company's clients or personnel after the engagement ends.",
		recommendation: "Limit the covenant to clients the contractor personally serviced.",
	},
	{
		title:       "Perpetual Confidentiality Obligation",
		category:    models.CategoryConfidentiality,
		severity:    models.SeverityMedium,
		match:       regexp.MustCompile(`(?i)\bconfidential\w*\b`),
		description: "Confidentiality obligations have no expiration and survive indefinitely.",
		recommendation: "Cap confidentiality obligations at 3-5 years after termination, except for trade secrets.",
		guard: func(seg Segment, doc *DocumentContext) bool {
			// Either the clause itself or another clause in the same
			// document makes the duration perpetual.
			return perpetualRe.MatchString(seg.Text) || doc.HasPerpetualDuration
		},
	},
	{
		title:          "Overbroad Definition of Confidential Information",
		category:       models.CategoryConfidentiality,
		severity:       models.SeverityLow,
		match:          regexp.MustCompile(`(?i)\b(any and all|all)\s+information\b[^.]*\bconfidential`),
		description:    "Confidential information is defined to cover effectively all information exchanged, with no carve-outs.",
		recommendation: "Add standard exceptions for public, independently developed, and previously known information.",
	},
	{
		title:       "Uncapped Indemnification",
		category:    models.CategoryLiability,
		severity:    models.SeverityHigh,
		match:       regexp.MustCompile(`(?i)\b(indemnif\w+|hold\s+harmless)\b`),
		description: "The indemnification obligation has no monetary cap, creating unlimited financial exposure.",
		recommendation: "Cap indemnification at fees paid under the agreement and exclude consequential damages.",
		guard: func(seg Segment, doc *DocumentContext) bool {
			if liabCapRe.MatchString(seg.Text) {
				return false
			}
			return !doc.HasLiabilityCap
		},
	},
	{
		title:          "One-Sided Limitation of Liability",
		category:       models.CategoryLiability,
		severity:       models.SeverityMedium,
		match:          regexp.MustCompile(`(?i)\b(company|employer)('s)?\s+(total\s+|aggregate\s+)?liability\b[^.]*\b(limited|capped|shall not exceed)`),
		description:    "Liability is capped for the company only, while the contractor's exposure remains unlimited.",
		recommendation: "Make the limitation of liability mutual.",
	},
}
