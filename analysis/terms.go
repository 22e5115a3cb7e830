package analysis

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"clauseguard-backend/models"
)

// TermsExtractor produces a structured reading of a contract's key
// terms from its segment list. Extraction runs once per document,
// before classification fans out.
type TermsExtractor interface {
	ExtractTerms(ctx context.Context, segments []Segment, doc *DocumentContext) (*models.ContractTerms, error)
}

// EnrichContext folds extracted terms into the document context so the
// classifier's cross-segment guards rest on the structured reading, not
// only on the bootstrap regex signals. Enrichment only ever raises a
// signal; a term the extractor missed never erases one the regex found.
func EnrichContext(doc *DocumentContext, terms *models.ContractTerms) {
	if terms == nil {
		return
	}
	if terms.Compensation.BaseCompensation.IsGuaranteed {
		doc.HasCompensationFloor = true
	}
	if terms.Liability.Capped {
		doc.HasLiabilityCap = true
	}
	if terms.Confidentiality.Perpetual {
		doc.HasPerpetualDuration = true
	}
}

var (
	baseSalaryRe   = regexp.MustCompile(`(?i)\b(base salary|annual salary|monthly (salary|fee|retainer))\b[^.]{0,60}?\$\s*([\d,]+(?:\.\d+)?)`)
	commissionRe   = regexp.MustCompile(`(?i)\bcommissions?\b`)
	commissionPct  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*%\s*(commission|of (net |gross )?(sales|revenue))`)
	noticeDaysRe   = regexp.MustCompile(`(?i)\(?(\d+)\)?\s*(?:calendar |business )?days'?\s+(?:prior )?(?:written )?notice\b`)
	immediateRe    = regexp.MustCompile(`(?i)\bterminate\b[^.]*\bimmediately\b|\bimmediate(ly)? terminat`)
	postTermRe     = regexp.MustCompile(`(?i)\b(return all|upon termination|following termination|post-termination)\b`)
	ipAssignRe     = regexp.MustCompile(`(?i)\b(assigns?|hereby assigns?|shall assign|work[- ]for[- ]hire|shall (be|become|remain) the (sole |exclusive )*property of|sole (and exclusive )?property of (the )?(company|employer))\b`)
	moralRightsRe  = regexp.MustCompile(`(?i)\bmoral rights?\b[^.]*\b(waive[sd]?|waiver)\b|\bwaive[sd]?\b[^.]*\bmoral rights?\b`)
	nonCompeteRe   = regexp.MustCompile(`(?i)\b(non-?compet(e|ition)|shall not (directly or indirectly )?(compete|engage in any competing))\b`)
	nonSolicitRe   = regexp.MustCompile(`(?i)\b(non-?solicit(ation)?|shall not solicit)\b`)
	durationRe     = regexp.MustCompile(`(?i)\(?(\d+)\)?\s*(month|year)s?\b`)
	confScopeRe    = regexp.MustCompile(`(?i)\b(trade secrets?|customer lists?|business plans?|financial information|proprietary information|technical data)\b`)
	confExceptRe   = regexp.MustCompile(`(?i)\b(publicly (known|available)|required by law|independently developed|prior knowledge)\b`)
	indemnifyRe    = regexp.MustCompile(`(?i)\bindemnif(y|ies|ication)\b`)
	confClauseRe   = regexp.MustCompile(`(?i)\bconfidential`)
	guaranteedPct  = regexp.MustCompile(`(?i)\bguaranteed\b`)
	allWorkScopeRe = regexp.MustCompile(`(?i)\b(all|any) (work product|inventions?|intellectual property|developments?|creations?|ideas?)\b`)
)

// RuleTermsExtractor reads terms with the same regex machinery the rule
// classifier uses. Fully deterministic and offline; it is the default
// extractor so a rules-only deployment still gets structured terms.
type RuleTermsExtractor struct{}

// NewRuleTermsExtractor creates the deterministic terms extractor
func NewRuleTermsExtractor() *RuleTermsExtractor {
	return &RuleTermsExtractor{}
}

// ExtractTerms scans every segment once and fills in whichever term
// fields the regexes can read. Boolean posture fields reuse the
// document context so the rule path never disagrees with its own
// classifier guards.
func (e *RuleTermsExtractor) ExtractTerms(ctx context.Context, segments []Segment, doc *DocumentContext) (*models.ContractTerms, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := &models.ContractTerms{}
	terms.Compensation.BaseCompensation.IsGuaranteed = doc.HasCompensationFloor
	terms.Liability.Capped = doc.HasLiabilityCap

	for _, seg := range segments {
		e.readCompensation(seg.Text, terms)
		e.readTermination(seg.Text, terms)
		e.readIP(seg.Text, terms)
		e.readCovenants(seg.Text, terms)
		e.readConfidentiality(seg.Text, terms, doc)
		e.readLiability(seg.Text, terms)
	}
	return terms, nil
}

func (e *RuleTermsExtractor) readCompensation(text string, terms *models.ContractTerms) {
	comp := &terms.Compensation
	if m := baseSalaryRe.FindStringSubmatch(text); m != nil {
		if comp.BaseCompensation.Type == "" {
			comp.BaseCompensation.Type = "salary"
		}
		if comp.BaseCompensation.Amount == nil {
			if amount, err := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", ""), 64); err == nil {
				comp.BaseCompensation.Amount = &amount
				comp.BaseCompensation.Currency = "USD"
			}
		}
		if guaranteedPct.MatchString(text) {
			comp.BaseCompensation.IsGuaranteed = true
		}
	}
	if commissionRe.MatchString(text) {
		comp.Commission.Present = true
		if m := commissionPct.FindStringSubmatch(text); m != nil && comp.Commission.BaseRate == nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				rate := pct / 100
				comp.Commission.BaseRate = &rate
			}
		}
	}
}

func (e *RuleTermsExtractor) readTermination(text string, terms *models.ContractTerms) {
	term := &terms.Termination
	if m := noticeDaysRe.FindStringSubmatch(text); m != nil && term.NoticeDays == nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			term.NoticeDays = &days
		}
	}
	if immediateRe.MatchString(text) {
		term.ImmediateTerminationClauses = mergeStrings(
			term.ImmediateTerminationClauses, []string{firstSentence(text, immediateRe)})
	}
	if postTermRe.MatchString(text) {
		term.PostTerminationObligations = mergeStrings(
			term.PostTerminationObligations, []string{firstSentence(text, postTermRe)})
	}
}

func (e *RuleTermsExtractor) readIP(text string, terms *models.ContractTerms) {
	ip := &terms.IntellectualProperty
	if ipAssignRe.MatchString(text) {
		if ip.Ownership == "" {
			ip.Ownership = "company"
		}
		if m := allWorkScopeRe.FindString(text); m != "" {
			ip.AssignmentScope = mergeStrings(ip.AssignmentScope, []string{strings.ToLower(m)})
		}
	}
	if moralRightsRe.MatchString(text) {
		ip.MoralRightsWaived = true
	}
}

func (e *RuleTermsExtractor) readCovenants(text string, terms *models.ContractTerms) {
	cov := &terms.RestrictiveCovenants
	if nonCompeteRe.MatchString(text) {
		cov.NonCompete.Present = true
		if cov.NonCompete.DurationMonths == nil {
			cov.NonCompete.DurationMonths = durationMonths(text)
		}
	}
	if nonSolicitRe.MatchString(text) {
		cov.NonSolicitation.Present = true
		if cov.NonSolicitation.DurationMonths == nil {
			cov.NonSolicitation.DurationMonths = durationMonths(text)
		}
	}
}

func (e *RuleTermsExtractor) readConfidentiality(text string, terms *models.ContractTerms, doc *DocumentContext) {
	conf := &terms.Confidentiality
	if !confClauseRe.MatchString(text) {
		return
	}
	conf.Scope = mergeStrings(conf.Scope, lowerAll(confScopeRe.FindAllString(text, -1)))
	conf.Exceptions = mergeStrings(conf.Exceptions, lowerAll(confExceptRe.FindAllString(text, -1)))
	if perpetualRe.MatchString(text) {
		conf.Perpetual = true
	} else if conf.DurationMonths == nil && !conf.Perpetual {
		conf.DurationMonths = durationMonths(text)
	}
}

func (e *RuleTermsExtractor) readLiability(text string, terms *models.ContractTerms) {
	liab := &terms.Liability
	if indemnifyRe.MatchString(text) {
		liab.IndemnificationRequired = true
		if liab.IndemnificationScope == "" {
			liab.IndemnificationScope = firstSentence(text, indemnifyRe)
		}
	}
	if liabCapRe.MatchString(text) {
		liab.Capped = true
		if liab.CapDescription == "" {
			liab.CapDescription = firstSentence(text, liabCapRe)
		}
	}
}

// durationMonths reads the first month/year duration in the text and
// returns it in months
func durationMonths(text string) *int {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	if strings.EqualFold(m[2], "year") {
		n *= 12
	}
	return &n
}

// firstSentence returns the sentence containing the first match of re,
// collapsed to single spaces
func firstSentence(text string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	start := strings.LastIndex(text[:loc[0]], ". ")
	if start < 0 {
		start = 0
	} else {
		start += 2
	}
	end := strings.Index(text[loc[1]:], ".")
	if end < 0 {
		end = len(text)
	} else {
		end += loc[1] + 1
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

// mergeStrings appends items not already present, comparing
// case-insensitively and preserving first-seen order
func mergeStrings(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range incoming {
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, s)
	}
	return existing
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, strings.ToLower(s))
	}
	return out
}
