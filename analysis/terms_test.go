package analysis

import (
	"context"
	"testing"

	"clauseguard-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractFromText(t *testing.T, text string) *models.ContractTerms {
	t.Helper()
	segments := SegmentDocument(unitsFromText(text))
	doc := BuildContext(segments)
	terms, err := NewRuleTermsExtractor().ExtractTerms(context.Background(), segments, doc)
	require.NoError(t, err)
	return terms
}

func TestRuleTermsCompensation(t *testing.T) {
	text := "The Company shall pay the Contractor a guaranteed base salary of $90,000 per year, " +
		"plus a 20% commission of net sales collected each quarter."

	terms := extractFromText(t, text)

	comp := terms.Compensation
	assert.Equal(t, "salary", comp.BaseCompensation.Type)
	require.NotNil(t, comp.BaseCompensation.Amount)
	assert.Equal(t, 90000.0, *comp.BaseCompensation.Amount)
	assert.True(t, comp.BaseCompensation.IsGuaranteed)
	assert.True(t, comp.Commission.Present)
	require.NotNil(t, comp.Commission.BaseRate)
	assert.InDelta(t, 0.20, *comp.Commission.BaseRate, 0.001)
}

func TestRuleTermsTermination(t *testing.T) {
	text := "Either party may terminate this Agreement upon thirty (30) days' written notice.\n" +
		"\n" +
		"The Company may terminate this Agreement immediately if the Contractor performs poor-quality work."

	terms := extractFromText(t, text)

	term := terms.Termination
	require.NotNil(t, term.NoticeDays)
	assert.Equal(t, 30, *term.NoticeDays)
	require.NotEmpty(t, term.ImmediateTerminationClauses)
	assert.Contains(t, term.ImmediateTerminationClauses[0], "terminate this Agreement immediately")
}

func TestRuleTermsCovenantDurations(t *testing.T) {
	text := "The Contractor shall not compete with the Company for a period of twenty-four (24) months following termination.\n" +
		"\n" +
		"The Contractor shall not solicit any Company customers or employees for twelve (12) months after the engagement ends."

	terms := extractFromText(t, text)

	cov := terms.RestrictiveCovenants
	assert.True(t, cov.NonCompete.Present)
	require.NotNil(t, cov.NonCompete.DurationMonths)
	assert.Equal(t, 24, *cov.NonCompete.DurationMonths)
	assert.True(t, cov.NonSolicitation.Present)
	require.NotNil(t, cov.NonSolicitation.DurationMonths)
	assert.Equal(t, 12, *cov.NonSolicitation.DurationMonths)
}

func TestRuleTermsConfidentialityAndLiability(t *testing.T) {
	text := "The Contractor shall hold all Confidential Information, including trade secrets and customer lists, " +
		"in strict confidence in perpetuity, except for information that is publicly known.\n" +
		"\n" +
		"The Contractor shall indemnify and hold harmless the Company from all claims. " +
		"The Company's aggregate liability shall be capped at the fees paid hereunder."

	terms := extractFromText(t, text)

	conf := terms.Confidentiality
	assert.True(t, conf.Perpetual)
	assert.Contains(t, conf.Scope, "trade secrets")
	assert.Contains(t, conf.Scope, "customer lists")
	assert.Contains(t, conf.Exceptions, "publicly known")

	liab := terms.Liability
	assert.True(t, liab.IndemnificationRequired)
	assert.Contains(t, liab.IndemnificationScope, "indemnify")
	assert.True(t, liab.Capped)
	assert.NotEmpty(t, liab.CapDescription)
}

func TestRuleTermsIPAssignment(t *testing.T) {
	text := "All work product and inventions created during the engagement shall be the property of the Company. " +
		"The Contractor waives all moral rights in such work product."

	terms := extractFromText(t, text)

	ip := terms.IntellectualProperty
	assert.Equal(t, "company", ip.Ownership)
	assert.Contains(t, ip.AssignmentScope, "all work product")
	assert.True(t, ip.MoralRightsWaived)
}

func TestRuleTermsDeterministic(t *testing.T) {
	segments := SegmentDocument(unitsFromText(fixtureContract))
	doc := BuildContext(segments)

	first, err := NewRuleTermsExtractor().ExtractTerms(context.Background(), segments, doc)
	require.NoError(t, err)
	second, err := NewRuleTermsExtractor().ExtractTerms(context.Background(), segments, doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRuleTermsRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	segments := SegmentDocument(unitsFromText(fixtureContract))
	_, err := NewRuleTermsExtractor().ExtractTerms(ctx, segments, BuildContext(segments))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichContext(t *testing.T) {
	tests := []struct {
		name  string
		terms *models.ContractTerms
		check func(t *testing.T, doc *DocumentContext)
	}{
		{
			name:  "nil terms leave context untouched",
			terms: nil,
			check: func(t *testing.T, doc *DocumentContext) {
				assert.False(t, doc.HasCompensationFloor)
				assert.False(t, doc.HasLiabilityCap)
				assert.False(t, doc.HasPerpetualDuration)
			},
		},
		{
			name: "guaranteed base raises the compensation floor signal",
			terms: &models.ContractTerms{
				Compensation: models.CompensationTerms{
					BaseCompensation: models.BaseCompensation{IsGuaranteed: true},
				},
			},
			check: func(t *testing.T, doc *DocumentContext) {
				assert.True(t, doc.HasCompensationFloor)
			},
		},
		{
			name: "capped liability raises the cap signal",
			terms: &models.ContractTerms{
				Liability: models.LiabilityTerms{Capped: true},
			},
			check: func(t *testing.T, doc *DocumentContext) {
				assert.True(t, doc.HasLiabilityCap)
			},
		},
		{
			name: "perpetual confidentiality raises the duration signal",
			terms: &models.ContractTerms{
				Confidentiality: models.ConfidentialityTerms{Perpetual: true},
			},
			check: func(t *testing.T, doc *DocumentContext) {
				assert.True(t, doc.HasPerpetualDuration)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &DocumentContext{SegmentCount: 1}
			EnrichContext(doc, tt.terms)
			tt.check(t, doc)
		})
	}
}

func TestEnrichContextNeverLowersSignals(t *testing.T) {
	doc := &DocumentContext{
		HasCompensationFloor: true,
		HasLiabilityCap:      true,
		HasPerpetualDuration: true,
	}

	EnrichContext(doc, &models.ContractTerms{})

	assert.True(t, doc.HasCompensationFloor)
	assert.True(t, doc.HasLiabilityCap)
	assert.True(t, doc.HasPerpetualDuration)
}

func TestMergeStrings(t *testing.T) {
	merged := mergeStrings(
		[]string{"Trade Secrets", "customer lists"},
		[]string{"trade secrets", "", "Business Plans"},
	)
	assert.Equal(t, []string{"Trade Secrets", "customer lists", "Business Plans"}, merged)
}

func TestDurationMonths(t *testing.T) {
	tests := []struct {
		text string
		want *int
	}{
		{"for a period of 24 months", intPtr(24)},
		{"for two (2) years after termination", intPtr(24)},
		{"for six (6) months", intPtr(6)},
		{"with no stated duration", nil},
	}

	for _, tt := range tests {
		got := durationMonths(tt.text)
		if tt.want == nil {
			assert.Nil(t, got, tt.text)
			continue
		}
		require.NotNil(t, got, tt.text)
		assert.Equal(t, *tt.want, *got, tt.text)
	}
}

func intPtr(n int) *int { return &n }
