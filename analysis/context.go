package analysis

import (
	"regexp"
	"unicode/utf8"
)

// DocumentContext carries cross-segment facts a classifier may need
// when judging a single segment. It is built once before
// classification begins and never mutated afterwards, so it is safe to
// share across parallel classification tasks.
type DocumentContext struct {
	SegmentCount         int
	TotalRunes           int
	HasPerpetualDuration bool // perpetual/indefinite duration language anywhere
	HasLiabilityCap      bool // a limitation-of-liability cap exists somewhere
	HasCompensationFloor bool // guaranteed minimum compensation language exists
}

var (
	perpetualRe = regexp.MustCompile(`(?i)\b(in perpetuity|perpetual|indefinite(ly)?|survive[sd]? (the )?termination|without (any )?time limit|no expiration)\b`)
	liabCapRe   = regexp.MustCompile(`(?i)\b(liability (is|shall be) (capped|limited)|aggregate liability|shall not exceed|cap on (all )?liab|maximum liability)\b`)
	compFloorRe = regexp.MustCompile(`(?i)\b(guaranteed (minimum|base)|minimum (monthly |annual )?(compensation|salary|payment|fee)|base salary of|no less than \$)\b`)
)

// BuildContext precomputes the document-wide signals from the full
// segment list
func BuildContext(segments []Segment) *DocumentContext {
	ctx := &DocumentContext{SegmentCount: len(segments)}
	for _, seg := range segments {
		ctx.TotalRunes += utf8.RuneCountInString(seg.Text)
		if perpetualRe.MatchString(seg.Text) {
			ctx.HasPerpetualDuration = true
		}
		if liabCapRe.MatchString(seg.Text) {
			ctx.HasLiabilityCap = true
		}
		if compFloorRe.MatchString(seg.Text) {
			ctx.HasCompensationFloor = true
		}
	}
	return ctx
}
