package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Segment is a clause-granularity unit of contract text, analyzed
// independently for risk
type Segment struct {
	ID       string
	Text     string
	Unit     string // loader unit the segment came from
	Location Location
}

// minSegmentLen is the rune threshold below which a fragment is merged
// with its neighbor instead of standing alone
const minSegmentLen = 40

var (
	numberedClauseRe = regexp.MustCompile(`^\s*\d+(\.\d+)*[.)]\s+\S`)
	headingWordRe    = regexp.MustCompile(`(?i)^\s*(section|article|clause|exhibit|schedule|appendix)\s+[\divxlc]+`)
)

// SegmentDocument converts loader units into clause-granularity
// segments. Splits on numbered clauses, structural headings, and
// blank-line paragraph breaks; fragments shorter than minSegmentLen
// runes are merged with the preceding segment. Pure and deterministic
// for identical input.
func SegmentDocument(units []Unit) []Segment {
	type block struct {
		text     string
		unit     string
		location Location
	}

	var blocks []block
	for _, unit := range units {
		lines := strings.Split(unit.Text, "\n")
		offset := unit.Location.Offset
		var current []string
		var currentStart int

		flush := func() {
			text := strings.TrimSpace(strings.Join(current, "\n"))
			if text != "" {
				blocks = append(blocks, block{
					text:     text,
					unit:     unit.ID,
					location: Location{Page: unit.Location.Page, Offset: currentStart},
				})
			}
			current = nil
		}

		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				flush()
			case isClauseStart(trimmed) && len(current) > 0:
				flush()
				currentStart = offset
				current = append(current, line)
			default:
				if len(current) == 0 {
					currentStart = offset
				}
				current = append(current, line)
			}
			offset += utf8.RuneCountInString(line) + 1
		}
		flush()
	}

	// Merge fragments below the length threshold into their
	// predecessor. A short leading fragment merges forward instead.
	var merged []block
	for _, b := range blocks {
		if utf8.RuneCountInString(b.text) < minSegmentLen {
			if len(merged) > 0 {
				merged[len(merged)-1].text += "\n" + b.text
			} else {
				merged = append(merged, b)
			}
			continue
		}
		if len(merged) == 1 && utf8.RuneCountInString(merged[0].text) < minSegmentLen {
			b.text = merged[0].text + "\n" + b.text
			b.location = merged[0].location
			merged[0] = b
			continue
		}
		merged = append(merged, b)
	}

	segments := make([]Segment, 0, len(merged))
	for i, b := range merged {
		segments = append(segments, Segment{
			ID:       fmt.Sprintf("seg-%d", i+1),
			Text:     b.text,
			Unit:     b.unit,
			Location: b.location,
		})
	}
	return segments
}

// isClauseStart reports whether a line opens a new clause or section
func isClauseStart(line string) bool {
	if numberedClauseRe.MatchString(line) {
		return true
	}
	if headingWordRe.MatchString(line) {
		return true
	}
	return isUpperHeading(line)
}

// isUpperHeading matches short ALL-CAPS heading lines such as
// "CONFIDENTIALITY" or "TERMINATION OF AGREEMENT"
func isUpperHeading(line string) bool {
	if utf8.RuneCountInString(line) < 4 || utf8.RuneCountInString(line) > 60 {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 4
}
