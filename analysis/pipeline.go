package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"clauseguard-backend/models"

	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// Pipeline runs a full analysis: load, segment, extract terms,
// classify, validate, aggregate, assemble. Stages run strictly forward;
// only segment classification fans out.
type Pipeline struct {
	classifier Classifier
	terms      TermsExtractor
	workers    int
}

// PipelineOption is a functional option for Pipeline
type PipelineOption func(*Pipeline)

// WithClassifier sets the classification backend
func WithClassifier(c Classifier) PipelineOption {
	return func(p *Pipeline) {
		p.classifier = c
	}
}

// WithTermsExtractor sets the structured terms extraction backend
func WithTermsExtractor(e TermsExtractor) PipelineOption {
	return func(p *Pipeline) {
		p.terms = e
	}
}

// WithWorkers bounds the number of in-flight segment classifications
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline creates a pipeline. The classifier defaults to the
// built-in rule classifier.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		classifier: NewRuleClassifier(),
		terms:      NewRuleTermsExtractor(),
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractTerms runs the configured terms extractor and folds the
// outcome into the document context. An extraction failure degrades to
// a diagnostic and the regex-derived context stands; only cancellation
// is fatal here.
func (p *Pipeline) ExtractTerms(ctx context.Context, segments []Segment, doc *DocumentContext) (*models.ContractTerms, *models.Diagnostic, error) {
	terms, err := p.terms.ExtractTerms(ctx, segments, doc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		log.Printf("Warning: Terms extraction failed: %v. Continuing without structured terms.", err)
		return nil, &models.Diagnostic{
			Stage:  "terms",
			Reason: err.Error(),
		}, nil
	}
	EnrichContext(doc, terms)
	return terms, nil, nil
}

// ClassifySegments fans classification out over the segment list with
// at most the configured number of in-flight segments. Results land in
// per-segment slots so the final risk order follows document order
// regardless of scheduling. Per-segment failures become skip entries;
// a systemic backend failure or cancellation aborts the whole fan-out
// and discards every partial result, so a report is never built from
// incomplete classification.
func (p *Pipeline) ClassifySegments(ctx context.Context, segments []Segment, doc *DocumentContext) ([][]models.RiskRecord, []*models.Diagnostic, error) {
	results := make([][]models.RiskRecord, len(segments))
	skipped := make([]*models.Diagnostic, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, seg := range segments {
		g.Go(func() error {
			records, err := p.classifier.Classify(gctx, seg, doc)
			if err != nil {
				if errors.Is(err, ErrClassifierUnavailable) ||
					errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Printf("Warning: Skipping segment %s: %v", seg.ID, err)
				skipped[i] = &models.Diagnostic{
					Stage:     "classify",
					SegmentID: seg.ID,
					Reason:    err.Error(),
				}
				return nil
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("classification aborted: %w", err)
	}

	return results, skipped, nil
}

// CollectValidated flattens per-segment candidates in document order,
// dropping records that fail the output contract. Skipped segments and
// rejected records are returned as diagnostics.
func CollectValidated(segments []Segment, results [][]models.RiskRecord, skipped []*models.Diagnostic) ([]models.RiskRecord, []models.Diagnostic) {
	var diagnostics []models.Diagnostic
	var risks []models.RiskRecord
	for i, records := range results {
		if skipped[i] != nil {
			diagnostics = append(diagnostics, *skipped[i])
			continue
		}
		for _, rec := range records {
			if err := ValidateRecord(rec); err != nil {
				log.Printf("Warning: Dropping record %q from segment %s: %v", rec.Title, segments[i].ID, err)
				diagnostics = append(diagnostics, models.Diagnostic{
					Stage:     "validate",
					SegmentID: segments[i].ID,
					Reason:    err.Error(),
				})
				continue
			}
			risks = append(risks, rec)
		}
	}
	return risks, diagnostics
}

// Run analyzes one contract document and returns the assembled report.
// Fatal conditions (unreadable document, unavailable backend,
// cancellation) return an error and no report. Per-segment
// classification failures and invalid candidate records degrade to
// diagnostics on a still-valid report.
func (p *Pipeline) Run(ctx context.Context, r io.Reader, filename string) (*models.RiskReport, error) {
	units, err := LoadDocument(r, filename)
	if err != nil {
		return nil, err
	}

	segments := SegmentDocument(units)
	doc := BuildContext(segments)

	terms, termsDiag, err := p.ExtractTerms(ctx, segments, doc)
	if err != nil {
		return nil, err
	}

	results, skipped, err := p.ClassifySegments(ctx, segments, doc)
	if err != nil {
		return nil, err
	}

	risks, diagnostics := CollectValidated(segments, results, skipped)
	if termsDiag != nil {
		diagnostics = append([]models.Diagnostic{*termsDiag}, diagnostics...)
	}

	report := AssembleReport(risks, diagnostics)
	report.Terms = terms
	return report, nil
}
