package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"clauseguard-backend/analysis"
	"clauseguard-backend/models"
	"clauseguard-backend/repository"
	"clauseguard-backend/storage"

	"github.com/google/uuid"
)

// AssessmentService handles risk analysis job logic
type AssessmentService struct {
	contractRepo *repository.ContractRepository
	jobRepo      *repository.AnalysisJobRepository
	reportRepo   *repository.ReportRepository
	storage      storage.Storage
	pipeline     *analysis.Pipeline
	timeout      time.Duration
}

// AssessmentServiceOption is a functional option for AssessmentService
type AssessmentServiceOption func(*AssessmentService)

// AssessmentWithContractRepository sets the contract repository
func AssessmentWithContractRepository(repo *repository.ContractRepository) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.contractRepo = repo
	}
}

// AssessmentWithJobRepository sets the analysis job repository
func AssessmentWithJobRepository(repo *repository.AnalysisJobRepository) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.jobRepo = repo
	}
}

// AssessmentWithReportRepository sets the report repository
func AssessmentWithReportRepository(repo *repository.ReportRepository) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.reportRepo = repo
	}
}

// AssessmentWithStorage sets the file storage backend
func AssessmentWithStorage(store storage.Storage) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.storage = store
	}
}

// AssessmentWithPipeline sets the analysis pipeline
func AssessmentWithPipeline(pipeline *analysis.Pipeline) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.pipeline = pipeline
	}
}

// AssessmentWithTimeout bounds a whole analysis run
func AssessmentWithTimeout(timeout time.Duration) AssessmentServiceOption {
	return func(s *AssessmentService) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(opts ...AssessmentServiceOption) *AssessmentService {
	s := &AssessmentService{
		timeout: analysisTimeoutFromEnv(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// analysisTimeoutFromEnv reads ANALYSIS_TIMEOUT_SECONDS, defaulting to
// two minutes
func analysisTimeoutFromEnv() time.Duration {
	if v := os.Getenv("ANALYSIS_TIMEOUT_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 120 * time.Second
}

var (
	ErrContractNotFound  = errors.New("contract not found")
	ErrJobNotFound       = errors.New("analysis job not found")
	ErrJobCreationFailed = errors.New("failed to create analysis job")
	ErrAssessmentFailed  = errors.New("risk assessment failed")
	ErrReportNotFound    = errors.New("risk report not found")
)

// Pipeline step names, in run order
const (
	stepLoading     = "Loading Document"
	stepSegmenting  = "Segmenting Clauses"
	stepExtracting  = "Extracting Terms"
	stepClassifying = "Classifying Risks"
	stepValidating  = "Validating Records"
	stepAggregating = "Aggregating Summary"
	stepAssembling  = "Assembling Report"
)

var analysisStepNames = []string{
	stepLoading,
	stepSegmenting,
	stepExtracting,
	stepClassifying,
	stepValidating,
	stepAggregating,
	stepAssembling,
}

// StartAssessmentRequest represents a request to start a risk analysis
type StartAssessmentRequest struct {
	ContractID uuid.UUID
}

// StartAssessmentResult represents the result of creating an analysis job
type StartAssessmentResult struct {
	JobID uuid.UUID
}

// StartAssessment creates an analysis job and returns immediately.
// The actual analysis runs in the background via ProcessAssessment.
func (s *AssessmentService) StartAssessment(
	ctx context.Context,
	req StartAssessmentRequest,
) (*StartAssessmentResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	// Validate the contract exists before queueing work for it
	_, err := s.contractRepo.GetByID(ctx, req.ContractID)
	if err != nil {
		return nil, ErrContractNotFound
	}

	job := &models.AnalysisJob{
		ID:         uuid.New(),
		ContractID: req.ContractID,
		Status:     models.JobStatusPending,
		Steps:      initializeSteps(),
	}

	err = s.jobRepo.Create(ctx, job)
	if err != nil {
		return nil, ErrJobCreationFailed
	}

	return &StartAssessmentResult{JobID: job.ID}, nil
}

// initializeSteps creates the pending step list shown while a job runs
func initializeSteps() models.AnalysisSteps {
	steps := make(models.AnalysisSteps, 0, len(analysisStepNames))
	for _, name := range analysisStepNames {
		steps = append(steps, models.AnalysisStep{
			Name:   name,
			Status: "pending",
		})
	}
	return steps
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.AnalysisJob
}

// GetJobStatus retrieves the status of an analysis job
func (s *AssessmentService) GetJobStatus(
	ctx context.Context,
	req GetJobStatusRequest,
) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobStatusResult{Job: job}, nil
}

// GetLatestReportRequest represents a request for a contract's report
type GetLatestReportRequest struct {
	ContractID uuid.UUID
}

// GetLatestReportResult represents the result of fetching a report
type GetLatestReportResult struct {
	Report *models.RiskReport
}

// GetLatestReport retrieves the most recent persisted report for a
// contract
func (s *AssessmentService) GetLatestReport(
	ctx context.Context,
	req GetLatestReportRequest,
) (*GetLatestReportResult, error) {
	if s.reportRepo == nil {
		return nil, errors.New("report repository not set")
	}

	report, err := s.reportRepo.GetLatestByContractID(ctx, req.ContractID)
	if err != nil {
		return nil, ErrReportNotFound
	}

	return &GetLatestReportResult{Report: report}, nil
}

// ProcessAssessment performs the actual analysis work in the background.
// This method runs in a goroutine; the whole run is bounded by the
// configured timeout. On a fatal error the job is marked failed and no
// report row is written.
func (s *AssessmentService) ProcessAssessment(
	ctx context.Context,
	jobID uuid.UUID,
) error {
	if s.jobRepo == nil {
		return errors.New("analysis job repository not set")
	}
	if s.contractRepo == nil {
		return errors.New("contract repository not set")
	}
	if s.reportRepo == nil {
		return errors.New("report repository not set")
	}
	if s.storage == nil {
		return errors.New("storage not set")
	}
	if s.pipeline == nil {
		return errors.New("analysis pipeline not set")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load analysis job: %w", err)
	}

	contract, err := s.contractRepo.GetByID(ctx, job.ContractID)
	if err != nil {
		s.markJobFailed(jobID, "failed to load contract: "+err.Error())
		return err
	}

	err = s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	// 1. Load document text from storage
	if err := s.updateStepStatus(ctx, jobID, stepLoading, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	reader, err := s.storage.Download(ctx, contract.StoragePath)
	if err != nil {
		s.markJobFailed(jobID, "failed to download contract file: "+err.Error())
		return fmt.Errorf("failed to download contract file: %w", err)
	}
	units, err := analysis.LoadDocument(reader, contract.Filename)
	reader.Close()
	if err != nil {
		s.markJobFailed(jobID, err.Error())
		return err
	}
	if err := s.updateStepStatus(ctx, jobID, stepLoading, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	// 2. Segment into clauses and precompute document context
	if err := s.updateStepStatus(ctx, jobID, stepSegmenting, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}
	segments := analysis.SegmentDocument(units)
	doc := analysis.BuildContext(segments)
	log.Printf("Contract %s: %d units, %d segments", contract.ID, len(units), len(segments))
	if err := s.updateStepStatus(ctx, jobID, stepSegmenting, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	// 3. Extract structured terms to sharpen the document context
	if err := s.updateStepStatus(ctx, jobID, stepExtracting, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}
	terms, termsDiag, err := s.pipeline.ExtractTerms(ctx, segments, doc)
	if err != nil {
		s.markJobFailed(jobID, err.Error())
		return fmt.Errorf("%w: %v", ErrAssessmentFailed, err)
	}
	if err := s.updateStepStatus(ctx, jobID, stepExtracting, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	// 4. Classify segments in parallel
	if err := s.updateStepStatus(ctx, jobID, stepClassifying, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}
	results, skipped, err := s.pipeline.ClassifySegments(ctx, segments, doc)
	if err != nil {
		s.markJobFailed(jobID, err.Error())
		return fmt.Errorf("%w: %v", ErrAssessmentFailed, err)
	}
	if err := s.updateStepStatus(ctx, jobID, stepClassifying, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	// 5. Validate candidates against the output contract
	if err := s.updateStepStatus(ctx, jobID, stepValidating, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}
	risks, diagnostics := analysis.CollectValidated(segments, results, skipped)
	if termsDiag != nil {
		diagnostics = append([]models.Diagnostic{*termsDiag}, diagnostics...)
	}
	if err := s.updateStepStatus(ctx, jobID, stepValidating, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	// 6-7. Aggregate the summary and assemble the final report
	if err := s.updateStepStatus(ctx, jobID, stepAggregating, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}
	report := analysis.AssembleReport(risks, diagnostics)
	report.Terms = terms
	if err := s.updateStepStatus(ctx, jobID, stepAggregating, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepAssembling, "in_progress"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}
	reportID, err := s.reportRepo.Create(ctx, contract.ID, report)
	if err != nil {
		s.markJobFailed(jobID, "failed to store report: "+err.Error())
		return err
	}
	if err := s.contractRepo.SetLatestReport(ctx, contract.ID, reportID); err != nil {
		s.markJobFailed(jobID, "failed to link report: "+err.Error())
		return err
	}
	if err := s.updateStepStatus(ctx, jobID, stepAssembling, "completed"); err != nil {
		s.markJobFailed(jobID, "failed to update step: "+err.Error())
		return err
	}

	err = s.jobRepo.Complete(ctx, jobID, reportID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	log.Printf("Assessment completed for contract %s: %d risks (%d high, %d medium, %d low)",
		contract.ID,
		report.Summary.TotalRisks,
		report.Summary.HighPriorityCount,
		report.Summary.MediumPriorityCount,
		report.Summary.LowPriorityCount,
	)
	return nil
}

// updateStepStatus updates the status of a specific step in the job
func (s *AssessmentService) updateStepStatus(ctx context.Context, jobID uuid.UUID, stepName, status string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	steps := job.Steps
	var currentStep string
	if job.CurrentStep != nil {
		currentStep = *job.CurrentStep
	}

	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if status == "in_progress" {
				currentStep = stepName
			}
			break
		}
	}

	return s.jobRepo.UpdateProgress(ctx, jobID, currentStep, steps)
}

// markJobFailed marks a job as failed with an error message. Uses a
// fresh context so the failure is recorded even when the run context
// is already cancelled.
func (s *AssessmentService) markJobFailed(jobID uuid.UUID, errorMessage string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: Failed to mark job %s as failed: %v", jobID, err)
	}
}
