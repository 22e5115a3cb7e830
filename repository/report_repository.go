package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"clauseguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for assembled risk
// reports. The full report is stored as JSONB; the severity counts are
// also stored as columns for cheap listing queries.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists an assembled report and returns its ID
func (r *ReportRepository) Create(ctx context.Context, contractID uuid.UUID, report *models.RiskReport) (uuid.UUID, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	var id uuid.UUID
	query := `
		INSERT INTO risk_reports (
			contract_id, report, total_risks, high_count, medium_count, low_count
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err = r.db.QueryRow(
		ctx, query,
		contractID,
		payload,
		report.Summary.TotalRisks,
		report.Summary.HighPriorityCount,
		report.Summary.MediumPriorityCount,
		report.Summary.LowPriorityCount,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

// GetByID retrieves a stored report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RiskReport, error) {
	var payload []byte
	query := `SELECT report FROM risk_reports WHERE id = $1`

	if err := r.db.QueryRow(ctx, query, id).Scan(&payload); err != nil {
		return nil, err
	}

	report := &models.RiskReport{}
	if err := json.Unmarshal(payload, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return report, nil
}

// GetLatestByContractID retrieves the most recent report for a contract
func (r *ReportRepository) GetLatestByContractID(ctx context.Context, contractID uuid.UUID) (*models.RiskReport, error) {
	var payload []byte
	query := `
		SELECT report FROM risk_reports
		WHERE contract_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	if err := r.db.QueryRow(ctx, query, contractID).Scan(&payload); err != nil {
		return nil, err
	}

	report := &models.RiskReport{}
	if err := json.Unmarshal(payload, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return report, nil
}
