package repository

import (
	"context"
	"fmt"

	"clauseguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContractRepository handles database operations for contracts
type ContractRepository struct {
	db *pgxpool.Pool
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create creates a new contract record
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (
			user_id, status, filename, mime_type, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		contract.UserID,
		contract.Status,
		contract.Filename,
		contract.MimeType,
		contract.Size,
		contract.StoragePath,
	).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)

	return err
}

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	contract := &models.Contract{}
	query := `
		SELECT id, user_id, status, filename, mime_type, size, storage_path,
			latest_report_id, created_at, updated_at
		FROM contracts
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&contract.ID,
		&contract.UserID,
		&contract.Status,
		&contract.Filename,
		&contract.MimeType,
		&contract.Size,
		&contract.StoragePath,
		&contract.LatestReportID,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return contract, nil
}

// ListByUserID retrieves all contracts for a user
func (r *ContractRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.ContractStatus, limit, offset int) ([]*models.Contract, error) {
	query := `
		SELECT id, user_id, status, filename, mime_type, size, storage_path,
			latest_report_id, created_at, updated_at
		FROM contracts
		WHERE user_id = $1`

	args := []interface{}{userID}
	argIndex := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		contract := &models.Contract{}
		err := rows.Scan(
			&contract.ID,
			&contract.UserID,
			&contract.Status,
			&contract.Filename,
			&contract.MimeType,
			&contract.Size,
			&contract.StoragePath,
			&contract.LatestReportID,
			&contract.CreatedAt,
			&contract.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}

	return contracts, rows.Err()
}

// SetLatestReport records the most recent assembled report for a
// contract and flips its status to assessed
func (r *ContractRepository) SetLatestReport(ctx context.Context, id uuid.UUID, reportID uuid.UUID) error {
	query := `
		UPDATE contracts SET
			latest_report_id = $2,
			status = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, reportID, models.ContractStatusAssessed)
	return err
}

// Delete deletes a contract record
func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contracts WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
