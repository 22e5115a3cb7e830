package repository

import (
	"context"
	"fmt"
	"strings"

	"clauseguard-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ClausePatternRepository handles database operations for the annotated
// clause pattern knowledge base
type ClausePatternRepository struct {
	db *pgxpool.Pool
}

// NewClausePatternRepository creates a new clause pattern repository
func NewClausePatternRepository(db *pgxpool.Pool) *ClausePatternRepository {
	return &ClausePatternRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Insert stores one annotated clause with its embedding
func (r *ClausePatternRepository) Insert(ctx context.Context, pattern *models.ClausePattern, embedding []float64) error {
	if len(embedding) != 768 {
		return fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	query := `
		INSERT INTO clause_patterns (
			clause_text, category, severity, title, recommendation,
			source_document, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
		RETURNING id`

	err := r.db.QueryRow(
		ctx, query,
		pattern.ClauseText,
		pattern.Category,
		pattern.Severity,
		pattern.Title,
		pattern.Recommendation,
		pattern.SourceDocument,
		formatVector(embedding),
	).Scan(&pattern.ID)

	return err
}

// SearchSimilar performs a vector search for the closest annotated
// clauses to a query embedding
func (r *ClausePatternRepository) SearchSimilar(
	ctx context.Context,
	embedding []float64,
	limit int,
) ([]models.ClausePattern, error) {
	if len(embedding) != 768 {
		return nil, fmt.Errorf("embedding must be 768 dimensions, got %d", len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			clause_text,
			category,
			severity,
			title,
			recommendation,
			source_document,
			embedding <=> $1::vector AS distance
		FROM clause_patterns
		ORDER BY
			embedding <=> $1::vector
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, vectorStr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query clause patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.ClausePattern
	for rows.Next() {
		var pattern models.ClausePattern
		err := rows.Scan(
			&pattern.ID,
			&pattern.ClauseText,
			&pattern.Category,
			&pattern.Severity,
			&pattern.Title,
			&pattern.Recommendation,
			&pattern.SourceDocument,
			&pattern.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clause pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clause patterns: %w", err)
	}

	return patterns, nil
}
