package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adjudication-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, request *models.VerificationRequest) error {
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()

	query := `
		INSERT INTO verification_request (
			id, property_id, requester_id, submitted, document_key, document_type,
			attempt, previous_attempt_id, status, evidence, extracted_fields,
			field_comparisons, overall_match_score, decision_reason_codes, stages,
			created_at, updated_at
		) VALUES (
			:id, :property_id, :requester_id, :submitted, :document_key, :document_type,
			:attempt, :previous_attempt_id, :status, :evidence, :extracted_fields,
			:field_comparisons, :overall_match_score, :decision_reason_codes, :stages,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		slog.Error("Failed to create verification request", "verification_id", request.ID, "error", err)
		return fmt.Errorf("failed to create verification request: %w", err)
	}

	slog.Info("Created verification request",
		"verification_id", request.ID,
		"property_id", request.PropertyID,
		"attempt", request.Attempt)
	return nil
}

func (r *VerificationRepository) Update(ctx context.Context, request *models.VerificationRequest) error {
	request.UpdatedAt = time.Now()

	query := `
		UPDATE verification_request SET
			status = :status,
			evidence = :evidence,
			extracted_fields = :extracted_fields,
			field_comparisons = :field_comparisons,
			overall_match_score = :overall_match_score,
			decision_reason_codes = :decision_reason_codes,
			stages = :stages,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		slog.Error("Failed to update verification request", "verification_id", request.ID, "error", err)
		return fmt.Errorf("failed to update verification request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("verification request not found: %s", request.ID)
	}
	return nil
}

func (r *VerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	var request models.VerificationRequest
	query := `SELECT * FROM verification_request WHERE id = $1`

	err := r.db.GetContext(ctx, &request, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("verification request not found: %s", id)
		}
		slog.Error("Failed to get verification request", "verification_id", id, "error", err)
		return nil, fmt.Errorf("failed to get verification request: %w", err)
	}
	return &request, nil
}

func (r *VerificationRepository) ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]models.VerificationRequest, error) {
	var requests []models.VerificationRequest
	query := `
		SELECT * FROM verification_request
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := r.db.SelectContext(ctx, &requests, query, requesterID, limit, offset)
	if err != nil {
		slog.Error("Failed to list verification requests", "requester_id", requesterID, "error", err)
		return nil, fmt.Errorf("failed to list verification requests: %w", err)
	}
	return requests, nil
}

// ListAttempts returns the full attempt chain for a property and requester,
// newest first.
func (r *VerificationRepository) ListAttempts(ctx context.Context, propertyID uuid.UUID, requesterID string) ([]models.VerificationRequest, error) {
	var requests []models.VerificationRequest
	query := `
		SELECT * FROM verification_request
		WHERE property_id = $1 AND requester_id = $2
		ORDER BY attempt DESC`

	err := r.db.SelectContext(ctx, &requests, query, propertyID, requesterID)
	if err != nil {
		slog.Error("Failed to list verification attempts",
			"property_id", propertyID,
			"requester_id", requesterID,
			"error", err)
		return nil, fmt.Errorf("failed to list verification attempts: %w", err)
	}
	return requests, nil
}

func (r *VerificationRepository) CountByStatus(ctx context.Context) (map[models.VerificationStatus]int64, error) {
	rows := []struct {
		Status models.VerificationStatus `db:"status"`
		Count  int64                     `db:"count"`
	}{}
	query := `SELECT status, COUNT(*) AS count FROM verification_request GROUP BY status`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		slog.Error("Failed to count verification requests by status", "error", err)
		return nil, fmt.Errorf("failed to count verification requests by status: %w", err)
	}

	counts := make(map[models.VerificationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// AverageMatchScore returns the mean overall match score across decided
// verification requests, zero when none exist yet.
func (r *VerificationRepository) AverageMatchScore(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	query := `
		SELECT AVG(overall_match_score) FROM verification_request
		WHERE overall_match_score IS NOT NULL`

	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		slog.Error("Failed to compute average match score", "error", err)
		return 0, fmt.Errorf("failed to compute average match score: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
