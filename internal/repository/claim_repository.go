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

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	claim.CreatedAt = time.Now()
	claim.UpdatedAt = time.Now()

	query := `
		INSERT INTO adjudication_claim (
			id, policy_id, property_id, requester_id, reported_damage_percent,
			reason_code, description, incident_date, status, evidence,
			computed_damage_score, fraud_flag, fraud_deviation, fraud_note,
			estimated_payout, decision_reason_codes, stages, created_at, updated_at
		) VALUES (
			:id, :policy_id, :property_id, :requester_id, :reported_damage_percent,
			:reason_code, :description, :incident_date, :status, :evidence,
			:computed_damage_score, :fraud_flag, :fraud_deviation, :fraud_note,
			:estimated_payout, :decision_reason_codes, :stages, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, claim)
	if err != nil {
		slog.Error("Failed to create claim", "claim_id", claim.ID, "error", err)
		return fmt.Errorf("failed to create claim: %w", err)
	}

	slog.Info("Created claim",
		"claim_id", claim.ID,
		"policy_id", claim.PolicyID,
		"reported_damage_percent", claim.ReportedDamagePercent)
	return nil
}

func (r *ClaimRepository) Update(ctx context.Context, claim *models.Claim) error {
	claim.UpdatedAt = time.Now()

	query := `
		UPDATE adjudication_claim SET
			status = :status,
			evidence = :evidence,
			computed_damage_score = :computed_damage_score,
			fraud_flag = :fraud_flag,
			fraud_deviation = :fraud_deviation,
			fraud_note = :fraud_note,
			estimated_payout = :estimated_payout,
			decision_reason_codes = :decision_reason_codes,
			stages = :stages,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, claim)
	if err != nil {
		slog.Error("Failed to update claim", "claim_id", claim.ID, "error", err)
		return fmt.Errorf("failed to update claim: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("claim not found: %s", claim.ID)
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	query := `SELECT * FROM adjudication_claim WHERE id = $1`

	err := r.db.GetContext(ctx, &claim, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("claim not found: %s", id)
		}
		slog.Error("Failed to get claim", "claim_id", id, "error", err)
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return &claim, nil
}

func (r *ClaimRepository) ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]models.Claim, error) {
	var claims []models.Claim
	query := `
		SELECT * FROM adjudication_claim
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	err := r.db.SelectContext(ctx, &claims, query, requesterID, limit, offset)
	if err != nil {
		slog.Error("Failed to list claims", "requester_id", requesterID, "error", err)
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

// CountByStatus feeds the dashboard: one row per status with its count.
func (r *ClaimRepository) CountByStatus(ctx context.Context) (map[models.ClaimStatus]int64, error) {
	rows := []struct {
		Status models.ClaimStatus `db:"status"`
		Count  int64              `db:"count"`
	}{}
	query := `SELECT status, COUNT(*) AS count FROM adjudication_claim GROUP BY status`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		slog.Error("Failed to count claims by status", "error", err)
		return nil, fmt.Errorf("failed to count claims by status: %w", err)
	}

	counts := make(map[models.ClaimStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// AveragePayout returns the mean estimated payout over auto-approved claims,
// zero when none exist yet.
func (r *ClaimRepository) AveragePayout(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	query := `
		SELECT AVG(estimated_payout) FROM adjudication_claim
		WHERE status = 'auto_approved' AND estimated_payout IS NOT NULL`

	if err := r.db.GetContext(ctx, &avg, query); err != nil {
		slog.Error("Failed to compute average payout", "error", err)
		return 0, fmt.Errorf("failed to compute average payout: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// CountFraudFlagged returns how many claims the fraud rules annotated.
func (r *ClaimRepository) CountFraudFlagged(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM adjudication_claim WHERE fraud_flag = true`

	if err := r.db.GetContext(ctx, &count, query); err != nil {
		slog.Error("Failed to count fraud flagged claims", "error", err)
		return 0, fmt.Errorf("failed to count fraud flagged claims: %w", err)
	}
	return count, nil
}
