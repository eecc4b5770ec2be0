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

type PolicyRepository struct {
	db *sqlx.DB
}

func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = time.Now()

	query := `
		INSERT INTO policy (
			id, policy_number, holder_id, property_id, coverage_amount,
			payout_factor, valid_from, valid_until, status, created_at, updated_at
		) VALUES (
			:id, :policy_number, :holder_id, :property_id, :coverage_amount,
			:payout_factor, :valid_from, :valid_until, :status, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, policy)
	if err != nil {
		slog.Error("Failed to create policy", "policy_id", policy.ID, "error", err)
		return fmt.Errorf("failed to create policy: %w", err)
	}

	slog.Info("Created policy", "policy_id", policy.ID, "policy_number", policy.PolicyNumber)
	return nil
}

func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	query := `SELECT * FROM policy WHERE id = $1`

	err := r.db.GetContext(ctx, &policy, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("policy not found: %s", id)
		}
		slog.Error("Failed to get policy", "policy_id", id, "error", err)
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	return &policy, nil
}

func (r *PolicyRepository) GetByPolicyNumber(ctx context.Context, policyNumber string) (*models.Policy, error) {
	var policy models.Policy
	query := `SELECT * FROM policy WHERE policy_number = $1`

	err := r.db.GetContext(ctx, &policy, query, policyNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("policy not found: %s", policyNumber)
		}
		slog.Error("Failed to get policy by number", "policy_number", policyNumber, "error", err)
		return nil, fmt.Errorf("failed to get policy by number: %w", err)
	}
	return &policy, nil
}

func (r *PolicyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PolicyStatus) error {
	query := `UPDATE policy SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Error("Failed to update policy status", "policy_id", id, "error", err)
		return fmt.Errorf("failed to update policy status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("policy not found: %s", id)
	}
	return nil
}
