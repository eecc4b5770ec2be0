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

type PropertyRepository struct {
	db *sqlx.DB
}

func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	property.CreatedAt = time.Now()
	property.UpdatedAt = time.Now()

	query := `
		INSERT INTO property (
			id, owner_id, boundary, area_hectares, soil_type, crop_type,
			village, district, verified, created_at, updated_at
		) VALUES (
			:id, :owner_id, :boundary, :area_hectares, :soil_type, :crop_type,
			:village, :district, :verified, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, property)
	if err != nil {
		slog.Error("Failed to create property", "property_id", property.ID, "error", err)
		return fmt.Errorf("failed to create property: %w", err)
	}

	slog.Info("Created property", "property_id", property.ID, "owner_id", property.OwnerID)
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	query := `
		SELECT id, owner_id, ST_AsEWKB(boundary) AS boundary, area_hectares,
			soil_type, crop_type, village, district, verified, created_at, updated_at
		FROM property WHERE id = $1`

	err := r.db.GetContext(ctx, &property, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("property not found: %s", id)
		}
		slog.Error("Failed to get property", "property_id", id, "error", err)
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	var properties []models.Property
	query := `
		SELECT id, owner_id, ST_AsEWKB(boundary) AS boundary, area_hectares,
			soil_type, crop_type, village, district, verified, created_at, updated_at
		FROM property WHERE owner_id = $1
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &properties, query, ownerID)
	if err != nil {
		slog.Error("Failed to list properties", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// MarkVerified flips the verified flag after a successful identity
// verification run.
func (r *PropertyRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE property SET verified = true, updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		slog.Error("Failed to mark property verified", "property_id", id, "error", err)
		return fmt.Errorf("failed to mark property verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}
	return nil
}
