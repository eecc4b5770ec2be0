package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// POLICY & PROPERTY
// ============================================================================

type Policy struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	PolicyNumber   string       `json:"policy_number" db:"policy_number"`
	HolderID       string       `json:"holder_id" db:"holder_id"`
	PropertyID     uuid.UUID    `json:"property_id" db:"property_id"`
	CoverageAmount float64      `json:"coverage_amount" db:"coverage_amount"`
	PayoutFactor   float64      `json:"payout_factor" db:"payout_factor"`
	ValidFrom      int64        `json:"valid_from" db:"valid_from"`
	ValidUntil     int64        `json:"valid_until" db:"valid_until"`
	Status         PolicyStatus `json:"status" db:"status"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// InForceAt reports whether the policy is active and the instant falls
// inside its validity window.
func (p *Policy) InForceAt(at time.Time) bool {
	ts := at.Unix()
	return p.Status == PolicyActive && ts >= p.ValidFrom && ts <= p.ValidUntil
}

type Property struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OwnerID      string          `json:"owner_id" db:"owner_id"`
	Boundary     *GeoJSONPolygon `json:"boundary,omitempty" db:"boundary"`
	AreaHectares float64         `json:"area_hectares" db:"area_hectares"`
	SoilType     *string         `json:"soil_type,omitempty" db:"soil_type"`
	CropType     *string         `json:"crop_type,omitempty" db:"crop_type"`
	Village      *string         `json:"village,omitempty" db:"village"`
	District     *string         `json:"district,omitempty" db:"district"`
	Verified     bool            `json:"verified" db:"verified"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
