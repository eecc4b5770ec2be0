package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// CLAIM (CASE RECORD, DAMAGE ASSESSMENT)
// ============================================================================

type Claim struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	PolicyID              uuid.UUID        `json:"policy_id" db:"policy_id"`
	PropertyID            uuid.UUID        `json:"property_id" db:"property_id"`
	RequesterID           string           `json:"requester_id" db:"requester_id"`
	ReportedDamagePercent float64          `json:"reported_damage_percent" db:"reported_damage_percent"`
	ReasonCode            string           `json:"reason_code" db:"reason_code"`
	Description           *string          `json:"description,omitempty" db:"description"`
	IncidentDate          int64            `json:"incident_date" db:"incident_date"`
	Status                ClaimStatus      `json:"status" db:"status"`
	Evidence              EvidenceSnapshot `json:"evidence" db:"evidence"`
	ComputedDamageScore   *float64         `json:"computed_damage_score,omitempty" db:"computed_damage_score"`
	FraudFlag             bool             `json:"fraud_flag" db:"fraud_flag"`
	FraudDeviation        *float64         `json:"fraud_deviation,omitempty" db:"fraud_deviation"`
	FraudNote             *string          `json:"fraud_note,omitempty" db:"fraud_note"`
	EstimatedPayout       *int64           `json:"estimated_payout,omitempty" db:"estimated_payout"`
	DecisionReasonCodes   StringSlice      `json:"decision_reason_codes" db:"decision_reason_codes"`
	Stages                StageTimestamps  `json:"stages" db:"stages"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the claim has reached an immutable status.
func (c *Claim) Terminal() bool {
	switch c.Status {
	case ClaimAutoApproved, ClaimUnderReview, ClaimRejected, ClaimFailed:
		return true
	}
	return false
}

// ProcessingTimeMs is the wall time between case creation and the decided
// stage, as surfaced to the caller. Zero until decided.
func (c *Claim) ProcessingTimeMs() int64 {
	start, ok := c.Stages[StageCreated]
	if !ok {
		return 0
	}
	end, ok := c.Stages[StageDecided]
	if !ok {
		end, ok = c.Stages[StageFailed]
		if !ok {
			return 0
		}
	}
	return end - start
}
