package services

import (
	"context"
	"time"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"

	"github.com/google/uuid"
)

type PolicyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error)
}

type PropertyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

// EligibilityResult is the gate's output. ReasonCode is populated for both
// outcomes so the audit trail records why a case was let through.
type EligibilityResult struct {
	Eligible   bool
	ReasonCode string
}

// EligibilityGate validates that a case may be adjudicated at all. It
// never scores, and its failures are terminal: no retry.
type EligibilityGate struct {
	policyStore   PolicyStore
	propertyStore PropertyStore
	rules         config.AdjudicationRules
	now           func() time.Time
}

func NewEligibilityGate(policyStore PolicyStore, propertyStore PropertyStore, rules config.AdjudicationRules) *EligibilityGate {
	return &EligibilityGate{
		policyStore:   policyStore,
		propertyStore: propertyStore,
		rules:         rules,
		now:           time.Now,
	}
}

// CheckClaim gates a damage claim: the requester must hold the policy, the
// policy must be active and in force, and the property must be verified
// (or merely flagged, depending on configuration).
func (g *EligibilityGate) CheckClaim(ctx context.Context, policyID, propertyID uuid.UUID, requesterID string) (EligibilityResult, error) {
	policy, err := g.policyStore.GetByID(ctx, policyID)
	if err != nil {
		return EligibilityResult{ReasonCode: "POLICY_NOT_FOUND"},
			models.NewNotEligibleError("POLICY_NOT_FOUND", "policy not found")
	}

	if policy.HolderID != requesterID {
		return EligibilityResult{ReasonCode: "NOT_POLICY_HOLDER"},
			models.NewNotEligibleError("NOT_POLICY_HOLDER", "requester does not hold this policy")
	}

	if policy.PropertyID != propertyID {
		return EligibilityResult{ReasonCode: "PROPERTY_POLICY_MISMATCH"},
			models.NewNotEligibleError("PROPERTY_POLICY_MISMATCH", "property is not covered by this policy")
	}

	if policy.Status != models.PolicyActive {
		return EligibilityResult{ReasonCode: "POLICY_NOT_ACTIVE"},
			models.NewNotEligibleError("POLICY_NOT_ACTIVE", "policy is not active")
	}

	if !policy.InForceAt(g.now()) {
		return EligibilityResult{ReasonCode: "POLICY_EXPIRED"},
			models.NewNotEligibleError("POLICY_EXPIRED", "policy is outside its validity window")
	}

	property, err := g.propertyStore.GetByID(ctx, propertyID)
	if err != nil {
		return EligibilityResult{ReasonCode: "PROPERTY_NOT_FOUND"},
			models.NewNotEligibleError("PROPERTY_NOT_FOUND", "property not found")
	}

	if !property.Verified {
		if g.rules.BlockUnverifiedProperty {
			return EligibilityResult{ReasonCode: "PROPERTY_UNVERIFIED"},
				models.NewNotEligibleError("PROPERTY_UNVERIFIED", "property has not been verified")
		}
		return EligibilityResult{Eligible: true, ReasonCode: "PROPERTY_UNVERIFIED_FLAGGED"}, nil
	}

	return EligibilityResult{Eligible: true, ReasonCode: "ELIGIBLE"}, nil
}

// CheckVerification gates a document verification: the requester must own
// the property. Verification is how an unverified property becomes
// verified, so the verified flag is not checked here.
func (g *EligibilityGate) CheckVerification(ctx context.Context, propertyID uuid.UUID, requesterID string) (EligibilityResult, error) {
	property, err := g.propertyStore.GetByID(ctx, propertyID)
	if err != nil {
		return EligibilityResult{ReasonCode: "PROPERTY_NOT_FOUND"},
			models.NewNotEligibleError("PROPERTY_NOT_FOUND", "property not found")
	}

	if property.OwnerID != requesterID {
		return EligibilityResult{ReasonCode: "NOT_PROPERTY_OWNER"},
			models.NewNotEligibleError("NOT_PROPERTY_OWNER", "requester does not own this property")
	}

	return EligibilityResult{Eligible: true, ReasonCode: "ELIGIBLE"}, nil
}
