package models

import "github.com/google/uuid"

// ============================================================================
// API REQUEST / RESPONSE MODELS
// ============================================================================

type SubmitClaimRequest struct {
	PolicyID              uuid.UUID `json:"policy_id"`
	PropertyID            uuid.UUID `json:"property_id"`
	ReportedDamagePercent float64   `json:"reported_damage_percent"`
	ReasonCode            string    `json:"reason_code"`
	Description           string    `json:"description,omitempty"`
	IncidentDate          int64     `json:"incident_date"`
}

func (r *SubmitClaimRequest) Validate() error {
	if r.PolicyID == uuid.Nil {
		return NewValidationError("MISSING_POLICY_ID", "policy_id is required")
	}
	if r.PropertyID == uuid.Nil {
		return NewValidationError("MISSING_PROPERTY_ID", "property_id is required")
	}
	if r.ReportedDamagePercent < 0 || r.ReportedDamagePercent > 100 {
		return NewValidationError("INVALID_DAMAGE_PERCENT", "reported_damage_percent must be within 0-100")
	}
	if r.ReasonCode == "" {
		return NewValidationError("MISSING_REASON_CODE", "reason_code is required")
	}
	if r.IncidentDate <= 0 {
		return NewValidationError("INVALID_INCIDENT_DATE", "incident_date must be a unix timestamp")
	}
	return nil
}

type SubmitVerificationRequest struct {
	PropertyID   uuid.UUID       `json:"property_id"`
	DocumentType DocumentType    `json:"document_type"`
	Submitted    SubmittedFields `json:"submitted"`
}

func (r *SubmitVerificationRequest) Validate() error {
	if r.PropertyID == uuid.Nil {
		return NewValidationError("MISSING_PROPERTY_ID", "property_id is required")
	}
	if r.DocumentType != DocumentLandCertificate && r.DocumentType != DocumentSurveyRecord {
		return NewValidationError("INVALID_DOCUMENT_TYPE", "document_type must be land_certificate or survey_record")
	}
	if r.Submitted.OwnerName == "" {
		return NewValidationError("MISSING_OWNER_NAME", "submitted.owner_name is required")
	}
	if r.Submitted.SurveyNumber == "" {
		return NewValidationError("MISSING_SURVEY_NUMBER", "submitted.survey_number is required")
	}
	if r.Submitted.AreaHectares <= 0 {
		return NewValidationError("INVALID_AREA", "submitted.area_hectares must be positive")
	}
	return nil
}

// CaseResult is the caller-facing adjudication outcome.
type CaseResult struct {
	CaseID           uuid.UUID          `json:"case_id"`
	Kind             CaseKind           `json:"kind"`
	Status           string             `json:"status"`
	Score            *float64           `json:"score,omitempty"`
	Evidence         EvidenceSnapshot   `json:"evidence"`
	EstimatedPayout  *int64             `json:"estimated_payout,omitempty"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	ReasonCodes      []string           `json:"reason_codes"`
	Stages           StageTimestamps    `json:"stages"`
	FieldComparisons FieldComparisonMap `json:"field_comparisons,omitempty"`
}

// ClaimResult maps a claim record to the caller-facing shape.
func ClaimResult(c *Claim) CaseResult {
	return CaseResult{
		CaseID:           c.ID,
		Kind:             CaseKindClaim,
		Status:           string(c.Status),
		Score:            c.ComputedDamageScore,
		Evidence:         c.Evidence,
		EstimatedPayout:  c.EstimatedPayout,
		ProcessingTimeMs: c.ProcessingTimeMs(),
		ReasonCodes:      c.DecisionReasonCodes,
		Stages:           c.Stages,
	}
}

// VerificationResult maps a verification record to the caller-facing shape.
func VerificationResult(v *VerificationRequest) CaseResult {
	return CaseResult{
		CaseID:           v.ID,
		Kind:             CaseKindVerification,
		Status:           string(v.Status),
		Score:            v.OverallMatchScore,
		Evidence:         v.Evidence,
		ProcessingTimeMs: v.ProcessingTimeMs(),
		ReasonCodes:      v.DecisionReasonCodes,
		Stages:           v.Stages,
		FieldComparisons: v.FieldComparisons,
	}
}
