package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// VERIFICATION REQUEST (CASE RECORD, DOCUMENT IDENTITY)
// ============================================================================

// SubmittedFields are the identity claims the requester typed in, to be
// checked against what the OCR provider reads off the document.
type SubmittedFields struct {
	OwnerName    string  `json:"owner_name"`
	SurveyNumber string  `json:"survey_number"`
	AreaHectares float64 `json:"area_hectares"`
	Village      string  `json:"village"`
	District     string  `json:"district"`
}

func (s SubmittedFields) Value() (driver.Value, error) { return json.Marshal(s) }

func (s *SubmittedFields) Scan(value any) error { return jsonbScan(value, s) }

// FieldComparison explains how one submitted field scored against its
// extracted counterpart.
type FieldComparison struct {
	Submitted    string  `json:"submitted"`
	Extracted    string  `json:"extracted"`
	MatchPercent float64 `json:"match_percent"`
	Reason       string  `json:"reason"`
}

type FieldComparisonMap map[string]FieldComparison

func (m FieldComparisonMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *FieldComparisonMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	return jsonbScan(value, m)
}

type VerificationRequest struct {
	ID                  uuid.UUID          `json:"id" db:"id"`
	PropertyID          uuid.UUID          `json:"property_id" db:"property_id"`
	RequesterID         string             `json:"requester_id" db:"requester_id"`
	Submitted           SubmittedFields    `json:"submitted" db:"submitted"`
	DocumentKey         string             `json:"document_key" db:"document_key"`
	DocumentType        DocumentType       `json:"document_type" db:"document_type"`
	Attempt             int                `json:"attempt" db:"attempt"`
	PreviousAttemptID   *uuid.UUID         `json:"previous_attempt_id,omitempty" db:"previous_attempt_id"`
	Status              VerificationStatus `json:"status" db:"status"`
	Evidence            EvidenceSnapshot   `json:"evidence" db:"evidence"`
	ExtractedFields     StringMap          `json:"extracted_fields" db:"extracted_fields"`
	FieldComparisons    FieldComparisonMap `json:"field_comparisons" db:"field_comparisons"`
	OverallMatchScore   *float64           `json:"overall_match_score,omitempty" db:"overall_match_score"`
	DecisionReasonCodes StringSlice        `json:"decision_reason_codes" db:"decision_reason_codes"`
	Stages              StageTimestamps    `json:"stages" db:"stages"`
	CreatedAt           time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the verification has reached an immutable status.
// A failed verification may be resubmitted, which creates a new attempt
// record rather than mutating this one.
func (v *VerificationRequest) Terminal() bool {
	switch v.Status {
	case VerificationVerified, VerificationReview, VerificationFailed:
		return true
	}
	return false
}

func (v *VerificationRequest) ProcessingTimeMs() int64 {
	start, ok := v.Stages[StageCreated]
	if !ok {
		return 0
	}
	end, ok := v.Stages[StageDecided]
	if !ok {
		end, ok = v.Stages[StageFailed]
		if !ok {
			return 0
		}
	}
	return end - start
}
