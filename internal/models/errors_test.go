package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: CATEGORY MATCHING
// ============================================================================

func TestErrorCategories(t *testing.T) {
	cases := []struct {
		err      error
		category error
	}{
		{NewValidationError("MISSING_POLICY_ID", "policy_id is required"), ErrValidation},
		{NewNotEligibleError("POLICY_EXPIRED", "policy is outside its validity window"), ErrNotEligible},
		{NewEvidenceUnavailableError("OCR_UNAVAILABLE", "provider down", fmt.Errorf("dial tcp")), ErrEvidenceUnavailable},
		{NewScoringError("MALFORMED_EVIDENCE", "mean is not finite"), ErrScoring},
		{NewDuplicateSubmissionError("case-1"), ErrDuplicateSubmission},
		{NewNotFoundError("CLAIM_NOT_FOUND", "claim not found"), ErrNotFound},
	}

	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.category)
	}
}

func TestErrorCategoriesAreDisjoint(t *testing.T) {
	err := NewScoringError("MALFORMED_EVIDENCE", "mean is not finite")

	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrEvidenceUnavailable)
}

func TestCategoriesSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("claim abc: %w", NewNotEligibleError("POLICY_EXPIRED", "expired"))

	assert.ErrorIs(t, err, ErrNotEligible)
	assert.Equal(t, "POLICY_EXPIRED", ReasonCode(err))
}

// ============================================================================
// TEST SUITE 2: REASON CODE AND MESSAGE EXTRACTION
// ============================================================================

func TestReasonCode(t *testing.T) {
	err := NewEvidenceUnavailableError("DOCUMENT_UNAVAILABLE", "could not retrieve the document", fmt.Errorf("minio: object not found"))

	assert.Equal(t, "DOCUMENT_UNAVAILABLE", ReasonCode(err))
	assert.Equal(t, "could not retrieve the document", UserMessage(err))
}

func TestReasonCode_UncategorizedFallsBack(t *testing.T) {
	err := fmt.Errorf("pq: connection refused")

	assert.Equal(t, "INTERNAL_ERROR", ReasonCode(err))
	assert.Equal(t, "internal error", UserMessage(err))
}

func TestCauseStaysOutOfUserMessage(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.4:443: i/o timeout")
	err := NewEvidenceUnavailableError("OCR_UNAVAILABLE", "could not extract fields", cause)

	assert.NotContains(t, UserMessage(err), "dial tcp")
	assert.ErrorIs(t, err, cause, "the cause stays reachable for logs and retry classification")

	var ae *AdjudicationError
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, cause, ae.Cause)
}
