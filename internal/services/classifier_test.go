package services

import (
	"testing"

	"adjudication-service/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: CLAIM CLASSIFICATION
// ============================================================================

func TestClassifyClaim_Bands(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())
	clean := models.FraudAssessment{}

	cases := []struct {
		name     string
		score    float64
		expected models.DecisionBand
	}{
		{"well above threshold", 75, models.BandAutoApproved},
		{"exactly at approve threshold", 40, models.BandAutoApproved},
		{"ambiguous band", 25, models.BandUnderReview},
		{"exactly at damage floor", 10, models.BandUnderReview},
		{"just below damage floor", 9.9, models.BandRejected},
		{"zero damage", 0, models.BandRejected},
	}

	for _, tc := range cases {
		result := classifier.ClassifyClaim(tc.score, clean, models.EvidenceQualityGood)
		assert.Equal(t, tc.expected, result.Band, tc.name)
		assert.NotEmpty(t, result.ReasonCodes, tc.name)
		assert.NotEmpty(t, result.Explanation, tc.name)
	}
}

func TestClassifyClaim_FraudFlagForcesReview(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())
	flagged := models.FraudAssessment{Flagged: true, Deviation: 70, Note: "reported damage deviates"}

	result := classifier.ClassifyClaim(95, flagged, models.EvidenceQualityGood)

	assert.Equal(t, models.BandUnderReview, result.Band,
		"a fraud flag overrides even an approvable score")
	assert.Contains(t, result.ReasonCodes, "FRAUD_FLAGGED")
}

func TestClassifyClaim_PoorEvidenceForcesReview(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())

	result := classifier.ClassifyClaim(60, models.FraudAssessment{}, models.EvidenceQualityPoor)

	assert.Equal(t, models.BandUnderReview, result.Band)
	assert.Contains(t, result.ReasonCodes, "LOW_QUALITY_EVIDENCE")
}

func TestClassifyClaim_DegradedEvidenceDoesNotForceReview(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())

	result := classifier.ClassifyClaim(60, models.FraudAssessment{}, models.EvidenceQualityDegraded)

	assert.Equal(t, models.BandAutoApproved, result.Band,
		"degraded evidence is usable; only poor forces review")
}

func TestClassifyClaim_Pure(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())
	clean := models.FraudAssessment{}

	first := classifier.ClassifyClaim(33.3, clean, models.EvidenceQualityGood)
	for range 20 {
		again := classifier.ClassifyClaim(33.3, clean, models.EvidenceQualityGood)
		assert.Equal(t, first, again)
	}
}

// ============================================================================
// TEST SUITE 2: VERIFICATION CLASSIFICATION
// ============================================================================

func TestClassifyVerification_Bands(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())

	cases := []struct {
		name     string
		score    float64
		expected models.DecisionBand
	}{
		{"strong match", 95, models.BandVerified},
		{"exactly at verified threshold", 85, models.BandVerified},
		{"review band", 75, models.BandReview},
		{"exactly at review threshold", 70, models.BandReview},
		{"just below review threshold", 69.9, models.BandFailed},
		{"no match", 0, models.BandFailed},
	}

	for _, tc := range cases {
		result := classifier.ClassifyVerification(tc.score, models.EvidenceQualityGood)
		assert.Equal(t, tc.expected, result.Band, tc.name)
		assert.NotEmpty(t, result.ReasonCodes, tc.name)
	}
}

func TestClassifyVerification_PoorEvidenceCapsVerifiedAtReview(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())

	result := classifier.ClassifyVerification(92, models.EvidenceQualityPoor)

	assert.Equal(t, models.BandReview, result.Band)
	assert.Contains(t, result.ReasonCodes, "LOW_QUALITY_EVIDENCE")
}

func TestClassifyVerification_PoorEvidenceDoesNotRescueFailure(t *testing.T) {
	classifier := NewDecisionClassifier(testRules())

	result := classifier.ClassifyVerification(30, models.EvidenceQualityPoor)

	assert.Equal(t, models.BandFailed, result.Band,
		"the quality cap only demotes verified, it never promotes")
}
