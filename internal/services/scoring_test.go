package services

import (
	"math"
	"testing"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func testRules() config.AdjudicationRules {
	return config.AdjudicationRules{
		ApproveThreshold:   40,
		MinDamageFloor:     10,
		PayoutFactor:       1.0,
		FraudTolerance:     25,
		HighReportedFloor:  90,
		LowComputedCeiling: 15,
		VerifiedThreshold:  85,
		ReviewThreshold:    70,
		FieldWeights: map[string]float64{
			"owner_name":    3,
			"survey_number": 3,
			"area_hectares": 2,
			"village":       1,
			"district":      1,
		},
	}
}

func testSubmittedFields() models.SubmittedFields {
	return models.SubmittedFields{
		OwnerName:    "Ramesh Kumar",
		SurveyNumber: "SN-482/3",
		AreaHectares: 2.5,
		Village:      "Kothapalli",
		District:     "Guntur",
	}
}

func matchingExtraction() map[string]string {
	return map[string]string{
		"owner_name":    "Ramesh Kumar",
		"survey_number": "SN-482/3",
		"area_hectares": "2.5",
		"village":       "Kothapalli",
		"district":      "Guntur",
	}
}

// ============================================================================
// TEST SUITE 1: DAMAGE SCORE
// ============================================================================

func TestDamageScore_TypicalDegradation(t *testing.T) {
	engine := NewScoringEngine(testRules())

	// Healthy historical canopy dropping to sparse vegetation.
	score, err := engine.DamageScore(0.65, 0.20)

	assert.NoError(t, err)
	assert.InDelta(t, 69.23, score, 0.01)
}

func TestDamageScore_NoDegradation(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, err := engine.DamageScore(0.50, 0.50)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestDamageScore_CurrentHealthierClampsToZero(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, err := engine.DamageScore(0.30, 0.55)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, score, "regrowth must clamp to zero, not go negative")
}

func TestDamageScore_TotalLossClampsToHundred(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, err := engine.DamageScore(0.60, -0.10)

	assert.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestDamageScore_ZeroBaselineDoesNotDivideByZero(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, err := engine.DamageScore(0, 0.10)

	assert.NoError(t, err)
	assert.False(t, math.IsNaN(score))
	assert.False(t, math.IsInf(score, 0))
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestDamageScore_NegativeBaselineStaysFinite(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, err := engine.DamageScore(-0.20, -0.30)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestDamageScore_NonFiniteInputRejected(t *testing.T) {
	engine := NewScoringEngine(testRules())

	_, err := engine.DamageScore(math.NaN(), 0.20)
	assert.ErrorIs(t, err, models.ErrScoring)

	_, err = engine.DamageScore(0.65, math.Inf(1))
	assert.ErrorIs(t, err, models.ErrScoring)
}

func TestDamageScore_Deterministic(t *testing.T) {
	engine := NewScoringEngine(testRules())

	first, err := engine.DamageScore(0.71, 0.33)
	assert.NoError(t, err)

	for range 50 {
		again, err := engine.DamageScore(0.71, 0.33)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// ============================================================================
// TEST SUITE 2: MATCH SCORE
// ============================================================================

func TestMatchScore_ExactMatchScoresHundred(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, comparisons, err := engine.MatchScore(testSubmittedFields(), matchingExtraction())

	assert.NoError(t, err)
	assert.Equal(t, 100.0, score)
	assert.Len(t, comparisons, 5)
	for field, comparison := range comparisons {
		assert.Equal(t, 100.0, comparison.MatchPercent, "field %s", field)
		assert.Equal(t, "exact", comparison.Reason, "field %s", field)
	}
}

func TestMatchScore_CaseAndWhitespaceInsensitive(t *testing.T) {
	engine := NewScoringEngine(testRules())

	extracted := matchingExtraction()
	extracted["owner_name"] = "  RAMESH   kumar "
	extracted["village"] = "KOTHAPALLI"

	score, comparisons, err := engine.MatchScore(testSubmittedFields(), extracted)

	assert.NoError(t, err)
	assert.Equal(t, 100.0, score)
	assert.Equal(t, "exact", comparisons["owner_name"].Reason)
}

func TestMatchScore_MissingFieldScoresZero(t *testing.T) {
	engine := NewScoringEngine(testRules())

	extracted := matchingExtraction()
	delete(extracted, "survey_number")

	score, comparisons, err := engine.MatchScore(testSubmittedFields(), extracted)

	assert.NoError(t, err)
	assert.Equal(t, 0.0, comparisons["survey_number"].MatchPercent)
	assert.Equal(t, "missing", comparisons["survey_number"].Reason)
	// survey_number carries 3 of 10 total weight.
	assert.InDelta(t, 70.0, score, 0.01)
}

func TestMatchScore_EmptyExtractionScoresZeroNotError(t *testing.T) {
	engine := NewScoringEngine(testRules())

	score, comparisons, err := engine.MatchScore(testSubmittedFields(), map[string]string{})

	assert.NoError(t, err)
	assert.Equal(t, 0.0, score)
	for field, comparison := range comparisons {
		assert.Equal(t, "missing", comparison.Reason, "field %s", field)
	}
}

func TestMatchScore_PartialStringMatch(t *testing.T) {
	engine := NewScoringEngine(testRules())

	extracted := matchingExtraction()
	extracted["owner_name"] = "Ramesh Kumaar" // one OCR insertion

	score, comparisons, err := engine.MatchScore(testSubmittedFields(), extracted)

	assert.NoError(t, err)
	assert.Equal(t, "levenshtein", comparisons["owner_name"].Reason)
	assert.Greater(t, comparisons["owner_name"].MatchPercent, 85.0)
	assert.Less(t, comparisons["owner_name"].MatchPercent, 100.0)
	assert.Less(t, score, 100.0)
}

func TestMatchScore_NumericFieldRelativeDifference(t *testing.T) {
	engine := NewScoringEngine(testRules())

	extracted := matchingExtraction()
	extracted["area_hectares"] = "2.0"

	_, comparisons, err := engine.MatchScore(testSubmittedFields(), extracted)

	assert.NoError(t, err)
	assert.Equal(t, "relative_difference", comparisons["area_hectares"].Reason)
	assert.InDelta(t, 80.0, comparisons["area_hectares"].MatchPercent, 0.01)
}

func TestMatchScore_UnparseableNumberFallsBackToStringSimilarity(t *testing.T) {
	engine := NewScoringEngine(testRules())

	extracted := matchingExtraction()
	extracted["area_hectares"] = "two point five"

	score, comparisons, err := engine.MatchScore(testSubmittedFields(), extracted)

	assert.NoError(t, err)
	assert.Equal(t, "unparseable_number", comparisons["area_hectares"].Reason)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestMatchScore_EmptyWeightTableErrors(t *testing.T) {
	rules := testRules()
	rules.FieldWeights = map[string]float64{}
	engine := NewScoringEngine(rules)

	_, _, err := engine.MatchScore(testSubmittedFields(), matchingExtraction())

	assert.ErrorIs(t, err, models.ErrScoring)
}

func TestMatchScore_Deterministic(t *testing.T) {
	engine := NewScoringEngine(testRules())
	extracted := matchingExtraction()
	extracted["owner_name"] = "Ramesch Kumar"
	extracted["district"] = "Gunturr"

	first, _, err := engine.MatchScore(testSubmittedFields(), extracted)
	assert.NoError(t, err)

	for range 50 {
		again, _, err := engine.MatchScore(testSubmittedFields(), extracted)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// ============================================================================
// TEST SUITE 3: SIMILARITY PRIMITIVES
// ============================================================================

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("kitten", "kitten"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 5, levenshtein("", "abcde"))
	assert.Equal(t, 4, levenshtein("abcd", ""))
	assert.Equal(t, 1, levenshtein("survey", "surveys"))
}

func TestStringSimilarity_Bounds(t *testing.T) {
	cases := []struct{ a, b string }{
		{"", ""},
		{"a", ""},
		{"completely", "different"},
		{"same", "same"},
	}
	for _, tc := range cases {
		percent, _ := stringSimilarity(tc.a, tc.b)
		assert.GreaterOrEqual(t, percent, 0.0)
		assert.LessOrEqual(t, percent, 100.0)
	}
}

// ============================================================================
// TEST SUITE 4: NDVI BUNDLE VALIDATION
// ============================================================================

func TestValidateNDVIBundle_MissingMeanRejected(t *testing.T) {
	bundle := models.EvidenceBundle{
		SourceType: models.EvidenceSatelliteBaseline,
		RawMetrics: models.MetricMap{"max": 0.8},
	}

	err := ValidateNDVIBundle(bundle)

	assert.ErrorIs(t, err, models.ErrScoring)
}

func TestValidateNDVIBundle_NonFiniteMeanRejected(t *testing.T) {
	bundle := models.EvidenceBundle{
		SourceType: models.EvidenceSatelliteCurrent,
		RawMetrics: models.MetricMap{"mean": math.NaN()},
	}

	err := ValidateNDVIBundle(bundle)

	assert.ErrorIs(t, err, models.ErrScoring)
}

func TestValidateNDVIBundle_WellFormedAccepted(t *testing.T) {
	bundle := models.EvidenceBundle{
		SourceType: models.EvidenceSatelliteBaseline,
		RawMetrics: models.MetricMap{"mean": 0.62, "valid_pixel_count": 4000},
	}

	assert.NoError(t, ValidateNDVIBundle(bundle))
}
