package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
)

// ndviEpsilon guards the division when the historical mean is at or below
// zero (bare soil or water baseline).
const ndviEpsilon = 1e-6

// ScoringEngine turns joined evidence into normalized 0-100 scores. All
// methods are pure and deterministic: identical inputs always produce
// identical output, which audit replay depends on.
type ScoringEngine struct {
	rules config.AdjudicationRules
}

func NewScoringEngine(rules config.AdjudicationRules) *ScoringEngine {
	return &ScoringEngine{rules: rules}
}

// DamageScore computes vegetation degradation between the baseline and
// current NDVI means. Negative deltas (current healthier than baseline)
// clamp to 0; the result is always within [0,100].
func (s *ScoringEngine) DamageScore(baselineNDVI, currentNDVI float64) (float64, error) {
	if math.IsNaN(baselineNDVI) || math.IsInf(baselineNDVI, 0) {
		return 0, models.NewScoringError("MALFORMED_EVIDENCE", "baseline NDVI is not a finite number")
	}
	if math.IsNaN(currentNDVI) || math.IsInf(currentNDVI, 0) {
		return 0, models.NewScoringError("MALFORMED_EVIDENCE", "current NDVI is not a finite number")
	}

	denominator := math.Max(baselineNDVI, ndviEpsilon)
	score := (baselineNDVI - currentNDVI) / denominator * 100

	return clamp(score, 0, 100), nil
}

// MatchScore compares submitted identity fields against the OCR-extracted
// mapping. Each field scores a normalized similarity percentage; the
// overall score is the weighted mean over the configured weight table. A
// field missing from the extraction scores exactly 0 with reason
// "missing" — never null or NaN.
func (s *ScoringEngine) MatchScore(submitted models.SubmittedFields, extracted map[string]string) (float64, models.FieldComparisonMap, error) {
	if submitted.AreaHectares < 0 {
		return 0, nil, models.NewScoringError("MALFORMED_EVIDENCE", "submitted area is negative")
	}

	submittedByField := map[string]string{
		"owner_name":    submitted.OwnerName,
		"survey_number": submitted.SurveyNumber,
		"area_hectares": strconv.FormatFloat(submitted.AreaHectares, 'f', -1, 64),
		"village":       submitted.Village,
		"district":      submitted.District,
	}

	comparisons := make(models.FieldComparisonMap, len(s.rules.FieldWeights))
	var weightedSum, totalWeight float64

	// Iterate in sorted order so explanation output is stable.
	fields := make([]string, 0, len(s.rules.FieldWeights))
	for field := range s.rules.FieldWeights {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		weight := s.rules.FieldWeights[field]
		if weight <= 0 {
			continue
		}
		totalWeight += weight

		submittedValue := submittedByField[field]
		extractedValue, ok := extracted[field]
		if !ok || strings.TrimSpace(extractedValue) == "" {
			comparisons[field] = models.FieldComparison{
				Submitted:    submittedValue,
				Extracted:    "",
				MatchPercent: 0,
				Reason:       "missing",
			}
			continue
		}

		var matchPercent float64
		var reason string
		if field == "area_hectares" {
			matchPercent, reason = numericSimilarity(submitted.AreaHectares, extractedValue)
		} else {
			matchPercent, reason = stringSimilarity(submittedValue, extractedValue)
		}

		comparisons[field] = models.FieldComparison{
			Submitted:    submittedValue,
			Extracted:    extractedValue,
			MatchPercent: matchPercent,
			Reason:       reason,
		}
		weightedSum += weight * matchPercent
	}

	if totalWeight == 0 {
		return 0, comparisons, models.NewScoringError("NO_WEIGHTED_FIELDS", "field weight table is empty")
	}

	return clamp(weightedSum/totalWeight, 0, 100), comparisons, nil
}

// stringSimilarity returns a normalized Levenshtein similarity percentage
// over case-folded, whitespace-collapsed values.
func stringSimilarity(a, b string) (float64, string) {
	na, nb := normalizeField(a), normalizeField(b)
	if na == nb {
		return 100, "exact"
	}
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0, "missing"
	}
	distance := levenshtein(na, nb)
	percent := (1 - float64(distance)/float64(maxLen)) * 100
	return clamp(percent, 0, 100), "levenshtein"
}

// numericSimilarity scores an extracted numeric field by relative
// difference, falling back to string similarity when the extraction is not
// parseable as a number.
func numericSimilarity(submitted float64, extracted string) (float64, string) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(extracted), 64)
	if err != nil {
		percent, _ := stringSimilarity(strconv.FormatFloat(submitted, 'f', -1, 64), extracted)
		return percent, "unparseable_number"
	}
	if math.IsNaN(parsed) || parsed < 0 {
		return 0, "invalid_number"
	}
	if submitted == parsed {
		return 100, "exact"
	}
	larger := math.Max(submitted, parsed)
	if larger == 0 {
		return 100, "exact"
	}
	percent := (1 - math.Abs(submitted-parsed)/larger) * 100
	return clamp(percent, 0, 100), "relative_difference"
}

func normalizeField(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

// levenshtein computes edit distance over runes with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ValidateNDVIBundle rejects malformed satellite evidence before scoring.
// A score is never silently defaulted from bad metrics.
func ValidateNDVIBundle(bundle models.EvidenceBundle) error {
	mean, ok := bundle.RawMetrics["mean"]
	if !ok {
		return models.NewScoringError("MALFORMED_EVIDENCE",
			fmt.Sprintf("%s bundle has no mean metric", bundle.SourceType))
	}
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return models.NewScoringError("MALFORMED_EVIDENCE",
			fmt.Sprintf("%s mean metric is not finite", bundle.SourceType))
	}
	if valid, ok := bundle.RawMetrics["valid_pixel_count"]; ok && valid < 0 {
		return models.NewScoringError("MALFORMED_EVIDENCE",
			fmt.Sprintf("%s valid pixel count is negative", bundle.SourceType))
	}
	return nil
}
