package services

import (
	"fmt"
	"math"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
)

// FraudRule is a single anomaly check over a claim's self-reported damage
// versus the computed score. Rules only annotate; they never reject.
type FraudRule interface {
	Name() string
	Evaluate(reported, computed float64) (flagged bool, note string)
}

// FraudSentinel cross-checks self-reported values against computed
// evidence. Claims only. It never fails and never itself rejects — the
// classifier and auditors consume its annotation.
type FraudSentinel struct {
	rules []FraudRule
}

// NewFraudSentinel builds the sentinel with the configured rule set.
func NewFraudSentinel(cfg config.AdjudicationRules) *FraudSentinel {
	return &FraudSentinel{
		rules: []FraudRule{
			deviationRule{tolerance: cfg.FraudTolerance},
			inflatedReportRule{
				reportedFloor:   cfg.HighReportedFloor,
				computedCeiling: cfg.LowComputedCeiling,
			},
		},
	}
}

// Assess runs every rule and returns the combined annotation. Deviation is
// always populated for audit regardless of flagging.
func (s *FraudSentinel) Assess(reportedDamagePercent, computedDamageScore float64) models.FraudAssessment {
	assessment := models.FraudAssessment{
		Deviation: math.Abs(reportedDamagePercent - computedDamageScore),
	}

	for _, rule := range s.rules {
		flagged, note := rule.Evaluate(reportedDamagePercent, computedDamageScore)
		if !flagged {
			continue
		}
		assessment.Flagged = true
		if assessment.Note != "" {
			assessment.Note += "; "
		}
		assessment.Note += note
	}

	return assessment
}

// deviationRule flags when reported and computed damage diverge beyond the
// configured tolerance in points.
type deviationRule struct {
	tolerance float64
}

func (r deviationRule) Name() string { return "deviation" }

func (r deviationRule) Evaluate(reported, computed float64) (bool, string) {
	deviation := math.Abs(reported - computed)
	if deviation <= r.tolerance {
		return false, ""
	}
	return true, fmt.Sprintf("reported damage deviates %.1f points from computed score (tolerance %.1f)",
		deviation, r.tolerance)
}

// inflatedReportRule flags a near-total reported loss against a very low
// computed score.
type inflatedReportRule struct {
	reportedFloor   float64
	computedCeiling float64
}

func (r inflatedReportRule) Name() string { return "inflated_report" }

func (r inflatedReportRule) Evaluate(reported, computed float64) (bool, string) {
	if reported < r.reportedFloor || computed > r.computedCeiling {
		return false, ""
	}
	return true, fmt.Sprintf("reported %.1f%% loss while computed score is %.1f", reported, computed)
}
