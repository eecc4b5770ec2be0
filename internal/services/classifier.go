package services

import (
	"fmt"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
)

// DecisionClassifier maps (score, flags, evidence quality) to a decision
// band. Pure and table-driven: every threshold comes from configuration,
// and identical inputs always yield the identical band.
type DecisionClassifier struct {
	rules config.AdjudicationRules
}

func NewDecisionClassifier(rules config.AdjudicationRules) *DecisionClassifier {
	return &DecisionClassifier{rules: rules}
}

// ClassifyClaim places a damage score in a band. A fraud flag forces
// review regardless of raw score; low-quality evidence does the same
// rather than hard-failing the case.
func (c *DecisionClassifier) ClassifyClaim(score float64, fraud models.FraudAssessment, quality models.EvidenceQuality) models.DecisionResult {
	result := models.DecisionResult{Score: score}

	if fraud.Flagged {
		result.Band = models.BandUnderReview
		result.ReasonCodes = append(result.ReasonCodes, "FRAUD_FLAGGED")
		result.Explanation = fmt.Sprintf("damage score %.1f held for review: %s", score, fraud.Note)
		return result
	}

	if quality == models.EvidenceQualityPoor {
		result.Band = models.BandUnderReview
		result.ReasonCodes = append(result.ReasonCodes, "LOW_QUALITY_EVIDENCE")
		result.Explanation = fmt.Sprintf("damage score %.1f held for review: evidence quality is poor", score)
		return result
	}

	switch {
	case score >= c.rules.ApproveThreshold:
		result.Band = models.BandAutoApproved
		result.ReasonCodes = append(result.ReasonCodes, "SCORE_ABOVE_APPROVE_THRESHOLD")
		result.Explanation = fmt.Sprintf("damage score %.1f meets approval threshold %.1f",
			score, c.rules.ApproveThreshold)
	case score >= c.rules.MinDamageFloor:
		result.Band = models.BandUnderReview
		result.ReasonCodes = append(result.ReasonCodes, "SCORE_IN_AMBIGUOUS_BAND")
		result.Explanation = fmt.Sprintf("damage score %.1f falls between floor %.1f and approval threshold %.1f",
			score, c.rules.MinDamageFloor, c.rules.ApproveThreshold)
	default:
		result.Band = models.BandRejected
		result.ReasonCodes = append(result.ReasonCodes, "SCORE_BELOW_DAMAGE_FLOOR")
		result.Explanation = fmt.Sprintf("damage score %.1f is below the minimum damage floor %.1f",
			score, c.rules.MinDamageFloor)
	}
	return result
}

// ClassifyVerification places a match score in a band. Low-quality OCR
// evidence caps the outcome at review.
func (c *DecisionClassifier) ClassifyVerification(score float64, quality models.EvidenceQuality) models.DecisionResult {
	result := models.DecisionResult{Score: score}

	switch {
	case score >= c.rules.VerifiedThreshold:
		result.Band = models.BandVerified
		result.ReasonCodes = append(result.ReasonCodes, "MATCH_ABOVE_VERIFIED_THRESHOLD")
		result.Explanation = fmt.Sprintf("match score %.1f meets verified threshold %.1f",
			score, c.rules.VerifiedThreshold)
	case score >= c.rules.ReviewThreshold:
		result.Band = models.BandReview
		result.ReasonCodes = append(result.ReasonCodes, "MATCH_IN_REVIEW_BAND")
		result.Explanation = fmt.Sprintf("match score %.1f falls between review threshold %.1f and verified threshold %.1f",
			score, c.rules.ReviewThreshold, c.rules.VerifiedThreshold)
	default:
		result.Band = models.BandFailed
		result.ReasonCodes = append(result.ReasonCodes, "MATCH_BELOW_REVIEW_THRESHOLD")
		result.Explanation = fmt.Sprintf("match score %.1f is below the review threshold %.1f",
			score, c.rules.ReviewThreshold)
	}

	if quality == models.EvidenceQualityPoor && result.Band == models.BandVerified {
		result.Band = models.BandReview
		result.ReasonCodes = append(result.ReasonCodes, "LOW_QUALITY_EVIDENCE")
		result.Explanation += "; capped at review because document evidence quality is poor"
	}

	return result
}
