package services

import (
	"math"

	"adjudication-service/internal/models"
)

// PayoutCalculator derives the monetary outcome for approved claims.
type PayoutCalculator struct {
	defaultFactor float64
}

func NewPayoutCalculator(defaultFactor float64) *PayoutCalculator {
	if defaultFactor <= 0 {
		defaultFactor = 1.0
	}
	return &PayoutCalculator{defaultFactor: defaultFactor}
}

// Calculate returns the payout in the smallest currency unit. Only the
// approve band pays; every other band yields zero. The result never
// exceeds the coverage amount and is monotonic non-decreasing in the
// damage score.
func (p *PayoutCalculator) Calculate(band models.DecisionBand, coverageAmount, damageScore, payoutFactor float64) int64 {
	if band != models.BandAutoApproved {
		return 0
	}
	if coverageAmount <= 0 {
		return 0
	}
	if payoutFactor <= 0 {
		payoutFactor = p.defaultFactor
	}

	payout := coverageAmount * (damageScore / 100) * payoutFactor
	payout = math.Min(math.Max(payout, 0), coverageAmount)

	return int64(math.Round(payout))
}
