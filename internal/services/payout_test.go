package services

import (
	"testing"

	"adjudication-service/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: BAND GATING
// ============================================================================

func TestPayout_OnlyApprovedBandPays(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	assert.Equal(t, int64(50000), calc.Calculate(models.BandAutoApproved, 100000, 50, 1.0))
	assert.Equal(t, int64(0), calc.Calculate(models.BandUnderReview, 100000, 50, 1.0))
	assert.Equal(t, int64(0), calc.Calculate(models.BandRejected, 100000, 50, 1.0))
}

// ============================================================================
// TEST SUITE 2: BOUNDS AND MONOTONICITY
// ============================================================================

func TestPayout_NeverExceedsCoverage(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	// A payout factor above 1 would overshoot without the cap.
	payout := calc.Calculate(models.BandAutoApproved, 100000, 90, 1.5)

	assert.Equal(t, int64(100000), payout)
}

func TestPayout_FullDamagePaysFullCoverage(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	assert.Equal(t, int64(250000), calc.Calculate(models.BandAutoApproved, 250000, 100, 1.0))
}

func TestPayout_ZeroCoveragePaysNothing(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	assert.Equal(t, int64(0), calc.Calculate(models.BandAutoApproved, 0, 80, 1.0))
}

func TestPayout_MonotonicInScore(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	var previous int64 = -1
	for score := 0.0; score <= 100; score += 2.5 {
		payout := calc.Calculate(models.BandAutoApproved, 500000, score, 1.0)
		assert.GreaterOrEqual(t, payout, previous, "score %.1f", score)
		assert.LessOrEqual(t, payout, int64(500000))
		previous = payout
	}
}

func TestPayout_RoundsToNearestUnit(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	// 1000 * 33.335/100 = 333.35 rounds down; 1000 * 66.65/100 = 666.5
	// rounds half away from zero.
	assert.Equal(t, int64(333), calc.Calculate(models.BandAutoApproved, 1000, 33.335, 1.0))
	assert.Equal(t, int64(667), calc.Calculate(models.BandAutoApproved, 1000, 66.65, 1.0))
}

// ============================================================================
// TEST SUITE 3: PAYOUT FACTOR
// ============================================================================

func TestPayout_FactorScalesResult(t *testing.T) {
	calc := NewPayoutCalculator(1.0)

	assert.Equal(t, int64(25000), calc.Calculate(models.BandAutoApproved, 100000, 50, 0.5))
}

func TestPayout_NonPositiveFactorFallsBackToDefault(t *testing.T) {
	calc := NewPayoutCalculator(0.8)

	assert.Equal(t, int64(40000), calc.Calculate(models.BandAutoApproved, 100000, 50, 0))
	assert.Equal(t, int64(40000), calc.Calculate(models.BandAutoApproved, 100000, 50, -1))
}
