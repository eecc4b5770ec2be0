package services

import (
	"context"
	"fmt"
	"sync"

	"adjudication-service/internal/models"
)

type ClaimStatsStore interface {
	CountByStatus(ctx context.Context) (map[models.ClaimStatus]int64, error)
	AveragePayout(ctx context.Context) (float64, error)
	CountFraudFlagged(ctx context.Context) (int64, error)
}

type VerificationStatsStore interface {
	CountByStatus(ctx context.Context) (map[models.VerificationStatus]int64, error)
	AverageMatchScore(ctx context.Context) (float64, error)
}

// DashboardStats is the operator-facing snapshot of pipeline throughput.
type DashboardStats struct {
	ClaimsByStatus        map[models.ClaimStatus]int64        `json:"claims_by_status"`
	VerificationsByStatus map[models.VerificationStatus]int64 `json:"verifications_by_status"`
	AveragePayout         float64                             `json:"average_payout"`
	AverageMatchScore     float64                             `json:"average_match_score"`
	FraudFlaggedClaims    int64                               `json:"fraud_flagged_claims"`
}

type StatsService struct {
	claims        ClaimStatsStore
	verifications VerificationStatsStore
}

func NewStatsService(claims ClaimStatsStore, verifications VerificationStatsStore) *StatsService {
	return &StatsService{claims: claims, verifications: verifications}
}

// GetDashboardStats fetches the aggregates concurrently and joins them.
func (s *StatsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		stats    DashboardStats
		firstErr error
	)

	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}

	wg.Add(5)
	go func() {
		defer wg.Done()
		counts, err := s.claims.CountByStatus(ctx)
		record(err)
		mu.Lock()
		stats.ClaimsByStatus = counts
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		counts, err := s.verifications.CountByStatus(ctx)
		record(err)
		mu.Lock()
		stats.VerificationsByStatus = counts
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		avg, err := s.claims.AveragePayout(ctx)
		record(err)
		mu.Lock()
		stats.AveragePayout = avg
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		avg, err := s.verifications.AverageMatchScore(ctx)
		record(err)
		mu.Lock()
		stats.AverageMatchScore = avg
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		count, err := s.claims.CountFraudFlagged(ctx)
		record(err)
		mu.Lock()
		stats.FraudFlaggedClaims = count
		mu.Unlock()
	}()
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("failed to gather dashboard stats: %w", firstErr)
	}
	if stats.ClaimsByStatus == nil {
		stats.ClaimsByStatus = map[models.ClaimStatus]int64{}
	}
	if stats.VerificationsByStatus == nil {
		stats.VerificationsByStatus = map[models.VerificationStatus]int64{}
	}
	return &stats, nil
}
