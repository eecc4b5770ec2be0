package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adjudication-service/internal/config"
	"adjudication-service/internal/models"
	"adjudication-service/internal/worker"

	"github.com/google/uuid"
)

type ClaimStore interface {
	Create(ctx context.Context, claim *models.Claim) error
	Update(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]models.Claim, error)
}

type VerificationStore interface {
	Create(ctx context.Context, request *models.VerificationRequest) error
	Update(ctx context.Context, request *models.VerificationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error)
	ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]models.VerificationRequest, error)
}

// PropertyVerifier flips the verified flag on a property once an identity
// verification succeeds, so later claims pass the eligibility gate cleanly.
type PropertyVerifier interface {
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

// StagePublisher emits authoritative stage transitions and decisions so
// the presentation layer can show real progress instead of a cosmetic
// timer. Publishing is best effort and never blocks the pipeline.
type StagePublisher interface {
	PublishStage(kind models.CaseKind, caseID uuid.UUID, stage models.CaseStage)
	PublishDecision(kind models.CaseKind, caseID uuid.UUID, result models.DecisionResult)
}

// AdjudicationOrchestrator drives each case through the stage machine:
// Created -> EligibilityChecked -> EvidenceGathering -> Scored ->
// FraudChecked -> Decided -> Persisted. It is the single writer of a case
// while the case is in flight; the pool bounds how many cases run at once.
type AdjudicationOrchestrator struct {
	gate       *EligibilityGate
	collector  *EvidenceCollector
	scorer     *ScoringEngine
	sentinel   *FraudSentinel
	classifier *DecisionClassifier
	payout     *PayoutCalculator

	claimStore    ClaimStore
	verifStore    VerificationStore
	policyStore   PolicyStore
	propertyStore PropertyStore
	verifier      PropertyVerifier

	locker    CaseLocker
	publisher StagePublisher
	pool      *worker.WorkingPool
	rules     config.AdjudicationRules

	caseTimeout time.Duration
	now         func() time.Time
}

func NewAdjudicationOrchestrator(
	gate *EligibilityGate,
	collector *EvidenceCollector,
	scorer *ScoringEngine,
	sentinel *FraudSentinel,
	classifier *DecisionClassifier,
	payout *PayoutCalculator,
	claimStore ClaimStore,
	verifStore VerificationStore,
	policyStore PolicyStore,
	propertyStore PropertyStore,
	verifier PropertyVerifier,
	locker CaseLocker,
	publisher StagePublisher,
	pool *worker.WorkingPool,
	cfg *config.AdjudicationServiceConfig,
) *AdjudicationOrchestrator {
	return &AdjudicationOrchestrator{
		gate:          gate,
		collector:     collector,
		scorer:        scorer,
		sentinel:      sentinel,
		classifier:    classifier,
		payout:        payout,
		claimStore:    claimStore,
		verifStore:    verifStore,
		policyStore:   policyStore,
		propertyStore: propertyStore,
		verifier:      verifier,
		locker:        locker,
		publisher:     publisher,
		pool:          pool,
		rules:         cfg.Rules,
		caseTimeout:   cfg.WorkerCfg.CaseLockTTL,
		now:           time.Now,
	}
}

// ============================================================================
// SUBMISSION
// ============================================================================

// SubmitClaim validates the request, persists the new case record and
// enqueues its adjudication run. The returned record is in the submitted
// status; callers poll for the outcome.
func (o *AdjudicationOrchestrator) SubmitClaim(ctx context.Context, req models.SubmitClaimRequest, requesterID string) (*models.Claim, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if requesterID == "" {
		return nil, models.NewValidationError("MISSING_REQUESTER", "requester id is required")
	}

	claim := &models.Claim{
		ID:                    uuid.New(),
		PolicyID:              req.PolicyID,
		PropertyID:            req.PropertyID,
		RequesterID:           requesterID,
		ReportedDamagePercent: req.ReportedDamagePercent,
		ReasonCode:            req.ReasonCode,
		IncidentDate:          req.IncidentDate,
		Status:                models.ClaimSubmitted,
		Stages:                models.StageTimestamps{},
	}
	if req.Description != "" {
		claim.Description = &req.Description
	}
	o.touchClaimStage(claim, models.StageCreated)

	if err := o.claimStore.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to create claim record: %w", err)
	}

	if err := o.enqueueClaim(claim.ID); err != nil {
		return nil, err
	}
	return claim, nil
}

// AdjudicateClaim runs (or re-triggers) adjudication for an existing
// claim. A concurrent run for the same case id yields DuplicateSubmission;
// a terminal case returns its existing result unchanged.
func (o *AdjudicationOrchestrator) AdjudicateClaim(ctx context.Context, claimID uuid.UUID) (*models.Claim, error) {
	claim, err := o.claimStore.GetByID(ctx, claimID)
	if err != nil {
		return nil, models.NewNotFoundError("CLAIM_NOT_FOUND", "claim not found")
	}
	if claim.Terminal() {
		return claim, nil
	}
	if err := o.enqueueClaim(claimID); err != nil {
		return nil, err
	}
	return claim, nil
}

func (o *AdjudicationOrchestrator) enqueueClaim(claimID uuid.UUID) error {
	return o.pool.Submit(func(ctx context.Context) error {
		return o.runClaim(ctx, claimID)
	})
}

// SubmitVerification persists a new verification case and enqueues it.
func (o *AdjudicationOrchestrator) SubmitVerification(ctx context.Context, req models.SubmitVerificationRequest, requesterID, documentKey string) (*models.VerificationRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if requesterID == "" {
		return nil, models.NewValidationError("MISSING_REQUESTER", "requester id is required")
	}
	if documentKey == "" {
		return nil, models.NewValidationError("MISSING_DOCUMENT", "a document upload is required")
	}

	verification := &models.VerificationRequest{
		ID:           uuid.New(),
		PropertyID:   req.PropertyID,
		RequesterID:  requesterID,
		Submitted:    req.Submitted,
		DocumentKey:  documentKey,
		DocumentType: req.DocumentType,
		Attempt:      1,
		Status:       models.VerificationSubmitted,
		Stages:       models.StageTimestamps{},
	}
	o.touchVerificationStage(verification, models.StageCreated)

	if err := o.verifStore.Create(ctx, verification); err != nil {
		return nil, fmt.Errorf("failed to create verification record: %w", err)
	}

	if err := o.enqueueVerification(verification.ID); err != nil {
		return nil, err
	}
	return verification, nil
}

// ResubmitVerification starts a fresh attempt from a failed verification.
// The failed record stays immutable; the new attempt is a new versioned
// record pointing back at it.
func (o *AdjudicationOrchestrator) ResubmitVerification(ctx context.Context, previousID uuid.UUID, requesterID string) (*models.VerificationRequest, error) {
	previous, err := o.verifStore.GetByID(ctx, previousID)
	if err != nil {
		return nil, models.NewNotFoundError("VERIFICATION_NOT_FOUND", "verification request not found")
	}
	if previous.RequesterID != requesterID {
		return nil, models.NewNotEligibleError("NOT_REQUESTER", "verification belongs to another requester")
	}
	if previous.Status != models.VerificationFailed {
		return nil, models.NewValidationError("NOT_RESUBMITTABLE",
			"only failed verification requests can be resubmitted")
	}

	attempt := &models.VerificationRequest{
		ID:                uuid.New(),
		PropertyID:        previous.PropertyID,
		RequesterID:       previous.RequesterID,
		Submitted:         previous.Submitted,
		DocumentKey:       previous.DocumentKey,
		DocumentType:      previous.DocumentType,
		Attempt:           previous.Attempt + 1,
		PreviousAttemptID: &previous.ID,
		Status:            models.VerificationSubmitted,
		Stages:            models.StageTimestamps{},
	}
	o.touchVerificationStage(attempt, models.StageCreated)

	if err := o.verifStore.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create resubmission record: %w", err)
	}

	if err := o.enqueueVerification(attempt.ID); err != nil {
		return nil, err
	}
	return attempt, nil
}

func (o *AdjudicationOrchestrator) enqueueVerification(id uuid.UUID) error {
	return o.pool.Submit(func(ctx context.Context) error {
		return o.runVerification(ctx, id)
	})
}

// ============================================================================
// QUERIES
// ============================================================================

// GetClaim fetches a claim for its requester; other callers get not-found.
func (o *AdjudicationOrchestrator) GetClaim(ctx context.Context, claimID uuid.UUID, requesterID string) (*models.Claim, error) {
	claim, err := o.claimStore.GetByID(ctx, claimID)
	if err != nil {
		return nil, models.NewNotFoundError("CLAIM_NOT_FOUND", "claim not found")
	}
	if claim.RequesterID != requesterID {
		return nil, models.NewNotFoundError("CLAIM_NOT_FOUND", "claim not found")
	}
	return claim, nil
}

func (o *AdjudicationOrchestrator) ListClaims(ctx context.Context, requesterID string, limit, offset int) ([]models.Claim, error) {
	return o.claimStore.ListByRequester(ctx, requesterID, limit, offset)
}

// GetVerification fetches a verification request for its requester.
func (o *AdjudicationOrchestrator) GetVerification(ctx context.Context, id uuid.UUID, requesterID string) (*models.VerificationRequest, error) {
	verification, err := o.verifStore.GetByID(ctx, id)
	if err != nil {
		return nil, models.NewNotFoundError("VERIFICATION_NOT_FOUND", "verification request not found")
	}
	if verification.RequesterID != requesterID {
		return nil, models.NewNotFoundError("VERIFICATION_NOT_FOUND", "verification request not found")
	}
	return verification, nil
}

func (o *AdjudicationOrchestrator) ListVerifications(ctx context.Context, requesterID string, limit, offset int) ([]models.VerificationRequest, error) {
	return o.verifStore.ListByRequester(ctx, requesterID, limit, offset)
}

// ============================================================================
// CLAIM PIPELINE
// ============================================================================

func (o *AdjudicationOrchestrator) runClaim(poolCtx context.Context, claimID uuid.UUID) error {
	release, acquired, err := o.locker.Acquire(poolCtx, claimID.String())
	if err != nil {
		return fmt.Errorf("claim %s: %w", claimID, err)
	}
	if !acquired {
		slog.Warn("duplicate adjudication run suppressed", "claim_id", claimID)
		return models.NewDuplicateSubmissionError(claimID.String())
	}
	defer release()

	ctx, cancel := context.WithTimeout(poolCtx, o.caseTimeout)
	defer cancel()

	claim, err := o.claimStore.GetByID(ctx, claimID)
	if err != nil {
		return fmt.Errorf("claim %s vanished before adjudication: %w", claimID, err)
	}
	if claim.Terminal() {
		return nil
	}

	claim.Status = models.ClaimProcessing
	if err := o.claimStore.Update(ctx, claim); err != nil {
		return fmt.Errorf("failed to mark claim processing: %w", err)
	}

	if err := o.adjudicateClaim(ctx, claim); err != nil {
		return o.failClaim(claim, err)
	}
	return nil
}

func (o *AdjudicationOrchestrator) adjudicateClaim(ctx context.Context, claim *models.Claim) error {
	// Eligibility
	gateResult, err := o.gate.CheckClaim(ctx, claim.PolicyID, claim.PropertyID, claim.RequesterID)
	if err != nil {
		claim.Status = models.ClaimRejected
		claim.DecisionReasonCodes = models.StringSlice{gateResult.ReasonCode}
		o.touchClaimStage(claim, models.StageEligibilityChecked)
		o.touchClaimStage(claim, models.StageDecided)
		if persistErr := o.persistClaim(ctx, claim); persistErr != nil {
			return persistErr
		}
		slog.Info("claim not eligible", "claim_id", claim.ID, "reason", gateResult.ReasonCode)
		return nil
	}
	o.touchClaimStage(claim, models.StageEligibilityChecked)
	if !gateResult.Eligible {
		// unreachable: an ineligible gate always errors, kept as a guard
		return models.NewNotEligibleError(gateResult.ReasonCode, "claim is not eligible")
	}

	// Evidence
	o.touchClaimStage(claim, models.StageEvidenceGathering)
	property, err := o.propertyStore.GetByID(ctx, claim.PropertyID)
	if err != nil {
		return models.NewEvidenceUnavailableError("PROPERTY_NOT_FOUND", "property not found", err)
	}

	evidence, err := o.collector.CollectClaimEvidence(ctx, property, claim.IncidentDate)
	if err != nil {
		if ctx.Err() != nil {
			// cancelled mid-fetch: leave the case in processing, never
			// silently terminal
			slog.Warn("claim adjudication cancelled during evidence fetch", "claim_id", claim.ID)
			return ctx.Err()
		}
		return err
	}
	claim.Evidence = evidence

	// Scoring
	baseline, _ := evidence.BySource(models.EvidenceSatelliteBaseline)
	current, _ := evidence.BySource(models.EvidenceSatelliteCurrent)
	if err := ValidateNDVIBundle(baseline); err != nil {
		return err
	}
	if err := ValidateNDVIBundle(current); err != nil {
		return err
	}

	score, err := o.scorer.DamageScore(baseline.RawMetrics["mean"], current.RawMetrics["mean"])
	if err != nil {
		return err
	}
	claim.ComputedDamageScore = &score
	o.touchClaimStage(claim, models.StageScored)

	// Fraud
	fraud := o.sentinel.Assess(claim.ReportedDamagePercent, score)
	claim.FraudFlag = fraud.Flagged
	claim.FraudDeviation = &fraud.Deviation
	if fraud.Note != "" {
		claim.FraudNote = &fraud.Note
	}
	o.touchClaimStage(claim, models.StageFraudChecked)

	// Decision
	decision := o.classifier.ClassifyClaim(score, fraud, evidence.LowestQuality())
	claim.Status = claimStatusForBand(decision.Band)
	claim.DecisionReasonCodes = models.StringSlice(decision.ReasonCodes)

	policy, err := o.policyStore.GetByID(ctx, claim.PolicyID)
	if err != nil {
		return models.NewEvidenceUnavailableError("POLICY_NOT_FOUND", "policy not found", err)
	}
	payout := o.payout.Calculate(decision.Band, policy.CoverageAmount, score, policy.PayoutFactor)
	claim.EstimatedPayout = &payout
	o.touchClaimStage(claim, models.StageDecided)

	if err := o.persistClaim(ctx, claim); err != nil {
		return err
	}
	o.publisher.PublishDecision(models.CaseKindClaim, claim.ID, decision)

	slog.Info("claim adjudicated",
		"claim_id", claim.ID,
		"score", score,
		"band", decision.Band,
		"fraud_flagged", fraud.Flagged,
		"estimated_payout", payout)
	return nil
}

func (o *AdjudicationOrchestrator) persistClaim(ctx context.Context, claim *models.Claim) error {
	o.touchClaimStage(claim, models.StagePersisted)
	if err := o.claimStore.Update(ctx, claim); err != nil {
		return fmt.Errorf("failed to persist claim outcome: %w", err)
	}
	return nil
}

// failClaim marks the case failed unless it was cancelled, in which case
// the record stays in processing for a clean resubmission.
func (o *AdjudicationOrchestrator) failClaim(claim *models.Claim, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}

	claim.Status = models.ClaimFailed
	claim.DecisionReasonCodes = models.StringSlice{models.ReasonCode(cause)}
	o.touchClaimStage(claim, models.StageFailed)

	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.claimStore.Update(persistCtx, claim); err != nil {
		slog.Error("failed to persist failed claim", "claim_id", claim.ID, "error", err)
	}
	slog.Error("claim adjudication failed", "claim_id", claim.ID, "error", cause)
	return cause
}

// ============================================================================
// VERIFICATION PIPELINE
// ============================================================================

func (o *AdjudicationOrchestrator) runVerification(poolCtx context.Context, id uuid.UUID) error {
	release, acquired, err := o.locker.Acquire(poolCtx, id.String())
	if err != nil {
		return fmt.Errorf("verification %s: %w", id, err)
	}
	if !acquired {
		slog.Warn("duplicate adjudication run suppressed", "verification_id", id)
		return models.NewDuplicateSubmissionError(id.String())
	}
	defer release()

	ctx, cancel := context.WithTimeout(poolCtx, o.caseTimeout)
	defer cancel()

	verification, err := o.verifStore.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("verification %s vanished before adjudication: %w", id, err)
	}
	if verification.Terminal() {
		return nil
	}

	verification.Status = models.VerificationProcessing
	if err := o.verifStore.Update(ctx, verification); err != nil {
		return fmt.Errorf("failed to mark verification processing: %w", err)
	}

	if err := o.adjudicateVerification(ctx, verification); err != nil {
		return o.failVerification(verification, err)
	}
	return nil
}

func (o *AdjudicationOrchestrator) adjudicateVerification(ctx context.Context, verification *models.VerificationRequest) error {
	// Eligibility
	gateResult, err := o.gate.CheckVerification(ctx, verification.PropertyID, verification.RequesterID)
	if err != nil {
		verification.Status = models.VerificationFailed
		verification.DecisionReasonCodes = models.StringSlice{gateResult.ReasonCode}
		o.touchVerificationStage(verification, models.StageEligibilityChecked)
		o.touchVerificationStage(verification, models.StageDecided)
		if persistErr := o.persistVerification(ctx, verification); persistErr != nil {
			return persistErr
		}
		slog.Info("verification not eligible", "verification_id", verification.ID, "reason", gateResult.ReasonCode)
		return nil
	}
	o.touchVerificationStage(verification, models.StageEligibilityChecked)

	// Evidence
	o.touchVerificationStage(verification, models.StageEvidenceGathering)
	evidence, extracted, err := o.collector.CollectVerificationEvidence(ctx, verification.DocumentKey, verification.DocumentType)
	if err != nil {
		if ctx.Err() != nil {
			slog.Warn("verification cancelled during evidence fetch", "verification_id", verification.ID)
			return ctx.Err()
		}
		return err
	}
	verification.Evidence = evidence
	verification.ExtractedFields = models.StringMap(extracted)

	// Scoring
	score, comparisons, err := o.scorer.MatchScore(verification.Submitted, extracted)
	if err != nil {
		return err
	}
	verification.OverallMatchScore = &score
	verification.FieldComparisons = comparisons
	o.touchVerificationStage(verification, models.StageScored)

	// No fraud sentinel for verifications; the stage still appears in the
	// trail so both case kinds share one machine.
	o.touchVerificationStage(verification, models.StageFraudChecked)

	// Decision
	decision := o.classifier.ClassifyVerification(score, evidence.LowestQuality())
	verification.Status = verificationStatusForBand(decision.Band)
	verification.DecisionReasonCodes = models.StringSlice(decision.ReasonCodes)
	o.touchVerificationStage(verification, models.StageDecided)

	if err := o.persistVerification(ctx, verification); err != nil {
		return err
	}
	if verification.Status == models.VerificationVerified && o.verifier != nil {
		if err := o.verifier.MarkVerified(ctx, verification.PropertyID); err != nil {
			slog.Error("failed to mark property verified",
				"property_id", verification.PropertyID, "error", err)
		}
	}
	o.publisher.PublishDecision(models.CaseKindVerification, verification.ID, decision)

	slog.Info("verification adjudicated",
		"verification_id", verification.ID,
		"score", score,
		"band", decision.Band)
	return nil
}

func (o *AdjudicationOrchestrator) persistVerification(ctx context.Context, verification *models.VerificationRequest) error {
	o.touchVerificationStage(verification, models.StagePersisted)
	if err := o.verifStore.Update(ctx, verification); err != nil {
		return fmt.Errorf("failed to persist verification outcome: %w", err)
	}
	return nil
}

func (o *AdjudicationOrchestrator) failVerification(verification *models.VerificationRequest, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}

	verification.Status = models.VerificationFailed
	verification.DecisionReasonCodes = models.StringSlice{models.ReasonCode(cause)}
	o.touchVerificationStage(verification, models.StageFailed)

	persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.verifStore.Update(persistCtx, verification); err != nil {
		slog.Error("failed to persist failed verification", "verification_id", verification.ID, "error", err)
	}
	slog.Error("verification adjudication failed", "verification_id", verification.ID, "error", cause)
	return cause
}

// ============================================================================
// STAGE BOOKKEEPING
// ============================================================================

func (o *AdjudicationOrchestrator) touchClaimStage(claim *models.Claim, stage models.CaseStage) {
	if claim.Stages == nil {
		claim.Stages = models.StageTimestamps{}
	}
	claim.Stages[stage] = o.now().UnixMilli()
	if o.publisher != nil {
		o.publisher.PublishStage(models.CaseKindClaim, claim.ID, stage)
	}
}

func (o *AdjudicationOrchestrator) touchVerificationStage(verification *models.VerificationRequest, stage models.CaseStage) {
	if verification.Stages == nil {
		verification.Stages = models.StageTimestamps{}
	}
	verification.Stages[stage] = o.now().UnixMilli()
	if o.publisher != nil {
		o.publisher.PublishStage(models.CaseKindVerification, verification.ID, stage)
	}
}

func claimStatusForBand(band models.DecisionBand) models.ClaimStatus {
	switch band {
	case models.BandAutoApproved:
		return models.ClaimAutoApproved
	case models.BandUnderReview:
		return models.ClaimUnderReview
	case models.BandRejected:
		return models.ClaimRejected
	default:
		return models.ClaimFailed
	}
}

func verificationStatusForBand(band models.DecisionBand) models.VerificationStatus {
	switch band {
	case models.BandVerified:
		return models.VerificationVerified
	case models.BandReview:
		return models.VerificationReview
	default:
		return models.VerificationFailed
	}
}
