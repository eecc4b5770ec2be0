package models

type CaseKind string

const (
	CaseKindClaim        CaseKind = "claim"
	CaseKindVerification CaseKind = "verification"
)

type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicyCancelled PolicyStatus = "cancelled"
)

type ClaimStatus string

const (
	ClaimSubmitted    ClaimStatus = "submitted"
	ClaimProcessing   ClaimStatus = "processing"
	ClaimAutoApproved ClaimStatus = "auto_approved"
	ClaimUnderReview  ClaimStatus = "under_review"
	ClaimRejected     ClaimStatus = "rejected"
	ClaimFailed       ClaimStatus = "failed"
)

type VerificationStatus string

const (
	VerificationSubmitted  VerificationStatus = "submitted"
	VerificationProcessing VerificationStatus = "processing"
	VerificationVerified   VerificationStatus = "verified"
	VerificationReview     VerificationStatus = "review"
	VerificationFailed     VerificationStatus = "failed"
)

// CaseStage is a step in the adjudication state machine. Stages advance
// strictly forward; a case that cannot advance moves to StageFailed.
type CaseStage string

const (
	StageCreated            CaseStage = "created"
	StageEligibilityChecked CaseStage = "eligibility_checked"
	StageEvidenceGathering  CaseStage = "evidence_gathering"
	StageScored             CaseStage = "scored"
	StageFraudChecked       CaseStage = "fraud_checked"
	StageDecided            CaseStage = "decided"
	StagePersisted          CaseStage = "persisted"
	StageFailed             CaseStage = "failed"
)

type DecisionBand string

const (
	BandAutoApproved DecisionBand = "auto_approved"
	BandUnderReview  DecisionBand = "under_review"
	BandRejected     DecisionBand = "rejected"
	BandVerified     DecisionBand = "verified"
	BandReview       DecisionBand = "review"
	BandFailed       DecisionBand = "failed"
)

type EvidenceSource string

const (
	EvidenceSatelliteBaseline EvidenceSource = "satellite_baseline"
	EvidenceSatelliteCurrent  EvidenceSource = "satellite_current"
	EvidenceDocumentOCR       EvidenceSource = "document_ocr"
)

type EvidenceQuality string

const (
	EvidenceQualityGood     EvidenceQuality = "good"
	EvidenceQualityDegraded EvidenceQuality = "degraded"
	EvidenceQualityPoor     EvidenceQuality = "poor"
)

type DocumentType string

const (
	DocumentLandCertificate DocumentType = "land_certificate"
	DocumentSurveyRecord    DocumentType = "survey_record"
)
