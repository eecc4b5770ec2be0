package models

import (
	"errors"
	"fmt"
)

// AdjudicationError is the user-visible failure contract: a stable machine
// reason code plus a human-readable message. Raw provider errors stay in
// Cause and are logged, never serialized to callers.
type AdjudicationError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AdjudicationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AdjudicationError) Unwrap() error { return e.Cause }

// Sentinel categories. Handlers and the orchestrator branch on these with
// errors.Is; the concrete *AdjudicationError carries the reason code.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotEligible         = errors.New("not eligible")
	ErrEvidenceUnavailable = errors.New("evidence unavailable")
	ErrScoring             = errors.New("scoring error")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrNotFound            = errors.New("not found")
)

type categorizedError struct {
	inner    *AdjudicationError
	category error
}

func (e *categorizedError) Error() string        { return e.inner.Error() }
func (e *categorizedError) Unwrap() error        { return e.inner }
func (e *categorizedError) Is(target error) bool { return target == e.category }

func newCategorized(category error, code, message string, cause error) error {
	return &categorizedError{
		inner:    &AdjudicationError{Code: code, Message: message, Cause: cause},
		category: category,
	}
}

func NewValidationError(code, message string) error {
	return newCategorized(ErrValidation, code, message, nil)
}

func NewNotEligibleError(code, message string) error {
	return newCategorized(ErrNotEligible, code, message, nil)
}

func NewEvidenceUnavailableError(code, message string, cause error) error {
	return newCategorized(ErrEvidenceUnavailable, code, message, cause)
}

func NewScoringError(code, message string) error {
	return newCategorized(ErrScoring, code, message, nil)
}

func NewDuplicateSubmissionError(caseID string) error {
	return newCategorized(ErrDuplicateSubmission, "DUPLICATE_SUBMISSION",
		fmt.Sprintf("an adjudication run is already in flight for case %s", caseID), nil)
}

func NewNotFoundError(code, message string) error {
	return newCategorized(ErrNotFound, code, message, nil)
}

// ReasonCode extracts the stable machine code from an error chain, falling
// back to INTERNAL_ERROR for anything uncategorized.
func ReasonCode(err error) string {
	var ae *AdjudicationError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "INTERNAL_ERROR"
}

// UserMessage extracts the human-readable message without leaking the cause.
func UserMessage(err error) string {
	var ae *AdjudicationError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
