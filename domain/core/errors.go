package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound               = errors.New("resource not found")
	ErrEntryNotFound          = fmt.Errorf("%w: entry", ErrNotFound)
	ErrVenueNotFound          = fmt.Errorf("%w: venue", ErrNotFound)
	ErrCategoryNotFound       = fmt.Errorf("%w: category", ErrNotFound)
	ErrClassificationNotFound = fmt.Errorf("%w: classification", ErrNotFound)

	// Evidence errors
	ErrInvalidEvidence      = errors.New("invalid evidence")
	ErrInsufficientEvidence = errors.New("insufficient evidence")

	// Policy errors
	ErrInvalidPolicy = errors.New("invalid policy configuration")

	// Determinism errors
	ErrNonConvergence      = errors.New("variance estimation did not converge")
	ErrFingerprintMismatch = errors.New("policy fingerprint mismatch")
	ErrAuditHashMismatch   = errors.New("audit hash mismatch")
	ErrStaleEntry          = errors.New("entry is stale and requires rebuild")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidEvidence, field, reason)
}

func NewInsufficientEvidenceError(got, min int) error {
	return fmt.Errorf("%w: %d studies provided, policy minimum is %d", ErrInsufficientEvidence, got, min)
}

func NewFingerprintMismatchError(stored, computed PolicyFingerprint) error {
	return fmt.Errorf("%w: stored %s, computed %s", ErrFingerprintMismatch, stored.Compact(), computed.Compact())
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEvidenceError(err error) bool {
	return errors.Is(err, ErrInvalidEvidence) ||
		errors.Is(err, ErrInsufficientEvidence)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrFingerprintMismatch) ||
		errors.Is(err, ErrAuditHashMismatch) ||
		errors.Is(err, ErrStaleEntry)
}
