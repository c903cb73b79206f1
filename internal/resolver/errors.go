package resolver

import (
	"errors"
	"fmt"
)

// Reason categorizes resolution failures.
type Reason string

const (
	// ReasonNotFound indicates no unit is registered under the identifier.
	ReasonNotFound Reason = "NOT_FOUND"

	// ReasonContract indicates the unit was found but its factory failed or
	// produced something that does not satisfy the unit contract.
	ReasonContract Reason = "CONTRACT_MISMATCH"
)

// ResolutionError reports that a unit identifier could not be resolved.
// It is fatal: no invocation can run without a resolved unit.
type ResolutionError struct {
	// ID is the identifier that was requested.
	ID string

	// Reason identifies the failure category.
	Reason Reason

	// Err is the underlying cause, if any.
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: resolve unit %q: %v", e.Reason, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: resolve unit %q", e.Reason, e.ID)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsResolutionError returns true if err is or wraps a *ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsNotFound returns true if err is a resolution error for an unknown unit.
func IsNotFound(err error) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Reason == ReasonNotFound
	}
	return false
}
