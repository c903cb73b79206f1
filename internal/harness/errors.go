package harness

import (
	"errors"
	"fmt"
)

// ErrHandleBusy is returned when Run is called on a Harness that is already
// running. A unit instance must never be driven by two callers at once.
var ErrHandleBusy = errors.New("harness is already running")

// InitializationError reports that the unit instance could not be constructed.
// It is fatal: no invocation runs.
type InitializationError struct {
	// Unit is the name of the unit type.
	Unit string

	// Worker is the pool worker that failed, or -1 outside a pool.
	Worker int

	// Err is the construction error.
	Err error
}

func (e *InitializationError) Error() string {
	if e.Worker >= 0 {
		return fmt.Sprintf("initialize unit %q (worker %d): %v", e.Unit, e.Worker, e.Err)
	}
	return fmt.Sprintf("initialize unit %q: %v", e.Unit, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// IsInitializationError returns true if err is or wraps an *InitializationError.
func IsInitializationError(err error) bool {
	var ie *InitializationError
	return errors.As(err, &ie)
}

// InvocationError reports the failure of one invocation. It is recorded in the
// invocation's Record and never stops the run.
type InvocationError struct {
	// Index is the invocation index.
	Index int

	// Stage is the step that failed.
	Stage Stage

	// Err is the underlying error.
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// IsInvocationError returns true if err is or wraps an *InvocationError.
func IsInvocationError(err error) bool {
	return asInvocationError(err) != nil
}

func asInvocationError(err error) *InvocationError {
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie
	}
	return nil
}

// PanicError carries a value recovered from a panicking unit.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unit panicked: %v", e.Value)
}
