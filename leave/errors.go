/*
errors.go - Centralized error taxonomy for the leave engine

PURPOSE:
  All engine errors in one place. Callers branch with errors.Is against
  the sentinels; structured errors carry details and unwrap to them.

TAXONOMY:
  ErrValidation             Bad input: inverted ranges, short reasons,
                            insufficient balance (see ErrInsufficientBalance)
  ErrInvalidStateTransition Operation incompatible with current status,
                            including stale-precondition races
  ErrUnauthorized           ApprovalAuthority denial
  ErrNotFound               Missing employee, request, or delegation

  All validation happens before any mutation. A failed operation leaves
  no partial state behind.

SEE ALSO:
  - lifecycle.go: raises transition and validation errors
  - authority.go: raises Unauthorized
  - store.go: ErrConcurrentUpdate contract for conditional writes
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNotFound               = errors.New("not found")

	// ErrInsufficientBalance is a validation failure: the request exceeds
	// the available balance for its leave type.
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrValidation)

	// ErrConcurrentUpdate is returned by stores when a conditional update
	// finds the record changed since it was read. The lifecycle surfaces
	// it as an invalid state transition: the precondition went stale.
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a rejected input with a stable code.
type ValidationError struct {
	Code    string // e.g. "invalid_range", "reason_too_short"
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationf(code, format string, args ...any) error {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalanceError details a balance shortage at submission.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	LeaveType  string
	Available  Amount
	Requested  Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %v, requested %v",
		e.LeaveType, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// StateTransitionError reports an operation attempted against a request
// whose current status does not permit it. No mutation has occurred.
type StateTransitionError struct {
	RequestID RequestID
	Current   string // current (base or modification) status
	Attempted string // the operation that was attempted
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in state %q", e.Attempted, e.RequestID, e.Current)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// UnauthorizedError reports an ApprovalAuthority denial.
type UnauthorizedError struct {
	ApproverID EmployeeID
	EmployeeID EmployeeID
	Reason     string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("approver %s may not act on requests of %s: %s",
		e.ApproverID, e.EmployeeID, e.Reason)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// NotFoundError reports a missing record.
type NotFoundError struct {
	Kind string // "employee", "request", "delegation"
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault rather
// than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound)
}
