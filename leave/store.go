/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  The engine performs no I/O of its own; these interfaces are the
  boundary to the tabular store. Adapters (store/sqlite, store/memory)
  implement them and perform the canonical field-name mapping.

LIFECYCLE CONTRACT:
  - LeaveRequests are created once and only ever status-transitioned.
    There is no delete.
  - Delegations are created and only ever cancelled via a status flag.
  - Employees are read plus one narrow write: the daysOwed penalty.

CONDITIONAL UPDATES:
  UpdateRequest takes expected-status guards. When the stored record no
  longer matches, the adapter returns ErrConcurrentUpdate and writes
  nothing. This is how two approvers racing on the same request are
  serialized: the loser's precondition is stale and the lifecycle
  reports InvalidStateTransition.

SEE ALSO:
  - store/memory: in-process implementation for tests
  - store/sqlite: production implementation
*/
package leave

import (
	"context"

	"github.com/warp/leave-engine/cycle"
)

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

type EmployeeStore interface {
	// GetEmployee returns the employee or a NotFoundError.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// ListByManager returns all employees whose ManagerID equals managerID.
	ListByManager(ctx context.Context, managerID EmployeeID) ([]*Employee, error)

	// AdjustDaysOwed adds delta to the employee's outstanding penalty.
	// The result is clamped at zero.
	AdjustDaysOwed(ctx context.Context, id EmployeeID, delta int) error
}

// =============================================================================
// LEAVE REQUEST STORE
// =============================================================================

// RequestUpdate is a partial update with optimistic guards. Nil fields
// are left untouched. If an expected guard is set and does not match the
// stored record, the adapter returns ErrConcurrentUpdate unchanged.
type RequestUpdate struct {
	// Guards
	ExpectedStatus             *RequestStatus
	ExpectedModificationStatus *ModificationStatus

	// Base state
	Status          *RequestStatus
	EndDate         *cycle.Date
	ReviewedBy      *EmployeeID
	ReviewedDate    *cycle.Date
	RejectionReason *string

	// Modification sub-state
	ModificationType   *ModificationType
	ModificationStatus *ModificationStatus
	ModificationReason *string
	OriginalEndDate    *cycle.Date
	ActualEndDate      *cycle.Date
	DaysTaken          *int
	ExtensionDays      *int
	ModReviewedBy      *EmployeeID
	ModReviewedDate    *cycle.Date
}

// GuardsMatch checks the optimistic guards against the stored record.
func (u RequestUpdate) GuardsMatch(r *LeaveRequest) bool {
	if u.ExpectedStatus != nil && r.Status != *u.ExpectedStatus {
		return false
	}
	if u.ExpectedModificationStatus != nil && r.Modification.Status != *u.ExpectedModificationStatus {
		return false
	}
	return true
}

// Apply mutates r with the non-nil fields. Shared by adapters so the
// field semantics live in exactly one place.
func (u RequestUpdate) Apply(r *LeaveRequest) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.EndDate != nil {
		r.EndDate = *u.EndDate
	}
	if u.ReviewedBy != nil {
		r.ReviewedBy = *u.ReviewedBy
	}
	if u.ReviewedDate != nil {
		r.ReviewedDate = *u.ReviewedDate
	}
	if u.RejectionReason != nil {
		r.RejectionReason = *u.RejectionReason
	}
	if u.ModificationType != nil {
		r.Modification.Type = *u.ModificationType
	}
	if u.ModificationStatus != nil {
		r.Modification.Status = *u.ModificationStatus
	}
	if u.ModificationReason != nil {
		r.Modification.Reason = *u.ModificationReason
	}
	if u.OriginalEndDate != nil {
		r.Modification.OriginalEndDate = *u.OriginalEndDate
	}
	if u.ActualEndDate != nil {
		r.Modification.ActualEndDate = *u.ActualEndDate
	}
	if u.DaysTaken != nil {
		r.Modification.DaysTaken = *u.DaysTaken
	}
	if u.ExtensionDays != nil {
		r.Modification.ExtensionDays = *u.ExtensionDays
	}
	if u.ModReviewedBy != nil {
		r.Modification.ReviewedBy = *u.ModReviewedBy
	}
	if u.ModReviewedDate != nil {
		r.Modification.ReviewedDate = *u.ModReviewedDate
	}
}

type LeaveRequestStore interface {
	// CreateRequest persists a new request. The caller assigns the ID.
	CreateRequest(ctx context.Context, r *LeaveRequest) error

	// GetRequest returns the request or a NotFoundError.
	GetRequest(ctx context.Context, id RequestID) (*LeaveRequest, error)

	// ListApprovedByEmployee returns the employee's approved requests -
	// the history every balance computation is derived from.
	ListApprovedByEmployee(ctx context.Context, employeeID EmployeeID) ([]*LeaveRequest, error)

	// UpdateRequest applies a guarded partial update and returns the
	// updated record. ErrConcurrentUpdate on a failed guard.
	UpdateRequest(ctx context.Context, id RequestID, update RequestUpdate) (*LeaveRequest, error)
}

// =============================================================================
// DELEGATION STORE
// =============================================================================

type DelegationStore interface {
	CreateDelegation(ctx context.Context, d *Delegation) error

	// GetDelegation returns the delegation or a NotFoundError.
	GetDelegation(ctx context.Context, id DelegationID) (*Delegation, error)

	// ListDelegationsTo returns all delegations granted to the manager,
	// regardless of status or date range. Filtering is the registry's job.
	ListDelegationsTo(ctx context.Context, toManagerID EmployeeID) ([]*Delegation, error)

	// SetDelegationStatus transitions the status, guarded by the expected
	// current status. ErrConcurrentUpdate on mismatch.
	SetDelegationStatus(ctx context.Context, id DelegationID, expected, next DelegationStatus) error
}

// Stores bundles the three collaborators most components need.
type Stores struct {
	Employees   EmployeeStore
	Requests    LeaveRequestStore
	Delegations DelegationStore
}
