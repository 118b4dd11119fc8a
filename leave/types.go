/*
Package leave implements the leave-request accounting and lifecycle engine.

PURPOSE:
  Sits on top of the cycle package and adds everything stateful about a
  leave request: balance derivation per leave type (BalanceLedger), the
  submission/approval/modification state machine (Lifecycle), and the
  delegation-aware authorization graph (ApprovalAuthority,
  DelegationRegistry).

DESIGN PRINCIPLES:
  1. Stateless engine: every operation re-derives balances from the full
     approved-leave history; there is no cache and no in-process state.
  2. Validate before mutate: a failing operation changes nothing.
  3. Conditional writes: stores guard updates with the expected status,
     so racing approvers collapse into InvalidStateTransition instead of
     silent overwrites.
  4. Best-effort notifications: the injected NotificationSink never
     blocks or rolls back a transition.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee, LeaveRequest, Delegation: the three persisted records
  - Modification: the orthogonal post-approval amendment sub-state
  - Amount: day quantities on decimal.Decimal, avoiding float drift

SEE ALSO:
  - balance.go: BalanceLedger
  - lifecycle.go: Lifecycle state machine
  - authority.go, delegation.go: authorization graph
  - store.go: persistence interfaces
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/cycle"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string
type DelegationID string

// =============================================================================
// EMPLOYEE
// =============================================================================

type Role string

const (
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleDirector Role = "director"
	RoleAdmin    Role = "admin"
)

type Employee struct {
	ID        EmployeeID
	Name      string
	Role      Role
	ManagerID *EmployeeID // nil for employees with no approver of record
	Active    bool

	// DaysOwed is the outstanding extension penalty for the cycle in
	// progress. It feeds cycle projection and resets when that cycle
	// completes.
	DaysOwed int
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

type ModificationType string

const (
	ModificationNone         ModificationType = "none"
	ModificationEarlyCheckin ModificationType = "early_checkin"
	ModificationExtension    ModificationType = "extension"
)

type ModificationStatus string

const (
	ModStatusNone     ModificationStatus = "none"
	ModStatusPending  ModificationStatus = "pending"
	ModStatusApproved ModificationStatus = "approved"
	ModStatusRejected ModificationStatus = "rejected"
)

// Modification is the orthogonal amendment record on an approved request.
// It only ever moves none -> pending -> approved|rejected; an approved
// modification is final. At most one modification is pending at a time.
type Modification struct {
	Type   ModificationType
	Status ModificationStatus

	// OriginalEndDate snapshots the end date before the first amendment.
	OriginalEndDate cycle.Date

	// ActualEndDate is the proposed end date: the early return day for an
	// early check-in, the new end for an extension.
	ActualEndDate cycle.Date

	DaysTaken     int // business days actually taken, set on early check-in
	ExtensionDays int // business days added, set on extension

	Reason       string
	ReviewedBy   EmployeeID
	ReviewedDate cycle.Date
}

// Resolved reports whether a new modification may be requested: the
// prior one is absent or has reached a terminal status.
func (m Modification) Resolved() bool { return m.Status != ModStatusPending }

type LeaveRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	LeaveType  cycle.LeaveType
	StartDate  cycle.Date
	EndDate    cycle.Date

	// DaysRequested is the business-day count at submission; weekends are
	// excluded.
	DaysRequested int

	Reason string
	Status RequestStatus

	Modification Modification

	ReviewedBy      EmployeeID
	ReviewedDate    cycle.Date
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Interval converts the request to its cycle-projection form.
func (r *LeaveRequest) Interval() cycle.Interval {
	return cycle.Interval{
		Type:  r.LeaveType,
		Start: r.StartDate.String(),
		End:   r.EndDate.String(),
	}
}

// =============================================================================
// DELEGATION
// =============================================================================

type DelegationStatus string

const (
	DelegationActive    DelegationStatus = "active"
	DelegationCancelled DelegationStatus = "cancelled"
)

// Delegation is a time-bounded grant of one manager's approval authority
// over their staff to another manager. Created once, only ever cancelled.
type Delegation struct {
	ID            DelegationID
	FromManagerID EmployeeID
	ToManagerID   EmployeeID
	StartDate     cycle.Date
	EndDate       cycle.Date
	Reason        string
	Status        DelegationStatus
	CreatedAt     time.Time
}

// Covers reports whether the delegation grants authority on the
// given day. Cancelled delegations never do, regardless of date range.
func (d *Delegation) Covers(day cycle.Date) bool {
	if d.Status != DelegationActive {
		return false
	}
	return !day.Before(d.StartDate) && !day.After(d.EndDate)
}

// =============================================================================
// AMOUNT - Day quantities with decimal precision
// =============================================================================

type Amount struct {
	Days decimal.Decimal
}

func DaysAmount(n int) Amount { return Amount{Days: decimal.NewFromInt(int64(n))} }

func (a Amount) Add(b Amount) Amount       { return Amount{Days: a.Days.Add(b.Days)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Days: a.Days.Sub(b.Days)} }
func (a Amount) IsNegative() bool          { return a.Days.IsNegative() }
func (a Amount) LessThan(b Amount) bool    { return a.Days.LessThan(b.Days) }
func (a Amount) GreaterThan(b Amount) bool { return a.Days.GreaterThan(b.Days) }
func (a Amount) Floor() Amount             { return Amount{Days: a.Days.Floor()} }
func (a Amount) Int() int                  { return int(a.Days.IntPart()) }
func (a Amount) String() string            { return a.Days.String() }
