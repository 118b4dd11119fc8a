/*
balance.go - BalanceLedger: derived balances per leave type

PURPOSE:
  Balances are never stored. The annual balance is not a decrementing
  counter at all: one day of time off is banked per completed work day in
  the current cycle, so the visible balance equals workDaysCompleted
  (floored). Sick and compassionate balances are the yearly pools minus
  what the approved history consumes this calendar year.

  Everything is re-derived from the full approved-leave history on every
  call. Shortening an approved request (early check-in) therefore refunds
  its unused days without any explicit credit transaction: the freed days
  simply count as work days on the next derivation.

EXTENSION PENALTY:
  An employee-initiated approved extension of N business days owes the
  cycle 2xN extra work days, applied to the cycle in progress only. A
  manager-initiated extension of the same length owes nothing.

SEE ALSO:
  - cycle/status.go: the snapshot these balances read from
  - lifecycle.go: submission validation and penalty application
*/
package leave

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/cycle"
)

// PenaltyRatio is the owed-work-day multiplier for employee-initiated
// extensions.
const PenaltyRatio = 2

// Initiator distinguishes who asked for an extension.
type Initiator string

const (
	InitiatorEmployee Initiator = "employee"
	InitiatorManager  Initiator = "manager"
)

// ExtensionPenalty returns the daysOwed increase for an extension of the
// given business-day length.
func ExtensionPenalty(initiator Initiator, businessDays int) int {
	if initiator != InitiatorEmployee || businessDays <= 0 {
		return 0
	}
	return businessDays * PenaltyRatio
}

// =============================================================================
// BALANCE LEDGER
// =============================================================================

// BalanceSheet is the per-type balance view derived at a point in time.
type BalanceSheet struct {
	AsOf          cycle.Date
	EmployeeID    EmployeeID
	Annual        Amount
	Sick          Amount
	Compassionate Amount
	Cycle         cycle.CycleStatus
}

// Available returns the balance for one leave type.
func (b *BalanceSheet) Available(t cycle.LeaveType) Amount {
	switch t {
	case cycle.LeaveSick:
		return b.Sick
	case cycle.LeaveCompassionate:
		return b.Compassionate
	default:
		return b.Annual
	}
}

type BalanceLedger struct {
	Employees EmployeeStore
	Requests  LeaveRequestStore

	// Now supplies "today" for derivations; defaults to cycle.Today.
	Now func() cycle.Date
}

func NewBalanceLedger(employees EmployeeStore, requests LeaveRequestStore) *BalanceLedger {
	return &BalanceLedger{Employees: employees, Requests: requests, Now: cycle.Today}
}

func (bl *BalanceLedger) today() cycle.Date {
	if bl.Now != nil {
		return bl.Now()
	}
	return cycle.Today()
}

// history loads the approved-leave history in projection form.
func (bl *BalanceLedger) history(ctx context.Context, employeeID EmployeeID) ([]cycle.Interval, error) {
	approved, err := bl.Requests.ListApprovedByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("loading approved history: %w", err)
	}
	intervals := make([]cycle.Interval, 0, len(approved))
	for _, r := range approved {
		intervals = append(intervals, r.Interval())
	}
	return intervals, nil
}

// CycleStatus derives the employee's duty-cycle snapshot as of today.
func (bl *BalanceLedger) CycleStatus(ctx context.Context, employeeID EmployeeID) (cycle.CycleStatus, error) {
	emp, err := bl.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return cycle.CycleStatus{}, err
	}
	intervals, err := bl.history(ctx, employeeID)
	if err != nil {
		return cycle.CycleStatus{}, err
	}
	return cycle.Status(intervals, emp.DaysOwed, bl.today()), nil
}

// Schedule projects the employee's duty cycle over [from, to].
func (bl *BalanceLedger) Schedule(ctx context.Context, employeeID EmployeeID, from, to cycle.Date) ([]cycle.ScheduleEntry, error) {
	emp, err := bl.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	intervals, err := bl.history(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return cycle.ProjectSchedule(intervals, from, to, emp.DaysOwed), nil
}

// Balances derives the full per-type balance sheet.
func (bl *BalanceLedger) Balances(ctx context.Context, employeeID EmployeeID) (*BalanceSheet, error) {
	st, err := bl.CycleStatus(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return &BalanceSheet{
		AsOf:          bl.today(),
		EmployeeID:    employeeID,
		Annual:        DaysAmount(st.WorkDaysCompleted).Floor(),
		Sick:          DaysAmount(st.SickDaysRemaining),
		Compassionate: DaysAmount(st.CompassionateDaysRemaining),
		Cycle:         st,
	}, nil
}

// ValidateRequest rejects a submission whose business-day count exceeds
// the available balance for the leave type.
func (bl *BalanceLedger) ValidateRequest(ctx context.Context, employeeID EmployeeID, t cycle.LeaveType, daysRequested int) error {
	sheet, err := bl.Balances(ctx, employeeID)
	if err != nil {
		return err
	}
	available := sheet.Available(t)
	if DaysAmount(daysRequested).GreaterThan(available) {
		return &InsufficientBalanceError{
			EmployeeID: employeeID,
			LeaveType:  string(t),
			Available:  available,
			Requested:  DaysAmount(daysRequested),
		}
	}
	return nil
}

// ApplyExtensionPenalty records the daysOwed increase for an approved
// extension. Manager-initiated extensions are a no-op.
func (bl *BalanceLedger) ApplyExtensionPenalty(ctx context.Context, employeeID EmployeeID, initiator Initiator, extensionDays int) error {
	penalty := ExtensionPenalty(initiator, extensionDays)
	if penalty == 0 {
		return nil
	}
	return bl.Employees.AdjustDaysOwed(ctx, employeeID, penalty)
}
