/*
delegation.go - DelegationRegistry: time-bounded approval grants

PURPOSE:
  A manager going away hands their approval authority to a peer for a
  date window. The registry creates and cancels those grants and answers
  "whose staff can this manager act on today". Authorization always
  evaluates strictly against [StartDate, EndDate] and status=active; a
  cancelled delegation is dead even inside its window.
*/
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/leave-engine/cycle"
)

type DelegationRegistry struct {
	Store     DelegationStore
	Employees EmployeeStore

	// Now supplies "today" for authorization windows; defaults to
	// cycle.Today.
	Now func() cycle.Date
}

func NewDelegationRegistry(store DelegationStore, employees EmployeeStore) *DelegationRegistry {
	return &DelegationRegistry{Store: store, Employees: employees, Now: cycle.Today}
}

func (r *DelegationRegistry) today() cycle.Date {
	if r.Now != nil {
		return r.Now()
	}
	return cycle.Today()
}

// Create validates and persists a new active delegation. Both parties
// must hold the manager role, the window must not be inverted, and a
// manager cannot delegate to themselves.
func (r *DelegationRegistry) Create(ctx context.Context, from, to EmployeeID, start, end cycle.Date, reason string) (*Delegation, error) {
	if from == to {
		return nil, validationf("self_delegation", "manager %s cannot delegate to themselves", from)
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, validationf("invalid_range", "delegation window %s..%s is invalid", start, end)
	}

	for _, id := range []EmployeeID{from, to} {
		emp, err := r.Employees.GetEmployee(ctx, id)
		if err != nil {
			return nil, err
		}
		if emp.Role != RoleManager {
			return nil, validationf("not_a_manager", "%s holds role %s, delegation requires manager", id, emp.Role)
		}
	}

	d := &Delegation{
		ID:            DelegationID(uuid.NewString()),
		FromManagerID: from,
		ToManagerID:   to,
		StartDate:     start,
		EndDate:       end,
		Reason:        reason,
		Status:        DelegationActive,
		CreatedAt:     time.Now(),
	}
	if err := r.Store.CreateDelegation(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Cancel permanently deactivates a delegation. Only the creating manager
// may cancel; cancelling twice is an invalid transition.
func (r *DelegationRegistry) Cancel(ctx context.Context, id DelegationID, actor EmployeeID) error {
	d, err := r.Store.GetDelegation(ctx, id)
	if err != nil {
		return err
	}
	if d.FromManagerID != actor {
		return &UnauthorizedError{
			ApproverID: actor,
			EmployeeID: d.FromManagerID,
			Reason:     "only the delegating manager may cancel",
		}
	}
	if d.Status != DelegationActive {
		return &StateTransitionError{
			RequestID: RequestID(id),
			Current:   string(d.Status),
			Attempted: "cancel delegation",
		}
	}
	err = r.Store.SetDelegationStatus(ctx, id, DelegationActive, DelegationCancelled)
	if err == ErrConcurrentUpdate {
		return &StateTransitionError{
			RequestID: RequestID(id),
			Current:   string(DelegationCancelled),
			Attempted: "cancel delegation",
		}
	}
	return err
}

// GetDelegatedStaff returns every staff member whose own manager has an
// active delegation to toManagerID covering asOf. A zero asOf means
// today.
func (r *DelegationRegistry) GetDelegatedStaff(ctx context.Context, toManagerID EmployeeID, asOf cycle.Date) ([]*Employee, error) {
	if asOf.IsZero() {
		asOf = r.today()
	}
	delegations, err := r.Store.ListDelegationsTo(ctx, toManagerID)
	if err != nil {
		return nil, err
	}

	var staff []*Employee
	seen := map[EmployeeID]bool{}
	for _, d := range delegations {
		if !d.Covers(asOf) {
			continue
		}
		reports, err := r.Employees.ListByManager(ctx, d.FromManagerID)
		if err != nil {
			return nil, err
		}
		for _, e := range reports {
			if e.Role != RoleStaff || seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			staff = append(staff, e)
		}
	}
	return staff, nil
}

// IsDelegatedTo reports whether the employee's manager has an active
// delegation to the approver covering asOf.
func (r *DelegationRegistry) IsDelegatedTo(ctx context.Context, approverID EmployeeID, employee *Employee, asOf cycle.Date) (bool, error) {
	if employee.ManagerID == nil {
		return false, nil
	}
	if asOf.IsZero() {
		asOf = r.today()
	}
	delegations, err := r.Store.ListDelegationsTo(ctx, approverID)
	if err != nil {
		return false, err
	}
	for _, d := range delegations {
		if d.FromManagerID == *employee.ManagerID && d.Covers(asOf) {
			return true, nil
		}
	}
	return false, nil
}
