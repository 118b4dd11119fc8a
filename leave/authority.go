/*
authority.go - ApprovalAuthority: who may act on whose requests

AUTHORIZATION GRAPH:
  - A director may approve manager-role employees.
  - A manager may approve staff-role employees who report to them.
  - A manager may approve staff delegated to them for today.
  - Everything else is denied, including admin shortcuts: an admin has
    no implicit approval authority here.
*/
package leave

import "context"

// Decision is the outcome of an authorization check. Reason is set on
// denial; Delegated marks authority that flows through a delegation
// rather than the reporting line.
type Decision struct {
	Authorized bool
	Delegated  bool
	Reason     string
}

type ApprovalAuthority struct {
	Employees   EmployeeStore
	Delegations *DelegationRegistry
}

func NewApprovalAuthority(employees EmployeeStore, delegations *DelegationRegistry) *ApprovalAuthority {
	return &ApprovalAuthority{Employees: employees, Delegations: delegations}
}

// CanApprove resolves whether approverID may act on requests of
// employeeID. Store failures propagate; a plain denial is not an error.
func (a *ApprovalAuthority) CanApprove(ctx context.Context, approverID, employeeID EmployeeID) (Decision, error) {
	approver, err := a.Employees.GetEmployee(ctx, approverID)
	if err != nil {
		return Decision{}, err
	}
	employee, err := a.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return Decision{}, err
	}

	switch approver.Role {
	case RoleDirector:
		if employee.Role == RoleManager {
			return Decision{Authorized: true}, nil
		}
		return deny("directors approve managers only"), nil

	case RoleManager:
		if employee.Role != RoleStaff {
			return deny("managers approve staff only"), nil
		}
		if employee.ManagerID != nil && *employee.ManagerID == approverID {
			return Decision{Authorized: true}, nil
		}
		delegated, err := a.Delegations.IsDelegatedTo(ctx, approverID, employee, a.Delegations.today())
		if err != nil {
			return Decision{}, err
		}
		if delegated {
			return Decision{Authorized: true, Delegated: true}, nil
		}
		return deny("employee does not report to this manager and no active delegation covers today"), nil

	default:
		return deny("role " + string(approver.Role) + " has no approval authority"), nil
	}
}

// Require returns an UnauthorizedError when the decision is a denial.
func (a *ApprovalAuthority) Require(ctx context.Context, approverID, employeeID EmployeeID) (Decision, error) {
	dec, err := a.CanApprove(ctx, approverID, employeeID)
	if err != nil {
		return Decision{}, err
	}
	if !dec.Authorized {
		return Decision{}, &UnauthorizedError{
			ApproverID: approverID,
			EmployeeID: employeeID,
			Reason:     dec.Reason,
		}
	}
	return dec, nil
}

func deny(reason string) Decision { return Decision{Reason: reason} }
