// Package memory provides in-process store implementations for tests
// and local development. All three stores honor the conditional-update
// contract of the leave package.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// STORE - All three entity stores behind one mutex
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	employees   map[leave.EmployeeID]*leave.Employee
	requests    map[leave.RequestID]*leave.LeaveRequest
	delegations map[leave.DelegationID]*leave.Delegation
}

func New() *Store {
	return &Store{
		employees:   make(map[leave.EmployeeID]*leave.Employee),
		requests:    make(map[leave.RequestID]*leave.LeaveRequest),
		delegations: make(map[leave.DelegationID]*leave.Delegation),
	}
}

// Stores bundles the store for engine constructors.
func (s *Store) Stores() leave.Stores {
	return leave.Stores{Employees: s, Requests: s, Delegations: s}
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// PutEmployee seeds or replaces an employee record.
func (s *Store) PutEmployee(e *leave.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.employees[e.ID] = &cp
}

func (s *Store) GetEmployee(_ context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, &leave.NotFoundError{Kind: "employee", ID: string(id)}
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListByManager(_ context.Context, managerID leave.EmployeeID) ([]*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Employee
	for _, e := range s.employees {
		if e.ManagerID != nil && *e.ManagerID == managerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AdjustDaysOwed(_ context.Context, id leave.EmployeeID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return &leave.NotFoundError{Kind: "employee", ID: string(id)}
	}
	e.DaysOwed += delta
	if e.DaysOwed < 0 {
		e.DaysOwed = 0
	}
	return nil
}

// =============================================================================
// LEAVE REQUEST STORE
// =============================================================================

func (s *Store) CreateRequest(_ context.Context, r *leave.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *Store) GetRequest(_ context.Context, id leave.RequestID) (*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListApprovedByEmployee(_ context.Context, employeeID leave.EmployeeID) ([]*leave.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.LeaveRequest
	for _, r := range s.requests {
		if r.EmployeeID == employeeID && r.Status == leave.StatusApproved {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) UpdateRequest(_ context.Context, id leave.RequestID, update leave.RequestUpdate) (*leave.LeaveRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, &leave.NotFoundError{Kind: "request", ID: string(id)}
	}
	if !update.GuardsMatch(r) {
		return nil, leave.ErrConcurrentUpdate
	}
	update.Apply(r)
	cp := *r
	return &cp, nil
}

// =============================================================================
// DELEGATION STORE
// =============================================================================

func (s *Store) CreateDelegation(_ context.Context, d *leave.Delegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.delegations[d.ID] = &cp
	return nil
}

func (s *Store) GetDelegation(_ context.Context, id leave.DelegationID) (*leave.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.delegations[id]
	if !ok {
		return nil, &leave.NotFoundError{Kind: "delegation", ID: string(id)}
	}
	cp := *d
	return &cp, nil
}

func (s *Store) ListDelegationsTo(_ context.Context, toManagerID leave.EmployeeID) ([]*leave.Delegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*leave.Delegation
	for _, d := range s.delegations {
		if d.ToManagerID == toManagerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetDelegationStatus(_ context.Context, id leave.DelegationID, expected, next leave.DelegationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.delegations[id]
	if !ok {
		return &leave.NotFoundError{Kind: "delegation", ID: string(id)}
	}
	if d.Status != expected {
		return leave.ErrConcurrentUpdate
	}
	d.Status = next
	return nil
}
