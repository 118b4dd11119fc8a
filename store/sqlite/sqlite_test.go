/*
sqlite_test.go - Storage adapter tests against an in-memory database

White-box on purpose: the legacy-spelling tests insert raw rows the way
older tooling wrote them, bypassing the adapter's own writers.
*/
package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/cycle"
	"github.com/warp/leave-engine/leave"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) cycle.Date {
	parsed, err := cycle.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func sampleRequest(id leave.RequestID) *leave.LeaveRequest {
	now := time.Now()
	return &leave.LeaveRequest{
		ID:            id,
		EmployeeID:    "emp-1",
		LeaveType:     cycle.LeaveAnnual,
		StartDate:     d("2026-03-02"),
		EndDate:       d("2026-03-06"),
		DaysRequested: 5,
		Reason:        "spring trip home",
		Status:        leave.StatusPending,
		Modification:  leave.Modification{Type: leave.ModificationNone, Status: leave.ModStatusNone},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployeeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	managerID := leave.EmployeeID("mgr-1")
	require.NoError(t, store.PutEmployee(ctx, &leave.Employee{
		ID: "emp-1", Name: "Sana", Role: leave.RoleStaff, ManagerID: &managerID, Active: true, DaysOwed: 2,
	}))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Sana", got.Name)
	assert.Equal(t, leave.RoleStaff, got.Role)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, managerID, *got.ManagerID)
	assert.True(t, got.Active)
	assert.Equal(t, 2, got.DaysOwed)
}

func TestGetEmployee_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetEmployee(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestListByManager(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	managerID := leave.EmployeeID("mgr-1")
	require.NoError(t, store.PutEmployee(ctx, &leave.Employee{ID: "mgr-1", Role: leave.RoleManager, Active: true}))
	require.NoError(t, store.PutEmployee(ctx, &leave.Employee{ID: "emp-1", Role: leave.RoleStaff, ManagerID: &managerID, Active: true}))
	require.NoError(t, store.PutEmployee(ctx, &leave.Employee{ID: "emp-2", Role: leave.RoleStaff, ManagerID: &managerID, Active: true}))
	require.NoError(t, store.PutEmployee(ctx, &leave.Employee{ID: "emp-3", Role: leave.RoleStaff, Active: true}))

	reports, err := store.ListByManager(ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, leave.EmployeeID("emp-1"), reports[0].ID)
	assert.Equal(t, leave.EmployeeID("emp-2"), reports[1].ID)
}

func TestAdjustDaysOwed_ClampsAtZero(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutEmployee(ctx, &leave.Employee{ID: "emp-1", Role: leave.RoleStaff, Active: true}))

	require.NoError(t, store.AdjustDaysOwed(ctx, "emp-1", 4))
	require.NoError(t, store.AdjustDaysOwed(ctx, "emp-1", -10))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.DaysOwed)

	err = store.AdjustDaysOwed(ctx, "ghost", 1)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func TestRequestRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRequest("req-1")
	require.NoError(t, store.CreateRequest(ctx, req))

	got, err := store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, cycle.LeaveAnnual, got.LeaveType)
	assert.Equal(t, "2026-03-02", got.StartDate.String())
	assert.Equal(t, "2026-03-06", got.EndDate.String())
	assert.Equal(t, 5, got.DaysRequested)
	assert.Equal(t, leave.StatusPending, got.Status)
	assert.Equal(t, leave.ModificationNone, got.Modification.Type)
	assert.Equal(t, leave.ModStatusNone, got.Modification.Status)
	assert.True(t, got.ReviewedDate.IsZero(), "unreviewed request has no review date")
}

func TestListApprovedByEmployee_FiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	later := sampleRequest("req-later")
	later.StartDate, later.EndDate = d("2026-05-04"), d("2026-05-08")
	later.Status = leave.StatusApproved
	require.NoError(t, store.CreateRequest(ctx, later))

	earlier := sampleRequest("req-earlier")
	earlier.Status = leave.StatusApproved
	require.NoError(t, store.CreateRequest(ctx, earlier))

	pending := sampleRequest("req-pending")
	require.NoError(t, store.CreateRequest(ctx, pending))

	other := sampleRequest("req-other")
	other.EmployeeID = "emp-2"
	other.Status = leave.StatusApproved
	require.NoError(t, store.CreateRequest(ctx, other))

	approved, err := store.ListApprovedByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, leave.RequestID("req-earlier"), approved[0].ID)
	assert.Equal(t, leave.RequestID("req-later"), approved[1].ID)
}

func TestUpdateRequest_GuardedTransition(t *testing.T) {
	// GIVEN: A pending request
	// WHEN: Approving with a matching guard, then again with the stale one
	// THEN: First write lands; second returns ErrConcurrentUpdate

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRequest(ctx, sampleRequest("req-1")))

	pending := leave.StatusPending
	approved := leave.StatusApproved
	reviewer := leave.EmployeeID("mgr-1")
	update := leave.RequestUpdate{
		ExpectedStatus: &pending,
		Status:         &approved,
		ReviewedBy:     &reviewer,
	}

	got, err := store.UpdateRequest(ctx, "req-1", update)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, reviewer, got.ReviewedBy)

	_, err = store.UpdateRequest(ctx, "req-1", update)
	assert.ErrorIs(t, err, leave.ErrConcurrentUpdate)

	// The stale write changed nothing.
	got, err = store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
}

func TestUpdateRequest_ModificationFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := sampleRequest("req-1")
	req.Status = leave.StatusApproved
	require.NoError(t, store.CreateRequest(ctx, req))

	approved := leave.StatusApproved
	modType := leave.ModificationEarlyCheckin
	modPending := leave.ModStatusPending
	reason := "family matter resolved early"
	origEnd := d("2026-03-06")
	actualEnd := d("2026-03-04")

	got, err := store.UpdateRequest(ctx, "req-1", leave.RequestUpdate{
		ExpectedStatus:     &approved,
		ModificationType:   &modType,
		ModificationStatus: &modPending,
		ModificationReason: &reason,
		OriginalEndDate:    &origEnd,
		ActualEndDate:      &actualEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, leave.ModificationEarlyCheckin, got.Modification.Type)
	assert.Equal(t, leave.ModStatusPending, got.Modification.Status)

	// Round-trip through the database.
	got, err = store.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-06", got.Modification.OriginalEndDate.String())
	assert.Equal(t, "2026-03-04", got.Modification.ActualEndDate.String())
	assert.Equal(t, reason, got.Modification.Reason)
}

func TestUpdateRequest_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpdateRequest(context.Background(), "ghost", leave.RequestUpdate{})
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

// =============================================================================
// LEGACY SPELLING NORMALIZATION
// =============================================================================

func TestGetRequest_NormalizesLegacySpellings(t *testing.T) {
	// GIVEN: A row written by older tooling with mixed-case enums and the
	//        "Time-Off" leave type spelling
	// WHEN: Reading it back
	// THEN: The engine sees only the canonical closed enums

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO leave_requests
			(ID, EmployeeID, LeaveType, StartDate, EndDate, DaysRequested,
			 Status, ModificationType, ModificationStatus, CreatedAt, UpdatedAt)
		VALUES ('legacy-1', 'emp-1', 'Time-Off', '2026-03-02', '2026-03-06', 5,
			 'Approved', '', '', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	got, err := store.GetRequest(ctx, "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, cycle.LeaveAnnual, got.LeaveType)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, leave.ModificationNone, got.Modification.Type)
	assert.Equal(t, leave.ModStatusNone, got.Modification.Status)

	// Case-insensitive status matching picks the legacy row up as history.
	approved, err := store.ListApprovedByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, approved, 1)
}

func TestGetRequest_NormalizesBereavement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO leave_requests
			(ID, EmployeeID, LeaveType, StartDate, EndDate, DaysRequested,
			 Status, CreatedAt, UpdatedAt)
		VALUES ('legacy-2', 'emp-1', 'Bereavement', '2026-03-02', '2026-03-03', 2,
			 'pending', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	got, err := store.GetRequest(ctx, "legacy-2")
	require.NoError(t, err)
	assert.Equal(t, cycle.LeaveCompassionate, got.LeaveType)
}

func TestUpdateRequest_GuardsAgainstLegacyCaseRows(t *testing.T) {
	// GIVEN: A legacy row whose Status is spelled "Pending"
	// WHEN: Running a guarded approval expecting canonical "pending"
	// THEN: The normalization makes the guard match and the write lands

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO leave_requests
			(ID, EmployeeID, LeaveType, StartDate, EndDate, DaysRequested,
			 Status, CreatedAt, UpdatedAt)
		VALUES ('legacy-3', 'emp-1', 'annual', '2026-03-02', '2026-03-06', 5,
			 'Pending', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	pending := leave.StatusPending
	approved := leave.StatusApproved
	got, err := store.UpdateRequest(ctx, "legacy-3", leave.RequestUpdate{
		ExpectedStatus: &pending,
		Status:         &approved,
	})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
}

// =============================================================================
// DELEGATIONS
// =============================================================================

func TestDelegationRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	del := &leave.Delegation{
		ID: "del-1", FromManagerID: "mgr-a", ToManagerID: "mgr-b",
		StartDate: d("2026-02-01"), EndDate: d("2026-02-10"),
		Reason: "covering while away", Status: leave.DelegationActive,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateDelegation(ctx, del))

	got, err := store.GetDelegation(ctx, "del-1")
	require.NoError(t, err)
	assert.Equal(t, leave.EmployeeID("mgr-a"), got.FromManagerID)
	assert.Equal(t, "2026-02-01", got.StartDate.String())
	assert.Equal(t, leave.DelegationActive, got.Status)

	listed, err := store.ListDelegationsTo(ctx, "mgr-b")
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestSetDelegationStatus_Guarded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	del := &leave.Delegation{
		ID: "del-1", FromManagerID: "mgr-a", ToManagerID: "mgr-b",
		StartDate: d("2026-02-01"), EndDate: d("2026-02-10"),
		Status: leave.DelegationActive, CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateDelegation(ctx, del))

	require.NoError(t, store.SetDelegationStatus(ctx, "del-1", leave.DelegationActive, leave.DelegationCancelled))

	// Second cancel: the expected status is stale.
	err := store.SetDelegationStatus(ctx, "del-1", leave.DelegationActive, leave.DelegationCancelled)
	assert.ErrorIs(t, err, leave.ErrConcurrentUpdate)

	// Missing row reports not-found, not a stale guard.
	err = store.SetDelegationStatus(ctx, "ghost", leave.DelegationActive, leave.DelegationCancelled)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}
