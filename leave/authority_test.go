/*
authority_test.go - Authorization graph and delegation window tests

Uses the org chart from lifecycle_test.go. Delegation tests pin "today"
inside and outside the delegation window to exercise the date bounds.
*/
package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/cycle"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// ROLE-BASED AUTHORITY
// =============================================================================

func TestCanApprove_DirectorOverManagers(t *testing.T) {
	// GIVEN: The director and a manager
	// WHEN: Checking approval authority in both directions
	// THEN: Director may approve managers; never staff directly

	f := newDefaultFixture(t)
	ctx := context.Background()

	dec, err := f.lifecycle.Authority.CanApprove(ctx, "dir", "mgr-a")
	require.NoError(t, err)
	assert.True(t, dec.Authorized)
	assert.False(t, dec.Delegated)

	dec, err = f.lifecycle.Authority.CanApprove(ctx, "dir", "staff-s")
	require.NoError(t, err)
	assert.False(t, dec.Authorized)
	assert.NotEmpty(t, dec.Reason)
}

func TestCanApprove_ManagerOverOwnStaffOnly(t *testing.T) {
	f := newDefaultFixture(t)
	ctx := context.Background()

	dec, err := f.lifecycle.Authority.CanApprove(ctx, "mgr-a", "staff-s")
	require.NoError(t, err)
	assert.True(t, dec.Authorized)

	// staff-t reports to mgr-b.
	dec, err = f.lifecycle.Authority.CanApprove(ctx, "mgr-a", "staff-t")
	require.NoError(t, err)
	assert.False(t, dec.Authorized)

	// Managers never approve other managers.
	dec, err = f.lifecycle.Authority.CanApprove(ctx, "mgr-a", "mgr-b")
	require.NoError(t, err)
	assert.False(t, dec.Authorized)
}

func TestCanApprove_StaffAndAdminDenied(t *testing.T) {
	f := newDefaultFixture(t)
	f.store.PutEmployee(&leave.Employee{ID: "admin-1", Name: "Ada", Role: leave.RoleAdmin, Active: true})
	ctx := context.Background()

	dec, err := f.lifecycle.Authority.CanApprove(ctx, "staff-t", "staff-s")
	require.NoError(t, err)
	assert.False(t, dec.Authorized)

	dec, err = f.lifecycle.Authority.CanApprove(ctx, "admin-1", "staff-s")
	require.NoError(t, err)
	assert.False(t, dec.Authorized, "admin has no implicit approval authority")
}

func TestRequire_WrapsDenial(t *testing.T) {
	f := newDefaultFixture(t)

	_, err := f.lifecycle.Authority.Require(context.Background(), "mgr-b", "staff-s")
	require.Error(t, err)

	var unauth *leave.UnauthorizedError
	require.ErrorAs(t, err, &unauth)
	assert.Equal(t, leave.EmployeeID("mgr-b"), unauth.ApproverID)
	assert.ErrorIs(t, err, leave.ErrUnauthorized)
}

// =============================================================================
// DELEGATION WINDOWS
// =============================================================================

func delegate(t *testing.T, f *fixture, from, to leave.EmployeeID, start, end cycle.Date) *leave.Delegation {
	t.Helper()
	d, err := f.registry.Create(context.Background(), from, to, start, end, "covering while away")
	require.NoError(t, err)
	return d
}

func TestDelegation_GrantsAuthorityInsideWindow(t *testing.T) {
	// GIVEN: mgr-a delegates to mgr-b for Feb 1-10; today is Feb 5
	// WHEN: mgr-b checks authority over mgr-a's staff
	// THEN: Authorized, flagged as delegated

	f := newFixture(t, cycle.NewDate(2026, time.February, 5))
	delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))

	dec, err := f.lifecycle.Authority.CanApprove(context.Background(), "mgr-b", "staff-s")
	require.NoError(t, err)
	assert.True(t, dec.Authorized)
	assert.True(t, dec.Delegated)
}

func TestDelegation_WindowBoundsInclusive(t *testing.T) {
	// GIVEN: A delegation for Feb 1-10
	// WHEN: Checking the first and last days of the window
	// THEN: Both boundary days authorize

	for _, today := range []cycle.Date{
		cycle.NewDate(2026, time.February, 1),
		cycle.NewDate(2026, time.February, 10),
	} {
		f := newFixture(t, today)
		delegate(t, f, "mgr-a", "mgr-b",
			cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))

		dec, err := f.lifecycle.Authority.CanApprove(context.Background(), "mgr-b", "staff-s")
		require.NoError(t, err)
		assert.True(t, dec.Authorized, "boundary day %s should authorize", today)
	}
}

func TestDelegation_ExpiredWindowDenies(t *testing.T) {
	// GIVEN: A delegation for Feb 1-10; today is Feb 11
	// WHEN: mgr-b checks authority over mgr-a's staff
	// THEN: Denied - the window has closed

	f := newFixture(t, cycle.NewDate(2026, time.February, 11))
	delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))

	dec, err := f.lifecycle.Authority.CanApprove(context.Background(), "mgr-b", "staff-s")
	require.NoError(t, err)
	assert.False(t, dec.Authorized)
}

func TestDelegation_CancelledWindowDenies(t *testing.T) {
	// GIVEN: A cancelled delegation whose window covers today
	// WHEN: mgr-b checks authority
	// THEN: Denied - cancellation kills the grant inside its window

	f := newFixture(t, cycle.NewDate(2026, time.February, 5))
	d := delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))
	require.NoError(t, f.registry.Cancel(context.Background(), d.ID, "mgr-a"))

	dec, err := f.lifecycle.Authority.CanApprove(context.Background(), "mgr-b", "staff-s")
	require.NoError(t, err)
	assert.False(t, dec.Authorized)
}

func TestDelegation_EnablesApprovalEndToEnd(t *testing.T) {
	// GIVEN: A pending request from staff-s and an active delegation to
	//        mgr-b covering today
	// WHEN: mgr-b approves
	// THEN: The approval lands

	f := newFixture(t, cycle.NewDate(2026, time.February, 5))
	ctx := context.Background()
	delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))

	req, err := f.lifecycle.Submit(ctx, "staff-s", cycle.LeaveAnnual,
		cycle.NewDate(2026, time.March, 2), cycle.NewDate(2026, time.March, 6), "spring trip home")
	require.NoError(t, err)

	approved, err := f.lifecycle.Approve(ctx, req.ID, "mgr-b")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.Equal(t, leave.EmployeeID("mgr-b"), approved.ReviewedBy)
}

// =============================================================================
// DELEGATION LIFECYCLE
// =============================================================================

func TestDelegationCreate_Validation(t *testing.T) {
	f := newDefaultFixture(t)
	ctx := context.Background()
	feb1 := cycle.NewDate(2026, time.February, 1)
	feb10 := cycle.NewDate(2026, time.February, 10)

	// Self-delegation.
	_, err := f.registry.Create(ctx, "mgr-a", "mgr-a", feb1, feb10, "to myself somehow")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrValidation)

	// Inverted window.
	_, err = f.registry.Create(ctx, "mgr-a", "mgr-b", feb10, feb1, "dates swapped here")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrValidation)

	// Non-manager parties.
	_, err = f.registry.Create(ctx, "mgr-a", "staff-t", feb1, feb10, "not a manager")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrValidation)

	_, err = f.registry.Create(ctx, "dir", "mgr-b", feb1, feb10, "directors do not delegate")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrValidation)
}

func TestDelegationCancel_CreatorOnly(t *testing.T) {
	// GIVEN: A delegation created by mgr-a
	// WHEN: mgr-b (the recipient) tries to cancel
	// THEN: Unauthorized; only the creator may cancel

	f := newFixture(t, cycle.NewDate(2026, time.February, 5))
	ctx := context.Background()
	d := delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))

	err := f.registry.Cancel(ctx, d.ID, "mgr-b")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrUnauthorized)

	require.NoError(t, f.registry.Cancel(ctx, d.ID, "mgr-a"))

	// Cancelling twice is an invalid transition.
	err = f.registry.Cancel(ctx, d.ID, "mgr-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInvalidStateTransition)
}

func TestGetDelegatedStaff(t *testing.T) {
	// GIVEN: mgr-a delegates to mgr-b for Feb 1-10; mgr-a has one active
	//        staff report and one inactive
	// WHEN: Listing mgr-b's delegated staff inside and outside the window
	// THEN: staff-s appears inside the window only; managers never appear

	f := newFixture(t, cycle.NewDate(2026, time.February, 5))
	ctx := context.Background()
	delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))

	staff, err := f.registry.GetDelegatedStaff(ctx, "mgr-b", cycle.Date{})
	require.NoError(t, err)
	ids := make([]leave.EmployeeID, 0, len(staff))
	for _, e := range staff {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, leave.EmployeeID("staff-s"))
	assert.NotContains(t, ids, leave.EmployeeID("mgr-a"))

	// Outside the window.
	staff, err = f.registry.GetDelegatedStaff(ctx, "mgr-b", cycle.NewDate(2026, time.February, 11))
	require.NoError(t, err)
	assert.Empty(t, staff)
}

func TestGetDelegatedStaff_DeduplicatesAcrossDelegations(t *testing.T) {
	// GIVEN: Two overlapping active delegations from mgr-a to mgr-b
	// WHEN: Listing delegated staff
	// THEN: Each staff member appears once

	f := newFixture(t, cycle.NewDate(2026, time.February, 5))
	ctx := context.Background()
	delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 1), cycle.NewDate(2026, time.February, 10))
	delegate(t, f, "mgr-a", "mgr-b",
		cycle.NewDate(2026, time.February, 3), cycle.NewDate(2026, time.February, 8))

	staff, err := f.registry.GetDelegatedStaff(ctx, "mgr-b", cycle.Date{})
	require.NoError(t, err)

	seen := map[leave.EmployeeID]int{}
	for _, e := range staff {
		seen[e.ID]++
	}
	assert.Equal(t, 1, seen["staff-s"])
}
