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
// EXTENSION PENALTY
// =============================================================================

func TestExtensionPenalty(t *testing.T) {
	tests := []struct {
		name      string
		initiator leave.Initiator
		days      int
		want      int
	}{
		{"employee pays double", leave.InitiatorEmployee, 2, 4},
		{"employee single day", leave.InitiatorEmployee, 1, 2},
		{"manager pays nothing", leave.InitiatorManager, 2, 0},
		{"zero days owe nothing", leave.InitiatorEmployee, 0, 0},
		{"negative days owe nothing", leave.InitiatorEmployee, -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, leave.ExtensionPenalty(tt.initiator, tt.days))
		})
	}
}

func TestApplyExtensionPenalty_AccumulatesOnEmployee(t *testing.T) {
	// GIVEN: An employee with no outstanding penalty
	// WHEN: Two employee-initiated extensions land, then a manager one
	// THEN: daysOwed accumulates only for the employee-initiated pair

	f := newDefaultFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.ApplyExtensionPenalty(ctx, "staff-s", leave.InitiatorEmployee, 2))
	require.NoError(t, f.ledger.ApplyExtensionPenalty(ctx, "staff-s", leave.InitiatorEmployee, 1))
	require.NoError(t, f.ledger.ApplyExtensionPenalty(ctx, "staff-s", leave.InitiatorManager, 5))

	emp, err := f.store.GetEmployee(ctx, "staff-s")
	require.NoError(t, err)
	assert.Equal(t, 6, emp.DaysOwed)
}

// =============================================================================
// DERIVED BALANCES
// =============================================================================

func TestBalances_FreshEmployee(t *testing.T) {
	// GIVEN: No approved leave, today = Jan 26 (off phase, 22 work days in)
	// WHEN: Deriving balances
	// THEN: Annual 22 (one banked day per work day), full yearly pools

	f := newDefaultFixture(t)

	sheet, err := f.ledger.Balances(context.Background(), "staff-s")
	require.NoError(t, err)

	assert.Equal(t, 22, sheet.Annual.Int())
	assert.Equal(t, 90, sheet.Sick.Int())
	assert.Equal(t, 10, sheet.Compassionate.Int())
	assert.Equal(t, leave.EmployeeID("staff-s"), sheet.EmployeeID)
	assert.Equal(t, "2026-01-26", sheet.AsOf.String())
	assert.Equal(t, cycle.PhaseOff, sheet.Cycle.Phase)
}

func TestBalances_ApprovedSickLeaveDrainsPool(t *testing.T) {
	// GIVEN: Approved sick leave Feb 2-6 (future of today, Jan 26)
	// WHEN: Deriving balances
	// THEN: The sick pool already reflects all 5 calendar days

	f := newDefaultFixture(t)
	f.submitApproved(t, "staff-s", "mgr-a", cycle.LeaveSick,
		cycle.NewDate(2026, time.February, 2), cycle.NewDate(2026, time.February, 6))

	sheet, err := f.ledger.Balances(context.Background(), "staff-s")
	require.NoError(t, err)
	assert.Equal(t, 85, sheet.Sick.Int())
}

func TestBalances_PendingRequestsDoNotCount(t *testing.T) {
	// GIVEN: A pending (not yet approved) sick request
	// WHEN: Deriving balances
	// THEN: Pools are untouched - only approved history counts

	f := newDefaultFixture(t)
	_, err := f.lifecycle.Submit(context.Background(), "staff-s", cycle.LeaveSick,
		cycle.NewDate(2026, time.February, 2), cycle.NewDate(2026, time.February, 6), "feeling quite unwell")
	require.NoError(t, err)

	sheet, err := f.ledger.Balances(context.Background(), "staff-s")
	require.NoError(t, err)
	assert.Equal(t, 90, sheet.Sick.Int())
}

func TestBalances_DerivationIsStateless(t *testing.T) {
	// GIVEN: The same store contents
	// WHEN: Deriving balances repeatedly
	// THEN: Results never drift - nothing accumulates between calls

	f := newDefaultFixture(t)
	ctx := context.Background()

	first, err := f.ledger.Balances(ctx, "staff-s")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.ledger.Balances(ctx, "staff-s")
		require.NoError(t, err)
		assert.Equal(t, first.Annual.Int(), again.Annual.Int())
		assert.Equal(t, first.Cycle, again.Cycle)
	}
}

func TestBalanceSheet_Available(t *testing.T) {
	sheet := &leave.BalanceSheet{
		Annual:        leave.DaysAmount(7),
		Sick:          leave.DaysAmount(90),
		Compassionate: leave.DaysAmount(10),
	}
	assert.Equal(t, 7, sheet.Available(cycle.LeaveAnnual).Int())
	assert.Equal(t, 90, sheet.Available(cycle.LeaveSick).Int())
	assert.Equal(t, 10, sheet.Available(cycle.LeaveCompassionate).Int())
}

func TestValidateRequest_CompassionatePoolCap(t *testing.T) {
	// GIVEN: The 10-day compassionate pool
	// WHEN: Validating an 11-business-day compassionate request
	// THEN: InsufficientBalanceError

	f := newDefaultFixture(t)

	err := f.ledger.ValidateRequest(context.Background(), "staff-s", cycle.LeaveCompassionate, 11)
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	assert.NoError(t, f.ledger.ValidateRequest(context.Background(), "staff-s", cycle.LeaveCompassionate, 10))
}

func TestCycleStatus_UsesEmployeeDaysOwed(t *testing.T) {
	// GIVEN: An employee carrying a 3-day penalty
	// WHEN: Deriving cycle status on Jan 24 (inside the stretched phase)
	// THEN: The work phase runs 25 days and the penalty is visible

	f := newFixture(t, cycle.NewDate(2026, time.January, 24))
	require.NoError(t, f.store.AdjustDaysOwed(context.Background(), "staff-s", 3))

	st, err := f.ledger.CycleStatus(context.Background(), "staff-s")
	require.NoError(t, err)

	assert.Equal(t, cycle.PhaseWork, st.Phase)
	assert.Equal(t, 3, st.DaysOwed)
	assert.Equal(t, 24, st.WorkDaysCompleted)
	assert.Equal(t, 1, st.WorkDaysRemaining)
}
