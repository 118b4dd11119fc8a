package cycle

// =============================================================================
// CYCLE STATUS - As-of-date snapshot, derived and never persisted
// =============================================================================

type Phase string

const (
	PhaseWork Phase = "work"
	PhaseOff  Phase = "off"
)

// CycleStatus is the point-in-time view of where an employee sits in the
// duty cycle, plus the calendar-year leave pools. Everything here is
// re-derived from the approved-leave history on every call.
type CycleStatus struct {
	CycleNumber int   // completed cycles since epoch + 1
	Phase       Phase // work or off
	DaysOwed    int   // remaining penalty in the current cycle

	WorkDaysCompleted int
	WorkDaysRemaining int

	// Off-pool usage in the current cycle. Annual leave days and
	// projected-off days draw from the same pool.
	OffDaysTaken     int
	OffDaysRemaining int

	IsOnLeave        bool
	CurrentLeaveType LeaveType

	// Calendar-year pools, independent of the duty cycle.
	SickDaysTaken              int
	SickDaysRemaining          int
	CompassionateDaysTaken     int
	CompassionateDaysRemaining int

	// NextOffStartsIn is the number of work days left before the off
	// phase begins; 0 while already off.
	NextOffStartsIn int
}

// Status walks the cycle from the epoch (January 1 of asOf's year)
// through asOf and reduces the walk to a snapshot. Like ProjectSchedule
// it is pure, deterministic, and never fails.
func Status(leaves []Interval, daysOwed int, asOf Date) CycleStatus {
	if asOf.IsZero() {
		asOf = Today()
	}

	intervals := resolveIntervals(leaves)
	cur := newCursor(daysOwed)
	epoch := StartOfYear(asOf.Year())

	for day := epoch; !day.After(asOf); day = day.AddDays(1) {
		cur.step(intervals, day)
	}

	st := CycleStatus{
		CycleNumber:       cur.completedCycles + 1,
		DaysOwed:          cur.effectiveWorkDays - WorkDaysPerCycle,
		WorkDaysCompleted: cur.workDaysCounted,
	}

	if cur.inWorkPhase() {
		st.Phase = PhaseWork
		st.WorkDaysRemaining = cur.effectiveWorkDays - cur.workDaysCounted
		st.NextOffStartsIn = st.WorkDaysRemaining
	} else {
		st.Phase = PhaseOff
	}

	// Off-pool accounting: every counted day that was not a work day came
	// out of the off pool, whether it was annual leave or projected off.
	offLength := CycleLength - cur.effectiveWorkDays
	st.OffDaysTaken = cur.position - cur.workDaysCounted
	st.OffDaysRemaining = offLength - st.OffDaysTaken
	if st.OffDaysRemaining < 0 {
		st.OffDaysRemaining = 0
	}

	if lt, ok := leaveTypeOn(intervals, asOf); ok {
		st.IsOnLeave = true
		st.CurrentLeaveType = lt
	}

	st.SickDaysTaken = yearlyLeaveDays(intervals, LeaveSick, asOf.Year())
	st.SickDaysRemaining = clampFloor(SickDaysPerYear - st.SickDaysTaken)
	st.CompassionateDaysTaken = yearlyLeaveDays(intervals, LeaveCompassionate, asOf.Year())
	st.CompassionateDaysRemaining = clampFloor(CompassionateDaysPerYear - st.CompassionateDaysTaken)

	return st
}

// yearlyLeaveDays counts approved leave days of the given type falling in
// the calendar year, past or future. The yearly pools consume on approval,
// not on elapse.
func yearlyLeaveDays(intervals []resolved, typ LeaveType, year int) int {
	yearStart := StartOfYear(year)
	yearEnd := StartOfYear(year + 1).AddDays(-1)

	total := 0
	for _, iv := range intervals {
		if iv.typ != typ {
			continue
		}
		start, end := iv.start, iv.end
		if start.Before(yearStart) {
			start = yearStart
		}
		if end.After(yearEnd) {
			end = yearEnd
		}
		for d := start; !d.After(end); d = d.AddDays(1) {
			total++
		}
	}
	return total
}

func clampFloor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
