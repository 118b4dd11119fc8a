/*
schedule.go - Day-by-day duty-cycle projection

PURPOSE:
  ProjectSchedule walks every day from the cycle epoch (January 1 of the
  range's starting year) through the end of the requested range, carrying
  the cycle counters forward, and emits one entry per day inside the
  range. The walk MUST start at the epoch, not at rangeStart: the phase a
  given day falls in depends on every counted day since January 1.

WALK RULES (per day):
  1. Day inside approved sick/compassionate leave: emit "leave", counters
     frozen. The cycle resumes where it left off.
  2. Day inside approved annual leave: emit "leave", cycle position
     advances exactly as an off day would.
  3. Otherwise, if fewer than effectiveWorkDays work days have been
     counted this cycle: emit "work" and count it.
  4. Otherwise: emit "projected-off" (annual off-pool day) and advance.

  When the cycle position reaches 30 the counters reset and a fresh cycle
  begins the next day. The daysOwed penalty stretches only the cycle in
  progress when the walk begins; cycles after the first reset run 22/8.

SEE ALSO:
  - status.go: the same walk, reduced to an as-of snapshot
*/
package cycle

// =============================================================================
// SCHEDULE ENTRIES
// =============================================================================

type EntryKind string

const (
	EntryWork         EntryKind = "work"
	EntryLeave        EntryKind = "leave"
	EntryProjectedOff EntryKind = "projected-off"
)

// ScheduleEntry is one projected day. LeaveType is set for leave entries
// and for projected-off entries (always annual: the off-pool and annual
// leave are the same rotating bucket).
type ScheduleEntry struct {
	Date      Date
	Kind      EntryKind
	LeaveType LeaveType
}

// =============================================================================
// CYCLE CURSOR - Counter state carried through the walk
// =============================================================================

type cursor struct {
	workDaysCounted   int
	position          int // counted days into the current cycle, 0..29
	effectiveWorkDays int // 22 + daysOwed for the in-progress cycle
	completedCycles   int
}

func newCursor(daysOwed int) *cursor {
	if daysOwed < 0 {
		daysOwed = 0
	}
	eff := WorkDaysPerCycle + daysOwed
	if eff > CycleLength {
		eff = CycleLength
	}
	return &cursor{effectiveWorkDays: eff}
}

func (c *cursor) inWorkPhase() bool {
	return c.workDaysCounted < c.effectiveWorkDays
}

// advance moves the cycle position one counted day forward, rolling over
// into a fresh cycle at position 30. The penalty is not reapplied.
func (c *cursor) advance() {
	c.position++
	if c.position >= CycleLength {
		c.position = 0
		c.workDaysCounted = 0
		c.completedCycles++
		c.effectiveWorkDays = WorkDaysPerCycle
	}
}

// step consumes one calendar day and reports what kind of day it was.
func (c *cursor) step(intervals []resolved, day Date) ScheduleEntry {
	if lt, ok := leaveTypeOn(intervals, day); ok {
		entry := ScheduleEntry{Date: day, Kind: EntryLeave, LeaveType: lt}
		if !lt.Pauses() {
			c.advance()
		}
		return entry
	}
	if c.inWorkPhase() {
		c.workDaysCounted++
		c.advance()
		return ScheduleEntry{Date: day, Kind: EntryWork}
	}
	c.advance()
	return ScheduleEntry{Date: day, Kind: EntryProjectedOff, LeaveType: LeaveAnnual}
}

// =============================================================================
// PROJECTION
// =============================================================================

// ProjectSchedule projects the duty cycle over [rangeStart, rangeEnd]
// given the approved-leave history and the daysOwed penalty for the cycle
// in progress. Output is ordered by date and filtered to the range.
// An inverted range yields an empty schedule; malformed leave intervals
// are skipped. ProjectSchedule is pure and never fails.
func ProjectSchedule(leaves []Interval, rangeStart, rangeEnd Date, daysOwed int) []ScheduleEntry {
	if rangeStart.IsZero() || rangeEnd.IsZero() || rangeEnd.Before(rangeStart) {
		return nil
	}

	intervals := resolveIntervals(leaves)
	cur := newCursor(daysOwed)
	epoch := StartOfYear(rangeStart.Year())

	var out []ScheduleEntry
	for day := epoch; !day.After(rangeEnd); day = day.AddDays(1) {
		entry := cur.step(intervals, day)
		if !day.Before(rangeStart) {
			out = append(out, entry)
		}
	}
	return out
}
