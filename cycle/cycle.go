/*
Package cycle implements the rotating duty-cycle projection engine.

PURPOSE:
  Staff do not accrue time off per calendar month. They rotate through a
  fixed 30-day duty cycle: 22 work days followed by 8 off days, restarting
  every January 1. This package projects that cycle day by day over any
  date range and derives a point-in-time status snapshot from the
  approved-leave history.

KEY CONCEPTS:
  - Cycle: 30 consecutive counted days, 22 work + 8 off.
  - daysOwed: extra work days owed in the cycle currently in progress,
    incurred by employee-initiated extensions. The penalty stretches the
    work phase (and shrinks the off phase) of that one cycle only; once
    the cycle completes, subsequent cycles are back to 22/8.
  - Pause vs advance: sick and compassionate leave days freeze the cycle
    counters entirely. Annual leave days advance the cycle position the
    same way an off day does - annual leave is drawn from the rotating
    off-pool, not from a separate bucket.

GUARANTEES:
  Everything in this package is a pure function of its inputs. No I/O,
  no clock reads, no errors: malformed leave intervals are skipped, and
  an empty or inverted range yields an empty projection.

SEE ALSO:
  - schedule.go: day-by-day projection walk
  - status.go: as-of-date snapshot
  - leave package: balance derivation and request lifecycle on top
*/
package cycle

// =============================================================================
// CYCLE CONSTANTS
// =============================================================================

const (
	// WorkDaysPerCycle is the baseline work phase length.
	WorkDaysPerCycle = 22

	// OffDaysPerCycle is the baseline off phase length.
	OffDaysPerCycle = 8

	// CycleLength is the total counted days per cycle (work + off).
	CycleLength = WorkDaysPerCycle + OffDaysPerCycle

	// SickDaysPerYear is the yearly sick pool, counted by calendar year
	// independently of the duty cycle.
	SickDaysPerYear = 90

	// CompassionateDaysPerYear is the yearly compassionate pool.
	CompassionateDaysPerYear = 10
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

type LeaveType string

const (
	LeaveAnnual        LeaveType = "annual"
	LeaveSick          LeaveType = "sick"
	LeaveCompassionate LeaveType = "compassionate"
)

// ValidLeaveType reports whether t is one of the canonical leave types.
func ValidLeaveType(t LeaveType) bool {
	switch t {
	case LeaveAnnual, LeaveSick, LeaveCompassionate:
		return true
	}
	return false
}

// Pauses reports whether a day of this leave type freezes the cycle
// counters. Annual leave advances the cycle like an off day; sick and
// compassionate leave pause it.
func (t LeaveType) Pauses() bool {
	return t == LeaveSick || t == LeaveCompassionate
}

// =============================================================================
// LEAVE INTERVAL - One approved leave as seen by the projection
// =============================================================================

// Interval is an approved leave interval in canonical storage form.
// Dates are "YYYY-MM-DD" strings as persisted; the projection parses them
// and silently skips intervals it cannot parse.
type Interval struct {
	Type  LeaveType
	Start string
	End   string
}

// resolved is an Interval with parsed dates. Intervals that fail to parse
// or run backwards never become resolved.
type resolved struct {
	typ   LeaveType
	start Date
	end   Date
}

func (r resolved) contains(d Date) bool {
	return !d.Before(r.start) && !d.After(r.end)
}

// resolveIntervals parses intervals, skipping malformed ones.
func resolveIntervals(leaves []Interval) []resolved {
	out := make([]resolved, 0, len(leaves))
	for _, l := range leaves {
		start, err := ParseDate(l.Start)
		if err != nil {
			continue
		}
		end, err := ParseDate(l.End)
		if err != nil {
			continue
		}
		if end.Before(start) {
			continue
		}
		out = append(out, resolved{typ: l.Type, start: start, end: end})
	}
	return out
}

// leaveTypeOn returns the leave type covering d, if any. Pausing leave
// wins over annual when intervals overlap, mirroring how the counters
// treat a day that is claimed by both.
func leaveTypeOn(intervals []resolved, d Date) (LeaveType, bool) {
	var found LeaveType
	var ok bool
	for _, iv := range intervals {
		if !iv.contains(d) {
			continue
		}
		if iv.typ.Pauses() {
			return iv.typ, true
		}
		found, ok = iv.typ, true
	}
	return found, ok
}
