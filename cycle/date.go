package cycle

import "time"

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. All cycle arithmetic happens at day
// granularity; the zero Date is usable as "unset".
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a canonical "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

// FromTime truncates a time.Time to its UTC calendar day.
func FromTime(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return FromTime(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int                { return d.t.Year() }
func (d Date) Month() time.Month        { return d.t.Month() }
func (d Date) Day() int                 { return d.t.Day() }
func (d Date) Weekday() time.Weekday    { return d.t.Weekday() }
func (d Date) Time() time.Time          { return d.t }
func (d Date) String() string           { return d.t.Format(dateLayout) }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) IsWorkday() bool { return !d.IsWeekend() }

// StartOfYear returns January 1 of the given year - the cycle epoch.
func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }

// =============================================================================
// BUSINESS DAY ARITHMETIC
// =============================================================================

// BusinessDaysBetween counts weekdays in [from, to], inclusive on both
// ends. Returns 0 when to is before from.
func BusinessDaysBetween(from, to Date) int {
	if to.Before(from) {
		return 0
	}
	count := 0
	for d := from; !d.After(to); d = d.AddDays(1) {
		if d.IsWorkday() {
			count++
		}
	}
	return count
}
