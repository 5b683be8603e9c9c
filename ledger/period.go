package ledger

import "time"

// =============================================================================
// PERIOD - Time boundary for budget consumption
// =============================================================================

// Period is a closed time range [Start, End]. Budget progress is always
// computed for the period containing "now", never across periods.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// PeriodFor returns the calendar period of the given kind containing at:
// the whole month for monthly budgets, the whole year for yearly ones.
func PeriodFor(at time.Time, kind BudgetPeriod) Period {
	at = at.UTC()
	switch kind {
	case PeriodYearly:
		return Period{
			Start: time.Date(at.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(at.Year(), time.December, 31, 23, 59, 59, 999999999, time.UTC),
		}
	default: // monthly
		start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Start: start,
			End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		}
	}
}
