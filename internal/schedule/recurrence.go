// Package schedule implements the recurring maintenance engine: due-date
// calculation, task generation, and contractor assignment resolution.
package schedule

import (
	"fmt"
	"time"

	"github.com/building-ops/backend/internal/storage/models"
)

// NextOccurrence computes the due date that follows anchor for the given
// recurrence interval. The anchor must be the previously computed due date,
// not "today": re-anchoring on the wall clock accumulates drift across months
// of varying length.
//
// Recurrence "none" has no next occurrence; callers must complete the
// schedule instead. Calling NextOccurrence with it is a programming defect
// and returns an error.
func NextOccurrence(anchor time.Time, recurrence string) (time.Time, error) {
	switch recurrence {
	case models.RecurrenceDaily:
		return anchor.AddDate(0, 0, 1), nil
	case models.RecurrenceWeekly:
		return anchor.AddDate(0, 0, 7), nil
	case models.RecurrenceMonthly:
		return addMonthsClamped(anchor, 1), nil
	case models.RecurrenceQuarterly:
		return addMonthsClamped(anchor, 3), nil
	case models.RecurrenceHalfYearly:
		return addMonthsClamped(anchor, 6), nil
	case models.RecurrenceYearly:
		return addMonthsClamped(anchor, 12), nil
	case models.RecurrenceNone:
		return time.Time{}, fmt.Errorf("recurrence %q has no next occurrence", recurrence)
	default:
		return time.Time{}, fmt.Errorf("unknown recurrence %q", recurrence)
	}
}

// addMonthsClamped advances t by the given number of calendar months,
// keeping the day-of-month but clamping to the target month's length.
// Go's AddDate normalizes instead (Jan 31 + 1 month = Mar 2/3), which is
// exactly the drift the calculator must avoid.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	m := int(month) + months
	year += (m - 1) / 12
	month = time.Month((m-1)%12 + 1)

	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
