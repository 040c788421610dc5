/*
calendar.go - Business-day rules

PURPOSE:
  Classifies a date as business or non-business. A date is a business
  day iff it is not Saturday/Sunday and not present in the configured
  holiday set. Pure and total over any date.

The holiday set is fixed for the operative year and loaded at process
start; there is no runtime holiday editing. Declaring a holiday never
retroactively invalidates installments already scheduled on it - only
new scheduling is blocked.

SEE ALSO:
  - scheduler.go: rejects installment dates that fail these rules
  - capacity.go:  holiday dates always classify as TierHoliday
*/
package engine

import (
	"fmt"
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Calendar holds the immutable holiday set and answers business-day
// queries. Safe for concurrent use: it is never mutated after creation.
type Calendar struct {
	holidays map[string]struct{}
}

// NewCalendar builds a calendar from the given holiday dates.
// Dates are normalized to day granularity.
func NewCalendar(holidays []time.Time) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[Day(h).Format(dateLayout)] = struct{}{}
	}
	return &Calendar{holidays: set}
}

// NewCalendarFromStrings builds a calendar from ISO dates (YYYY-MM-DD).
func NewCalendarFromStrings(dates []string) (*Calendar, error) {
	parsed := make([]time.Time, 0, len(dates))
	for _, s := range dates {
		t, err := time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", s, err)
		}
		parsed = append(parsed, t)
	}
	return NewCalendar(parsed), nil
}

// DefaultHolidays returns the operative-year holiday set (Peru 2025).
func DefaultHolidays() []string {
	return []string{
		"2025-01-01", "2025-04-17", "2025-04-18", "2025-05-01",
		"2025-06-29", "2025-07-28", "2025-07-29", "2025-08-30",
		"2025-10-08", "2025-11-01", "2025-12-08", "2025-12-25",
	}
}

// IsBusinessDay reports whether date is a weekday outside the holiday set.
func (c *Calendar) IsBusinessDay(date time.Time) bool {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(date)
}

// IsHoliday reports whether date is in the configured holiday set.
func (c *Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.holidays[Day(date).Format(dateLayout)]
	return ok
}

// Holidays returns the configured holiday dates in ascending order.
func (c *Calendar) Holidays() []string {
	out := make([]string, 0, len(c.holidays))
	for d := range c.holidays {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
