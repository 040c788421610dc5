/*
capacity.go - Capacity Aggregator

PURPOSE:
  Read-side aggregation over all scheduled installments: groups amounts
  by calendar day and classifies each day against the daily ceiling.
  Feeds the calendar visualization.

TIER RULES (evaluation order matters):
  1. non-business day        → Holiday  (wins even if amount is scheduled)
  2. total == 0              → Empty
  3. total >  ceiling        → Over
  4. total >= 0.7 × ceiling  → Warning
  5. otherwise               → Normal

The ceiling is advisory: the scheduler never consults it, and changing
it never re-validates amounts already scheduled. Classification is
deterministic for unchanged state.

SEE ALSO:
  - config.go:    the mutable ceiling
  - scheduler.go: the write side this aggregates over
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Tier is the capacity classification of a calendar day.
type Tier string

const (
	TierHoliday Tier = "holiday"
	TierEmpty   Tier = "empty"
	TierNormal  Tier = "normal"
	TierWarning Tier = "warning"
	TierOver    Tier = "over"
)

// warningRatio is the fraction of the ceiling at which a day starts to
// warn.
var warningRatio = decimal.NewFromFloat(0.7)

// DaySummary is one calendar cell: the day, its scheduled total and its
// tier.
type DaySummary struct {
	Date  time.Time
	Total decimal.Decimal
	Tier  Tier
}

// Aggregator computes daily totals and tiers.
type Aggregator struct {
	store    Store
	calendar *Calendar
	ceiling  *Ceiling
}

func NewAggregator(store Store, calendar *Calendar, ceiling *Ceiling) *Aggregator {
	return &Aggregator{store: store, calendar: calendar, ceiling: ceiling}
}

// DailyTotal sums the amounts of all installments dated on the given
// day, across all distributions.
func (a *Aggregator) DailyTotal(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	return a.store.DailyTotal(ctx, Day(date))
}

// ClassifyDay returns the tier for one day against the current ceiling.
func (a *Aggregator) ClassifyDay(ctx context.Context, date time.Time) (Tier, decimal.Decimal, error) {
	day := Day(date)
	total, err := a.store.DailyTotal(ctx, day)
	if err != nil {
		return "", decimal.Zero, err
	}
	return a.classify(day, total), total, nil
}

// MonthCalendar returns one DaySummary per day of the given month, in
// date order.
func (a *Aggregator) MonthCalendar(ctx context.Context, year int, month time.Month) ([]DaySummary, error) {
	first := NewDate(year, month, 1)
	last := first.AddDate(0, 1, -1)

	totals, err := a.store.DailyTotalsInRange(ctx, first, last)
	if err != nil {
		return nil, err
	}

	days := make([]DaySummary, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		total, ok := totals[d.Format(dateLayout)]
		if !ok {
			total = decimal.Zero
		}
		days = append(days, DaySummary{Date: d, Total: total, Tier: a.classify(d, total)})
	}
	return days, nil
}

// classify applies the tier rules to a precomputed total.
func (a *Aggregator) classify(day time.Time, total decimal.Decimal) Tier {
	if !a.calendar.IsBusinessDay(day) {
		return TierHoliday
	}
	if total.IsZero() {
		return TierEmpty
	}
	ceiling := a.ceiling.Value()
	if total.GreaterThan(ceiling) {
		return TierOver
	}
	if total.GreaterThanOrEqual(ceiling.Mul(warningRatio)) {
		return TierWarning
	}
	return TierNormal
}
