/*
scheduler.go - Installment Scheduler

PURPOSE:
  Splits a distribution's amount into dated payment bills and enforces
  the second conservation invariant:

      Σ installment amounts ≤ distribution amount

  plus the calendar rule: every installment date is a business day.

BULK CREATION:
  The operator picks N dates and one shared amount; the batch persists
  one installment per date, all-or-nothing. A single invalid date
  rejects the whole batch before any write. Heterogeneous per-date
  amounts are scheduled as batches of one.

STATUS:
  pending / paid / overdue is administrative bookkeeping: it records
  what happened to a bill but never feeds back into the conservation
  arithmetic. An unpaid bill becomes overdue once its grace deadline
  (payment date + GraceDays) has passed.

SEE ALSO:
  - calendar.go: business-day rules consulted on every date
  - capacity.go: the read-side aggregation over scheduled installments
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Scheduler coordinates installment batches against distributions.
// Writes against the same distribution are serialized.
type Scheduler struct {
	store    Store
	calendar *Calendar
	locks    *keyedLocks
}

func NewScheduler(store Store, calendar *Calendar) *Scheduler {
	return &Scheduler{store: store, calendar: calendar, locks: newKeyedLocks()}
}

// =============================================================================
// SCHEDULING
// =============================================================================

// CreateInstallments schedules one installment of amount on each of the
// given dates, atomically. Rejections, in validation order:
//   - ErrEmptyBatch        no dates
//   - ErrInvalidAmount     amount ≤ 0
//   - NonBusinessDayError  any date fails calendar rules
//   - OverScheduleError    amount×len(dates) would exceed what remains
//
// The daily capacity ceiling is deliberately NOT consulted here: it is
// an advisory planning signal, not a transactional constraint.
func (s *Scheduler) CreateInstallments(ctx context.Context, distributionID DistributionID, amount decimal.Decimal, dates []time.Time) ([]Installment, error) {
	if len(dates) == 0 {
		return nil, ErrEmptyBatch
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	unlock := s.locks.acquire(string(distributionID))
	defer unlock()

	dist, err := s.distribution(ctx, distributionID)
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, len(dates))
	for i, d := range dates {
		day := Day(d)
		if !s.calendar.IsBusinessDay(day) {
			return nil, &NonBusinessDayError{Date: day}
		}
		days[i] = day
	}

	scheduled, err := s.store.ScheduledTotal(ctx, distributionID)
	if err != nil {
		return nil, err
	}
	requested := amount.Mul(decimal.NewFromInt(int64(len(days))))
	if scheduled.Add(requested).GreaterThan(dist.Amount) {
		return nil, &OverScheduleError{
			DistributionID: distributionID,
			Amount:         dist.Amount,
			Scheduled:      scheduled,
			Requested:      requested,
		}
	}

	now := time.Now().UTC()
	batch := make([]Installment, len(days))
	for i, day := range days {
		batch[i] = Installment{
			ID:             NewInstallmentID(),
			DistributionID: distributionID,
			Amount:         amount,
			Date:           day,
			Status:         InstallmentPending,
			GraceDeadline:  day.AddDate(0, 0, GraceDays),
			CreatedAt:      now,
		}
	}

	if err := s.store.CreateInstallments(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// CreateSingleInstallment schedules one installment on one date. Same
// rules as CreateInstallments with a batch of size one.
func (s *Scheduler) CreateSingleInstallment(ctx context.Context, distributionID DistributionID, amount decimal.Decimal, date time.Time) (*Installment, error) {
	batch, err := s.CreateInstallments(ctx, distributionID, amount, []time.Time{date})
	if err != nil {
		return nil, err
	}
	return &batch[0], nil
}

// GetInstallment returns the installment or a NotFoundError.
func (s *Scheduler) GetInstallment(ctx context.Context, id InstallmentID) (*Installment, error) {
	return s.installment(ctx, id)
}

// ListInstallments returns a distribution's installments.
func (s *Scheduler) ListInstallments(ctx context.Context, distributionID DistributionID) ([]Installment, error) {
	if _, err := s.distribution(ctx, distributionID); err != nil {
		return nil, err
	}
	return s.store.ListInstallmentsByDistribution(ctx, distributionID)
}

// DeleteInstallment removes an installment. The distribution's
// scheduled total shrinks accordingly on the next read.
func (s *Scheduler) DeleteInstallment(ctx context.Context, id InstallmentID) error {
	ins, err := s.installment(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.acquire(string(ins.DistributionID))
	defer unlock()

	return s.store.DeleteInstallment(ctx, id)
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// PaymentRecord carries the details of a settled installment.
type PaymentRecord struct {
	PaidOn      time.Time
	Bank        string
	OperationNo string
}

// MarkPaid records payment of an installment.
func (s *Scheduler) MarkPaid(ctx context.Context, id InstallmentID, rec PaymentRecord) (*Installment, error) {
	ins, err := s.installment(ctx, id)
	if err != nil {
		return nil, err
	}

	paidOn := Day(rec.PaidOn)
	if rec.PaidOn.IsZero() {
		paidOn = Day(time.Now().UTC())
	}

	ins.Status = InstallmentPaid
	ins.PaidOn = &paidOn
	ins.Bank = rec.Bank
	ins.OperationNo = rec.OperationNo
	ins.DaysLate = daysLate(ins.Date, paidOn)

	if err := s.store.UpdateInstallment(ctx, *ins); err != nil {
		return nil, err
	}
	return ins, nil
}

// MarkOverdue sweeps pending installments whose grace deadline is
// strictly before asOf and marks them overdue, recording days late
// relative to the payment date. Returns the updated installments.
func (s *Scheduler) MarkOverdue(ctx context.Context, asOf time.Time) ([]Installment, error) {
	day := Day(asOf)
	pending, err := s.store.ListPendingWithDeadlineBefore(ctx, day)
	if err != nil {
		return nil, err
	}

	updated := make([]Installment, 0, len(pending))
	for _, ins := range pending {
		ins.Status = InstallmentOverdue
		ins.DaysLate = daysLate(ins.Date, day)
		if err := s.store.UpdateInstallment(ctx, ins); err != nil {
			return updated, err
		}
		updated = append(updated, ins)
	}
	return updated, nil
}

// daysLate counts whole days from due to actual, never negative.
func daysLate(due, actual time.Time) int {
	late := int(Day(actual).Sub(Day(due)).Hours() / 24)
	if late < 0 {
		return 0
	}
	return late
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

func (s *Scheduler) distribution(ctx context.Context, id DistributionID) (*Distribution, error) {
	dist, err := s.store.GetDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	if dist == nil {
		return nil, &NotFoundError{Kind: "distribution", ID: string(id)}
	}
	return dist, nil
}

func (s *Scheduler) installment(ctx context.Context, id InstallmentID) (*Installment, error) {
	ins, err := s.store.GetInstallment(ctx, id)
	if err != nil {
		return nil, err
	}
	if ins == nil {
		return nil, &NotFoundError{Kind: "installment", ID: string(id)}
	}
	return ins, nil
}
