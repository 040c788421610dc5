/*
errors.go - Centralized error taxonomy for the engine

PURPOSE:
  All engine error types in one place. Callers match with errors.Is()
  against the sentinels; structured variants carry the amounts and
  identifiers needed for useful messages.

ERROR CATEGORIES:
  1. Validation errors - bad input, detected before any write
  2. Conflict errors   - a conservation invariant would be violated
  3. Not-found errors  - missing order/distribution/installment

All validation happens before any write: a rejected batch leaves state
untouched.

SEE ALSO:
  - allocation.go, scheduler.go: produce these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAmount is returned for amounts that are zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrOverAllocation is returned when distribution amounts would
	// exceed the order total.
	ErrOverAllocation = errors.New("distributions exceed order total")

	// ErrOverSchedule is returned when installment amounts would exceed
	// the distribution amount.
	ErrOverSchedule = errors.New("installments exceed distribution amount")

	// ErrNonBusinessDay is returned when an installment date falls on a
	// weekend or configured holiday.
	ErrNonBusinessDay = errors.New("date is not a business day")

	// ErrHasDependents is returned when deletion is blocked by children.
	ErrHasDependents = errors.New("record has dependent records")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrOrderClosed is returned when allocating against a cancelled or
	// completed order.
	ErrOrderClosed = errors.New("order is cancelled or completed")

	// ErrInvalidState is returned for lifecycle transitions that are not
	// allowed from the order's current state.
	ErrInvalidState = errors.New("invalid order state transition")

	// ErrEmptyBatch is returned when a batch operation carries no entries.
	ErrEmptyBatch = errors.New("batch is empty")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverAllocationError reports how far an allocation request overshoots.
type OverAllocationError struct {
	OrderID   OrderID
	Total     decimal.Decimal
	Allocated decimal.Decimal
	Requested decimal.Decimal
}

func (e *OverAllocationError) Error() string {
	remaining := e.Total.Sub(e.Allocated)
	return fmt.Sprintf("over-allocation on order %s: requested %s, only %s of %s remains",
		e.OrderID, e.Requested, remaining, e.Total)
}

func (e *OverAllocationError) Unwrap() error { return ErrOverAllocation }

// OverScheduleError reports how far a scheduling request overshoots.
type OverScheduleError struct {
	DistributionID DistributionID
	Amount         decimal.Decimal
	Scheduled      decimal.Decimal
	Requested      decimal.Decimal
}

func (e *OverScheduleError) Error() string {
	remaining := e.Amount.Sub(e.Scheduled)
	return fmt.Sprintf("over-schedule on distribution %s: requested %s, only %s of %s remains",
		e.DistributionID, e.Requested, remaining, e.Amount)
}

func (e *OverScheduleError) Unwrap() error { return ErrOverSchedule }

// NonBusinessDayError identifies which date failed the calendar rules.
type NonBusinessDayError struct {
	Date time.Time
}

func (e *NonBusinessDayError) Error() string {
	return fmt.Sprintf("%s is not a business day", e.Date.Format("2006-01-02"))
}

func (e *NonBusinessDayError) Unwrap() error { return ErrNonBusinessDay }

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "order", "distribution", "installment", "company", "supplier"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DependentsError identifies why a deletion was blocked.
type DependentsError struct {
	Kind       string
	ID         string
	Dependents string
	Count      int
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: %d %s reference it",
		e.Kind, e.ID, e.Count, e.Dependents)
}

func (e *DependentsError) Unwrap() error { return ErrHasDependents }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true for errors caused by invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNonBusinessDay) ||
		errors.Is(err, ErrEmptyBatch)
}

// IsConflict returns true for errors caused by invariant violations.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverAllocation) ||
		errors.Is(err, ErrOverSchedule) ||
		errors.Is(err, ErrHasDependents) ||
		errors.Is(err, ErrOrderClosed) ||
		errors.Is(err, ErrInvalidState)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
