/*
Package engine implements the order allocation and payment-scheduling core.

PURPOSE:
  This package contains the domain types and rules for splitting a
  purchase order (Order) among paying companies (Distribution) and
  splitting each company's share into dated payment bills (Installment,
  a promissory-note style "letra").

KEY CONCEPTS IN THIS FILE (types.go):
  - Order: a purchase commitment with a total amount owed to a supplier
  - Distribution: the slice of an order assigned to one paying company
  - Installment: a dated, fixed-amount bill raised against a distribution
  - Company/Supplier: the parties on either side of the order

CONSERVATION INVARIANTS (enforced by allocation.go / scheduler.go):
  1. For every order:        Σ distribution amounts ≤ order total
  2. For every distribution: Σ installment amounts  ≤ distribution amount
  3. Every installment date is a business day (calendar.go)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money, never float64
  2. Type safety: distinct ID types prevent mixing parents and children
  3. Derived sums: allocated/scheduled totals are always recomputed from
     children, never stored as counters that can drift

SEE ALSO:
  - allocation.go: order → distribution arithmetic
  - scheduler.go:  distribution → installment arithmetic
  - calendar.go:   business-day rules
*/
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type OrderID string
type DistributionID string
type InstallmentID string
type CompanyID string
type SupplierID string

func NewOrderID() OrderID               { return OrderID(uuid.NewString()) }
func NewDistributionID() DistributionID { return DistributionID(uuid.NewString()) }
func NewInstallmentID() InstallmentID   { return InstallmentID(uuid.NewString()) }
func NewCompanyID() CompanyID           { return CompanyID(uuid.NewString()) }
func NewSupplierID() SupplierID         { return SupplierID(uuid.NewString()) }

// =============================================================================
// ORDER - Purchase commitment with a total amount
// =============================================================================

type OrderState string

const (
	OrderPending   OrderState = "pending"
	OrderAllocated OrderState = "allocated"
	OrderCompleted OrderState = "completed"
	OrderCancelled OrderState = "cancelled"
)

// PaymentMode distinguishes cash orders from credit orders.
// Credit orders carry a term in days; cash orders do not.
type PaymentMode string

const (
	ModeCash   PaymentMode = "cash"
	ModeCredit PaymentMode = "credit"
)

// DefaultTermDays is the credit term applied when none is given.
const DefaultTermDays = 60

type Order struct {
	ID          OrderID
	SupplierID  SupplierID
	Number      string
	Description string
	Total       decimal.Decimal
	Mode        PaymentMode
	TermDays    int // 0 for cash orders
	State       OrderState
	OrderDate   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Closed reports whether the order no longer accepts allocation.
func (o *Order) Closed() bool {
	return o.State == OrderCompleted || o.State == OrderCancelled
}

// =============================================================================
// DISTRIBUTION - Portion of an order assigned to a paying company
// =============================================================================

type Distribution struct {
	ID        DistributionID
	OrderID   OrderID
	CompanyID CompanyID
	Amount    decimal.Decimal
	// Settled is administrative: an operator marks the distribution as
	// closed out. It is not derived from installment amounts.
	Settled   bool
	CreatedAt time.Time
}

// DistributionSpec is one entry of an allocation request:
// assign Amount of the order to CompanyID.
type DistributionSpec struct {
	CompanyID CompanyID
	Amount    decimal.Decimal
}

// =============================================================================
// INSTALLMENT (LETRA) - Dated bill against a distribution
// =============================================================================

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

// GraceDays is the slack after the payment date before an unpaid
// installment is considered overdue.
const GraceDays = 3

type Installment struct {
	ID             InstallmentID
	DistributionID DistributionID
	Amount         decimal.Decimal
	Date           time.Time // payment date, day granularity, UTC
	Status         InstallmentStatus
	GraceDeadline  time.Time // Date + GraceDays
	DaysLate       int
	PaidOn         *time.Time
	Bank           string
	OperationNo    string
	CreatedAt      time.Time
}

// =============================================================================
// COMPANY / SUPPLIER
// =============================================================================

// Company is a paying company that distributions are assigned to.
type Company struct {
	ID        CompanyID
	Name      string
	RUC       string
	CreatedAt time.Time
}

// Supplier is the party an order is owed to.
type Supplier struct {
	ID              SupplierID
	Name            string
	Color           string // HEX color for calendar display
	DefaultTermDays int
	Active          bool
	CreatedAt       time.Time
}

// =============================================================================
// TIME HELPERS
// =============================================================================

// Day truncates a time to day granularity in UTC. All installment and
// calendar arithmetic operates on Day-normalized times.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds a Day-normalized UTC date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MustDecimal parses a decimal string, returning zero on failure.
// Intended for constants and tests, mirroring decimal.RequireFromString
// without the panic.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
