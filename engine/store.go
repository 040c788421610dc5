/*
store.go - Persistence interface for orders, distributions and installments

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

ATOMIC BATCHES:
  CreateDistributions and CreateInstallments are all-or-nothing. When an
  allocation request carries three distributions, either all three are
  written or none is. The engine validates before calling the store, so
  a store-level failure must roll back cleanly.

DERIVED SUMS:
  DistributedTotal / ScheduledTotal / DailyTotals are always recomputed
  from children. There is no stored counter to drift out of sync.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: production SQLite
  - engine/store/memory.go: in-memory for tests

SEE ALSO:
  - allocation.go, scheduler.go, capacity.go: consumers
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store handles persistence for the engine. All times are day-normalized
// UTC; all amounts are exact decimals.
type Store interface {
	// Orders
	SaveOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id OrderID) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderState(ctx context.Context, id OrderID, state OrderState) error
	DeleteOrder(ctx context.Context, id OrderID) error

	// Distributions
	CreateDistributions(ctx context.Context, batch []Distribution) error
	GetDistribution(ctx context.Context, id DistributionID) (*Distribution, error)
	ListDistributionsByOrder(ctx context.Context, orderID OrderID) ([]Distribution, error)
	DistributedTotal(ctx context.Context, orderID OrderID) (decimal.Decimal, error)
	CountDistributionsByOrder(ctx context.Context, orderID OrderID) (int, error)
	CountDistributionsByCompany(ctx context.Context, companyID CompanyID) (int, error)
	SetDistributionSettled(ctx context.Context, id DistributionID, settled bool) error
	DeleteDistribution(ctx context.Context, id DistributionID) error

	// Installments
	CreateInstallments(ctx context.Context, batch []Installment) error
	GetInstallment(ctx context.Context, id InstallmentID) (*Installment, error)
	ListInstallmentsByDistribution(ctx context.Context, distributionID DistributionID) ([]Installment, error)
	CountInstallmentsByDistribution(ctx context.Context, distributionID DistributionID) (int, error)
	ScheduledTotal(ctx context.Context, distributionID DistributionID) (decimal.Decimal, error)
	PaidTotalByOrder(ctx context.Context, orderID OrderID) (decimal.Decimal, error)
	UpdateInstallment(ctx context.Context, ins Installment) error
	DeleteInstallment(ctx context.Context, id InstallmentID) error

	// Capacity aggregation (read side)
	DailyTotal(ctx context.Context, day time.Time) (decimal.Decimal, error)
	DailyTotalsInRange(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error)
	ListPendingWithDeadlineBefore(ctx context.Context, asOf time.Time) ([]Installment, error)

	// Companies
	SaveCompany(ctx context.Context, c Company) error
	GetCompany(ctx context.Context, id CompanyID) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	DeleteCompany(ctx context.Context, id CompanyID) error

	// Suppliers
	SaveSupplier(ctx context.Context, s Supplier) error
	GetSupplier(ctx context.Context, id SupplierID) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
}
