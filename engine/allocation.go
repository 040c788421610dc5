/*
allocation.go - Allocation Ledger

PURPOSE:
  Splits an order's total among paying companies. Owns the order
  lifecycle and enforces the first conservation invariant:

      Σ distribution amounts ≤ order total

  Validation happens before any write; a rejected allocation leaves the
  order and its distributions untouched.

LIFECYCLE:
  pending --(first allocation)--> allocated
  allocated --CompleteOrder-->    completed
  pending|allocated --CancelOrder--> cancelled

  Full allocation never promotes an order to completed on its own:
  completion is a separate, explicit operation. Deleting distributions
  never reverts allocated back to pending.

SEE ALSO:
  - scheduler.go: the next level down (distribution → installments)
  - store.go:     persistence contract, including atomic batches
*/
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationLedger coordinates order creation, distribution batches and
// the order lifecycle. Writes against the same order are serialized.
type AllocationLedger struct {
	store Store
	locks *keyedLocks
}

func NewAllocationLedger(store Store) *AllocationLedger {
	return &AllocationLedger{store: store, locks: newKeyedLocks()}
}

// =============================================================================
// ORDER LIFECYCLE
// =============================================================================

// NewOrderInput carries the fields a client supplies for a new order.
type NewOrderInput struct {
	SupplierID  SupplierID
	Number      string
	Description string
	Total       decimal.Decimal
	Mode        PaymentMode
	TermDays    int
	OrderDate   time.Time
}

// CreateOrder validates and persists a new order in the pending state.
// Credit orders without a term get DefaultTermDays; cash orders carry
// no term.
func (l *AllocationLedger) CreateOrder(ctx context.Context, in NewOrderInput) (*Order, error) {
	if !in.Total.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if _, err := l.supplier(ctx, in.SupplierID); err != nil {
		return nil, err
	}

	mode := in.Mode
	if mode == "" {
		mode = ModeCredit
	}
	termDays := in.TermDays
	switch mode {
	case ModeCash:
		termDays = 0
	case ModeCredit:
		if termDays <= 0 {
			termDays = DefaultTermDays
		}
	default:
		return nil, &NotFoundError{Kind: "payment mode", ID: string(mode)}
	}

	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = Day(time.Now().UTC())
	}

	now := time.Now().UTC()
	order := Order{
		ID:          NewOrderID(),
		SupplierID:  in.SupplierID,
		Number:      in.Number,
		Description: in.Description,
		Total:       in.Total,
		Mode:        mode,
		TermDays:    termDays,
		State:       OrderPending,
		OrderDate:   Day(orderDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := l.store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder returns the order or a NotFoundError.
func (l *AllocationLedger) GetOrder(ctx context.Context, id OrderID) (*Order, error) {
	return l.order(ctx, id)
}

// ListOrders returns all orders.
func (l *AllocationLedger) ListOrders(ctx context.Context) ([]Order, error) {
	return l.store.ListOrders(ctx)
}

// CompleteOrder marks an order completed. Only pending or allocated
// orders can be completed; completion is never implicit.
func (l *AllocationLedger) CompleteOrder(ctx context.Context, id OrderID) error {
	unlock := l.locks.acquire(string(id))
	defer unlock()

	order, err := l.order(ctx, id)
	if err != nil {
		return err
	}
	if order.Closed() {
		return ErrInvalidState
	}
	return l.store.UpdateOrderState(ctx, id, OrderCompleted)
}

// CancelOrder marks an order cancelled. Completed orders cannot be
// cancelled.
func (l *AllocationLedger) CancelOrder(ctx context.Context, id OrderID) error {
	unlock := l.locks.acquire(string(id))
	defer unlock()

	order, err := l.order(ctx, id)
	if err != nil {
		return err
	}
	if order.State == OrderCompleted || order.State == OrderCancelled {
		return ErrInvalidState
	}
	return l.store.UpdateOrderState(ctx, id, OrderCancelled)
}

// DeleteOrder removes an order that has no distributions.
func (l *AllocationLedger) DeleteOrder(ctx context.Context, id OrderID) error {
	unlock := l.locks.acquire(string(id))
	defer unlock()

	if _, err := l.order(ctx, id); err != nil {
		return err
	}
	count, err := l.store.CountDistributionsByOrder(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DependentsError{Kind: "order", ID: string(id), Dependents: "distributions", Count: count}
	}
	return l.store.DeleteOrder(ctx, id)
}

// =============================================================================
// ALLOCATION
// =============================================================================

// CreateDistributions allocates portions of an order to paying
// companies as one atomic batch. The whole batch is rejected if any
// amount is non-positive, any company is unknown, or the batch would
// push the distributed sum past the order total. On the first
// successful allocation the order moves from pending to allocated.
func (l *AllocationLedger) CreateDistributions(ctx context.Context, orderID OrderID, specs []DistributionSpec) ([]Distribution, error) {
	if len(specs) == 0 {
		return nil, ErrEmptyBatch
	}

	unlock := l.locks.acquire(string(orderID))
	defer unlock()

	order, err := l.order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Closed() {
		return nil, ErrOrderClosed
	}

	requested := decimal.Zero
	for _, spec := range specs {
		if !spec.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if _, err := l.company(ctx, spec.CompanyID); err != nil {
			return nil, err
		}
		requested = requested.Add(spec.Amount)
	}

	allocated, err := l.store.DistributedTotal(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if allocated.Add(requested).GreaterThan(order.Total) {
		return nil, &OverAllocationError{
			OrderID:   orderID,
			Total:     order.Total,
			Allocated: allocated,
			Requested: requested,
		}
	}

	now := time.Now().UTC()
	batch := make([]Distribution, len(specs))
	for i, spec := range specs {
		batch[i] = Distribution{
			ID:        NewDistributionID(),
			OrderID:   orderID,
			CompanyID: spec.CompanyID,
			Amount:    spec.Amount,
			CreatedAt: now,
		}
	}

	if err := l.store.CreateDistributions(ctx, batch); err != nil {
		return nil, err
	}

	if order.State == OrderPending {
		if err := l.store.UpdateOrderState(ctx, orderID, OrderAllocated); err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// RemainingAmount returns order total minus the distributed sum.
func (l *AllocationLedger) RemainingAmount(ctx context.Context, orderID OrderID) (decimal.Decimal, error) {
	order, err := l.order(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	allocated, err := l.store.DistributedTotal(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return order.Total.Sub(allocated), nil
}

// GetDistribution returns the distribution or a NotFoundError.
func (l *AllocationLedger) GetDistribution(ctx context.Context, id DistributionID) (*Distribution, error) {
	return l.distribution(ctx, id)
}

// ListDistributions returns an order's distributions.
func (l *AllocationLedger) ListDistributions(ctx context.Context, orderID OrderID) ([]Distribution, error) {
	if _, err := l.order(ctx, orderID); err != nil {
		return nil, err
	}
	return l.store.ListDistributionsByOrder(ctx, orderID)
}

// DeleteDistribution removes a distribution that has no installments.
// The order's distributed total decreases accordingly; the order state
// is not reverted.
func (l *AllocationLedger) DeleteDistribution(ctx context.Context, id DistributionID) error {
	dist, err := l.distribution(ctx, id)
	if err != nil {
		return err
	}

	unlock := l.locks.acquire(string(dist.OrderID))
	defer unlock()

	count, err := l.store.CountInstallmentsByDistribution(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &DependentsError{Kind: "distribution", ID: string(id), Dependents: "installments", Count: count}
	}
	return l.store.DeleteDistribution(ctx, id)
}

// SetSettled toggles the administrative settled flag on a distribution.
func (l *AllocationLedger) SetSettled(ctx context.Context, id DistributionID, settled bool) error {
	if _, err := l.distribution(ctx, id); err != nil {
		return err
	}
	return l.store.SetDistributionSettled(ctx, id, settled)
}

// PaidPercent returns how much of the order total has been paid through
// installments, in percent rounded to two decimals.
func (l *AllocationLedger) PaidPercent(ctx context.Context, orderID OrderID) (decimal.Decimal, error) {
	order, err := l.order(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	if order.Total.IsZero() {
		return decimal.Zero, nil
	}
	paid, err := l.store.PaidTotalByOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return paid.Div(order.Total).Mul(decimal.NewFromInt(100)).Round(2), nil
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

func (l *AllocationLedger) order(ctx context.Context, id OrderID) (*Order, error) {
	order, err := l.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Kind: "order", ID: string(id)}
	}
	return order, nil
}

func (l *AllocationLedger) distribution(ctx context.Context, id DistributionID) (*Distribution, error) {
	dist, err := l.store.GetDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	if dist == nil {
		return nil, &NotFoundError{Kind: "distribution", ID: string(id)}
	}
	return dist, nil
}

func (l *AllocationLedger) company(ctx context.Context, id CompanyID) (*Company, error) {
	c, err := l.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Kind: "company", ID: string(id)}
	}
	return c, nil
}

func (l *AllocationLedger) supplier(ctx context.Context, id SupplierID) (*Supplier, error) {
	sup, err := l.store.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, &NotFoundError{Kind: "supplier", ID: string(id)}
	}
	return sup, nil
}
