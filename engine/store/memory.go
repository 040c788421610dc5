// Package store provides an in-memory engine.Store implementation,
// used by unit tests and local development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andino/letras-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	orders        map[engine.OrderID]engine.Order
	distributions map[engine.DistributionID]engine.Distribution
	installments  map[engine.InstallmentID]engine.Installment
	companies     map[engine.CompanyID]engine.Company
	suppliers     map[engine.SupplierID]engine.Supplier
}

func NewMemory() *Memory {
	return &Memory{
		orders:        make(map[engine.OrderID]engine.Order),
		distributions: make(map[engine.DistributionID]engine.Distribution),
		installments:  make(map[engine.InstallmentID]engine.Installment),
		companies:     make(map[engine.CompanyID]engine.Company),
		suppliers:     make(map[engine.SupplierID]engine.Supplier),
	}
}

// =============================================================================
// ORDERS
// =============================================================================

func (m *Memory) SaveOrder(_ context.Context, o engine.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id engine.OrderID) (*engine.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *Memory) ListOrders(_ context.Context) ([]engine.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (m *Memory) UpdateOrderState(_ context.Context, id engine.OrderID, state engine.OrderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return &engine.NotFoundError{Kind: "order", ID: string(id)}
	}
	o.State = state
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return nil
}

func (m *Memory) DeleteOrder(_ context.Context, id engine.OrderID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

// =============================================================================
// DISTRIBUTIONS
// =============================================================================

func (m *Memory) CreateDistributions(_ context.Context, batch []engine.Distribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// All-or-nothing: reject the whole batch on any ID collision first.
	for _, d := range batch {
		if _, exists := m.distributions[d.ID]; exists {
			return &engine.DependentsError{Kind: "distribution", ID: string(d.ID), Dependents: "duplicates", Count: 1}
		}
	}
	for _, d := range batch {
		m.distributions[d.ID] = d
	}
	return nil
}

func (m *Memory) GetDistribution(_ context.Context, id engine.DistributionID) (*engine.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.distributions[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *Memory) ListDistributionsByOrder(_ context.Context, orderID engine.OrderID) ([]engine.Distribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Distribution
	for _, d := range m.distributions {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) DistributedTotal(_ context.Context, orderID engine.OrderID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, d := range m.distributions {
		if d.OrderID == orderID {
			total = total.Add(d.Amount)
		}
	}
	return total, nil
}

func (m *Memory) CountDistributionsByOrder(_ context.Context, orderID engine.OrderID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.distributions {
		if d.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountDistributionsByCompany(_ context.Context, companyID engine.CompanyID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.distributions {
		if d.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) SetDistributionSettled(_ context.Context, id engine.DistributionID, settled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.distributions[id]
	if !ok {
		return &engine.NotFoundError{Kind: "distribution", ID: string(id)}
	}
	d.Settled = settled
	m.distributions[id] = d
	return nil
}

func (m *Memory) DeleteDistribution(_ context.Context, id engine.DistributionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.distributions, id)
	return nil
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func (m *Memory) CreateInstallments(_ context.Context, batch []engine.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ins := range batch {
		if _, exists := m.installments[ins.ID]; exists {
			return &engine.DependentsError{Kind: "installment", ID: string(ins.ID), Dependents: "duplicates", Count: 1}
		}
	}
	for _, ins := range batch {
		m.installments[ins.ID] = ins
	}
	return nil
}

func (m *Memory) GetInstallment(_ context.Context, id engine.InstallmentID) (*engine.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ins, ok := m.installments[id]
	if !ok {
		return nil, nil
	}
	return &ins, nil
}

func (m *Memory) ListInstallmentsByDistribution(_ context.Context, distributionID engine.DistributionID) ([]engine.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Installment
	for _, ins := range m.installments {
		if ins.DistributionID == distributionID {
			out = append(out, ins)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) CountInstallmentsByDistribution(_ context.Context, distributionID engine.DistributionID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, ins := range m.installments {
		if ins.DistributionID == distributionID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) ScheduledTotal(_ context.Context, distributionID engine.DistributionID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, ins := range m.installments {
		if ins.DistributionID == distributionID {
			total = total.Add(ins.Amount)
		}
	}
	return total, nil
}

func (m *Memory) PaidTotalByOrder(_ context.Context, orderID engine.OrderID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, ins := range m.installments {
		if ins.Status != engine.InstallmentPaid {
			continue
		}
		d, ok := m.distributions[ins.DistributionID]
		if ok && d.OrderID == orderID {
			total = total.Add(ins.Amount)
		}
	}
	return total, nil
}

func (m *Memory) UpdateInstallment(_ context.Context, ins engine.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.installments[ins.ID]; !ok {
		return &engine.NotFoundError{Kind: "installment", ID: string(ins.ID)}
	}
	m.installments[ins.ID] = ins
	return nil
}

func (m *Memory) DeleteInstallment(_ context.Context, id engine.InstallmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.installments, id)
	return nil
}

// =============================================================================
// CAPACITY AGGREGATION
// =============================================================================

func (m *Memory) DailyTotal(_ context.Context, day time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	day = engine.Day(day)
	total := decimal.Zero
	for _, ins := range m.installments {
		if ins.Date.Equal(day) {
			total = total.Add(ins.Amount)
		}
	}
	return total, nil
}

func (m *Memory) DailyTotalsInRange(_ context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	from, to = engine.Day(from), engine.Day(to)
	totals := make(map[string]decimal.Decimal)
	for _, ins := range m.installments {
		if ins.Date.Before(from) || ins.Date.After(to) {
			continue
		}
		key := ins.Date.Format("2006-01-02")
		totals[key] = totals[key].Add(ins.Amount)
	}
	return totals, nil
}

func (m *Memory) ListPendingWithDeadlineBefore(_ context.Context, asOf time.Time) ([]engine.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asOf = engine.Day(asOf)
	var out []engine.Installment
	for _, ins := range m.installments {
		if ins.Status == engine.InstallmentPending && ins.GraceDeadline.Before(asOf) {
			out = append(out, ins)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// =============================================================================
// COMPANIES / SUPPLIERS
// =============================================================================

func (m *Memory) SaveCompany(_ context.Context, c engine.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[c.ID] = c
	return nil
}

func (m *Memory) GetCompany(_ context.Context, id engine.CompanyID) (*engine.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListCompanies(_ context.Context) ([]engine.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Company, 0, len(m.companies))
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteCompany(_ context.Context, id engine.CompanyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.companies, id)
	return nil
}

func (m *Memory) SaveSupplier(_ context.Context, s engine.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppliers[s.ID] = s
	return nil
}

func (m *Memory) GetSupplier(_ context.Context, id engine.SupplierID) (*engine.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) ListSuppliers(_ context.Context) ([]engine.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]engine.Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
