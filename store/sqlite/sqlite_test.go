package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andino/letras-engine/engine"
	"github.com/andino/letras-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedParties(t *testing.T, s *sqlite.Store) (engine.SupplierID, engine.CompanyID) {
	t.Helper()
	ctx := context.Background()
	sup := engine.Supplier{
		ID:              "sup-1",
		Name:            "Aceros del Sur",
		Color:           "#1976d2",
		DefaultTermDays: 60,
		Active:          true,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.SaveSupplier(ctx, sup))

	comp := engine.Company{
		ID:        "comp-1",
		Name:      "Comercial Andina",
		RUC:       "20123456789",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveCompany(ctx, comp))
	return sup.ID, comp.ID
}

func seedOrder(t *testing.T, s *sqlite.Store, supID engine.SupplierID, id engine.OrderID, total string) engine.Order {
	t.Helper()
	now := time.Now().UTC()
	o := engine.Order{
		ID:          id,
		SupplierID:  supID,
		Number:      "OC-0042",
		Description: "Planchas de acero",
		Total:       engine.MustDecimal(total),
		Mode:        engine.ModeCredit,
		TermDays:    60,
		State:       engine.OrderPending,
		OrderDate:   engine.NewDate(2025, time.June, 1),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.SaveOrder(context.Background(), o))
	return o
}

func seedDistribution(t *testing.T, s *sqlite.Store, orderID engine.OrderID, compID engine.CompanyID, id engine.DistributionID, amount string) engine.Distribution {
	t.Helper()
	d := engine.Distribution{
		ID:        id,
		OrderID:   orderID,
		CompanyID: compID,
		Amount:    engine.MustDecimal(amount),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateDistributions(context.Background(), []engine.Distribution{d}))
	return d
}

func pendingInstallment(distID engine.DistributionID, id engine.InstallmentID, amount string, day time.Time) engine.Installment {
	return engine.Installment{
		ID:             id,
		DistributionID: distID,
		Amount:         engine.MustDecimal(amount),
		Date:           engine.Day(day),
		Status:         engine.InstallmentPending,
		GraceDeadline:  engine.Day(day).AddDate(0, 0, engine.GraceDays),
		CreatedAt:      time.Now().UTC(),
	}
}

// =============================================================================
// ORDERS
// =============================================================================

func TestOrder_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	supID, _ := seedParties(t, s)
	ctx := context.Background()

	want := seedOrder(t, s, supID, "ord-1", "10000.50")

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.SupplierID, got.SupplierID)
	assert.Equal(t, want.Number, got.Number)
	assert.Equal(t, want.Description, got.Description)
	assert.True(t, got.Total.Equal(engine.MustDecimal("10000.50")))
	assert.Equal(t, engine.ModeCredit, got.Mode)
	assert.Equal(t, 60, got.TermDays)
	assert.Equal(t, engine.OrderPending, got.State)
	assert.Equal(t, engine.NewDate(2025, time.June, 1), got.OrderDate)
}

func TestOrder_GetMissing_ReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetOrder(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrder_UpdateState(t *testing.T) {
	s := newTestStore(t)
	supID, _ := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "100")

	require.NoError(t, s.UpdateOrderState(ctx, "ord-1", engine.OrderAllocated))

	got, err := s.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, engine.OrderAllocated, got.State)

	// Missing orders surface as NotFoundError, not a silent no-op.
	err = s.UpdateOrderState(ctx, "ghost", engine.OrderAllocated)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestOrder_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	supID, _ := seedParties(t, s)
	ctx := context.Background()

	older := seedOrder(t, s, supID, "ord-old", "100")
	older.OrderDate = engine.NewDate(2025, time.May, 1)
	require.NoError(t, s.SaveOrder(ctx, older))
	seedOrder(t, s, supID, "ord-new", "100")

	list, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, engine.OrderID("ord-new"), list[0].ID)
}

// =============================================================================
// DISTRIBUTIONS
// =============================================================================

func TestDistribution_BatchAndExactSum(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "1")

	// Decimal strings survive storage: 0.1 + 0.2 sums to exactly 0.3.
	batch := []engine.Distribution{
		{ID: "dist-1", OrderID: "ord-1", CompanyID: compID, Amount: engine.MustDecimal("0.1"), CreatedAt: time.Now().UTC()},
		{ID: "dist-2", OrderID: "ord-1", CompanyID: compID, Amount: engine.MustDecimal("0.2"), CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, s.CreateDistributions(ctx, batch))

	total, err := s.DistributedTotal(ctx, "ord-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(engine.MustDecimal("0.3")), "total = %s", total)

	count, err := s.CountDistributionsByOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.CountDistributionsByCompany(ctx, compID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDistribution_BatchAtomicity(t *testing.T) {
	// A batch with a duplicate primary key writes nothing at all.

	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "100")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "10")

	err := s.CreateDistributions(ctx, []engine.Distribution{
		{ID: "dist-2", OrderID: "ord-1", CompanyID: compID, Amount: engine.MustDecimal("10"), CreatedAt: time.Now().UTC()},
		{ID: "dist-1", OrderID: "ord-1", CompanyID: compID, Amount: engine.MustDecimal("10"), CreatedAt: time.Now().UTC()},
	})
	require.Error(t, err)

	count, err := s.CountDistributionsByOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed batch must not leave partial rows")
}

func TestDistribution_SettledFlag(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "100")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "100")

	require.NoError(t, s.SetDistributionSettled(ctx, "dist-1", true))
	got, err := s.GetDistribution(ctx, "dist-1")
	require.NoError(t, err)
	assert.True(t, got.Settled)

	err = s.SetDistributionSettled(ctx, "ghost", true)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func TestInstallment_RoundTripAndPayment(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "1000")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "1000")

	due := engine.NewDate(2025, time.June, 2)
	ins := pendingInstallment("dist-1", "ins-1", "500", due)
	require.NoError(t, s.CreateInstallments(ctx, []engine.Installment{ins}))

	got, err := s.GetInstallment(ctx, "ins-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, engine.InstallmentPending, got.Status)
	assert.Equal(t, due, got.Date)
	assert.Equal(t, due.AddDate(0, 0, engine.GraceDays), got.GraceDeadline)
	assert.Nil(t, got.PaidOn)

	// Record a payment and read it back.
	paidOn := engine.NewDate(2025, time.June, 3)
	got.Status = engine.InstallmentPaid
	got.PaidOn = &paidOn
	got.Bank = "BCP"
	got.OperationNo = "OP-778"
	got.DaysLate = 1
	require.NoError(t, s.UpdateInstallment(ctx, *got))

	got, err = s.GetInstallment(ctx, "ins-1")
	require.NoError(t, err)
	assert.Equal(t, engine.InstallmentPaid, got.Status)
	require.NotNil(t, got.PaidOn)
	assert.Equal(t, paidOn, *got.PaidOn)
	assert.Equal(t, "BCP", got.Bank)
	assert.Equal(t, "OP-778", got.OperationNo)
	assert.Equal(t, 1, got.DaysLate)
}

func TestInstallment_ListOrderedByDate(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "1000")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "1000")

	require.NoError(t, s.CreateInstallments(ctx, []engine.Installment{
		pendingInstallment("dist-1", "ins-b", "100", engine.NewDate(2025, time.June, 10)),
		pendingInstallment("dist-1", "ins-a", "100", engine.NewDate(2025, time.June, 2)),
	}))

	list, err := s.ListInstallmentsByDistribution(ctx, "dist-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, engine.InstallmentID("ins-a"), list[0].ID)
	assert.Equal(t, engine.InstallmentID("ins-b"), list[1].ID)
}

func TestInstallment_PendingSweepQuery(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "1000")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "1000")

	// Due June 2, grace deadline June 5.
	ins := pendingInstallment("dist-1", "ins-1", "500", engine.NewDate(2025, time.June, 2))
	require.NoError(t, s.CreateInstallments(ctx, []engine.Installment{ins}))

	// On the deadline: not yet swept.
	list, err := s.ListPendingWithDeadlineBefore(ctx, engine.NewDate(2025, time.June, 5))
	require.NoError(t, err)
	assert.Empty(t, list)

	// One day past: swept.
	list, err = s.ListPendingWithDeadlineBefore(ctx, engine.NewDate(2025, time.June, 6))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, engine.InstallmentID("ins-1"), list[0].ID)
}

func TestInstallment_DailyTotals(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "10000")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "5000")
	seedDistribution(t, s, "ord-1", compID, "dist-2", "5000")

	june2 := engine.NewDate(2025, time.June, 2)
	june3 := engine.NewDate(2025, time.June, 3)
	require.NoError(t, s.CreateInstallments(ctx, []engine.Installment{
		pendingInstallment("dist-1", "ins-1", "1500.50", june2),
		pendingInstallment("dist-2", "ins-2", "2499.50", june2),
		pendingInstallment("dist-1", "ins-3", "100", june3),
	}))

	total, err := s.DailyTotal(ctx, june2)
	require.NoError(t, err)
	assert.True(t, total.Equal(engine.MustDecimal("4000")), "total = %s", total)

	totals, err := s.DailyTotalsInRange(ctx, engine.NewDate(2025, time.June, 1), engine.NewDate(2025, time.June, 30))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.True(t, totals["2025-06-02"].Equal(engine.MustDecimal("4000")))
	assert.True(t, totals["2025-06-03"].Equal(engine.MustDecimal("100")))
}

func TestInstallment_PaidTotalByOrder(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()
	seedOrder(t, s, supID, "ord-1", "1000")
	seedDistribution(t, s, "ord-1", compID, "dist-1", "1000")

	ins1 := pendingInstallment("dist-1", "ins-1", "250", engine.NewDate(2025, time.June, 2))
	ins2 := pendingInstallment("dist-1", "ins-2", "250", engine.NewDate(2025, time.June, 3))
	require.NoError(t, s.CreateInstallments(ctx, []engine.Installment{ins1, ins2}))

	ins1.Status = engine.InstallmentPaid
	require.NoError(t, s.UpdateInstallment(ctx, ins1))

	paid, err := s.PaidTotalByOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.True(t, paid.Equal(engine.MustDecimal("250")), "paid = %s", paid)
}

// =============================================================================
// COMPANIES / SUPPLIERS
// =============================================================================

func TestCompanySupplier_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	supID, compID := seedParties(t, s)
	ctx := context.Background()

	comp, err := s.GetCompany(ctx, compID)
	require.NoError(t, err)
	require.NotNil(t, comp)
	assert.Equal(t, "Comercial Andina", comp.Name)
	assert.Equal(t, "20123456789", comp.RUC)

	sup, err := s.GetSupplier(ctx, supID)
	require.NoError(t, err)
	require.NotNil(t, sup)
	assert.Equal(t, "Aceros del Sur", sup.Name)
	assert.Equal(t, "#1976d2", sup.Color)
	assert.Equal(t, 60, sup.DefaultTermDays)
	assert.True(t, sup.Active)

	// Missing records come back nil, not error.
	ghost, err := s.GetCompany(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestCompany_DeleteAndList(t *testing.T) {
	s := newTestStore(t)
	_, compID := seedParties(t, s)
	ctx := context.Background()

	list, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteCompany(ctx, compID))

	list, err = s.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
