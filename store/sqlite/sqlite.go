/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists orders, distributions, installments, companies and suppliers.
  The same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  orders:         purchase commitments with lifecycle state
  distributions:  per-company slices of an order
  installments:   dated bills against a distribution
  companies:      paying companies
  suppliers:      order counterparties

AMOUNT STORAGE:
  Amounts are stored as decimal strings and summed in Go with
  shopspring/decimal. SQLite's SUM() would coerce to float and lose
  exactness.

BATCH ATOMICITY:
  CreateDistributions / CreateInstallments run inside one SQL
  transaction: all rows commit or none do.

WAL MODE:
  Opened with WAL and foreign keys on. Readers don't block; a single
  writer at a time. The sync.RWMutex serializes writers in-process.

USAGE:
  store, err := sqlite.New("./data/letras.db")  // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - engine/store.go:        interface definition
  - engine/store/memory.go: in-memory implementation for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/andino/letras-engine/engine"
)

const dateLayout = "2006-01-02"

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '#1976d2',
		default_term_days INTEGER NOT NULL DEFAULT 60,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		ruc TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		supplier_id TEXT NOT NULL REFERENCES suppliers(id),
		order_number TEXT,
		description TEXT,
		total TEXT NOT NULL,
		mode TEXT NOT NULL,
		term_days INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		order_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS distributions (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		company_id TEXT NOT NULL REFERENCES companies(id),
		amount TEXT NOT NULL,
		settled INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		distribution_id TEXT NOT NULL REFERENCES distributions(id),
		amount TEXT NOT NULL,
		pay_date TEXT NOT NULL,
		status TEXT NOT NULL,
		grace_deadline TEXT NOT NULL,
		days_late INTEGER NOT NULL DEFAULT 0,
		paid_on TEXT,
		bank TEXT,
		operation_no TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_state ON orders(state);
	CREATE INDEX IF NOT EXISTS idx_distributions_order ON distributions(order_id);
	CREATE INDEX IF NOT EXISTS idx_distributions_company ON distributions(company_id);
	CREATE INDEX IF NOT EXISTS idx_installments_distribution ON installments(distribution_id);
	-- Hot path: daily capacity aggregation groups by pay_date
	CREATE INDEX IF NOT EXISTS idx_installments_pay_date ON installments(pay_date);
	CREATE INDEX IF NOT EXISTS idx_installments_status ON installments(status, grace_deadline);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ORDERS
// =============================================================================

func (s *Store) SaveOrder(ctx context.Context, o engine.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO orders
		(id, supplier_id, order_number, description, total, mode, term_days, state, order_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_number = excluded.order_number,
			description = excluded.description,
			total = excluded.total,
			mode = excluded.mode,
			term_days = excluded.term_days,
			state = excluded.state,
			order_date = excluded.order_date,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		o.ID, o.SupplierID, o.Number, o.Description,
		o.Total.String(), o.Mode, o.TermDays, o.State,
		o.OrderDate.Format(dateLayout),
		o.CreatedAt.UTC().Format(time.RFC3339),
		o.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id engine.OrderID) (*engine.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.queryOrders(ctx, `SELECT id, supplier_id, order_number, description, total, mode, term_days, state, order_date, created_at, updated_at FROM orders WHERE id = ?`, id)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Store) ListOrders(ctx context.Context) ([]engine.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOrders(ctx, `SELECT id, supplier_id, order_number, description, total, mode, term_days, state, order_date, created_at, updated_at FROM orders ORDER BY order_date DESC, created_at DESC`)
}

func (s *Store) UpdateOrderState(ctx context.Context, id engine.OrderID, state engine.OrderState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET state = ?, updated_at = ? WHERE id = ?`,
		state, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Kind: "order", ID: string(id)}
	}
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id engine.OrderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return err
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]engine.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []engine.Order
	for rows.Next() {
		var o engine.Order
		var number, description sql.NullString
		var total, orderDate, createdAt, updatedAt string
		if err := rows.Scan(&o.ID, &o.SupplierID, &number, &description, &total, &o.Mode, &o.TermDays, &o.State, &orderDate, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Number = number.String
		o.Description = description.String
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("bad total for order %s: %w", o.ID, err)
		}
		if o.OrderDate, err = time.ParseInLocation(dateLayout, orderDate, time.UTC); err != nil {
			return nil, fmt.Errorf("bad order_date for order %s: %w", o.ID, err)
		}
		o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		o.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// =============================================================================
// DISTRIBUTIONS
// =============================================================================

func (s *Store) CreateDistributions(ctx context.Context, batch []engine.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range batch {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO distributions (id, order_id, company_id, amount, settled, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				d.ID, d.OrderID, d.CompanyID, d.Amount.String(), boolToInt(d.Settled),
				d.CreatedAt.UTC().Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("failed to insert distribution: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetDistribution(ctx context.Context, id engine.DistributionID) (*engine.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dists, err := s.queryDistributions(ctx, `SELECT id, order_id, company_id, amount, settled, created_at FROM distributions WHERE id = ?`, id)
	if err != nil || len(dists) == 0 {
		return nil, err
	}
	return &dists[0], nil
}

func (s *Store) ListDistributionsByOrder(ctx context.Context, orderID engine.OrderID) ([]engine.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryDistributions(ctx, `SELECT id, order_id, company_id, amount, settled, created_at FROM distributions WHERE order_id = ? ORDER BY created_at`, orderID)
}

func (s *Store) DistributedTotal(ctx context.Context, orderID engine.OrderID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumColumn(ctx, `SELECT amount FROM distributions WHERE order_id = ?`, orderID)
}

func (s *Store) CountDistributionsByOrder(ctx context.Context, orderID engine.OrderID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count(ctx, `SELECT COUNT(*) FROM distributions WHERE order_id = ?`, orderID)
}

func (s *Store) CountDistributionsByCompany(ctx context.Context, companyID engine.CompanyID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count(ctx, `SELECT COUNT(*) FROM distributions WHERE company_id = ?`, companyID)
}

func (s *Store) SetDistributionSettled(ctx context.Context, id engine.DistributionID, settled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE distributions SET settled = ? WHERE id = ?`, boolToInt(settled), id)
	if err != nil {
		return fmt.Errorf("failed to update distribution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Kind: "distribution", ID: string(id)}
	}
	return nil
}

func (s *Store) DeleteDistribution(ctx context.Context, id engine.DistributionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM distributions WHERE id = ?`, id)
	return err
}

func (s *Store) queryDistributions(ctx context.Context, query string, args ...any) ([]engine.Distribution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distributions: %w", err)
	}
	defer rows.Close()

	var dists []engine.Distribution
	for rows.Next() {
		var d engine.Distribution
		var amount, createdAt string
		var settled int
		if err := rows.Scan(&d.ID, &d.OrderID, &d.CompanyID, &amount, &settled, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan distribution: %w", err)
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount for distribution %s: %w", d.ID, err)
		}
		d.Settled = settled != 0
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		dists = append(dists, d)
	}
	return dists, rows.Err()
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func (s *Store) CreateInstallments(ctx context.Context, batch []engine.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ins := range batch {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO installments
				 (id, distribution_id, amount, pay_date, status, grace_deadline, days_late, paid_on, bank, operation_no, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ins.ID, ins.DistributionID, ins.Amount.String(),
				ins.Date.Format(dateLayout), ins.Status,
				ins.GraceDeadline.Format(dateLayout), ins.DaysLate,
				nullDate(ins.PaidOn), nullString(ins.Bank), nullString(ins.OperationNo),
				ins.CreatedAt.UTC().Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("failed to insert installment: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetInstallment(ctx context.Context, id engine.InstallmentID) (*engine.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryInstallments(ctx, selectInstallments+` WHERE id = ?`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (s *Store) ListInstallmentsByDistribution(ctx context.Context, distributionID engine.DistributionID) ([]engine.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInstallments(ctx, selectInstallments+` WHERE distribution_id = ? ORDER BY pay_date`, distributionID)
}

func (s *Store) CountInstallmentsByDistribution(ctx context.Context, distributionID engine.DistributionID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.count(ctx, `SELECT COUNT(*) FROM installments WHERE distribution_id = ?`, distributionID)
}

func (s *Store) ScheduledTotal(ctx context.Context, distributionID engine.DistributionID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumColumn(ctx, `SELECT amount FROM installments WHERE distribution_id = ?`, distributionID)
}

func (s *Store) PaidTotalByOrder(ctx context.Context, orderID engine.OrderID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumColumn(ctx,
		`SELECT i.amount FROM installments i
		 JOIN distributions d ON d.id = i.distribution_id
		 WHERE d.order_id = ? AND i.status = ?`, orderID, engine.InstallmentPaid)
}

func (s *Store) UpdateInstallment(ctx context.Context, ins engine.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE installments SET amount = ?, pay_date = ?, status = ?, grace_deadline = ?, days_late = ?, paid_on = ?, bank = ?, operation_no = ? WHERE id = ?`,
		ins.Amount.String(), ins.Date.Format(dateLayout), ins.Status,
		ins.GraceDeadline.Format(dateLayout), ins.DaysLate,
		nullDate(ins.PaidOn), nullString(ins.Bank), nullString(ins.OperationNo),
		ins.ID)
	if err != nil {
		return fmt.Errorf("failed to update installment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &engine.NotFoundError{Kind: "installment", ID: string(ins.ID)}
	}
	return nil
}

func (s *Store) DeleteInstallment(ctx context.Context, id engine.InstallmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM installments WHERE id = ?`, id)
	return err
}

func (s *Store) DailyTotal(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumColumn(ctx, `SELECT amount FROM installments WHERE pay_date = ?`, day.Format(dateLayout))
}

func (s *Store) DailyTotalsInRange(ctx context.Context, from, to time.Time) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT pay_date, amount FROM installments WHERE pay_date >= ? AND pay_date <= ?`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var day, amount string
		if err := rows.Scan(&day, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("bad amount on %s: %w", day, err)
		}
		totals[day] = totals[day].Add(d)
	}
	return totals, rows.Err()
}

func (s *Store) ListPendingWithDeadlineBefore(ctx context.Context, asOf time.Time) ([]engine.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryInstallments(ctx,
		selectInstallments+` WHERE status = ? AND grace_deadline < ? ORDER BY pay_date`,
		engine.InstallmentPending, asOf.Format(dateLayout))
}

const selectInstallments = `SELECT id, distribution_id, amount, pay_date, status, grace_deadline, days_late, paid_on, bank, operation_no, created_at FROM installments`

func (s *Store) queryInstallments(ctx context.Context, query string, args ...any) ([]engine.Installment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var list []engine.Installment
	for rows.Next() {
		var ins engine.Installment
		var amount, payDate, grace, createdAt string
		var paidOn, bank, operationNo sql.NullString
		if err := rows.Scan(&ins.ID, &ins.DistributionID, &amount, &payDate, &ins.Status, &grace, &ins.DaysLate, &paidOn, &bank, &operationNo, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		if ins.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount for installment %s: %w", ins.ID, err)
		}
		if ins.Date, err = time.ParseInLocation(dateLayout, payDate, time.UTC); err != nil {
			return nil, fmt.Errorf("bad pay_date for installment %s: %w", ins.ID, err)
		}
		if ins.GraceDeadline, err = time.ParseInLocation(dateLayout, grace, time.UTC); err != nil {
			return nil, fmt.Errorf("bad grace_deadline for installment %s: %w", ins.ID, err)
		}
		if paidOn.Valid {
			t, err := time.ParseInLocation(dateLayout, paidOn.String, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("bad paid_on for installment %s: %w", ins.ID, err)
			}
			ins.PaidOn = &t
		}
		ins.Bank = bank.String
		ins.OperationNo = operationNo.String
		ins.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		list = append(list, ins)
	}
	return list, rows.Err()
}

// =============================================================================
// COMPANIES
// =============================================================================

func (s *Store) SaveCompany(ctx context.Context, c engine.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, ruc, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, ruc = excluded.ruc`,
		c.ID, c.Name, nullString(c.RUC), c.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (s *Store) GetCompany(ctx context.Context, id engine.CompanyID) (*engine.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.queryCompanies(ctx, `SELECT id, name, ruc, created_at FROM companies WHERE id = ?`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]engine.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCompanies(ctx, `SELECT id, name, ruc, created_at FROM companies ORDER BY name`)
}

func (s *Store) DeleteCompany(ctx context.Context, id engine.CompanyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	return err
}

func (s *Store) queryCompanies(ctx context.Context, query string, args ...any) ([]engine.Company, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var list []engine.Company
	for rows.Next() {
		var c engine.Company
		var ruc sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &ruc, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.RUC = ruc.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		list = append(list, c)
	}
	return list, rows.Err()
}

// =============================================================================
// SUPPLIERS
// =============================================================================

func (s *Store) SaveSupplier(ctx context.Context, sup engine.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, name, color, default_term_days, active, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color,
			default_term_days = excluded.default_term_days, active = excluded.active`,
		sup.ID, sup.Name, sup.Color, sup.DefaultTermDays, boolToInt(sup.Active),
		sup.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

func (s *Store) GetSupplier(ctx context.Context, id engine.SupplierID) (*engine.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list, err := s.querySuppliers(ctx, `SELECT id, name, color, default_term_days, active, created_at FROM suppliers WHERE id = ?`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]engine.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySuppliers(ctx, `SELECT id, name, color, default_term_days, active, created_at FROM suppliers ORDER BY name`)
}

func (s *Store) querySuppliers(ctx context.Context, query string, args ...any) ([]engine.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var list []engine.Supplier
	for rows.Next() {
		var sup engine.Supplier
		var active int
		var createdAt string
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Color, &sup.DefaultTermDays, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		sup.Active = active != 0
		sup.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		list = append(list, sup)
	}
	return list, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// withTx executes fn within one database transaction. The caller holds
// the write lock.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// sumColumn loads decimal strings and sums them in Go, keeping exact
// arithmetic out of SQLite's float SUM().
func (s *Store) sumColumn(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bad stored amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}
