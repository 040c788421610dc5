/*
handlers_test.go - HTTP-level tests through the full router

Exercises routing, JSON codecs and the engine-error → status mapping:
  201 created, 204 deleted, 404 missing, 409 conflict, 422 validation.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andino/letras-engine/api"
	"github.com/andino/letras-engine/engine"
	"github.com/andino/letras-engine/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	router  http.Handler
	store   *store.Memory
	supID   engine.SupplierID
	compID  engine.CompanyID
	ceiling *engine.Ceiling
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	cal, err := engine.NewCalendarFromStrings(engine.DefaultHolidays())
	require.NoError(t, err)
	ceiling := engine.NewCeiling(engine.DefaultCeiling)

	ctx := context.Background()
	sup := engine.Supplier{ID: "sup-1", Name: "Aceros del Sur", Color: "#1976d2", DefaultTermDays: 60, Active: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, mem.SaveSupplier(ctx, sup))
	comp := engine.Company{ID: "comp-1", Name: "Comercial Andina", CreatedAt: time.Now().UTC()}
	require.NoError(t, mem.SaveCompany(ctx, comp))

	return &fixture{
		router:  api.NewRouter(api.NewHandler(mem, cal, ceiling)),
		store:   mem,
		supID:   sup.ID,
		compID:  comp.ID,
		ceiling: ceiling,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func (f *fixture) createOrder(t *testing.T, total float64) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"supplier_id": string(f.supID),
		"number":      "OC-0001",
		"total":       total,
		"mode":        "credit",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order struct {
		ID string `json:"id"`
	}
	decodeInto(t, rec, &order)
	return order.ID
}

func (f *fixture) allocate(t *testing.T, orderID string, amount float64) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/distributions", []map[string]any{
		{"company_id": string(f.compID), "amount": amount},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dists []struct {
		ID string `json:"id"`
	}
	decodeInto(t, rec, &dists)
	require.Len(t, dists, 1)
	return dists[0].ID
}

// =============================================================================
// ORDER ENDPOINTS
// =============================================================================

func TestAPI_CreateOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"supplier_id": "sup-1",
		"number":      "OC-0001",
		"total":       10000,
		"mode":        "credit",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var order struct {
		ID       string  `json:"id"`
		Total    float64 `json:"total"`
		State    string  `json:"state"`
		TermDays int     `json:"term_days"`
	}
	decodeInto(t, rec, &order)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, float64(10000), order.Total)
	assert.Equal(t, "pending", order.State)
	assert.Equal(t, 60, order.TermDays)
}

func TestAPI_CreateOrder_Rejections(t *testing.T) {
	f := newFixture(t)

	// Non-positive total → validation error.
	rec := f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"supplier_id": "sup-1", "total": 0, "mode": "credit",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Unknown supplier → not found.
	rec = f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"supplier_id": "ghost", "total": 100, "mode": "credit",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed date → bad request.
	rec = f.do(t, http.MethodPost, "/api/orders", map[string]any{
		"supplier_id": "sup-1", "total": 100, "mode": "credit", "order_date": "01/06/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetOrder_DetailIncludesRemaining(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000)
	f.allocate(t, orderID, 6000)

	rec := f.do(t, http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		State         string           `json:"state"`
		Remaining     float64          `json:"remaining"`
		PaidPercent   float64          `json:"paid_percent"`
		Distributions []map[string]any `json:"distributions"`
	}
	decodeInto(t, rec, &detail)
	assert.Equal(t, "allocated", detail.State)
	assert.Equal(t, float64(4000), detail.Remaining)
	assert.Zero(t, detail.PaidPercent)
	assert.Len(t, detail.Distributions, 1)
}

func TestAPI_GetOrder_Missing404(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/orders/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DeleteOrder_BlockedByDistributions(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000)
	distID := f.allocate(t, orderID, 1000)

	rec := f.do(t, http.MethodDelete, "/api/orders/"+orderID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Remove the distribution, then the order deletes cleanly.
	rec = f.do(t, http.MethodDelete, "/api/distributions/"+distID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPI_CompleteAndCancel(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 1000)

	rec := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Completed orders cannot be cancelled.
	rec = f.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// ALLOCATION / SCHEDULING ENDPOINTS
// =============================================================================

func TestAPI_Allocate_OverAllocation409(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000)
	f.allocate(t, orderID, 9000)

	rec := f.do(t, http.MethodPost, "/api/orders/"+orderID+"/distributions", []map[string]any{
		{"company_id": string(f.compID), "amount": 2000},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Details string `json:"details"`
	}
	decodeInto(t, rec, &resp)
	assert.Contains(t, resp.Details, "over-allocation")

	// Remaining is untouched.
	rec = f.do(t, http.MethodGet, "/api/orders/"+orderID+"/remaining", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var remaining struct {
		Remaining float64 `json:"remaining"`
	}
	decodeInto(t, rec, &remaining)
	assert.Equal(t, float64(1000), remaining.Remaining)
}

func TestAPI_ScheduleInstallments(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000)
	distID := f.allocate(t, orderID, 9000)

	rec := f.do(t, http.MethodPost, "/api/distributions/"+distID+"/installments", map[string]any{
		"amount": 3000,
		"dates":  []string{"2025-06-02", "2025-06-03", "2025-06-04"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var bills []struct {
		Status        string `json:"status"`
		GraceDeadline string `json:"grace_deadline"`
	}
	decodeInto(t, rec, &bills)
	require.Len(t, bills, 3)
	assert.Equal(t, "pending", bills[0].Status)
	assert.Equal(t, "2025-06-05", bills[0].GraceDeadline)
}

func TestAPI_ScheduleInstallments_Rejections(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000)
	distID := f.allocate(t, orderID, 1000)

	// Saturday → validation error.
	rec := f.do(t, http.MethodPost, "/api/distributions/"+distID+"/installments", map[string]any{
		"amount": 100, "dates": []string{"2025-06-07"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Over-schedule → conflict.
	rec = f.do(t, http.MethodPost, "/api/distributions/"+distID+"/installments", map[string]any{
		"amount": 400, "dates": []string{"2025-06-02", "2025-06-03", "2025-06-04"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown distribution → not found.
	rec = f.do(t, http.MethodPost, "/api/distributions/ghost/installments", map[string]any{
		"amount": 100, "dates": []string{"2025-06-02"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_PayAndSweep(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 1000)
	distID := f.allocate(t, orderID, 1000)

	rec := f.do(t, http.MethodPost, "/api/distributions/"+distID+"/installments", map[string]any{
		"amount": 500, "dates": []string{"2025-06-02", "2025-06-03"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var bills []struct {
		ID string `json:"id"`
	}
	decodeInto(t, rec, &bills)

	// Pay the first bill.
	rec = f.do(t, http.MethodPost, "/api/installments/"+bills[0].ID+"/pay", map[string]any{
		"paid_on": "2025-06-02", "bank": "BCP", "operation_no": "OP-778",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var paid struct {
		Status string `json:"status"`
		PaidOn string `json:"paid_on"`
		Bank   string `json:"bank"`
	}
	decodeInto(t, rec, &paid)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, "2025-06-02", paid.PaidOn)
	assert.Equal(t, "BCP", paid.Bank)

	// Sweep well past the grace deadline: only the unpaid bill turns.
	rec = f.do(t, http.MethodPost, "/api/installments/overdue-sweep?as_of=2025-07-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sweep struct {
		MarkedOverdue int `json:"marked_overdue"`
	}
	decodeInto(t, rec, &sweep)
	assert.Equal(t, 1, sweep.MarkedOverdue)

	// The order is half paid.
	rec = f.do(t, http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		PaidPercent float64 `json:"paid_percent"`
	}
	decodeInto(t, rec, &detail)
	assert.Equal(t, float64(50), detail.PaidPercent)
}

// =============================================================================
// CALENDAR / CONFIG ENDPOINTS
// =============================================================================

func TestAPI_MonthCalendar(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 10000)
	distID := f.allocate(t, orderID, 10000)

	rec := f.do(t, http.MethodPost, "/api/distributions/"+distID+"/installments", map[string]any{
		"amount": 6000, "dates": []string{"2025-06-02"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/calendar/2025/6", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var month struct {
		Ceiling float64 `json:"ceiling"`
		Days    []struct {
			Date  string  `json:"date"`
			Total float64 `json:"total"`
			Tier  string  `json:"tier"`
		} `json:"days"`
	}
	decodeInto(t, rec, &month)
	assert.Equal(t, float64(5000), month.Ceiling)
	require.Len(t, month.Days, 30)
	assert.Equal(t, "2025-06-02", month.Days[1].Date)
	assert.Equal(t, "over", month.Days[1].Tier)
	assert.Equal(t, float64(6000), month.Days[1].Total)

	rec = f.do(t, http.MethodGet, "/api/calendar/2025/13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CeilingUpdate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/config/ceiling", map[string]any{"value": 8000})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/config/ceiling", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ceiling struct {
		Value float64 `json:"value"`
	}
	decodeInto(t, rec, &ceiling)
	assert.Equal(t, float64(8000), ceiling.Value)

	rec = f.do(t, http.MethodPut, "/api/config/ceiling", map[string]any{"value": -5})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPI_Holidays(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/config/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Holidays []string `json:"holidays"`
	}
	decodeInto(t, rec, &resp)
	assert.Len(t, resp.Holidays, 12)
	assert.Contains(t, resp.Holidays, "2025-07-28")
}

// =============================================================================
// COMPANY / SUPPLIER ENDPOINTS
// =============================================================================

func TestAPI_CompanyDelete_ProtectedByReferences(t *testing.T) {
	f := newFixture(t)
	orderID := f.createOrder(t, 1000)
	f.allocate(t, orderID, 500)

	rec := f.do(t, http.MethodDelete, "/api/companies/"+string(f.compID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_CreateCompanyAndSupplier(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/companies", map[string]any{
		"name": "Inversiones Pacifico", "ruc": "20987654321",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/companies", map[string]any{"ruc": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "name is required")

	rec = f.do(t, http.MethodPost, "/api/suppliers", map[string]any{"name": "Ferreteria Lima"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var sup struct {
		Color           string `json:"color"`
		DefaultTermDays int    `json:"default_term_days"`
		Active          bool   `json:"active"`
	}
	decodeInto(t, rec, &sup)
	assert.Equal(t, "#1976d2", sup.Color)
	assert.Equal(t, 60, sup.DefaultTermDays)
	assert.True(t, sup.Active)
}
