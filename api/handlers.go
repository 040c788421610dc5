/*
handlers.go - HTTP API handlers for the allocation and scheduling engine

PURPOSE:
  Exposes the engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Orders:
    GET    /api/orders                        List orders
    POST   /api/orders                        Create order
    GET    /api/orders/{id}                   Order detail with allocation summary
    DELETE /api/orders/{id}                   Delete (blocked by distributions)
    POST   /api/orders/{id}/complete          Explicit completion
    POST   /api/orders/{id}/cancel            Explicit cancellation
    POST   /api/orders/{id}/distributions     Atomic allocation batch
    GET    /api/orders/{id}/distributions     List distributions
    GET    /api/orders/{id}/remaining         Remaining allocatable amount

  Distributions:
    GET    /api/distributions/{id}
    DELETE /api/distributions/{id}            Blocked by installments
    PUT    /api/distributions/{id}/settled    Administrative flag
    POST   /api/distributions/{id}/installments  Atomic scheduling batch
    GET    /api/distributions/{id}/installments

  Installments:
    GET    /api/installments/{id}
    DELETE /api/installments/{id}
    POST   /api/installments/{id}/pay
    POST   /api/installments/overdue-sweep    Mark pending past grace as overdue

  Calendar / Config:
    GET    /api/calendar/{year}/{month}       Per-day {total, tier}
    GET    /api/calendar/day/{date}           One day's classification
    GET    /api/config/ceiling
    PUT    /api/config/ceiling
    GET    /api/config/holidays

  Companies / Suppliers: plain CRUD.

ERROR HANDLING:
  Engine errors map to HTTP status via their sentinel:
  - 404: ErrNotFound
  - 409: ErrOverAllocation, ErrOverSchedule, ErrHasDependents,
         ErrOrderClosed, ErrInvalidState
  - 422: ErrInvalidAmount, ErrNonBusinessDay, ErrEmptyBatch
  - 400: malformed JSON / dates
  - 500: everything else

SEE ALSO:
  - dto.go: request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/andino/letras-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      engine.Store
	Ledger     *engine.AllocationLedger
	Scheduler  *engine.Scheduler
	Aggregator *engine.Aggregator
	Ceiling    *engine.Ceiling
	Calendar   *engine.Calendar
}

// NewHandler wires the engine services over the given store.
func NewHandler(store engine.Store, calendar *engine.Calendar, ceiling *engine.Ceiling) *Handler {
	return &Handler{
		Store:      store,
		Ledger:     engine.NewAllocationLedger(store),
		Scheduler:  engine.NewScheduler(store, calendar),
		Aggregator: engine.NewAggregator(store, calendar, ceiling),
		Ceiling:    ceiling,
		Calendar:   calendar,
	}
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns all orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Ledger.ListOrders(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = orderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOrder creates a new order in the pending state.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var orderDate time.Time
	if req.OrderDate != "" {
		var err error
		orderDate, err = time.ParseInLocation(dateLayout, req.OrderDate, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid order_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	order, err := h.Ledger.CreateOrder(r.Context(), engine.NewOrderInput{
		SupplierID:  engine.SupplierID(req.SupplierID),
		Number:      req.Number,
		Description: req.Description,
		Total:       decimal.NewFromFloat(req.Total),
		Mode:        engine.PaymentMode(req.Mode),
		TermDays:    req.TermDays,
		OrderDate:   orderDate,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderDTO(*order))
}

// GetOrder returns an order with its distributions, remaining amount
// and paid percentage.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := engine.OrderID(chi.URLParam(r, "id"))

	order, err := h.Ledger.GetOrder(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dists, err := h.Ledger.ListDistributions(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	remaining, err := h.Ledger.RemainingAmount(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	paidPercent, err := h.Ledger.PaidPercent(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	detail := OrderDetailDTO{
		OrderDTO:      orderDTO(*order),
		Distributions: make([]DistributionDTO, len(dists)),
		Remaining:     remaining.InexactFloat64(),
		PaidPercent:   paidPercent.InexactFloat64(),
	}
	for i, d := range dists {
		detail.Distributions[i] = distributionDTO(d)
	}
	writeJSON(w, http.StatusOK, detail)
}

// DeleteOrder removes an order with no distributions.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := engine.OrderID(chi.URLParam(r, "id"))
	if err := h.Ledger.DeleteOrder(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteOrder is the explicit completion transition. Full allocation
// never completes an order implicitly.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id := engine.OrderID(chi.URLParam(r, "id"))
	if err := h.Ledger.CompleteOrder(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": string(id), "state": string(engine.OrderCompleted)})
}

// CancelOrder is the explicit cancellation transition.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := engine.OrderID(chi.URLParam(r, "id"))
	if err := h.Ledger.CancelOrder(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": string(id), "state": string(engine.OrderCancelled)})
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// CreateDistributions allocates the order among companies as one
// atomic batch. Body: [{"company_id": ..., "amount": ...}, ...].
func (h *Handler) CreateDistributions(w http.ResponseWriter, r *http.Request) {
	orderID := engine.OrderID(chi.URLParam(r, "id"))

	var entries []AllocationEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	specs := make([]engine.DistributionSpec, len(entries))
	for i, e := range entries {
		specs[i] = engine.DistributionSpec{
			CompanyID: engine.CompanyID(e.CompanyID),
			Amount:    decimal.NewFromFloat(e.Amount),
		}
	}

	created, err := h.Ledger.CreateDistributions(r.Context(), orderID, specs)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]DistributionDTO, len(created))
	for i, d := range created {
		dtos[i] = distributionDTO(d)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// ListDistributions returns an order's distributions.
func (h *Handler) ListDistributions(w http.ResponseWriter, r *http.Request) {
	orderID := engine.OrderID(chi.URLParam(r, "id"))
	dists, err := h.Ledger.ListDistributions(r.Context(), orderID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]DistributionDTO, len(dists))
	for i, d := range dists {
		dtos[i] = distributionDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRemaining returns the order's remaining allocatable amount.
func (h *Handler) GetRemaining(w http.ResponseWriter, r *http.Request) {
	orderID := engine.OrderID(chi.URLParam(r, "id"))
	remaining, err := h.Ledger.RemainingAmount(r.Context(), orderID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RemainingDTO{OrderID: string(orderID), Remaining: remaining.InexactFloat64()})
}

// GetDistribution returns a single distribution.
func (h *Handler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	id := engine.DistributionID(chi.URLParam(r, "id"))
	dist, err := h.Ledger.GetDistribution(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distributionDTO(*dist))
}

// DeleteDistribution removes a distribution with no installments.
func (h *Handler) DeleteDistribution(w http.ResponseWriter, r *http.Request) {
	id := engine.DistributionID(chi.URLParam(r, "id"))
	if err := h.Ledger.DeleteDistribution(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSettled toggles the administrative settled flag.
func (h *Handler) SetSettled(w http.ResponseWriter, r *http.Request) {
	id := engine.DistributionID(chi.URLParam(r, "id"))

	var req SetSettledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Ledger.SetSettled(r.Context(), id, req.Settled); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": string(id), "settled": req.Settled})
}

// =============================================================================
// SCHEDULING HANDLERS
// =============================================================================

// CreateInstallments schedules one installment per date, one shared
// amount, atomically. Body: {"amount": ..., "dates": ["YYYY-MM-DD", ...]}.
func (h *Handler) CreateInstallments(w http.ResponseWriter, r *http.Request) {
	distID := engine.DistributionID(chi.URLParam(r, "id"))

	var req CreateInstallmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dates := make([]time.Time, len(req.Dates))
	for i, s := range req.Dates {
		d, err := time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		dates[i] = d
	}

	created, err := h.Scheduler.CreateInstallments(r.Context(), distID, decimal.NewFromFloat(req.Amount), dates)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]InstallmentDTO, len(created))
	for i, ins := range created {
		dtos[i] = installmentDTO(ins)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// ListInstallments returns a distribution's installments.
func (h *Handler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	distID := engine.DistributionID(chi.URLParam(r, "id"))
	list, err := h.Scheduler.ListInstallments(r.Context(), distID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]InstallmentDTO, len(list))
	for i, ins := range list {
		dtos[i] = installmentDTO(ins)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetInstallment returns a single installment.
func (h *Handler) GetInstallment(w http.ResponseWriter, r *http.Request) {
	id := engine.InstallmentID(chi.URLParam(r, "id"))
	ins, err := h.Scheduler.GetInstallment(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, installmentDTO(*ins))
}

// DeleteInstallment removes an installment.
func (h *Handler) DeleteInstallment(w http.ResponseWriter, r *http.Request) {
	id := engine.InstallmentID(chi.URLParam(r, "id"))
	if err := h.Scheduler.DeleteInstallment(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayInstallment records payment of an installment.
func (h *Handler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	id := engine.InstallmentID(chi.URLParam(r, "id"))

	var req PayInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var paidOn time.Time
	if req.PaidOn != "" {
		var err error
		paidOn, err = time.ParseInLocation(dateLayout, req.PaidOn, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_on format (use YYYY-MM-DD)", err)
			return
		}
	}

	ins, err := h.Scheduler.MarkPaid(r.Context(), id, engine.PaymentRecord{
		PaidOn:      paidOn,
		Bank:        req.Bank,
		OperationNo: req.OperationNo,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, installmentDTO(*ins))
}

// OverdueSweep marks pending installments past their grace deadline as
// overdue.
func (h *Handler) OverdueSweep(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if s := r.URL.Query().Get("as_of"); s != "" {
		var err error
		asOf, err = time.ParseInLocation(dateLayout, s, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
	}

	updated, err := h.Scheduler.MarkOverdue(r.Context(), asOf)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]InstallmentDTO, len(updated))
	for i, ins := range updated {
		dtos[i] = installmentDTO(ins)
	}
	writeJSON(w, http.StatusOK, map[string]any{"marked_overdue": len(dtos), "installments": dtos})
}

// =============================================================================
// CALENDAR / CONFIG HANDLERS
// =============================================================================

// GetMonthCalendar returns per-day {total, tier} for one month.
func (h *Handler) GetMonthCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	days, err := h.Aggregator.MonthCalendar(r.Context(), year, time.Month(month))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]DaySummaryDTO, len(days))
	for i, d := range days {
		dtos[i] = daySummaryDTO(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":    year,
		"month":   month,
		"ceiling": h.Ceiling.Value().InexactFloat64(),
		"days":    dtos,
	})
}

// GetDay returns one day's total and tier.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(dateLayout, chi.URLParam(r, "date"), time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	tier, total, err := h.Aggregator.ClassifyDay(r.Context(), date)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DaySummaryDTO{
		Date:  date.Format(dateLayout),
		Total: total.InexactFloat64(),
		Tier:  string(tier),
	})
}

// GetCeiling returns the current daily ceiling.
func (h *Handler) GetCeiling(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CeilingDTO{Value: h.Ceiling.Value().InexactFloat64()})
}

// SetCeiling updates the daily ceiling. Advisory only: nothing already
// scheduled is re-validated.
func (h *Handler) SetCeiling(w http.ResponseWriter, r *http.Request) {
	var req CeilingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Ceiling.Set(decimal.NewFromFloat(req.Value)); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CeilingDTO{Value: h.Ceiling.Value().InexactFloat64()})
}

// ListHolidays returns the configured holiday set.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"holidays": h.Calendar.Holidays()})
}

// =============================================================================
// COMPANY / SUPPLIER HANDLERS
// =============================================================================

// ListCompanies returns all paying companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Store.ListCompanies(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]CompanyDTO, len(companies))
	for i, c := range companies {
		dtos[i] = companyDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCompany registers a paying company.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Company name is required", nil)
		return
	}

	c := engine.Company{
		ID:        engine.NewCompanyID(),
		Name:      req.Name,
		RUC:       req.RUC,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveCompany(r.Context(), c); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, companyDTO(c))
}

// DeleteCompany removes a company no distribution references.
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := engine.CompanyID(chi.URLParam(r, "id"))

	count, err := h.Store.CountDistributionsByCompany(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if count > 0 {
		writeEngineError(w, &engine.DependentsError{Kind: "company", ID: string(id), Dependents: "distributions", Count: count})
		return
	}
	if err := h.Store.DeleteCompany(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSuppliers returns all suppliers.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.Store.ListSuppliers(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]SupplierDTO, len(suppliers))
	for i, s := range suppliers {
		dtos[i] = supplierDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSupplier registers a supplier.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Supplier name is required", nil)
		return
	}

	color := req.Color
	if color == "" {
		color = "#1976d2"
	}
	termDays := req.DefaultTermDays
	if termDays <= 0 {
		termDays = engine.DefaultTermDays
	}

	s := engine.Supplier{
		ID:              engine.NewSupplierID(),
		Name:            req.Name,
		Color:           color,
		DefaultTermDays: termDays,
		Active:          true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.Store.SaveSupplier(r.Context(), s); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, supplierDTO(s))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case engine.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, "Validation failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
