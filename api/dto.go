/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model
  from the external contract. Amounts cross the wire as JSON numbers
  and are converted to decimals at this edge only.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in the engine, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"time"

	"github.com/andino/letras-engine/engine"
)

const dateLayout = "2006-01-02"

// =============================================================================
// ORDERS
// =============================================================================

type OrderDTO struct {
	ID          string  `json:"id"`
	SupplierID  string  `json:"supplier_id"`
	Number      string  `json:"number,omitempty"`
	Description string  `json:"description,omitempty"`
	Total       float64 `json:"total"`
	Mode        string  `json:"mode"`
	TermDays    int     `json:"term_days,omitempty"`
	State       string  `json:"state"`
	OrderDate   string  `json:"order_date"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// OrderDetailDTO is the full order view with allocation summary.
type OrderDetailDTO struct {
	OrderDTO
	Distributions []DistributionDTO `json:"distributions"`
	Remaining     float64           `json:"remaining"`
	PaidPercent   float64           `json:"paid_percent"`
}

type CreateOrderRequest struct {
	SupplierID  string  `json:"supplier_id"`
	Number      string  `json:"number"`
	Description string  `json:"description"`
	Total       float64 `json:"total"`
	Mode        string  `json:"mode"`
	TermDays    int     `json:"term_days"`
	OrderDate   string  `json:"order_date"`
}

// =============================================================================
// DISTRIBUTIONS
// =============================================================================

type DistributionDTO struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	CompanyID string  `json:"company_id"`
	Amount    float64 `json:"amount"`
	Settled   bool    `json:"settled"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// AllocationEntry is one element of an allocation request body.
type AllocationEntry struct {
	CompanyID string  `json:"company_id"`
	Amount    float64 `json:"amount"`
}

type SetSettledRequest struct {
	Settled bool `json:"settled"`
}

type RemainingDTO struct {
	OrderID   string  `json:"order_id"`
	Remaining float64 `json:"remaining"`
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

type InstallmentDTO struct {
	ID             string  `json:"id"`
	DistributionID string  `json:"distribution_id"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date"`
	Status         string  `json:"status"`
	GraceDeadline  string  `json:"grace_deadline"`
	DaysLate       int     `json:"days_late,omitempty"`
	PaidOn         string  `json:"paid_on,omitempty"`
	Bank           string  `json:"bank,omitempty"`
	OperationNo    string  `json:"operation_no,omitempty"`
}

// CreateInstallmentsRequest schedules one installment of Amount on each
// of Dates (the bulk "N dates, one shared amount" pattern).
type CreateInstallmentsRequest struct {
	Amount float64  `json:"amount"`
	Dates  []string `json:"dates"`
}

type PayInstallmentRequest struct {
	PaidOn      string `json:"paid_on"`
	Bank        string `json:"bank"`
	OperationNo string `json:"operation_no"`
}

// =============================================================================
// CALENDAR / CONFIG
// =============================================================================

type DaySummaryDTO struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
	Tier  string  `json:"tier"`
}

type CeilingDTO struct {
	Value float64 `json:"value"`
}

// =============================================================================
// COMPANIES / SUPPLIERS
// =============================================================================

type CompanyDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RUC       string `json:"ruc,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateCompanyRequest struct {
	Name string `json:"name"`
	RUC  string `json:"ruc"`
}

type SupplierDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	DefaultTermDays int    `json:"default_term_days"`
	Active          bool   `json:"active"`
	CreatedAt       string `json:"created_at,omitempty"`
}

type CreateSupplierRequest struct {
	Name            string `json:"name"`
	Color           string `json:"color"`
	DefaultTermDays int    `json:"default_term_days"`
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func orderDTO(o engine.Order) OrderDTO {
	return OrderDTO{
		ID:          string(o.ID),
		SupplierID:  string(o.SupplierID),
		Number:      o.Number,
		Description: o.Description,
		Total:       o.Total.InexactFloat64(),
		Mode:        string(o.Mode),
		TermDays:    o.TermDays,
		State:       string(o.State),
		OrderDate:   o.OrderDate.Format(dateLayout),
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}

func distributionDTO(d engine.Distribution) DistributionDTO {
	return DistributionDTO{
		ID:        string(d.ID),
		OrderID:   string(d.OrderID),
		CompanyID: string(d.CompanyID),
		Amount:    d.Amount.InexactFloat64(),
		Settled:   d.Settled,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
}

func installmentDTO(ins engine.Installment) InstallmentDTO {
	dto := InstallmentDTO{
		ID:             string(ins.ID),
		DistributionID: string(ins.DistributionID),
		Amount:         ins.Amount.InexactFloat64(),
		Date:           ins.Date.Format(dateLayout),
		Status:         string(ins.Status),
		GraceDeadline:  ins.GraceDeadline.Format(dateLayout),
		DaysLate:       ins.DaysLate,
		Bank:           ins.Bank,
		OperationNo:    ins.OperationNo,
	}
	if ins.PaidOn != nil {
		dto.PaidOn = ins.PaidOn.Format(dateLayout)
	}
	return dto
}

func daySummaryDTO(d engine.DaySummary) DaySummaryDTO {
	return DaySummaryDTO{
		Date:  d.Date.Format(dateLayout),
		Total: d.Total.InexactFloat64(),
		Tier:  string(d.Tier),
	}
}

func companyDTO(c engine.Company) CompanyDTO {
	return CompanyDTO{
		ID:        string(c.ID),
		Name:      c.Name,
		RUC:       c.RUC,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func supplierDTO(s engine.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:              string(s.ID),
		Name:            s.Name,
		Color:           s.Color,
		DefaultTermDays: s.DefaultTermDays,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}
