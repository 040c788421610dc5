/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/orders/*         Orders and their allocation
  /api/distributions/*  Distributions and their installments
  /api/installments/*   Installment lifecycle
  /api/calendar/*       Daily capacity view
  /api/config/*         Ceiling and holidays
  /api/companies/*      Paying companies
  /api/suppliers/*      Suppliers

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
			r.Delete("/{id}", h.DeleteOrder)
			r.Post("/{id}/complete", h.CompleteOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
			r.Get("/{id}/remaining", h.GetRemaining)
			r.Get("/{id}/distributions", h.ListDistributions)
			r.Post("/{id}/distributions", h.CreateDistributions)
		})

		// Distribution routes
		r.Route("/distributions", func(r chi.Router) {
			r.Get("/{id}", h.GetDistribution)
			r.Delete("/{id}", h.DeleteDistribution)
			r.Put("/{id}/settled", h.SetSettled)
			r.Get("/{id}/installments", h.ListInstallments)
			r.Post("/{id}/installments", h.CreateInstallments)
		})

		// Installment routes
		r.Route("/installments", func(r chi.Router) {
			r.Post("/overdue-sweep", h.OverdueSweep)
			r.Get("/{id}", h.GetInstallment)
			r.Delete("/{id}", h.DeleteInstallment)
			r.Post("/{id}/pay", h.PayInstallment)
		})

		// Calendar routes
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/day/{date}", h.GetDay)
			r.Get("/{year}/{month}", h.GetMonthCalendar)
		})

		// Config routes
		r.Route("/config", func(r chi.Router) {
			r.Get("/ceiling", h.GetCeiling)
			r.Put("/ceiling", h.SetCeiling)
			r.Get("/holidays", h.ListHolidays)
		})

		// Company routes
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.ListCompanies)
			r.Post("/", h.CreateCompany)
			r.Delete("/{id}", h.DeleteCompany)
		})

		// Supplier routes
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.ListSuppliers)
			r.Post("/", h.CreateSupplier)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Letras Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Letras Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/orders">/api/orders</a> - List orders</li>
<li><a href="/api/companies">/api/companies</a> - List paying companies</li>
<li><a href="/api/suppliers">/api/suppliers</a> - List suppliers</li>
<li><a href="/api/config/ceiling">/api/config/ceiling</a> - Daily ceiling</li>
</ul>
</body>
</html>`))
	})

	return r
}
