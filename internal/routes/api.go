package routes

import (
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/middleware"
	"github.com/dukerupert/taxsim/internal/router"
)

// RegisterInvoicingRoutes registers the invoicing API. r must already carry
// authentication; reports additionally require an administrator and get a
// longer deadline.
func RegisterInvoicingRoutes(r *router.Router, deps InvoicingDeps) {
	r.Post("/api/invoicing/orders", deps.Orders.Create, middleware.MaxBodySize(), middleware.Timeout())
	r.Get("/api/invoicing/orders/{id}", deps.Orders.Get)
	r.Get("/api/invoicing/invoices/download/{fileName}", deps.Invoices.Download)

	reports := r.Group(
		middleware.RequireRole(domain.RoleAdministrator),
		middleware.Timeout(middleware.ReportTimeout),
	)
	reports.Get("/api/invoicing/reports/by-nit", deps.Reports.ByNit)
	reports.Get("/api/invoicing/reports/by-module", deps.Reports.ByModule)
	reports.Get("/api/invoicing/reports/general", deps.Reports.General)
	reports.Get("/api/invoicing/reports/by-provider", deps.Reports.ByProvider)
	reports.Get("/api/invoicing/reports/by-item-category", deps.Reports.ByItemCategory)
}

// RegisterOpsRoutes registers /health and /metrics. They sit outside the
// authenticated group.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.Health.ServeHTTP)
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}
}
