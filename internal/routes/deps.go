package routes

import (
	"net/http"

	"github.com/dukerupert/taxsim/internal/handler/api"
)

// InvoicingDeps contains the handlers served under /api/invoicing.
type InvoicingDeps struct {
	Orders   *api.OrderHandler
	Reports  *api.ReportHandler
	Invoices *api.InvoiceHandler
}

// AdminDeps contains the user administration handlers.
type AdminDeps struct {
	Users *api.UserHandler
}

// OpsDeps contains the unauthenticated operational endpoints.
type OpsDeps struct {
	Health  http.Handler
	Metrics http.Handler
}
