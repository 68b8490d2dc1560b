package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/handler"
	"github.com/dukerupert/taxsim/internal/middleware"
	"github.com/dukerupert/taxsim/internal/service"
)

// OrderHandler serves order submission and lookup.
type OrderHandler struct {
	invoicing service.InvoicingService
	logger    *slog.Logger
}

func NewOrderHandler(invoicing service.InvoicingService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{invoicing: invoicing, logger: logger}
}

// Create handles POST /api/invoicing/orders.
//
// The order is priced, persisted and invoiced on behalf of the authenticated
// principal. Responds 201 with the priced order, 400 with field errors when
// the body does not validate, and 500 when the invoice cannot be generated.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_order"

	principal, err := domain.MustPrincipal(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var req CreateOrderRequest
	if err := decodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := validateStruct(op, req); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	order, err := h.invoicing.CreateOrder(r.Context(), req.params(), *principal)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context(), h.logger).Info("order created",
		"order_id", order.ID,
		"total_amount", order.TotalAmount.StringFixed(2),
	)

	handler.JSON(w, http.StatusCreated, NewOrderResponse(order))
}

// Get handles GET /api/invoicing/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("api.get_order", "order id must be an integer"))
		return
	}

	order, err := h.invoicing.GetOrder(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, NewOrderResponse(order))
}
