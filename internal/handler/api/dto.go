package api

import (
	"strings"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/service"
	"github.com/shopspring/decimal"
)

// Money renders a decimal as a JSON number with exactly two fraction digits.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

func money(d decimal.Decimal) Money { return Money(d) }

func moneyPtr(d decimal.Decimal) *Money {
	m := Money(d)
	return &m
}

// =============================================================================
// REQUESTS
// =============================================================================

// CreateOrderRequest is the body of POST /api/invoicing/orders.
type CreateOrderRequest struct {
	ClientName    string             `json:"clientName" validate:"required"`
	ClientNit     string             `json:"clientNit" validate:"required"`
	ClientAddress string             `json:"clientAddress" validate:"required"`
	ProviderName  string             `json:"providerName"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemRequest struct {
	ProductNameOrService string          `json:"productNameOrService" validate:"required"`
	UnitCost             decimal.Decimal `json:"unitCost" validate:"required,gt=0"`
	Quantity             int32           `json:"quantity" validate:"required,gt=0"`
	ModuleType           string          `json:"moduleType" validate:"required,oneof=PHARMACY HOSPITAL INSURANCE"`
	Category             string          `json:"category"`
}

func (req CreateOrderRequest) params() service.CreateOrderParams {
	items := make([]service.OrderItemParams, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.OrderItemParams{
			Name:     it.ProductNameOrService,
			UnitCost: it.UnitCost,
			Quantity: it.Quantity,
			Module:   domain.ModuleCategory(it.ModuleType),
			Category: strings.TrimSpace(it.Category),
		}
	}
	return service.CreateOrderParams{
		ClientName:    req.ClientName,
		ClientTaxID:   req.ClientNit,
		ClientAddress: req.ClientAddress,
		ProviderName:  strings.TrimSpace(req.ProviderName),
		Items:         items,
	}
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=ADMINISTRATOR MODULE_HOSPITAL MODULE_PHARMACY MODULE_INSURANCE"`
}

// UpdateUserRequest is the body of PUT /api/users/{username}. Empty fields
// are left unchanged.
type UpdateUserRequest struct {
	Password string `json:"password"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMINISTRATOR MODULE_HOSPITAL MODULE_PHARMACY MODULE_INSURANCE"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type OrderResponse struct {
	OrderID           int64               `json:"orderId"`
	ClientName        string              `json:"clientName"`
	ClientNit         string              `json:"clientNit"`
	ClientAddress     string              `json:"clientAddress"`
	ProviderName      string              `json:"providerName,omitempty"`
	Items             []OrderItemResponse `json:"items"`
	TotalAmount       Money               `json:"totalAmount"`
	TotalTaxes        Money               `json:"totalTaxes"`
	InvoicePdfURL     string              `json:"invoicePdfUrl,omitempty"`
	OrderDate         time.Time           `json:"orderDate"`
	CreatedByUsername string              `json:"createdByUsername,omitempty"`
}

type OrderItemResponse struct {
	ProductNameOrService string `json:"productNameOrService"`
	UnitCost             Money  `json:"unitCost"`
	Quantity             int32  `json:"quantity"`
	ModuleType           string `json:"moduleType"`
	Category             string `json:"category,omitempty"`
	ItemSubtotal         *Money `json:"itemSubtotal,omitempty"`
	TaxApplied           *Money `json:"taxApplied,omitempty"`
	ItemTotal            *Money `json:"itemTotal,omitempty"`
}

// NewOrderResponse converts an order to its wire form.
func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		item := OrderItemResponse{
			ProductNameOrService: it.Name,
			UnitCost:             money(it.UnitCost),
			Quantity:             it.Quantity,
			ModuleType:           it.Module.String(),
			Category:             it.Category,
		}
		if it.Amounts != nil {
			item.ItemSubtotal = moneyPtr(it.Amounts.Subtotal)
			item.TaxApplied = moneyPtr(it.Amounts.TaxApplied)
			item.ItemTotal = moneyPtr(it.Amounts.Total)
		}
		items[i] = item
	}

	return OrderResponse{
		OrderID:           o.ID,
		ClientName:        o.ClientName,
		ClientNit:         o.ClientTaxID,
		ClientAddress:     o.ClientAddress,
		ProviderName:      o.ProviderName,
		Items:             items,
		TotalAmount:       money(o.TotalAmount),
		TotalTaxes:        money(o.TotalTaxes),
		InvoicePdfURL:     o.InvoiceLocator,
		OrderDate:         o.CreatedAt,
		CreatedByUsername: o.Creator.Username,
	}
}

func newOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = NewOrderResponse(&orders[i])
	}
	return out
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
