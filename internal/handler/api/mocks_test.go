package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MOCK SERVICES
// =============================================================================

type mockInvoicingService struct {
	createOrderFunc func(ctx context.Context, params service.CreateOrderParams, principal domain.Principal) (*domain.Order, error)
	getOrderFunc    func(ctx context.Context, id int64) (*domain.Order, error)
}

func (m *mockInvoicingService) CreateOrder(ctx context.Context, params service.CreateOrderParams, principal domain.Principal) (*domain.Order, error) {
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, params, principal)
	}
	return nil, nil
}

func (m *mockInvoicingService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if m.getOrderFunc != nil {
		return m.getOrderFunc(ctx, id)
	}
	return nil, service.ErrOrderNotFound
}

type mockReportService struct {
	byTaxIDFunc        func(ctx context.Context, taxID string, rng domain.DateRange) ([]domain.Order, error)
	byCreatorRoleFunc  func(ctx context.Context, role string, rng domain.DateRange) ([]domain.Order, error)
	generalFunc        func(ctx context.Context, rng domain.DateRange) ([]domain.Order, error)
	byProviderFunc     func(ctx context.Context, name string, rng domain.DateRange) ([]domain.Order, error)
	byItemCategoryFunc func(ctx context.Context, category string, rng domain.DateRange) ([]domain.Order, error)
}

func (m *mockReportService) ByTaxID(ctx context.Context, taxID string, rng domain.DateRange) ([]domain.Order, error) {
	if m.byTaxIDFunc != nil {
		return m.byTaxIDFunc(ctx, taxID, rng)
	}
	return nil, nil
}

func (m *mockReportService) ByCreatorRole(ctx context.Context, role string, rng domain.DateRange) ([]domain.Order, error) {
	if m.byCreatorRoleFunc != nil {
		return m.byCreatorRoleFunc(ctx, role, rng)
	}
	return nil, nil
}

func (m *mockReportService) General(ctx context.Context, rng domain.DateRange) ([]domain.Order, error) {
	if m.generalFunc != nil {
		return m.generalFunc(ctx, rng)
	}
	return nil, nil
}

func (m *mockReportService) ByProvider(ctx context.Context, name string, rng domain.DateRange) ([]domain.Order, error) {
	if m.byProviderFunc != nil {
		return m.byProviderFunc(ctx, name, rng)
	}
	return nil, nil
}

func (m *mockReportService) ByItemCategory(ctx context.Context, category string, rng domain.DateRange) ([]domain.Order, error) {
	if m.byItemCategoryFunc != nil {
		return m.byItemCategoryFunc(ctx, category, rng)
	}
	return nil, nil
}

type mockUserService struct {
	createFunc func(ctx context.Context, params service.CreateUserParams) (*domain.User, error)
	listFunc   func(ctx context.Context) ([]domain.User, error)
	getFunc    func(ctx context.Context, username string) (*domain.User, error)
	updateFunc func(ctx context.Context, username string, params service.UpdateUserParams) (*domain.User, error)
	deleteFunc func(ctx context.Context, username string, actor domain.Principal) error
}

func (m *mockUserService) Create(ctx context.Context, params service.CreateUserParams) (*domain.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) List(ctx context.Context) ([]domain.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Get(ctx context.Context, username string) (*domain.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, username)
	}
	return nil, service.ErrUserNotFound
}

func (m *mockUserService) Update(ctx context.Context, username string, params service.UpdateUserParams) (*domain.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, username, params)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, username string, actor domain.Principal) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, username, actor)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

var (
	adminPrincipal    = &domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdministrator}
	pharmacyPrincipal = &domain.Principal{ID: 2, Username: "pharma", Role: domain.RoleModulePharmacy}
)

func newRequest(method, target, body string, p *domain.Principal) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req = req.WithContext(domain.WithPrincipal(req.Context(), p))
	}
	return req
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// pricedOrder is the 224.00 / 24.00 pharmacy order with its invoice rendered.
func pricedOrder() *domain.Order {
	return &domain.Order{
		ID:            7,
		ClientName:    "Clinica Central",
		ClientTaxID:   "1234567-8",
		ClientAddress: "Zona 1",
		ProviderName:  "Distribuidora Sur",
		Items: []domain.LineItem{{
			ID:       1,
			Name:     "Amoxicillin 500mg",
			UnitCost: dec("100"),
			Quantity: 2,
			Module:   domain.ModulePharmacy,
			Category: "antibiotics",
			Amounts: &domain.LineAmounts{
				Subtotal:   dec("200.00"),
				TaxApplied: dec("24.00"),
				Total:      dec("224.00"),
			},
		}},
		TotalAmount:    dec("224.00"),
		TotalTaxes:     dec("24.00"),
		InvoiceLocator: "/api/invoicing/invoices/download/invoice-7-1704888000000.pdf",
		CreatedAt:      time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		Creator:        pharmacyPrincipal.Creator(),
	}
}
