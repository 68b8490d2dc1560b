package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOrderBody = `{
	"clientName": "Clinica Central",
	"clientNit": "1234567-8",
	"clientAddress": "Zona 1",
	"providerName": "Distribuidora Sur",
	"items": [{
		"productNameOrService": "Amoxicillin 500mg",
		"unitCost": 100,
		"quantity": 2,
		"moduleType": "PHARMACY",
		"category": "antibiotics"
	}]
}`

func TestOrderHandler_Create(t *testing.T) {
	var gotParams service.CreateOrderParams
	var gotPrincipal domain.Principal
	svc := &mockInvoicingService{
		createOrderFunc: func(ctx context.Context, params service.CreateOrderParams, p domain.Principal) (*domain.Order, error) {
			gotParams, gotPrincipal = params, p
			return pricedOrder(), nil
		},
	}
	h := NewOrderHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/invoicing/orders", validOrderBody, pharmacyPrincipal))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "1234567-8", gotParams.ClientTaxID)
	assert.Equal(t, "Distribuidora Sur", gotParams.ProviderName)
	require.Len(t, gotParams.Items, 1)
	assert.Equal(t, domain.ModulePharmacy, gotParams.Items[0].Module)
	assert.True(t, dec("100").Equal(gotParams.Items[0].UnitCost))
	assert.Equal(t, "pharma", gotPrincipal.Username)

	body := rec.Body.String()
	assert.Contains(t, body, `"totalAmount":224.00`)
	assert.Contains(t, body, `"totalTaxes":24.00`)
	assert.Contains(t, body, `"itemSubtotal":200.00`)
	assert.Contains(t, body, `"taxApplied":24.00`)
	assert.Contains(t, body, `"itemTotal":224.00`)
	assert.Contains(t, body, `"invoicePdfUrl":"/api/invoicing/invoices/download/invoice-7-1704888000000.pdf"`)
	assert.Contains(t, body, `"createdByUsername":"pharma"`)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp["orderId"])
}

func TestOrderHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "missing client nit",
			body:      `{"clientName":"A","clientAddress":"B","items":[{"productNameOrService":"X","unitCost":1,"quantity":1,"moduleType":"PHARMACY"}]}`,
			wantField: "clientNit",
		},
		{
			name:      "no items",
			body:      `{"clientName":"A","clientNit":"1","clientAddress":"B","items":[]}`,
			wantField: "items",
		},
		{
			name:      "zero unit cost",
			body:      `{"clientName":"A","clientNit":"1","clientAddress":"B","items":[{"productNameOrService":"X","unitCost":0,"quantity":1,"moduleType":"PHARMACY"}]}`,
			wantField: "items[0].unitCost",
		},
		{
			name:      "negative unit cost",
			body:      `{"clientName":"A","clientNit":"1","clientAddress":"B","items":[{"productNameOrService":"X","unitCost":-5,"quantity":1,"moduleType":"PHARMACY"}]}`,
			wantField: "items[0].unitCost",
		},
		{
			name:      "negative quantity",
			body:      `{"clientName":"A","clientNit":"1","clientAddress":"B","items":[{"productNameOrService":"X","unitCost":1,"quantity":-1,"moduleType":"HOSPITAL"}]}`,
			wantField: "items[0].quantity",
		},
		{
			name:      "unknown module",
			body:      `{"clientName":"A","clientNit":"1","clientAddress":"B","items":[{"productNameOrService":"X","unitCost":1,"quantity":1,"moduleType":"DENTAL"}]}`,
			wantField: "items[0].moduleType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockInvoicingService{
				createOrderFunc: func(ctx context.Context, params service.CreateOrderParams, p domain.Principal) (*domain.Order, error) {
					called = true
					return nil, nil
				},
			}
			rec := httptest.NewRecorder()
			NewOrderHandler(svc, nil).Create(rec, newRequest(http.MethodPost, "/api/invoicing/orders", tt.body, pharmacyPrincipal))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, called, "service must not be called for an invalid body")
			env := decodeError(t, rec)
			assert.Equal(t, domain.EINVALID, env.Error.Code)
			assert.Contains(t, env.Error.Fields, tt.wantField)
		})
	}
}

func TestOrderHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		principal  *domain.Principal
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous",
			body:       validOrderBody,
			wantStatus: http.StatusUnauthorized,
			wantCode:   domain.EUNAUTHORIZED,
		},
		{
			name:       "malformed json",
			body:       `{"clientName":`,
			principal:  pharmacyPrincipal,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "invoice generation failed",
			body:       validOrderBody,
			principal:  pharmacyPrincipal,
			svcErr:     domain.Internal(errors.New("bucket unreachable"), "invoicing.create_order", "invoice could not be generated"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   domain.EINTERNAL,
		},
		{
			name:       "service field error",
			body:       validOrderBody,
			principal:  pharmacyPrincipal,
			svcErr:     domain.NewValidationError("invoicing.create_order", "clientName", "is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockInvoicingService{
				createOrderFunc: func(ctx context.Context, params service.CreateOrderParams, p domain.Principal) (*domain.Order, error) {
					return nil, tt.svcErr
				},
			}
			rec := httptest.NewRecorder()
			NewOrderHandler(svc, nil).Create(rec, newRequest(http.MethodPost, "/api/invoicing/orders", tt.body, tt.principal))

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.NotContains(t, env.Error.Message, "bucket")
		})
	}
}

func TestOrderHandler_Get(t *testing.T) {
	svc := &mockInvoicingService{
		getOrderFunc: func(ctx context.Context, id int64) (*domain.Order, error) {
			if id == 7 {
				return pricedOrder(), nil
			}
			return nil, service.ErrOrderNotFound
		},
	}

	newGet := func(id string) *http.Request {
		req := newRequest(http.MethodGet, "/api/invoicing/orders/"+id, "", adminPrincipal)
		req.SetPathValue("id", id)
		return req
	}

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewOrderHandler(svc, nil).Get(rec, newGet("7"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"orderId":7`)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewOrderHandler(svc, nil).Get(rec, newGet("8"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not a number", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewOrderHandler(svc, nil).Get(rec, newGet("abc"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMoney_MarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"224", "224.00"},
		{"20.5", "20.50"},
		{"0", "0.00"},
		{"1.005", "1.01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, err := json.Marshal(Money(dec(tt.in)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}
