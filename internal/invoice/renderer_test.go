package invoice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            42,
		ClientName:    "Farmacia Galeno",
		ClientTaxID:   "1234567-8",
		ClientAddress: "6a Avenida 10-20, Zona 1",
		ProviderName:  "Distribuidora Médica",
		CreatedAt:     time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC),
		Items: []domain.LineItem{{
			Name:     "Ibuprofeno 400mg",
			UnitCost: decimal.RequireFromString("100"),
			Quantity: 2,
			Module:   domain.ModulePharmacy,
			Amounts: &domain.LineAmounts{
				Subtotal:   decimal.RequireFromString("200"),
				TaxApplied: decimal.RequireFromString("24"),
				Total:      decimal.RequireFromString("224"),
			},
		}},
		TotalAmount: decimal.RequireFromString("224"),
		TotalTaxes:  decimal.RequireFromString("24"),
	}
}

func newTestRenderer(store storage.Storage) *PDFRenderer {
	r := NewPDFRenderer(store, "/api/invoicing/invoices/download", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.now = func() time.Time { return time.UnixMilli(1746354600000) }
	return r
}

func TestPDFRenderer_Render(t *testing.T) {
	store := storage.NewMemoryStorage()
	r := newTestRenderer(store)

	locator, err := r.Render(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "/api/invoicing/invoices/download/invoice-42-1746354600000.pdf", locator)

	name, ok := r.FileNameFromLocator(locator)
	require.True(t, ok)

	rc, err := store.Get(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, "application/pdf", store.ContentType(name))
}

func TestPDFRenderer_RequiresIdentity(t *testing.T) {
	store := storage.NewMemoryStorage()
	order := testOrder()
	order.ID = 0

	_, err := newTestRenderer(store).Render(context.Background(), order)
	assert.True(t, domain.IsCode(err, domain.EINTERNAL))
	assert.Equal(t, 0, store.Len())
}

type failingStorage struct{ storage.Storage }

func (failingStorage) Put(ctx context.Context, key string, content io.Reader, contentType string) error {
	return errors.New("bucket unavailable")
}

func TestPDFRenderer_StorageFailureIsIOFailure(t *testing.T) {
	_, err := newTestRenderer(failingStorage{}).Render(context.Background(), testOrder())

	assert.ErrorIs(t, err, ErrIOFailure)
	assert.True(t, domain.IsCode(err, domain.EINTERNAL))
	assert.True(t, strings.Contains(err.Error(), "bucket unavailable"))
}

func TestPDFRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRenderer(storage.NewMemoryStorage()).Render(ctx, testOrder())
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileNameFromLocator_RejectsForeignPrefix(t *testing.T) {
	r := newTestRenderer(storage.NewMemoryStorage())
	_, ok := r.FileNameFromLocator("/elsewhere/invoice-1.pdf")
	assert.False(t, ok)
}
