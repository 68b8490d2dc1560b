// Package invoice renders finalized orders to PDF and stores the document.
package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/storage"
)

// ErrIOFailure marks every failure to produce or store an invoice document.
var ErrIOFailure = errors.New("invoice document i/o failure")

const contentType = "application/pdf"

// PDFRenderer implements domain.InvoiceRenderer on top of a storage backend.
type PDFRenderer struct {
	store          storage.Storage
	downloadPrefix string
	now            func() time.Time
	logger         *slog.Logger
}

var _ domain.InvoiceRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a renderer whose locators are downloadPrefix + file name.
func NewPDFRenderer(store storage.Storage, downloadPrefix string, logger *slog.Logger) *PDFRenderer {
	if !strings.HasSuffix(downloadPrefix, "/") {
		downloadPrefix += "/"
	}
	return &PDFRenderer{
		store:          store,
		downloadPrefix: downloadPrefix,
		now:            time.Now,
		logger:         logger,
	}
}

// Render builds the document, stores it and returns its locator.
func (r *PDFRenderer) Render(ctx context.Context, order *domain.Order) (string, error) {
	const op = "invoice.render"

	if order == nil || !order.Persisted() {
		return "", domain.Internal(nil, op, "order must be persisted before rendering")
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, order); err != nil {
		return "", ioFailure(op, err)
	}

	if err := ctx.Err(); err != nil {
		return "", ioFailure(op, err)
	}

	fileName := FileName(order.ID, r.now())
	if err := r.store.Put(ctx, fileName, &buf, contentType); err != nil {
		return "", ioFailure(op, err)
	}

	r.logger.Debug("invoice stored", "order_id", order.ID, "file", fileName, "bytes", buf.Len())

	return r.downloadPrefix + fileName, nil
}

// FileNameFromLocator extracts the stored file name from a locator produced
// by this renderer.
func (r *PDFRenderer) FileNameFromLocator(locator string) (string, bool) {
	name, ok := strings.CutPrefix(locator, r.downloadPrefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// FileName is invoice-{orderID}-{unix millis}.pdf.
func FileName(orderID int64, at time.Time) string {
	return fmt.Sprintf("invoice-%d-%d.pdf", orderID, at.UnixMilli())
}

func ioFailure(op string, err error) error {
	return &domain.Error{
		Code:    domain.EINTERNAL,
		Op:      op,
		Message: "failed to generate invoice document",
		Err:     errors.Join(ErrIOFailure, err),
	}
}
