package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/handler"
	"github.com/dukerupert/taxsim/internal/middleware"
	"github.com/dukerupert/taxsim/internal/storage"
)

// InvoiceHandler streams stored invoice documents.
type InvoiceHandler struct {
	store  storage.Storage
	logger *slog.Logger
}

func NewInvoiceHandler(store storage.Storage, logger *slog.Logger) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceHandler{store: store, logger: logger}
}

// Download handles GET /api/invoicing/invoices/download/{fileName}.
//
// Only flat names inside the storage root are served. Anything else is a 400
// and a name with no stored document is a 404.
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "api.download_invoice"

	name := r.PathValue("fileName")
	if strings.ContainsAny(name, `/"`) || storage.ValidateKey(name) != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "invalid invoice file name"))
		return
	}

	body, err := h.store.Get(r.Context(), name)
	if err != nil {
		if storage.IsNotFound(err) {
			handler.ErrorResponse(w, r, domain.NotFound(op, "invoice", name))
			return
		}
		handler.ErrorResponse(w, r, domain.Internal(err, op, "failed to read invoice"))
		return
	}
	defer body.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", "application/octet-stream")
	hdr.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	hdr.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	hdr.Set("Pragma", "no-cache")
	hdr.Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		middleware.GetLogger(r.Context(), h.logger).Warn("invoice download interrupted", "file", name, "error", err)
	}
}
