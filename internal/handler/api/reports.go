package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/handler"
	"github.com/dukerupert/taxsim/internal/service"
)

// localDateTime is an ISO-8601 date-time without an offset.
const localDateTime = "2006-01-02T15:04:05"

// ReportHandler serves the administrator reports. Every report accepts
// optional startDate and endDate parameters and answers 204 when nothing
// matches.
type ReportHandler struct {
	reports service.ReportService
	loc     *time.Location
	logger  *slog.Logger
}

// NewReportHandler creates a report handler. Dates without an offset are
// read in loc; nil means UTC.
func NewReportHandler(reports service.ReportService, loc *time.Location, logger *slog.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{reports: reports, loc: loc, logger: logger}
}

// ByNit handles GET /api/invoicing/reports/by-nit?nit=
func (h *ReportHandler) ByNit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nit, ok := h.requiredParam(w, r, q, "nit")
	if !ok {
		return
	}
	rng, ok := h.dateRange(w, r, q)
	if !ok {
		return
	}
	orders, err := h.reports.ByTaxID(r.Context(), nit, rng)
	h.respond(w, r, orders, err)
}

// ByModule handles GET /api/invoicing/reports/by-module?moduleRole=
func (h *ReportHandler) ByModule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role, ok := h.requiredParam(w, r, q, "moduleRole")
	if !ok {
		return
	}
	rng, ok := h.dateRange(w, r, q)
	if !ok {
		return
	}
	orders, err := h.reports.ByCreatorRole(r.Context(), role, rng)
	h.respond(w, r, orders, err)
}

// General handles GET /api/invoicing/reports/general
func (h *ReportHandler) General(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.dateRange(w, r, r.URL.Query())
	if !ok {
		return
	}
	orders, err := h.reports.General(r.Context(), rng)
	h.respond(w, r, orders, err)
}

// ByProvider handles GET /api/invoicing/reports/by-provider?providerName=
func (h *ReportHandler) ByProvider(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, ok := h.requiredParam(w, r, q, "providerName")
	if !ok {
		return
	}
	rng, ok := h.dateRange(w, r, q)
	if !ok {
		return
	}
	orders, err := h.reports.ByProvider(r.Context(), name, rng)
	h.respond(w, r, orders, err)
}

// ByItemCategory handles GET /api/invoicing/reports/by-item-category?category=
func (h *ReportHandler) ByItemCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category, ok := h.requiredParam(w, r, q, "category")
	if !ok {
		return
	}
	rng, ok := h.dateRange(w, r, q)
	if !ok {
		return
	}
	orders, err := h.reports.ByItemCategory(r.Context(), category, rng)
	h.respond(w, r, orders, err)
}

func (h *ReportHandler) respond(w http.ResponseWriter, r *http.Request, orders []domain.Order, err error) {
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	handler.JSON(w, http.StatusOK, newOrderResponses(orders))
}

// requiredParam insists the parameter is present. A present but blank value
// is passed through; the report then comes back empty.
func (h *ReportHandler) requiredParam(w http.ResponseWriter, r *http.Request, q url.Values, name string) (string, bool) {
	if !q.Has(name) {
		handler.ValidationErrorResponse(w, r, domain.NewValidationError("api.report", name, "is required"))
		return "", false
	}
	return q.Get(name), true
}

func (h *ReportHandler) dateRange(w http.ResponseWriter, r *http.Request, q url.Values) (domain.DateRange, bool) {
	var rng domain.DateRange
	var verr error

	start, err := parseReportDate(q.Get("startDate"), false, h.loc)
	if err != nil {
		verr = domain.NewValidationError("api.report", "startDate", "must be an ISO-8601 date or date-time")
	}
	end, err := parseReportDate(q.Get("endDate"), true, h.loc)
	if err != nil {
		msg := "must be an ISO-8601 date or date-time"
		if verr == nil {
			verr = domain.NewValidationError("api.report", "endDate", msg)
		} else {
			verr = domain.AddFieldError(verr, "endDate", msg)
		}
	}
	if verr != nil {
		handler.ValidationErrorResponse(w, r, verr)
		return rng, false
	}

	rng.Start, rng.End = start, end
	return rng, true
}

// parseReportDate accepts RFC 3339, a local date-time, or a plain date. A
// plain end date covers the whole day. An empty value is no bound.
func parseReportDate(s string, end bool, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(localDateTime, s, loc); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil, err
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
