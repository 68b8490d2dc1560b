// Package handler holds the HTTP error plumbing shared by the API handlers.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/middleware"
	"github.com/dukerupert/taxsim/internal/telemetry"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse maps err to a status code and writes it. API clients get a
// JSON body; everyone else gets plain text. Internal errors are logged with
// their full chain and reported to Sentry, but the body only carries the
// generic message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{"code", code, "status", status}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		if err != nil {
			telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{"code": code})
		}
	} else {
		logger.Debug("request rejected", attrs...)
	}

	writeError(w, r, status, errorDetail{Code: code, Message: message})
}

// ValidationErrorResponse writes a 400 with the per-field messages. Errors
// that are not validation errors fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsValidationError(err) {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Debug("validation failed", "error", err.Error())

	writeError(w, r, http.StatusBadRequest, errorDetail{
		Code:    domain.EINVALID,
		Message: domain.ErrorMessage(err),
		Fields:  domain.GetValidationFields(err),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail errorDetail) {
	if acceptsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorBody{Error: detail})
		return
	}
	http.Error(w, detail.Message, status)
}

var statusByCode = map[string]int{
	domain.EINVALID:      http.StatusBadRequest,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.ECONFLICT:     http.StatusConflict,
	domain.ETOOLARGE:     http.StatusRequestEntityTooLarge,
	domain.ERATELIMIT:    http.StatusTooManyRequests,
	domain.EUNAVAILABLE:  http.StatusServiceUnavailable,
}

// ErrorCodeToHTTPStatus maps a domain error code to its HTTP status. Unknown
// codes are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// acceptsJSON reports whether the client expects a JSON error body.
func acceptsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasSuffix(r.URL.Path, ".json") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// NotFoundResponse writes a 404 for an unknown resource.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Unauthorized("", "Authentication required"))
}

func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Forbidden("", "You don't have permission to access this resource"))
}

// InternalErrorResponse writes a 500. A nil err is treated as an unknown
// failure.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "unexpected failure"))
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
