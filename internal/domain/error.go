package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Error codes. Handlers map them to HTTP statuses; the core never deals in
// statuses directly.
const (
	ECONFLICT     = "conflict"     // 409, duplicate username, locator rewrite
	EINTERNAL     = "internal"     // 500, details hidden from the caller
	EINVALID      = "invalid"      // 400, bad items, bad date range, bad request body
	ENOTFOUND     = "not_found"    // 404
	EUNAUTHORIZED = "unauthorized" // 401
	EFORBIDDEN    = "forbidden"    // 403, authenticated but wrong role
	ETOOLARGE     = "too_large"    // 413
	ERATELIMIT    = "rate_limited" // 429
	EUNAVAILABLE  = "unavailable"  // 503, request deadline or dependency down
)

const internalMessage = "An internal error occurred. Please try again later."

// Error is the application error. Message is safe to show to callers unless
// Code is EINTERNAL; Op and Err are for logs only.
type Error struct {
	Code    string
	Message string
	Op      string // e.g. "invoicing.create_order"
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	parts = append(parts, e.Message)
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Coded is implemented by package-local error types (tax.TaxError,
// storage.StorageError) that carry their own code without importing domain.
type Coded interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// classify resolves the code and public message of any error. Unknown errors
// are internal.
func classify(err error) (code, message string) {
	var e *Error
	var ve *ValidationError
	var c Coded
	switch {
	case errors.As(err, &e):
		code, message = e.Code, e.Message
	case errors.As(err, &ve):
		code, message = EINVALID, "Validation failed"
	case errors.As(err, &c):
		code, message = c.ErrorCode(), c.ErrorMessage()
	default:
		code = EINTERNAL
	}
	if code == EINTERNAL {
		message = internalMessage
	}
	return code, message
}

// ErrorCode returns the code of err, EINTERNAL for uncoded errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	code, _ := classify(err)
	return code
}

// ErrorMessage returns the caller-facing message of err. Internal errors
// always yield the generic message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	_, msg := classify(err)
	return msg
}

// ErrorOp returns the operation of the outermost *Error, for logging.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// IsCode reports whether err carries code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Errorf builds an *Error with a formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, resource, identifier string) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: fmt.Sprintf("%s not found: %s", resource, identifier)}
}

func Unauthorized(op, message string) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Forbidden(op, message string) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: message}
}

func Invalid(op, message string) error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Conflict(op, message string) error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Internal wraps err. Callers only ever see the generic message.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// ValidationError collects per-field failures of a request payload. Field
// names use the JSON path, e.g. "items[0].unitCost".
type ValidationError struct {
	Fields map[string]string
	Op     string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			fmt.Fprintf(&b, "%s: %s", field, msg)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "validation failed for %d fields (%s)",
		len(e.Fields), strings.Join(slices.Sorted(maps.Keys(e.Fields)), ", "))
	return b.String()
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{Op: op, Fields: map[string]string{field: message}}
}

// AddFieldError adds field to err when it is a ValidationError, otherwise it
// starts a new one.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return &ValidationError{Fields: map[string]string{field: message}}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field map of a ValidationError, or nil.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
