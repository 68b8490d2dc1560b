package tax

import (
	"fmt"

	"github.com/dukerupert/taxsim/internal/domain"
)

// ============================================================================
// TAX ERROR CODES
// ============================================================================
// These constants mirror domain error codes. TaxError satisfies domain.Coded,
// so the handler layer maps it to an HTTP status without further wrapping.

const (
	codeInvalid = "invalid"
)

// Kinds distinguish tax errors for errors.Is without comparing messages.
const (
	KindInvalidItem           = "invalid_item"
	KindUnknownModuleCategory = "unknown_module_category"
)

// ============================================================================
// TAX ERROR TYPE
// ============================================================================

// TaxError represents a pricing failure with a code and a user-facing message.
type TaxError struct {
	Kind    string
	Code    string
	Message string
}

func (e *TaxError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *TaxError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *TaxError) ErrorMessage() string {
	return e.Message
}

// Is matches any TaxError of the same kind, so detailed errors compare equal
// to the sentinels below.
func (e *TaxError) Is(target error) bool {
	t, ok := target.(*TaxError)
	return ok && t.Kind == e.Kind
}

// ============================================================================
// TAX DOMAIN ERRORS
// ============================================================================

var (
	// ErrInvalidItem matches every item validation failure.
	ErrInvalidItem = &TaxError{Kind: KindInvalidItem, Code: codeInvalid, Message: "invalid line item"}

	// ErrUnknownModuleCategory matches every rate lookup failure.
	ErrUnknownModuleCategory = &TaxError{Kind: KindUnknownModuleCategory, Code: codeInvalid, Message: "unknown module category"}

	// ErrNoItems is returned for an order without line items.
	ErrNoItems = &TaxError{Kind: KindInvalidItem, Code: codeInvalid, Message: "order must contain at least one item"}
)

// InvalidItem names the offending item by position (1-based) and name.
func InvalidItem(index int, name, detail string) error {
	return &TaxError{
		Kind:    KindInvalidItem,
		Code:    codeInvalid,
		Message: fmt.Sprintf("item %d (%s): %s", index+1, displayName(name), detail),
	}
}

// UnknownModuleCategory reports a module outside the rate table.
func UnknownModuleCategory(m domain.ModuleCategory) error {
	return &TaxError{
		Kind:    KindUnknownModuleCategory,
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown module category: %q", string(m)),
	}
}

func displayName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return name
}
