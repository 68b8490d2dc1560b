package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LineAmounts are the values the calculator derives for one item. They exist
// together or not at all.
type LineAmounts struct {
	Subtotal   decimal.Decimal
	TaxApplied decimal.Decimal
	Total      decimal.Decimal
}

// LineItem is one product or service on an order. Items belong to exactly one
// order and are never shared.
type LineItem struct {
	ID       int64
	Name     string
	UnitCost decimal.Decimal
	Quantity int32
	Module   ModuleCategory
	Category string // optional, used by the category report

	// Amounts is nil until the item has been priced.
	Amounts *LineAmounts
}

// Priced reports whether the calculator has filled in the item's amounts.
func (li LineItem) Priced() bool {
	return li.Amounts != nil
}

// Creator is a weak reference to the principal that submitted an order.
type Creator struct {
	ID       int64
	Username string
	Role     Role
}

// Order is the aggregate root of the invoicing core.
type Order struct {
	ID            int64
	ClientName    string
	ClientTaxID   string
	ClientAddress string
	ProviderName  string // optional
	Items         []LineItem

	// Totals are plain sums of the already-rounded item values.
	TotalAmount decimal.Decimal
	TotalTaxes  decimal.Decimal

	// InvoiceLocator is empty until the invoice has been rendered and never
	// cleared afterwards.
	InvoiceLocator string

	CreatedAt time.Time
	Creator   Creator
}

// Persisted reports whether the order has been assigned an identity.
func (o *Order) Persisted() bool {
	return o.ID != 0
}

// Finalized reports whether the order carries an invoice locator.
func (o *Order) Finalized() bool {
	return o.InvoiceLocator != ""
}

// HasItemCategory reports whether any item carries the given category.
func (o *Order) HasItemCategory(category string) bool {
	for _, it := range o.Items {
		if it.Category == category {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand orders across layers without
// sharing item slices or amount pointers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = make([]LineItem, len(o.Items))
	for i, it := range o.Items {
		if it.Amounts != nil {
			amounts := *it.Amounts
			it.Amounts = &amounts
		}
		cp.Items[i] = it
	}
	return &cp
}

// OrderRepository is the persistence port for orders. Every list result is in
// insertion order (creation time, then id).
type OrderRepository interface {
	// Save inserts the order when it has no identity yet, assigning ID and
	// CreatedAt. Otherwise it overwrites the header by identity. Items are
	// written once, on insert.
	Save(ctx context.Context, order *Order) error

	GetByID(ctx context.Context, id int64) (*Order, error)

	FindByTaxID(ctx context.Context, taxID string) ([]Order, error)
	FindByTaxIDAndDateRange(ctx context.Context, taxID string, start, end time.Time) ([]Order, error)

	FindByCreatorRole(ctx context.Context, role Role) ([]Order, error)
	FindByCreatorRoleAndDateRange(ctx context.Context, role Role, start, end time.Time) ([]Order, error)

	FindByProviderName(ctx context.Context, name string) ([]Order, error)
	FindByProviderNameAndDateRange(ctx context.Context, name string, start, end time.Time) ([]Order, error)

	// FindDistinctByItemCategory returns each matching order once, even when
	// several of its items share the category.
	FindDistinctByItemCategory(ctx context.Context, category string) ([]Order, error)
	FindDistinctByItemCategoryAndDateRange(ctx context.Context, category string, start, end time.Time) ([]Order, error)

	FindAll(ctx context.Context) ([]Order, error)
	FindAllInDateRange(ctx context.Context, start, end time.Time) ([]Order, error)

	// FindPendingInvoice returns orders created at or before olderThan that
	// still have no invoice locator, oldest first.
	FindPendingInvoice(ctx context.Context, olderThan time.Time, limit int) ([]Order, error)
}

// InvoiceRenderer is the document port. Render must only be called for an
// order that has an identity; it returns the locator of the stored artifact.
type InvoiceRenderer interface {
	Render(ctx context.Context, order *Order) (string, error)
}

// OrderPublisher announces finalized orders to downstream consumers.
type OrderPublisher interface {
	PublishOrderFinalized(ctx context.Context, order *Order) error
	Close() error
}
