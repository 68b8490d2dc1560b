package domain

import "time"

// OrderFilter is the combination of criteria every finder reduces to. Empty
// string fields are ignored; all set criteria must match.
type OrderFilter struct {
	TaxID        string
	CreatorRole  Role
	ProviderName string
	ItemCategory string
	Range        DateRange

	// PendingBefore selects orders without a locator created at or before
	// the given instant.
	PendingBefore *time.Time

	Limit int
}

// Matches evaluates the filter against an order in memory. Store adapters that
// translate the filter to a query must agree with it.
func (f OrderFilter) Matches(o *Order) bool {
	if f.TaxID != "" && o.ClientTaxID != f.TaxID {
		return false
	}
	if f.CreatorRole != "" && o.Creator.Role != f.CreatorRole {
		return false
	}
	if f.ProviderName != "" && o.ProviderName != f.ProviderName {
		return false
	}
	if f.ItemCategory != "" && !o.HasItemCategory(f.ItemCategory) {
		return false
	}
	if !f.Range.Contains(o.CreatedAt) {
		return false
	}
	if f.PendingBefore != nil && (o.Finalized() || o.CreatedAt.After(*f.PendingBefore)) {
		return false
	}
	return true
}
