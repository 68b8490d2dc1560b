package postgres

import (
	"fmt"
	"strings"

	"github.com/dukerupert/taxsim/internal/domain"
)

const orderColumns = `o.id, o.client_name, o.client_tax_id, o.client_address, o.provider_name,
	o.total_amount::text, o.total_taxes::text, o.invoice_locator,
	o.creator_id, o.creator_username, o.creator_role, o.created_at`

const itemColumns = `i.id, i.order_id, i.name, i.unit_cost::text, i.quantity, i.module_category,
	i.category, i.subtotal::text, i.tax_applied::text, i.total::text`

// orderQuery translates a domain.OrderFilter into SQL. Category matching uses
// EXISTS so an order with several matching items is returned once.
type orderQuery struct {
	where []string
	args  []any
}

func (q *orderQuery) add(cond string, arg any) {
	q.args = append(q.args, arg)
	q.where = append(q.where, fmt.Sprintf(cond, len(q.args)))
}

func buildOrderQuery(f domain.OrderFilter) (string, []any) {
	q := &orderQuery{}

	if f.TaxID != "" {
		q.add("o.client_tax_id = $%d", f.TaxID)
	}
	if f.CreatorRole != "" {
		q.add("o.creator_role = $%d", string(f.CreatorRole))
	}
	if f.ProviderName != "" {
		q.add("o.provider_name = $%d", f.ProviderName)
	}
	if f.ItemCategory != "" {
		q.add("EXISTS (SELECT 1 FROM order_items c WHERE c.order_id = o.id AND c.category = $%d)", f.ItemCategory)
	}
	if f.Range.Start != nil {
		q.add("o.created_at >= $%d", *f.Range.Start)
	}
	if f.Range.End != nil {
		q.add("o.created_at <= $%d", *f.Range.End)
	}
	if f.PendingBefore != nil {
		q.where = append(q.where, "o.invoice_locator IS NULL")
		q.add("o.created_at <= $%d", *f.PendingBefore)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(orderColumns)
	sb.WriteString("\nFROM orders o")
	if len(q.where) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(q.where, "\n  AND "))
	}
	sb.WriteString("\nORDER BY o.created_at, o.id")
	if f.Limit > 0 {
		q.args = append(q.args, f.Limit)
		fmt.Fprintf(&sb, "\nLIMIT $%d", len(q.args))
	}

	return sb.String(), q.args
}
