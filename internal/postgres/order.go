package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderRepository implements domain.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db DB
}

// Compile-time check that OrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Save inserts a new order with its items, or updates the header of an
// existing one. Both paths run in a transaction.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	const op = "order.save"

	if order == nil || len(order.Items) == 0 {
		return domain.Invalid(op, "order must contain at least one item")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if order.Persisted() {
		err = r.update(ctx, tx, order)
	} else {
		err = r.insert(ctx, tx, order)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "failed to commit order")
	}
	return nil
}

func (r *OrderRepository) insert(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	const op = "order.insert"

	var creatorID pgtype.Int8
	if order.Creator.ID != 0 {
		creatorID = pgtype.Int8{Int64: order.Creator.ID, Valid: true}
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO orders (client_name, client_tax_id, client_address, provider_name,
			total_amount, total_taxes, invoice_locator, creator_id, creator_username, creator_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		order.ClientName, order.ClientTaxID, order.ClientAddress, text(order.ProviderName),
		numeric(order.TotalAmount), numeric(order.TotalTaxes), text(order.InvoiceLocator),
		creatorID, order.Creator.Username, string(order.Creator.Role),
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return domain.Internal(err, op, "failed to insert order")
	}

	for i := range order.Items {
		it := &order.Items[i]
		if it.Amounts == nil {
			return domain.Internal(nil, op, fmt.Sprintf("item %d has not been priced", i+1))
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, position, name, unit_cost, quantity, module_category,
				category, subtotal, tax_applied, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			order.ID, i, it.Name, numeric(it.UnitCost), it.Quantity, string(it.Module),
			text(it.Category), numeric(it.Amounts.Subtotal), numeric(it.Amounts.TaxApplied), numeric(it.Amounts.Total),
		).Scan(&it.ID)
		if err != nil {
			return domain.Internal(err, op, "failed to insert order item")
		}
	}

	return nil
}

func (r *OrderRepository) update(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	const op = "order.update"

	var current pgtype.Text
	var createdAt time.Time
	err := tx.QueryRow(ctx,
		`SELECT invoice_locator, created_at FROM orders WHERE id = $1 FOR UPDATE`,
		order.ID,
	).Scan(&current, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(op, "order", fmt.Sprint(order.ID))
	}
	if err != nil {
		return domain.Internal(err, op, "failed to lock order")
	}

	if current.Valid && current.String != order.InvoiceLocator {
		return domain.Conflict(op, "invoice locator cannot be changed once set")
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET client_name = $2, client_address = $3, provider_name = $4,
			total_amount = $5, total_taxes = $6, invoice_locator = $7, updated_at = now()
		WHERE id = $1`,
		order.ID, order.ClientName, order.ClientAddress, text(order.ProviderName),
		numeric(order.TotalAmount), numeric(order.TotalTaxes), text(order.InvoiceLocator),
	)
	if err != nil {
		return domain.Internal(err, op, "failed to update order")
	}

	order.CreatedAt = createdAt
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	orders, err := r.find(ctx, "o.id = $1", []any{id})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.NotFound("order.get", "order", fmt.Sprint(id))
	}
	return &orders[0], nil
}

// Find runs an arbitrary filter combination.
func (r *OrderRepository) Find(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	query, args := buildOrderQuery(f)
	return r.query(ctx, query, args)
}

func (r *OrderRepository) find(ctx context.Context, where string, args []any) ([]domain.Order, error) {
	query := "SELECT " + orderColumns + "\nFROM orders o\nWHERE " + where + "\nORDER BY o.created_at, o.id"
	return r.query(ctx, query, args)
}

func (r *OrderRepository) query(ctx context.Context, query string, args []any) ([]domain.Order, error) {
	const op = "order.find"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to query orders")
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to scan orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Order, len(orders))
	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.db.Query(ctx,
		"SELECT "+itemColumns+" FROM order_items i WHERE i.order_id = ANY($1) ORDER BY i.order_id, i.position",
		ids,
	)
	if err != nil {
		return domain.Internal(err, "order.load_items", "failed to query order items")
	}
	defer rows.Close()

	for rows.Next() {
		orderID, item, err := scanItem(rows)
		if err != nil {
			return domain.Internal(err, "order.load_items", "failed to scan order item")
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Internal(err, "order.load_items", "failed to read order items")
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (domain.Order, error) {
	var (
		o                       domain.Order
		provider, locator       pgtype.Text
		totalAmount, totalTaxes string
		creatorID               pgtype.Int8
		creatorRole             string
	)
	err := row.Scan(&o.ID, &o.ClientName, &o.ClientTaxID, &o.ClientAddress, &provider,
		&totalAmount, &totalTaxes, &locator,
		&creatorID, &o.Creator.Username, &creatorRole, &o.CreatedAt)
	if err != nil {
		return o, err
	}

	o.ProviderName = provider.String
	o.InvoiceLocator = locator.String
	o.Creator.ID = creatorID.Int64
	o.Creator.Role = domain.Role(creatorRole)

	if o.TotalAmount, err = parseNumeric("total_amount", totalAmount); err != nil {
		return o, err
	}
	if o.TotalTaxes, err = parseNumeric("total_taxes", totalTaxes); err != nil {
		return o, err
	}
	return o, nil
}

func scanItem(rows pgx.Rows) (int64, domain.LineItem, error) {
	var (
		it                               domain.LineItem
		orderID                          int64
		unitCost, subtotal, taxed, total string
		module                           string
		category                         pgtype.Text
	)
	err := rows.Scan(&it.ID, &orderID, &it.Name, &unitCost, &it.Quantity, &module,
		&category, &subtotal, &taxed, &total)
	if err != nil {
		return 0, it, err
	}

	it.Module = domain.ModuleCategory(module)
	it.Category = category.String

	if it.UnitCost, err = parseNumeric("unit_cost", unitCost); err != nil {
		return 0, it, err
	}
	amounts := &domain.LineAmounts{}
	if amounts.Subtotal, err = parseNumeric("subtotal", subtotal); err != nil {
		return 0, it, err
	}
	if amounts.TaxApplied, err = parseNumeric("tax_applied", taxed); err != nil {
		return 0, it, err
	}
	if amounts.Total, err = parseNumeric("total", total); err != nil {
		return 0, it, err
	}
	it.Amounts = amounts

	return orderID, it, nil
}

func (r *OrderRepository) FindByTaxID(ctx context.Context, taxID string) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{TaxID: taxID})
}

func (r *OrderRepository) FindByTaxIDAndDateRange(ctx context.Context, taxID string, start, end time.Time) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{TaxID: taxID, Range: domain.NewDateRange(start, end)})
}

func (r *OrderRepository) FindByCreatorRole(ctx context.Context, role domain.Role) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{CreatorRole: role})
}

func (r *OrderRepository) FindByCreatorRoleAndDateRange(ctx context.Context, role domain.Role, start, end time.Time) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{CreatorRole: role, Range: domain.NewDateRange(start, end)})
}

func (r *OrderRepository) FindByProviderName(ctx context.Context, name string) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{ProviderName: name})
}

func (r *OrderRepository) FindByProviderNameAndDateRange(ctx context.Context, name string, start, end time.Time) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{ProviderName: name, Range: domain.NewDateRange(start, end)})
}

func (r *OrderRepository) FindDistinctByItemCategory(ctx context.Context, category string) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{ItemCategory: category})
}

func (r *OrderRepository) FindDistinctByItemCategoryAndDateRange(ctx context.Context, category string, start, end time.Time) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{ItemCategory: category, Range: domain.NewDateRange(start, end)})
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{})
}

func (r *OrderRepository) FindAllInDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{Range: domain.NewDateRange(start, end)})
}

func (r *OrderRepository) FindPendingInvoice(ctx context.Context, olderThan time.Time, limit int) ([]domain.Order, error) {
	return r.Find(ctx, domain.OrderFilter{PendingBefore: &olderThan, Limit: limit})
}
