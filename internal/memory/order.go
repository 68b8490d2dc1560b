// Package memory implements the persistence ports in process memory. It backs
// the tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
)

// OrderRepository keeps orders in insertion order.
type OrderRepository struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	order      []int64
	nextID     int64
	nextItemID int64
	now        func() time.Time
}

var _ domain.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[int64]*domain.Order),
		now:    time.Now,
	}
}

// SetClock overrides the creation timestamp source.
func (r *OrderRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	const op = "order.save"

	if order == nil || len(order.Items) == 0 {
		return domain.Invalid(op, "order must contain at least one item")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !order.Persisted() {
		r.nextID++
		order.ID = r.nextID
		order.CreatedAt = r.now().UTC()
		for i := range order.Items {
			r.nextItemID++
			order.Items[i].ID = r.nextItemID
		}
		r.orders[order.ID] = order.Clone()
		r.order = append(r.order, order.ID)
		return nil
	}

	existing, ok := r.orders[order.ID]
	if !ok {
		return domain.NotFound(op, "order", fmt.Sprint(order.ID))
	}
	if existing.Finalized() && order.InvoiceLocator != existing.InvoiceLocator {
		return domain.Conflict(op, "invoice locator cannot be changed once set")
	}

	// Same writable columns as the postgres UPDATE.
	updated := order.Clone()
	updated.ClientTaxID = existing.ClientTaxID
	updated.CreatedAt = existing.CreatedAt
	updated.Creator = existing.Creator
	updated.Items = existing.Clone().Items
	r.orders[order.ID] = updated

	order.CreatedAt = existing.CreatedAt
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFound("order.get", "order", fmt.Sprint(id))
	}
	return o.Clone(), nil
}

// Find returns clones of every order matching f, in insertion order.
func (r *OrderRepository) Find(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Order{}
	for _, id := range r.order {
		o := r.orders[id]
		if !f.Matches(o) {
			continue
		}
		out = append(out, *o.Clone())
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
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
