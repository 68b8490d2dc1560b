package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukerupert/taxsim/internal/domain"
)

// fakeRenderer implements domain.InvoiceRenderer for testing
type fakeRenderer struct {
	RenderFunc func(ctx context.Context, order *domain.Order) (string, error)
	calls      int
}

func (f *fakeRenderer) Render(ctx context.Context, order *domain.Order) (string, error) {
	f.calls++
	if f.RenderFunc != nil {
		return f.RenderFunc(ctx, order)
	}
	return fmt.Sprintf("/api/invoicing/invoices/download/invoice-%d-1700000000000.pdf", order.ID), nil
}

// fakePublisher implements domain.OrderPublisher for testing
type fakePublisher struct {
	PublishFunc func(ctx context.Context, order *domain.Order) error
	published   []int64
}

func (f *fakePublisher) PublishOrderFinalized(ctx context.Context, order *domain.Order) error {
	if f.PublishFunc != nil {
		if err := f.PublishFunc(ctx, order); err != nil {
			return err
		}
	}
	f.published = append(f.published, order.ID)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// fakeCache implements ReportCache for testing
type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.Order
	gets        int
	invalidated int
	GetErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]domain.Order)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]domain.Order, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	orders, ok := c.entries[key]
	return orders, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, orders []domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = orders
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.entries = make(map[string][]domain.Order)
	return nil
}

// countingRepo wraps a repository and counts finder calls.
type countingRepo struct {
	domain.OrderRepository
	finds int
}

func (r *countingRepo) FindByTaxID(ctx context.Context, taxID string) ([]domain.Order, error) {
	r.finds++
	return r.OrderRepository.FindByTaxID(ctx, taxID)
}

func (r *countingRepo) FindByProviderName(ctx context.Context, name string) ([]domain.Order, error) {
	r.finds++
	return r.OrderRepository.FindByProviderName(ctx, name)
}

func (r *countingRepo) FindDistinctByItemCategory(ctx context.Context, category string) ([]domain.Order, error) {
	r.finds++
	return r.OrderRepository.FindDistinctByItemCategory(ctx, category)
}

func (r *countingRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	r.finds++
	return r.OrderRepository.FindAll(ctx)
}
