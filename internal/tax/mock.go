package tax

import (
	"context"

	"github.com/dukerupert/taxsim/internal/domain"
)

// MockCalculator is a test implementation of Calculator.
type MockCalculator struct {
	PriceFunc func(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Calls     int
}

// NewMockCalculator returns a mock that prices with the real rate table
// unless PriceFunc is replaced.
func NewMockCalculator() *MockCalculator {
	calc := NewRateCalculator()
	return &MockCalculator{PriceFunc: calc.Price}
}

// Price delegates to PriceFunc.
func (m *MockCalculator) Price(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	m.Calls++
	return m.PriceFunc(ctx, order)
}
