// Package tax prices invoicing orders: the module rate table, the money
// rounding rule, and the calculator that applies them to line items.
package tax

import (
	"context"

	"github.com/dukerupert/taxsim/internal/domain"
)

// Calculator prices an order. Implementations must not mutate the input and
// must either price every item or return an error without partial results.
type Calculator interface {
	Price(ctx context.Context, order *domain.Order) (*domain.Order, error)
}
