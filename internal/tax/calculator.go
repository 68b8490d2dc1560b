package tax

import (
	"context"
	"strings"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/shopspring/decimal"
)

// RateCalculator prices items with the fixed module rate table.
type RateCalculator struct{}

// NewRateCalculator creates the module-rate calculator.
func NewRateCalculator() *RateCalculator {
	return &RateCalculator{}
}

var _ Calculator = (*RateCalculator)(nil)

// Price validates every item first and only then prices them in input order,
// so a bad item rejects the whole order. The returned order is a copy.
func (c *RateCalculator) Price(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, ErrNoItems
	}

	for i, item := range order.Items {
		if err := validateItem(i, item); err != nil {
			return nil, err
		}
	}

	priced := order.Clone()
	totalAmount := decimal.Zero
	totalTaxes := decimal.Zero

	for i := range priced.Items {
		amounts, err := PriceItem(priced.Items[i])
		if err != nil {
			return nil, err
		}
		priced.Items[i].Amounts = amounts

		// Plain sums of rounded values; the totals are not rounded again.
		totalAmount = totalAmount.Add(amounts.Total)
		totalTaxes = totalTaxes.Add(amounts.TaxApplied)
	}

	priced.TotalAmount = totalAmount
	priced.TotalTaxes = totalTaxes

	return priced, nil
}

// PriceItem derives subtotal, tax and total for a single item.
func PriceItem(item domain.LineItem) (*domain.LineAmounts, error) {
	rate, err := RateFor(item.Module)
	if err != nil {
		return nil, err
	}

	subtotal := Round(item.UnitCost.Mul(decimal.NewFromInt32(item.Quantity)))
	taxApplied := Round(subtotal.Mul(rate))
	total := Round(subtotal.Add(taxApplied))

	return &domain.LineAmounts{
		Subtotal:   subtotal,
		TaxApplied: taxApplied,
		Total:      total,
	}, nil
}

func validateItem(i int, item domain.LineItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return InvalidItem(i, item.Name, "name is required")
	}
	if !item.UnitCost.IsPositive() {
		return InvalidItem(i, item.Name, "unit cost must be greater than zero, got "+item.UnitCost.String())
	}
	if item.Quantity <= 0 {
		return InvalidItem(i, item.Name, "quantity must be greater than zero")
	}
	if !item.Module.Valid() {
		return UnknownModuleCategory(item.Module)
	}
	return nil
}
