package tax_test

import (
	"context"
	"testing"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(tax.MoneyPlaces), msgAndArgs...)
}

func item(name, cost string, qty int32, module domain.ModuleCategory) domain.LineItem {
	return domain.LineItem{Name: name, UnitCost: money(cost), Quantity: qty, Module: module}
}

// Test_Price_SinglePharmacyItem: 100.00 x 2 at 12% = 200.00 + 24.00 = 224.00
func Test_Price_SinglePharmacyItem(t *testing.T) {
	calc := tax.NewRateCalculator()
	order := &domain.Order{Items: []domain.LineItem{item("Ibuprofeno", "100.00", 2, domain.ModulePharmacy)}}

	priced, err := calc.Price(context.Background(), order)
	require.NoError(t, err)

	amounts := priced.Items[0].Amounts
	require.NotNil(t, amounts)
	assertMoney(t, "200.00", amounts.Subtotal)
	assertMoney(t, "24.00", amounts.TaxApplied)
	assertMoney(t, "224.00", amounts.Total)
	assertMoney(t, "224.00", priced.TotalAmount)
	assertMoney(t, "24.00", priced.TotalTaxes)
}

// Test_Price_MixedModules: 224.00 (pharmacy) + 53.50 (hospital, 50 at 7%) = 277.50, taxes 27.50
func Test_Price_MixedModules(t *testing.T) {
	calc := tax.NewRateCalculator()
	order := &domain.Order{Items: []domain.LineItem{
		item("Ibuprofeno", "100.00", 2, domain.ModulePharmacy),
		item("Consulta general", "50", 1, domain.ModuleHospital),
	}}

	priced, err := calc.Price(context.Background(), order)
	require.NoError(t, err)

	hospital := priced.Items[1].Amounts
	assertMoney(t, "50.00", hospital.Subtotal)
	assertMoney(t, "3.50", hospital.TaxApplied)
	assertMoney(t, "53.50", hospital.Total)

	assertMoney(t, "277.50", priced.TotalAmount)
	assertMoney(t, "27.50", priced.TotalTaxes)
}

func Test_Price_RoundsEachStepOnce(t *testing.T) {
	tests := []struct {
		name     string
		item     domain.LineItem
		subtotal string
		tax      string
		total    string
	}{
		{
			name:     "subtotal rounds half up",
			item:     item("Gasas", "0.125", 3, domain.ModuleHospital), // 0.375 -> 0.38; 0.0266 -> 0.03
			subtotal: "0.38",
			tax:      "0.03",
			total:    "0.41",
		},
		{
			name:     "tax tie rounds away from zero",
			item:     item("Poliza", "0.25", 1, domain.ModuleInsurance), // 0.025 -> 0.03
			subtotal: "0.25",
			tax:      "0.03",
			total:    "0.28",
		},
		{
			name:     "insurance rate",
			item:     item("Poliza anual", "1234.56", 1, domain.ModuleInsurance), // 123.456 -> 123.46
			subtotal: "1234.56",
			tax:      "123.46",
			total:    "1358.02",
		},
		{
			name:     "hospital fractional tax",
			item:     item("Radiografia", "33.33", 3, domain.ModuleHospital), // 99.99 * 0.07 = 6.9993
			subtotal: "99.99",
			tax:      "7.00",
			total:    "106.99",
		},
	}

	calc := tax.NewRateCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priced, err := calc.Price(context.Background(), &domain.Order{Items: []domain.LineItem{tt.item}})
			require.NoError(t, err)

			a := priced.Items[0].Amounts
			assertMoney(t, tt.subtotal, a.Subtotal)
			assertMoney(t, tt.tax, a.TaxApplied)
			assertMoney(t, tt.total, a.Total)
			assert.True(t, a.Total.Equal(a.Subtotal.Add(a.TaxApplied)), "total must equal subtotal + tax exactly")
		})
	}
}

func Test_Price_TotalsAreSumsOfRoundedItems(t *testing.T) {
	calc := tax.NewRateCalculator()
	order := &domain.Order{Items: []domain.LineItem{
		item("a", "0.015", 1, domain.ModulePharmacy),
		item("b", "0.015", 1, domain.ModulePharmacy),
		item("c", "0.015", 1, domain.ModulePharmacy),
	}}

	priced, err := calc.Price(context.Background(), order)
	require.NoError(t, err)

	sumTotal, sumTax := decimal.Zero, decimal.Zero
	for _, it := range priced.Items {
		sumTotal = sumTotal.Add(it.Amounts.Total)
		sumTax = sumTax.Add(it.Amounts.TaxApplied)
	}
	assert.True(t, priced.TotalAmount.Equal(sumTotal))
	assert.True(t, priced.TotalTaxes.Equal(sumTax))
	assertMoney(t, "0.06", priced.TotalAmount) // each item 0.02, not round(0.045 * 1.12)
}

func Test_Price_DoesNotMutateInput(t *testing.T) {
	calc := tax.NewRateCalculator()
	order := &domain.Order{Items: []domain.LineItem{item("Vacuna", "10", 1, domain.ModulePharmacy)}}

	_, err := calc.Price(context.Background(), order)
	require.NoError(t, err)

	assert.Nil(t, order.Items[0].Amounts)
	assert.True(t, order.TotalAmount.IsZero())
}

func Test_Price_RejectsInvalidOrders(t *testing.T) {
	tests := []struct {
		name    string
		items   []domain.LineItem
		want    error
		message string
	}{
		{
			name: "empty order",
			want: tax.ErrInvalidItem,
		},
		{
			name:    "zero cost",
			items:   []domain.LineItem{item("Jarabe", "0", 1, domain.ModulePharmacy)},
			want:    tax.ErrInvalidItem,
			message: "item 1 (Jarabe)",
		},
		{
			name:    "negative cost",
			items:   []domain.LineItem{item("Jarabe", "-1", 1, domain.ModulePharmacy)},
			want:    tax.ErrInvalidItem,
			message: "unit cost",
		},
		{
			name: "zero quantity on second item",
			items: []domain.LineItem{
				item("ok", "1", 1, domain.ModulePharmacy),
				item("Suero", "5", 0, domain.ModuleHospital),
			},
			want:    tax.ErrInvalidItem,
			message: "item 2 (Suero): quantity",
		},
		{
			name:    "blank name",
			items:   []domain.LineItem{item("  ", "1", 1, domain.ModulePharmacy)},
			want:    tax.ErrInvalidItem,
			message: "name is required",
		},
		{
			name:    "unknown module",
			items:   []domain.LineItem{item("Limpieza", "1", 1, domain.ModuleCategory("DENTAL"))},
			want:    tax.ErrUnknownModuleCategory,
			message: "DENTAL",
		},
	}

	calc := tax.NewRateCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priced, err := calc.Price(context.Background(), &domain.Order{Items: tt.items})

			assert.Nil(t, priced)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsCode(err, domain.EINVALID))
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func Test_Price_NilOrder(t *testing.T) {
	_, err := tax.NewRateCalculator().Price(context.Background(), nil)
	assert.ErrorIs(t, err, tax.ErrNoItems)
}
