package tax

import (
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	pharmacyRate  = decimal.RequireFromString("0.12")
	hospitalRate  = decimal.RequireFromString("0.07")
	insuranceRate = decimal.RequireFromString("0.10")
)

// RateFor returns the fixed tax rate for a module. The switch is exhaustive
// over domain.ModuleCategories; anything else is rejected.
func RateFor(m domain.ModuleCategory) (decimal.Decimal, error) {
	switch m {
	case domain.ModulePharmacy:
		return pharmacyRate, nil
	case domain.ModuleHospital:
		return hospitalRate, nil
	case domain.ModuleInsurance:
		return insuranceRate, nil
	}
	return decimal.Zero, UnknownModuleCategory(m)
}
