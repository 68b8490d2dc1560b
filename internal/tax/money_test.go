package tax_test

import (
	"testing"

	"github.com/dukerupert/taxsim/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_Round_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345", "12.35"},
		{"12.344", "12.34"},
		{"12.3449999", "12.34"},
		{"0.005", "0.01"},
		{"-0.005", "-0.01"},
		{"-12.345", "-12.35"},
		{"200", "200.00"},
		{"3.5", "3.50"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := tax.Round(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.want, got.StringFixed(tax.MoneyPlaces))
		})
	}
}

func Test_Round_Idempotent(t *testing.T) {
	once := tax.Round(decimal.RequireFromString("7.125"))
	assert.True(t, once.Equal(tax.Round(once)))
}
