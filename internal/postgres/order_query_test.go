package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderQuery_NoFilter(t *testing.T) {
	query, args := buildOrderQuery(domain.OrderFilter{})

	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.True(t, strings.HasSuffix(query, "ORDER BY o.created_at, o.id"))
	assert.Empty(t, args)
}

func TestBuildOrderQuery_Conditions(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		filter   domain.OrderFilter
		contains []string
		args     []any
	}{
		{
			name:     "tax id",
			filter:   domain.OrderFilter{TaxID: "1234567-8"},
			contains: []string{"o.client_tax_id = $1"},
			args:     []any{"1234567-8"},
		},
		{
			name:     "creator role",
			filter:   domain.OrderFilter{CreatorRole: domain.RoleModulePharmacy},
			contains: []string{"o.creator_role = $1"},
			args:     []any{"MODULE_PHARMACY"},
		},
		{
			name:     "provider with range",
			filter:   domain.OrderFilter{ProviderName: "Acme", Range: domain.NewDateRange(start, end)},
			contains: []string{"o.provider_name = $1", "o.created_at >= $2", "o.created_at <= $3"},
			args:     []any{"Acme", start, end},
		},
		{
			name:     "category uses exists",
			filter:   domain.OrderFilter{ItemCategory: "MEDS"},
			contains: []string{"EXISTS (SELECT 1 FROM order_items c WHERE c.order_id = o.id AND c.category = $1)"},
			args:     []any{"MEDS"},
		},
		{
			name:     "pending with limit",
			filter:   domain.OrderFilter{PendingBefore: &end, Limit: 25},
			contains: []string{"o.invoice_locator IS NULL", "o.created_at <= $1", "LIMIT $2"},
			args:     []any{end, 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildOrderQuery(tt.filter)
			for _, want := range tt.contains {
				assert.Contains(t, query, want)
			}
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildOrderQuery_PlaceholdersMatchArgs(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := domain.OrderFilter{
		TaxID:        "CF",
		CreatorRole:  domain.RoleAdministrator,
		ProviderName: "Acme",
		ItemCategory: "LAB",
		Range:        domain.NewDateRange(start, start.Add(time.Hour)),
		Limit:        10,
	}

	query, args := buildOrderQuery(f)
	require.Len(t, args, 7)
	for i := 1; i <= len(args); i++ {
		assert.Contains(t, query, fmt.Sprintf("$%d", i))
	}
	assert.NotContains(t, query, "$8")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}

func TestParseNumeric(t *testing.T) {
	d, err := parseNumeric("total", "277.50")
	require.NoError(t, err)
	assert.Equal(t, "277.50", d.StringFixed(2))

	_, err = parseNumeric("total", "abc")
	assert.ErrorContains(t, err, "total")
}

func TestText(t *testing.T) {
	assert.False(t, text("").Valid)
	v := text("Acme")
	assert.True(t, v.Valid)
	assert.Equal(t, "Acme", v.String)
}
