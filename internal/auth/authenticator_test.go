package auth_test

import (
	"context"
	"testing"

	"github.com/dukerupert/taxsim/internal/auth"
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthenticator(t *testing.T) *auth.Authenticator {
	t.Helper()

	hash, err := auth.HashPassword("pharmacy-secret")
	require.NoError(t, err)

	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &domain.User{
		Username:     "farmacia",
		PasswordHash: hash,
		Role:         domain.RoleModulePharmacy,
	}))

	return auth.NewAuthenticator(users)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	a := newAuthenticator(t)
	ctx := context.Background()

	p, err := a.Authenticate(ctx, "farmacia", "pharmacy-secret")
	require.NoError(t, err)
	assert.Equal(t, "farmacia", p.Username)
	assert.Equal(t, domain.RoleModulePharmacy, p.Role)
	assert.NotZero(t, p.ID)

	p, err = a.Authenticate(ctx, "FARMACIA", "pharmacy-secret")
	require.NoError(t, err, "usernames are case-insensitive")
	assert.Equal(t, domain.RoleModulePharmacy, p.Role)
}

func TestAuthenticator_Rejects(t *testing.T) {
	a := newAuthenticator(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "farmacia", "nope-nope-nope"},
		{"unknown user", "hospital", "pharmacy-secret"},
		{"empty username", "", "pharmacy-secret"},
		{"empty password", "farmacia", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := a.Authenticate(context.Background(), tt.username, tt.password)
			assert.Nil(t, p)
			assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
		})
	}
}
