package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/taxsim/internal"
	"github.com/dukerupert/taxsim/internal/auth"
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/memory"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	cfg := internal.AdminConfig{Username: "admin", Password: "correct horse battery"}

	require.NoError(t, EnsureAdmin(ctx, users, cfg, quiet))

	u, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, u.Role)
	assert.NoError(t, auth.VerifyPassword("correct horse battery", u.PasswordHash))

	// Second run keeps the existing account untouched.
	require.NoError(t, EnsureAdmin(ctx, users, internal.AdminConfig{Username: "admin", Password: "another password"}, quiet))
	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.NoError(t, auth.VerifyPassword("correct horse battery", all[0].PasswordHash))
}

func TestEnsureAdmin_SkipsWithoutCredentials(t *testing.T) {
	users := memory.NewUserRepository()

	require.NoError(t, EnsureAdmin(context.Background(), users, internal.AdminConfig{Username: "admin"}, quiet))

	all, err := users.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEnsureAdmin_ShortPassword(t *testing.T) {
	err := EnsureAdmin(context.Background(), memory.NewUserRepository(), internal.AdminConfig{Username: "admin", Password: "short"}, quiet)
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

type brokenUsers struct{ domain.UserRepository }

func (brokenUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, errors.New("connection reset")
}

func TestEnsureAdmin_LookupError(t *testing.T) {
	err := EnsureAdmin(context.Background(), brokenUsers{}, internal.AdminConfig{Username: "admin", Password: "correct horse battery"}, quiet)
	assert.ErrorContains(t, err, "failed to check for existing admin")
}
