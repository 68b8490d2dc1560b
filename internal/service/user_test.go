package service

import (
	"context"
	"testing"

	"github.com/dukerupert/taxsim/internal/auth"
	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/dukerupert/taxsim/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = domain.Principal{ID: 1, Username: "admin", Role: domain.RoleAdministrator}

func TestUserService_Lifecycle(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), testLogger)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserParams{Username: " hospital ", Password: "hospital-pass", Role: domain.RoleModuleHospital})
	require.NoError(t, err)
	assert.Equal(t, "hospital", created.Username)
	assert.NoError(t, auth.VerifyPassword("hospital-pass", created.PasswordHash))

	_, err = svc.Create(ctx, CreateUserParams{Username: "HOSPITAL", Password: "another-pass", Role: domain.RoleModuleHospital})
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	updated, err := svc.Update(ctx, "hospital", UpdateUserParams{Role: domain.RoleModuleInsurance})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModuleInsurance, updated.Role)
	assert.NoError(t, auth.VerifyPassword("hospital-pass", updated.PasswordHash), "password unchanged")

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, svc.Delete(ctx, "hospital", admin))
	_, err = svc.Get(ctx, "hospital")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), testLogger)

	_, err := svc.Create(context.Background(), CreateUserParams{Username: "", Password: "short", Role: "BAKER"})
	require.Error(t, err)

	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "role")
}

func TestUserService_UpdateRules(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), testLogger)
	ctx := context.Background()

	_, err := svc.Update(ctx, "ghost", UpdateUserParams{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	_, err = svc.Update(ctx, "ghost", UpdateUserParams{Role: domain.RoleAdministrator})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_DeleteRules(t *testing.T) {
	svc := NewUserService(memory.NewUserRepository(), testLogger)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "ADMIN", admin), ErrDeleteSelf)
	assert.ErrorIs(t, svc.Delete(ctx, "ghost", admin), ErrUserNotFound)
}
