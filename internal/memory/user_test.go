package memory

import (
	"context"
	"testing"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	admin := &domain.User{Username: "Admin", PasswordHash: "h", Role: domain.RoleAdministrator}
	require.NoError(t, repo.Create(ctx, admin))
	assert.Equal(t, int64(1), admin.ID)

	err := repo.Create(ctx, &domain.User{Username: "admin", Role: domain.RoleModuleHospital})
	assert.True(t, domain.IsCode(err, domain.ECONFLICT), "usernames are case-insensitive")

	got, err := repo.GetByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, got.Role)

	got.Role = domain.RoleModulePharmacy
	require.NoError(t, repo.Update(ctx, got))
	got, _ = repo.GetByUsername(ctx, "admin")
	assert.Equal(t, domain.RoleModulePharmacy, got.Role)

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "hospital", Role: domain.RoleModuleHospital}))
	list, _ := repo.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "Admin", list[0].Username)

	require.NoError(t, repo.Delete(ctx, "hospital"))
	assert.True(t, domain.IsCode(repo.Delete(ctx, "hospital"), domain.ENOTFOUND))
	_, err = repo.GetByUsername(ctx, "hospital")
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
}
