package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/seed"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

func TestCreateUser_HashesPasswordAndLinksClients(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, seed.UserAdmin)

	user, err := env.userSvc.Create(context.Background(), admin, UserInput{
		Name:            " Bruno Leitor ",
		Email:           "bruno@processflow.com",
		Password:        "segredo",
		Role:            domain.RoleReader,
		LinkedClientIDs: []string{"cliente-003"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bruno Leitor", user.Name)
	assert.True(t, user.Active)
	assert.Equal(t, []string{"cliente-003"}, user.LinkedClientIDs)
	assert.NotEqual(t, "segredo", user.PasswordHash)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "segredo"))
}

func TestCreateUser_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	_, err := env.userSvc.Create(ctx, admin, UserInput{Name: "X", Email: "admin@processflow.com", Password: "123456", Role: domain.RoleOperator})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = env.userSvc.Create(ctx, admin, UserInput{Name: "X", Email: "x@x.com", Password: "123", Role: domain.RoleOperator})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.userSvc.Create(ctx, admin, UserInput{Name: "X", Email: "x@x.com", Password: "123456", Role: "owner"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.userSvc.Create(ctx, admin, UserInput{Name: "X", Email: "x@x.com", Password: "123456", Role: domain.RoleReader, LinkedClientIDs: []string{"cliente-999"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.userSvc.Create(ctx, env.user(t, seed.UserSupervisor), UserInput{Name: "X", Email: "x@x.com", Password: "123456", Role: domain.RoleOperator})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreateUser_TenantLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tenant, err := env.tenants.GetByID(ctx, seed.TenantID)
	require.NoError(t, err)
	tenant.Limits.MaxUsers = 4
	require.NoError(t, env.tenants.Update(ctx, tenant))

	_, err = env.userSvc.Create(ctx, env.user(t, seed.UserAdmin), UserInput{Name: "X", Email: "x@x.com", Password: "123456", Role: domain.RoleOperator})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeLimitExceeded))
}

func TestUpdateUser_CannotDeactivateSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, seed.UserAdmin)
	inactive := false

	_, err := env.userSvc.Update(context.Background(), admin, seed.UserAdmin, UserPatch{Active: &inactive})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	updated, err := env.userSvc.Update(context.Background(), admin, seed.UserReader, UserPatch{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
}

func TestDeleteUser_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	err := env.userSvc.Delete(ctx, admin, seed.UserAdmin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	err = env.userSvc.Delete(ctx, admin, seed.UserOperator)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	require.NoError(t, env.userSvc.Delete(ctx, admin, seed.UserReader))
	_, err = env.userSvc.Get(ctx, admin, seed.UserReader)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSetPassword_AllowsLoginWithNewPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.userSvc.SetPassword(ctx, env.user(t, seed.UserAdmin), seed.UserOperator, "nova-senha"))

	_, err := env.auth.Login(ctx, "operador@processflow.com", "operador")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	res, err := env.auth.Login(ctx, "operador@processflow.com", "nova-senha")
	require.NoError(t, err)
	assert.Equal(t, seed.UserOperator, res.User.ID)
}
