package services

import (
	"context"
	"testing"

	"github.com/Lllllllleong/trapmonitor/internal/apperrors"
	"github.com/Lllllllleong/trapmonitor/internal/models"
	"github.com/Lllllllleong/trapmonitor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = &models.Principal{UID: "admin-1", Claims: map[string]interface{}{models.ClaimAdmin: true}}
	common = &models.Principal{UID: "user-1", Claims: map[string]interface{}{models.ClaimCommonUser: true}}
)

func newRoleFixture(allowInitialAdmin bool) (*RoleService, *testutil.FakeDirectory) {
	dir := testutil.NewFakeDirectory(
		models.UserAccount{UID: "admin-1", Email: "admin@example.com", CustomClaims: map[string]interface{}{models.ClaimAdmin: true}},
		models.UserAccount{UID: "user-1", Email: "user@example.com", CustomClaims: map[string]interface{}{models.ClaimCommonUser: true}},
	)
	return NewRoleService(dir, allowInitialAdmin), dir
}

func TestRoleService_RequiresAdmin(t *testing.T) {
	svc, dir := newRoleFixture(true)
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = svc.ListUsers(ctx, common)
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	_, err = svc.UpdateUserRole(ctx, common, models.UpdateUserRoleRequest{UID: "user-1", NewClaims: map[string]interface{}{}})
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	_, err = svc.UpdateUserEmail(ctx, common, models.UpdateUserEmailRequest{UID: "user-1", NewEmail: "x@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	assert.Zero(t, dir.Calls)
}

func TestListUsers(t *testing.T) {
	svc, _ := newRoleFixture(true)

	users, err := svc.ListUsers(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin-1", users[0].UID)
}

func TestCreateUserAndAssignRole(t *testing.T) {
	svc, dir := newRoleFixture(true)

	res, err := svc.CreateUserAndAssignRole(context.Background(), admin, models.CreateUserRequest{
		Email: "new@example.com", Password: "secret1", Role: models.RoleCommonUser,
	})
	require.NoError(t, err)
	created := dir.Users[res.UID]
	assert.Equal(t, "new@example.com", created.Email)
	assert.True(t, created.HasClaim(models.ClaimCommonUser))
	assert.False(t, created.HasClaim(models.ClaimAdmin))
}

func TestCreateUserAndAssignRole_UnknownRoleLeavesNoClaims(t *testing.T) {
	svc, dir := newRoleFixture(true)

	res, err := svc.CreateUserAndAssignRole(context.Background(), admin, models.CreateUserRequest{
		Email: "new@example.com", Password: "secret1", Role: "supervisor",
	})
	require.NoError(t, err)
	assert.Empty(t, dir.Users[res.UID].CustomClaims)
	assert.Contains(t, res.Message, "unknown role")
}

func TestCreateUserAndAssignRole_ValidatesBeforeProvider(t *testing.T) {
	tests := []struct {
		name string
		req  models.CreateUserRequest
	}{
		{"short password", models.CreateUserRequest{Email: "a@example.com", Password: "12345", Role: "admin"}},
		{"bad email", models.CreateUserRequest{Email: "not-an-email", Password: "123456", Role: "admin"}},
		{"missing role", models.CreateUserRequest{Email: "a@example.com", Password: "123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, dir := newRoleFixture(true)
			_, err := svc.CreateUserAndAssignRole(context.Background(), admin, tt.req)
			assert.True(t, apperrors.IsValidation(err))
			assert.Zero(t, dir.Calls)
		})
	}
}

func TestCreateUserAndAssignRole_DuplicateEmail(t *testing.T) {
	svc, _ := newRoleFixture(true)

	_, err := svc.CreateUserAndAssignRole(context.Background(), admin, models.CreateUserRequest{
		Email: "user@example.com", Password: "secret1", Role: models.RoleAdmin,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateUserRole_ReplacesClaims(t *testing.T) {
	svc, dir := newRoleFixture(true)

	_, err := svc.UpdateUserRole(context.Background(), admin, models.UpdateUserRoleRequest{
		UID: "user-1", NewClaims: map[string]interface{}{models.ClaimAdmin: true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{models.ClaimAdmin: true}, dir.Users["user-1"].CustomClaims)
}

func TestDeleteUser(t *testing.T) {
	svc, dir := newRoleFixture(true)
	ctx := context.Background()

	_, err := svc.DeleteUser(ctx, admin, models.DeleteUserRequest{UID: "admin-1"})
	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.Contains(t, dir.Users, "admin-1")

	_, err = svc.DeleteUser(ctx, common, models.DeleteUserRequest{UID: "admin-1"})
	assert.ErrorIs(t, err, apperrors.ErrPermission)

	res, err := svc.DeleteUser(ctx, admin, models.DeleteUserRequest{UID: "user-1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotContains(t, dir.Users, "user-1")

	_, err = svc.DeleteUser(ctx, admin, models.DeleteUserRequest{UID: "user-1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateUserPassword_ShortPasswordNeverReachesProvider(t *testing.T) {
	svc, dir := newRoleFixture(true)

	_, err := svc.UpdateUserPassword(context.Background(), admin, models.UpdateUserPasswordRequest{UID: "user-1", NewPassword: "12345"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Zero(t, dir.Calls)

	res, err := svc.UpdateUserPassword(context.Background(), admin, models.UpdateUserPasswordRequest{UID: "user-1", NewPassword: "123456"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestUpdateUserEmail(t *testing.T) {
	svc, dir := newRoleFixture(true)

	_, err := svc.UpdateUserEmail(context.Background(), admin, models.UpdateUserEmailRequest{UID: "user-1", NewEmail: "renamed@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "renamed@example.com", dir.Users["user-1"].Email)

	_, err = svc.UpdateUserEmail(context.Background(), admin, models.UpdateUserEmailRequest{UID: "user-1", NewEmail: "nope"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAddInitialAdmin(t *testing.T) {
	svc, dir := newRoleFixture(true)
	ctx := context.Background()

	res, err := svc.AddInitialAdmin(ctx, models.AddInitialAdminRequest{Email: "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user promoted to admin", res.Message)
	assert.True(t, dir.Users["user-1"].HasClaim(models.ClaimAdmin))

	res, err = svc.AddInitialAdmin(ctx, models.AddInitialAdminRequest{Email: "user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user is already an admin", res.Message)

	_, err = svc.AddInitialAdmin(ctx, models.AddInitialAdminRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddInitialAdmin_Disabled(t *testing.T) {
	svc, dir := newRoleFixture(false)

	_, err := svc.AddInitialAdmin(context.Background(), models.AddInitialAdminRequest{Email: "user@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrPermission)
	assert.Zero(t, dir.Calls)
}

func TestAssignDefaultRole(t *testing.T) {
	dir := testutil.NewFakeDirectory(
		models.UserAccount{UID: "fresh"},
		models.UserAccount{UID: "tagged", CustomClaims: map[string]interface{}{"region": "13"}},
		models.UserAccount{UID: "boss", CustomClaims: map[string]interface{}{models.ClaimAdmin: true}},
		models.UserAccount{UID: "demoted", CustomClaims: map[string]interface{}{models.ClaimAdmin: false}},
	)
	svc := NewRoleService(dir, false)
	ctx := context.Background()

	wrote, err := svc.AssignDefaultRole(ctx, models.AuthUserEvent{UID: "fresh"})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.True(t, dir.Users["fresh"].HasClaim(models.ClaimCommonUser))

	wrote, err = svc.AssignDefaultRole(ctx, models.AuthUserEvent{UID: "tagged"})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, map[string]interface{}{"region": "13", models.ClaimCommonUser: true}, dir.Users["tagged"].CustomClaims)

	wrote, err = svc.AssignDefaultRole(ctx, models.AuthUserEvent{UID: "boss"})
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, map[string]interface{}{models.ClaimAdmin: true}, dir.Users["boss"].CustomClaims)

	wrote, err = svc.AssignDefaultRole(ctx, models.AuthUserEvent{UID: "demoted"})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.True(t, dir.Users["demoted"].HasClaim(models.ClaimCommonUser))

	_, err = svc.AssignDefaultRole(ctx, models.AuthUserEvent{UID: "gone"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.AssignDefaultRole(ctx, models.AuthUserEvent{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAssignDefaultRole_AfterAdminCreation(t *testing.T) {
	dir := testutil.NewFakeDirectory()
	svc := NewRoleService(dir, false)
	ctx := context.Background()

	res, err := svc.CreateUserAndAssignRole(ctx, admin, models.CreateUserRequest{
		Email: "jefa@example.com", Password: "secreto1", Role: models.RoleAdmin,
	})
	require.NoError(t, err)

	// The creation event carries the claims as they were before the role was set.
	wrote, err := svc.AssignDefaultRole(ctx, models.AuthUserEvent{UID: res.UID, Email: "jefa@example.com"})
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, map[string]interface{}{models.ClaimAdmin: true}, dir.Users[res.UID].CustomClaims)
}
