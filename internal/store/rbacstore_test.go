package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/testutil"
)

func TestSeedRBAC(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	roles, err := s.ListRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, len(models.AllRoles))
	for _, r := range roles {
		assert.ElementsMatch(t, models.DefaultRolePermissions[r.Name], r.Permissions, "role %s", r.Name)
	}

	perms, err := s.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, len(models.AllPermissions))

	t.Run("reseeding keeps runtime edits", func(t *testing.T) {
		require.NoError(t, s.RevokeRolePermission(ctx, models.RoleTeacher, models.PermExamWrite))
		require.NoError(t, s.SeedRBAC(ctx))

		set, err := s.EffectivePermissions(ctx, "nobody", []models.Role{models.RoleTeacher}, "")
		require.NoError(t, err)
		assert.False(t, set.Has(models.PermExamWrite))
		assert.True(t, set.Has(models.PermExamRead))
	})
}

func TestRolePermissionGrantRevoke(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	require.NoError(t, s.GrantRolePermission(ctx, models.RoleStudent, models.PermAttendanceRead))
	// granting twice is a no-op
	require.NoError(t, s.GrantRolePermission(ctx, models.RoleStudent, models.PermAttendanceRead))

	set, err := s.EffectivePermissions(ctx, "nobody", []models.Role{models.RoleStudent}, "")
	require.NoError(t, err)
	assert.True(t, set.Has(models.PermAttendanceRead))

	require.NoError(t, s.RevokeRolePermission(ctx, models.RoleStudent, models.PermAttendanceRead))
	err = s.RevokeRolePermission(ctx, models.RoleStudent, models.PermAttendanceRead)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEffectivePermissions(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	b := testutil.CreateAcademy(t, s, owner)
	u := testutil.CreateUser(t, s, models.RoleUser)
	m := testutil.AddMember(t, s, a, u, models.RoleStudent)

	_, err := s.GrantUserPermission(ctx, u.ID, models.PermFeeRead, &a.ID, owner.ID)
	require.NoError(t, err)
	_, err = s.GrantUserPermission(ctx, u.ID, models.PermPaymentRead, &b.ID, owner.ID)
	require.NoError(t, err)
	_, err = s.GrantUserPermission(ctx, u.ID, models.PermTeacherRead, nil, owner.ID)
	require.NoError(t, err)

	inA, err := s.EffectivePermissions(ctx, u.ID, store.RolesFor(u, m), a.ID)
	require.NoError(t, err)
	want := append([]models.PermissionName{models.PermFeeRead, models.PermTeacherRead},
		models.DefaultRolePermissions[models.RoleStudent]...)
	assert.ElementsMatch(t, want, inA.Sorted())

	inB, err := s.EffectivePermissions(ctx, u.ID, store.RolesFor(u, nil), b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.PermissionName{models.PermPaymentRead, models.PermTeacherRead}, inB.Sorted())

	global, err := s.EffectivePermissions(ctx, u.ID, store.RolesFor(u, nil), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.PermissionName{models.PermTeacherRead}, global.Sorted())
}

func TestGrantUserPermissionDuplicates(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	u := testutil.CreateUser(t, s, models.RoleUser)

	g, err := s.GrantUserPermission(ctx, u.ID, models.PermStudentRead, nil, owner.ID)
	require.NoError(t, err)
	_, err = s.GrantUserPermission(ctx, u.ID, models.PermStudentRead, nil, owner.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = s.GrantUserPermission(ctx, u.ID, models.PermStudentRead, &a.ID, owner.ID)
	require.NoError(t, err)
	_, err = s.GrantUserPermission(ctx, u.ID, models.PermStudentRead, &a.ID, owner.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	grants, err := s.ListUserGrants(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 2)

	require.NoError(t, s.RevokeUserPermission(ctx, u.ID, g.ID))
	assert.ErrorIs(t, s.RevokeUserPermission(ctx, owner.ID, grants[1].ID), apperrors.ErrNotFound)
}

func TestRolesFor(t *testing.T) {
	u := &models.User{Role: models.RoleAdmin}
	assert.Nil(t, store.RolesFor(nil, nil))
	assert.Equal(t, []models.Role{models.RoleAdmin}, store.RolesFor(u, nil))
	assert.Equal(t, []models.Role{models.RoleAdmin}, store.RolesFor(u, &models.UserAcademy{Role: models.RoleAdmin}))
	assert.Equal(t, []models.Role{models.RoleAdmin, models.RoleTeacher}, store.RolesFor(u, &models.UserAcademy{Role: models.RoleTeacher}))
}
