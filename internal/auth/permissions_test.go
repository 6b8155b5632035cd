package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/testutil"
)

func TestAllows(t *testing.T) {
	super := &models.User{ID: "USR0000001", Role: models.RoleSuperAdmin}
	plain := &models.User{ID: "USR0000002", Role: models.RoleUser}
	withRead := models.NewPermissionSet(models.PermStudentRead)

	tests := []struct {
		name      string
		user      *models.User
		effective models.PermissionSet
		perm      models.PermissionName
		want      bool
	}{
		{"nil user", nil, withRead, models.PermStudentRead, false},
		{"superadmin with empty set", super, models.NewPermissionSet(), models.PermRBACManage, true},
		{"holds permission", plain, withRead, models.PermStudentRead, true},
		{"missing permission", plain, withRead, models.PermStudentWrite, false},
		{"empty set", plain, models.NewPermissionSet(), models.PermStudentRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.Allows(tt.user, tt.effective, tt.perm))
		})
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	academy := testutil.CreateAcademy(t, s, owner)
	other := testutil.CreateAcademy(t, s, owner)

	teacher := testutil.CreateUser(t, s, models.RoleUser)
	membership := testutil.AddMember(t, s, academy, teacher, models.RoleTeacher)

	outsider := testutil.CreateUser(t, s, models.RoleUser)
	super := testutil.CreateUser(t, s, models.RoleSuperAdmin)

	t.Run("membership role grants in its academy", func(t *testing.T) {
		sess := &auth.Session{User: teacher, AcademyID: academy.ID, Membership: membership}
		ok, err := auth.Check(ctx, s, sess, models.PermAttendanceWrite)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = auth.Check(ctx, s, sess, models.PermFeeWrite)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no membership means no role permissions", func(t *testing.T) {
		ok, err := auth.Check(ctx, s, &auth.Session{User: outsider, AcademyID: academy.ID}, models.PermStudentRead)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("scoped grant applies only to its academy", func(t *testing.T) {
		_, err := s.GrantUserPermission(ctx, outsider.ID, models.PermStudentRead, &academy.ID, super.ID)
		require.NoError(t, err)

		ok, err := auth.Check(ctx, s, &auth.Session{User: outsider, AcademyID: academy.ID}, models.PermStudentRead)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = auth.Check(ctx, s, &auth.Session{User: outsider, AcademyID: other.ID}, models.PermStudentRead)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = auth.Check(ctx, s, &auth.Session{User: outsider}, models.PermStudentRead)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("global grant applies everywhere", func(t *testing.T) {
		_, err := s.GrantUserPermission(ctx, outsider.ID, models.PermCourseRead, nil, super.ID)
		require.NoError(t, err)

		for _, aid := range []string{"", academy.ID, other.ID} {
			ok, err := auth.Check(ctx, s, &auth.Session{User: outsider, AcademyID: aid}, models.PermCourseRead)
			require.NoError(t, err)
			assert.True(t, ok, "academy %q", aid)
		}
	})

	t.Run("superadmin bypasses", func(t *testing.T) {
		ok, err := auth.Check(ctx, s, &auth.Session{User: super, AcademyID: other.ID}, models.PermRBACManage)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("nil session", func(t *testing.T) {
		ok, err := auth.Check(ctx, s, nil, models.PermStudentRead)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
