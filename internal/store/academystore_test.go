package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/testutil"
)

func TestCreateAcademyMakesOwnerAdmin(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	owner := testutil.CreateUser(t, s, models.RoleUser)

	a := testutil.CreateAcademy(t, s, owner)
	assert.Len(t, a.ID, 10)
	assert.Equal(t, "ACD00", a.ID[:5])

	m, err := s.GetMembership(ctx, owner.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)

	views, err := s.ListAcademiesForUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, a.ID, views[0].ID)
	assert.Equal(t, models.RoleAdmin, views[0].MembershipRole)
}

func TestDeleteAcademyCascades(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	doomed := testutil.CreateAcademy(t, s, owner)
	kept := testutil.CreateAcademy(t, s, owner)

	for _, a := range []*models.Academy{doomed, kept} {
		st := testutil.CreateStudent(t, s, a, "Ada")
		tc := testutil.CreateTeacher(t, s, a, "Grace")
		cl := testutil.CreateClass(t, s, a, "Form 1")
		co := testutil.CreateCourse(t, s, a, "MATH101")
		fee := testutil.CreateFeeStructure(t, s, a, 100, &cl.ID)

		require.NoError(t, s.AddClassStudents(ctx, a.ID, cl.ID, st.ID))
		require.NoError(t, s.AddClassTeacher(ctx, a.ID, cl.ID, tc.ID))
		require.NoError(t, s.EnrollCourseStudents(ctx, a.ID, co.ID, st.ID))
		require.NoError(t, s.LinkCourseFeeStructure(ctx, a.ID, co.ID, fee.ID))
		require.NoError(t, s.AssignTeacherStudent(ctx, a.ID, tc.ID, st.ID))
		require.NoError(t, s.CreatePayment(ctx, &models.FeePayment{
			AcademyID: a.ID, StudentID: st.ID, FeeStructureID: &fee.ID, Amount: 40, Method: models.PaymentMethodCash,
		}))
		require.NoError(t, s.UpsertAttendance(ctx, a.ID, []*models.Attendance{{
			StudentID: st.ID, ClassID: &cl.ID, Date: time.Now(), Status: models.AttendanceStatusPresent,
		}}))
		exam := &models.Exam{AcademyID: a.ID, CourseID: co.ID, Title: "Midterm", ExamDate: time.Now(), TotalMarks: 100, PassingMarks: 50}
		require.NoError(t, s.CreateExam(ctx, exam))
	}
	_, err := s.GrantUserPermission(ctx, owner.ID, models.PermRBACManage, &doomed.ID, owner.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteAcademy(ctx, doomed.ID))

	count := func(model interface{}, where string, args ...interface{}) int64 {
		var n int64
		require.NoError(t, s.DB.Model(model).Where(where, args...).Count(&n).Error)
		return n
	}
	tenantTables := []interface{}{
		&models.Student{}, &models.Teacher{}, &models.Class{}, &models.Course{},
		&models.FeeStructure{}, &models.FeePayment{}, &models.Attendance{}, &models.Exam{},
	}
	for _, m := range tenantTables {
		assert.Zero(t, count(m, "academy_id = ?", doomed.ID), "%T", m)
		assert.Equal(t, int64(1), count(m, "academy_id = ?", kept.ID), "%T", m)
	}
	assert.Zero(t, count(&models.UserAcademy{}, "academy_id = ?", doomed.ID))
	assert.Zero(t, count(&models.UserPermission{}, "academy_id = ?", doomed.ID))

	// join rows of the deleted academy went with their parents
	for _, m := range []interface{}{
		&models.ClassStudent{}, &models.ClassTeacher{}, &models.CourseStudent{},
		&models.CourseFeeStructure{}, &models.TeacherStudent{},
	} {
		assert.Equal(t, int64(1), count(m, "1 = 1"), "%T", m)
	}

	_, err = s.GetAcademy(ctx, doomed.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDefaultMembershipOrder(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	u := testutil.CreateUser(t, s, models.RoleUser)
	_, err := s.DefaultMembership(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	first := testutil.CreateAcademy(t, s, u)
	second := testutil.CreateAcademy(t, s, u)
	third := testutil.CreateAcademy(t, s, u)
	_ = second

	require.NoError(t, s.TouchMembership(ctx, u.ID, first.ID, time.Now().Add(-time.Hour)))
	require.NoError(t, s.TouchMembership(ctx, u.ID, third.ID, time.Now()))

	m, err := s.DefaultMembership(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, third.ID, m.AcademyID)

	views, err := s.ListAcademiesForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{third.ID, first.ID, second.ID}, []string{views[0].ID, views[1].ID, views[2].ID})
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	teacher := testutil.CreateUser(t, s, models.RoleUser)

	m := testutil.AddMember(t, s, a, teacher, models.RoleTeacher)
	assert.Equal(t, models.RoleTeacher, m.Role)

	// upsert changes the role instead of duplicating the pair
	m = testutil.AddMember(t, s, a, teacher, models.RoleAdmin)
	assert.Equal(t, models.RoleAdmin, m.Role)

	members, err := s.ListMembers(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	t.Run("last admin cannot be demoted", func(t *testing.T) {
		_, err := s.UpsertMember(ctx, a.ID, teacher.ID, models.RoleTeacher)
		require.NoError(t, err)

		_, err = s.UpsertMember(ctx, a.ID, owner.ID, models.RoleStudent)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		m, err := s.GetMembership(ctx, owner.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, m.Role)

		_, err = s.UpsertMember(ctx, a.ID, teacher.ID, models.RoleAdmin)
		require.NoError(t, err)
	})

	t.Run("last admin cannot be removed", func(t *testing.T) {
		require.NoError(t, s.RemoveMember(ctx, a.ID, teacher.ID))
		err := s.RemoveMember(ctx, a.ID, owner.ID)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("unknown member", func(t *testing.T) {
		err := s.RemoveMember(ctx, a.ID, teacher.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
