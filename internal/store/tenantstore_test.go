package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/testutil"
)

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	b := testutil.CreateAcademy(t, s, owner)

	stA := testutil.CreateStudent(t, s, a, "Ada")
	clB := testutil.CreateClass(t, s, b, "Form 1")
	coB := testutil.CreateCourse(t, s, b, "BIO101")
	tcB := testutil.CreateTeacher(t, s, b, "Grace")

	t.Run("reads", func(t *testing.T) {
		_, err := s.GetStudent(ctx, b.ID, stA.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		list, err := s.ListStudents(ctx, b.ID, store.StudentFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("writes", func(t *testing.T) {
		_, err := s.UpdateStudentFields(ctx, b.ID, stA.ID, map[string]interface{}{"full_name": "Mallory"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, s.DeleteStudent(ctx, b.ID, stA.ID), apperrors.ErrNotFound)

		got, err := s.GetStudent(ctx, a.ID, stA.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.FullName)
	})

	t.Run("links across academies", func(t *testing.T) {
		assert.ErrorIs(t, s.AddClassStudents(ctx, b.ID, clB.ID, stA.ID), apperrors.ErrNotFound)
		assert.ErrorIs(t, s.EnrollCourseStudents(ctx, b.ID, coB.ID, stA.ID), apperrors.ErrNotFound)
		assert.ErrorIs(t, s.AssignTeacherStudent(ctx, b.ID, tcB.ID, stA.ID), apperrors.ErrNotFound)
		// the class is b's; addressed through a it does not exist
		assert.ErrorIs(t, s.AddClassStudents(ctx, a.ID, clB.ID, stA.ID), apperrors.ErrNotFound)
	})

	t.Run("course code unique per academy", func(t *testing.T) {
		testutil.CreateCourse(t, s, a, "BIO101")
		err := s.CreateCourse(ctx, &models.Course{AcademyID: a.ID, Code: "BIO101", Name: "Again"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestClassCapacity(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	cl := &models.Class{AcademyID: a.ID, Name: "Tiny", Capacity: 1}
	require.NoError(t, s.CreateClass(ctx, cl))
	one := testutil.CreateStudent(t, s, a, "One")
	two := testutil.CreateStudent(t, s, a, "Two")

	require.NoError(t, s.AddClassStudents(ctx, a.ID, cl.ID, one.ID))
	// re-adding is idempotent
	require.NoError(t, s.AddClassStudents(ctx, a.ID, cl.ID, one.ID))
	assert.ErrorIs(t, s.AddClassStudents(ctx, a.ID, cl.ID, two.ID), apperrors.ErrConflict)

	students, err := s.ListClassStudents(ctx, a.ID, cl.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, one.ID, students[0].ID)
}

func TestListStudentsFilters(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	cl := testutil.CreateClass(t, s, a, "Form 2")
	ada := testutil.CreateStudent(t, s, a, "Ada Lovelace")
	testutil.CreateStudent(t, s, a, "Alan Turing")
	grad := testutil.CreateStudent(t, s, a, "Grace Hopper")
	_, err := s.UpdateStudentFields(ctx, a.ID, grad.ID, map[string]interface{}{"status": models.StudentStatusGraduated})
	require.NoError(t, err)
	require.NoError(t, s.AddClassStudents(ctx, a.ID, cl.ID, ada.ID))

	graduated := models.StudentStatusGraduated
	tests := []struct {
		name string
		f    store.StudentFilter
		want []string
	}{
		{"search is case-insensitive substring", store.StudentFilter{ListParams: store.ListParams{Search: "LOVE"}}, []string{"Ada Lovelace"}},
		{"status", store.StudentFilter{Status: &graduated}, []string{"Grace Hopper"}},
		{"class", store.StudentFilter{ClassID: &cl.ID}, []string{"Ada Lovelace"}},
		{"paged", store.StudentFilter{ListParams: store.ListParams{Limit: 2, Offset: 1}}, []string{"Alan Turing", "Grace Hopper"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListStudents(ctx, a.ID, tt.f)
			require.NoError(t, err)
			names := make([]string, 0, len(list))
			for _, st := range list {
				names = append(names, st.FullName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestUpsertAttendance(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	cl := testutil.CreateClass(t, s, a, "Form 3")
	ada := testutil.CreateStudent(t, s, a, "Ada")
	bob := testutil.CreateStudent(t, s, a, "Bob")

	day := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpsertAttendance(ctx, a.ID, []*models.Attendance{
		{StudentID: ada.ID, ClassID: &cl.ID, Date: day, Status: models.AttendanceStatusPresent, RecordedBy: owner.ID},
		{StudentID: bob.ID, ClassID: &cl.ID, Date: day, Status: models.AttendanceStatusAbsent, RecordedBy: owner.ID},
	}))
	// same slot again replaces the earlier record
	require.NoError(t, s.UpsertAttendance(ctx, a.ID, []*models.Attendance{
		{StudentID: bob.ID, ClassID: &cl.ID, Date: day.Add(3 * time.Hour), Status: models.AttendanceStatusLate, RecordedBy: owner.ID},
	}))
	// a record with no class is a separate slot
	require.NoError(t, s.UpsertAttendance(ctx, a.ID, []*models.Attendance{
		{StudentID: ada.ID, Date: day.AddDate(0, 0, 1), Status: models.AttendanceStatusExcused, RecordedBy: owner.ID},
	}))

	f := store.AttendanceListFilter{
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	list, err := s.ListAttendances(ctx, a.ID, f)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	summary, err := s.SummarizeAttendance(ctx, a.ID, f)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	byStudent := map[uint]*store.AttendanceSummary{}
	for _, sum := range summary {
		byStudent[sum.StudentID] = sum
	}
	assert.Equal(t, int64(1), byStudent[ada.ID].Present)
	assert.Equal(t, int64(1), byStudent[ada.ID].Excused)
	assert.Equal(t, 0.5, byStudent[ada.ID].Rate)
	assert.Equal(t, int64(1), byStudent[bob.ID].Late)
	assert.Equal(t, int64(0), byStudent[bob.ID].Absent)
	assert.Equal(t, 1.0, byStudent[bob.ID].Rate)

	t.Run("foreign student rolls back the batch", func(t *testing.T) {
		other := testutil.CreateAcademy(t, s, owner)
		stranger := testutil.CreateStudent(t, s, other, "Eve")
		err := s.UpsertAttendance(ctx, a.ID, []*models.Attendance{
			{StudentID: ada.ID, Date: day.AddDate(0, 0, 2), Status: models.AttendanceStatusPresent},
			{StudentID: stranger.ID, Date: day.AddDate(0, 0, 2), Status: models.AttendanceStatusPresent},
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		after, err := s.ListAttendances(ctx, a.ID, f)
		require.NoError(t, err)
		assert.Len(t, after, 3)
	})
}

func TestExamResults(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	co := testutil.CreateCourse(t, s, a, "CHEM1")
	ada := testutil.CreateStudent(t, s, a, "Ada")
	bob := testutil.CreateStudent(t, s, a, "Bob")
	exam := &models.Exam{AcademyID: a.ID, CourseID: co.ID, Title: "Final", ExamDate: time.Now(), TotalMarks: 100, PassingMarks: 40}
	require.NoError(t, s.CreateExam(ctx, exam))

	results, err := s.RecordExamResults(ctx, a.ID, exam.ID, []store.ResultInput{
		{StudentID: ada.ID, Marks: 72},
		{StudentID: bob.ID, Marks: 12},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)

	// re-recording updates in place
	results, err = s.RecordExamResults(ctx, a.ID, exam.ID, []store.ResultInput{{StudentID: bob.ID, Marks: 55, Remarks: "resit"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	all, err := s.ListExamResults(ctx, a.ID, exam.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.RecordExamResults(ctx, a.ID, exam.ID, []store.ResultInput{{StudentID: ada.ID, Marks: 101}})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.UpdateExamFields(ctx, a.ID, exam.ID, map[string]interface{}{"passing_marks": 150})
	assert.ErrorAs(t, err, &verr)
	got, err := s.GetExam(ctx, a.ID, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.PassingMarks)
}

func TestRefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	u := testutil.CreateUser(t, s, models.RoleUser)

	require.NoError(t, s.SaveRefreshToken(ctx, u.ID, "old-token", time.Now().Add(time.Hour)))

	owner, err := s.RotateRefreshToken(ctx, "old-token", "new-token", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)

	_, err = s.RotateRefreshToken(ctx, "old-token", "another", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.RevokeRefreshToken(ctx, "new-token"))
	_, err = s.RotateRefreshToken(ctx, "new-token", "another", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.SaveRefreshToken(ctx, u.ID, "stale", time.Now().Add(-time.Minute)))
	_, err = s.RotateRefreshToken(ctx, "stale", "another", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.DeleteExpiredTokens(ctx))
	var n int64
	require.NoError(t, s.DB.Model(&models.RefreshToken{}).Where("token_hash <> ''").Count(&n).Error)
	assert.Equal(t, int64(2), n)
}
