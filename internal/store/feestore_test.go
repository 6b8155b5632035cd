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

func TestStudentBalance(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	st := testutil.CreateStudent(t, s, a, "Ada")
	cl := testutil.CreateClass(t, s, a, "Form 1")
	co := testutil.CreateCourse(t, s, a, "PHY101")

	classFee := testutil.CreateFeeStructure(t, s, a, 120.50, &cl.ID)
	courseFee := testutil.CreateFeeStructure(t, s, a, 80, nil)
	// attached to the class and linked to the course: counted once
	both := testutil.CreateFeeStructure(t, s, a, 19.99, &cl.ID)
	testutil.CreateFeeStructure(t, s, a, 1000, nil) // unrelated

	require.NoError(t, s.AddClassStudents(ctx, a.ID, cl.ID, st.ID))
	require.NoError(t, s.EnrollCourseStudents(ctx, a.ID, co.ID, st.ID))
	require.NoError(t, s.LinkCourseFeeStructure(ctx, a.ID, co.ID, courseFee.ID))
	require.NoError(t, s.LinkCourseFeeStructure(ctx, a.ID, co.ID, both.ID))

	for _, amt := range []float64{100, 20.25} {
		require.NoError(t, s.CreatePayment(ctx, &models.FeePayment{
			AcademyID: a.ID, StudentID: st.ID, FeeStructureID: &classFee.ID, Amount: amt, Method: models.PaymentMethodCard,
		}))
	}

	bal, err := s.StudentBalance(ctx, a.ID, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 220.49, bal.TotalDue)
	assert.Equal(t, 120.25, bal.TotalPaid)
	assert.Equal(t, 100.24, bal.Balance)

	t.Run("student of another academy", func(t *testing.T) {
		other := testutil.CreateAcademy(t, s, owner)
		_, err := s.StudentBalance(ctx, other.ID, st.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPaymentsStayInTenant(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	b := testutil.CreateAcademy(t, s, owner)
	stA := testutil.CreateStudent(t, s, a, "Ada")
	feeB := testutil.CreateFeeStructure(t, s, b, 50, nil)

	err := s.CreatePayment(ctx, &models.FeePayment{
		AcademyID: a.ID, StudentID: stA.ID, FeeStructureID: &feeB.ID, Amount: 10, Method: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = s.CreatePayment(ctx, &models.FeePayment{
		AcademyID: b.ID, StudentID: stA.ID, Amount: 10, Method: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListPaymentsFilters(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	ada := testutil.CreateStudent(t, s, a, "Ada")
	bob := testutil.CreateStudent(t, s, a, "Bob")

	jan := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
	for _, p := range []*models.FeePayment{
		{StudentID: ada.ID, Amount: 10, Method: models.PaymentMethodCash, PaidAt: jan},
		{StudentID: ada.ID, Amount: 20, Method: models.PaymentMethodCard, PaidAt: feb},
		{StudentID: bob.ID, Amount: 30, Method: models.PaymentMethodCash, PaidAt: feb},
	} {
		p.AcademyID = a.ID
		require.NoError(t, s.CreatePayment(ctx, p))
	}

	cash := models.PaymentMethodCash
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		f    store.PaymentFilter
		want int
	}{
		{"all", store.PaymentFilter{}, 3},
		{"by student", store.PaymentFilter{StudentID: &ada.ID}, 2},
		{"by method", store.PaymentFilter{Method: &cash}, 2},
		{"from february", store.PaymentFilter{From: &from}, 2},
		{"before february", store.PaymentFilter{To: &from}, 1},
		{"limited", store.PaymentFilter{ListParams: store.ListParams{Limit: 1}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListPayments(ctx, a.ID, tt.f)
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
		})
	}
}
