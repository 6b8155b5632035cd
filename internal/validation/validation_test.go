package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type signup struct {
	FullName        string      `json:"fullName" validate:"required"`
	Password        string      `json:"password" validate:"required,min=6"`
	ConfirmPassword string      `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
	Role            models.Role `json:"role" validate:"omitempty,membershiprole"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestStruct(t *testing.T) {
	assert.NoError(t, validation.Struct(signup{FullName: "Jane", Password: "secret1"}))
	assert.NoError(t, validation.Struct(signup{FullName: "Jane", Password: "secret1", ConfirmPassword: "secret1", Role: models.RoleTeacher}))

	err := validation.Struct(signup{Password: "secret1", ConfirmPassword: "other1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	fields := fieldsOf(t, err)
	assert.Equal(t, "fullName is required", fields["fullName"])
	assert.Equal(t, "confirmPassword must match password", fields["confirmPassword"])

	fields = fieldsOf(t, validation.Struct(signup{FullName: "Jane", Password: "secret1", Role: models.RoleSuperAdmin}))
	assert.Equal(t, "role has an unsupported value", fields["role"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, validation.Var("status", "late", "attendancestatus"))
	assert.NoError(t, validation.Var("method", "bank_transfer", "paymentmethod"))

	fields := fieldsOf(t, validation.Var("status", "sleeping", "attendancestatus"))
	assert.Equal(t, "status has an unsupported value", fields["status"])

	assert.Error(t, validation.Var("permission", "student.fly", "permission"))
	assert.NoError(t, validation.Var("permission", "student.read", "permission"))
}
