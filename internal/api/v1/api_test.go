package v1_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/madhava-poojari/academy-api/internal/api/v1"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/testutil"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type client struct {
	t *testing.T
	h http.Handler
}

func newClient(t *testing.T) (*client, *store.Store) {
	t.Helper()
	s := testutil.NewStore(t)
	files := utils.NewFileStorage(t.TempDir(), "http://localhost:8080")
	return &client{t: t, h: v1.NewAPI(s.Cfg, s, files).Routes()}, s
}

func (c *client) do(method, path, token string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// login signs in a fixture user and returns the access token.
func (c *client) login(u *models.User) string {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": u.Email, "password": testutil.Password})
	require.Equal(c.t, http.StatusOK, code, env.Message)
	return decode[service.AccessToken](c.t, env.Data).AccessToken
}

func TestRegisterLoginForbidden(t *testing.T) {
	c, _ := newClient(t)

	code, env := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"fullName": "Jane Doe", "email": "jane@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[map[string]interface{}](t, env.Data)
	assert.NotEmpty(t, created["id"])

	code, env = c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "jane@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code, env.Message)
	tok := decode[service.AccessToken](t, env.Data)
	require.NotEmpty(t, tok.AccessToken)

	code, _ = c.do(http.MethodGet, "/users", tok.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.do(http.MethodGet, "/rbac/roles", tok.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.do(http.MethodPost, "/academies", tok.AccessToken, map[string]string{"name": "Mine", "email": "a@b.com"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodGet, "/users/me", tok.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "jane@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	c, s := newClient(t)

	code, env := c.do(http.MethodPost, "/auth/register", "", map[string]string{
		"fullName": "Jane Doe", "email": "jane@x.com", "password": "secret1", "confirmPassword": "secret2",
	})
	require.Equal(t, http.StatusBadRequest, code)
	fields := decode[[]map[string]string](t, env.Error)
	require.Len(t, fields, 1)
	assert.Equal(t, "confirmPassword", fields[0]["field"])

	var n int64
	require.NoError(t, s.DB.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)

	code, _ = c.do(http.MethodPost, "/auth/register", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSwitchAndTenantRoutes(t *testing.T) {
	c, s := newClient(t)

	super := testutil.CreateUser(t, s, models.RoleSuperAdmin)
	superTok := c.login(super)

	code, env := c.do(http.MethodPost, "/academies", superTok, map[string]string{"name": "", "email": "bad"})
	require.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodPost, "/academies", superTok, map[string]string{"name": "North Campus", "email": "north@example.com"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	academy := decode[models.Academy](t, env.Data)

	jane := testutil.CreateUser(t, s, models.RoleUser)
	janeTok := c.login(jane)

	// no membership yet
	code, _ = c.do(http.MethodPost, "/academies/switch/"+academy.ID, janeTok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, env = c.do(http.MethodPost, "/rbac/users/"+jane.ID+"/permissions", superTok,
		map[string]string{"permission": "student.write", "academyId": academy.ID})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Error), "academyId")
	code, _ = c.do(http.MethodGet, "/students", janeTok, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodPost, "/academies/"+academy.ID+"/members", superTok, map[string]string{"userId": jane.ID, "role": "teacher"})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = c.do(http.MethodPost, "/academies/switch/"+academy.ID, janeTok, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	switched := decode[service.AccessToken](t, env.Data)
	assert.Equal(t, academy.ID, switched.AcademyID)
	assert.Equal(t, models.RoleTeacher, switched.AcademyRole)
	janeTok = switched.AccessToken

	code, env = c.do(http.MethodGet, "/academies/user", janeTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]store.UserAcademyView](t, env.Data), 1)

	// teachers read students but cannot create them
	code, _ = c.do(http.MethodGet, "/students", janeTok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodPost, "/students", janeTok, map[string]string{"fullName": "Ada"})
	assert.Equal(t, http.StatusForbidden, code)

	// a direct grant scoped to the academy lifts the restriction
	code, env = c.do(http.MethodPost, "/rbac/users/"+jane.ID+"/permissions", superTok,
		map[string]string{"permission": "student.write", "academyId": academy.ID})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, env = c.do(http.MethodPost, "/students", janeTok, map[string]string{"fullName": "Ada"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	student := decode[models.Student](t, env.Data)
	assert.Equal(t, academy.ID, student.AcademyID)

	code, env = c.do(http.MethodGet, "/rbac/users/"+jane.ID+"/permissions?academyId="+academy.ID, superTok, nil)
	require.Equal(t, http.StatusOK, code)
	perms := decode[struct {
		Effective []models.PermissionName `json:"effective"`
	}](t, env.Data)
	assert.Contains(t, perms.Effective, models.PermStudentWrite)
	assert.Contains(t, perms.Effective, models.PermAttendanceWrite)

	code, env = c.do(http.MethodPost, "/students", janeTok, map[string]string{})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Error), "fullName")
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	c, s := newClient(t)

	alice := testutil.CreateUser(t, s, models.RoleUser)
	bob := testutil.CreateUser(t, s, models.RoleUser)
	north := testutil.CreateAcademy(t, s, alice)
	testutil.CreateAcademy(t, s, bob)

	aliceTok := c.login(alice)
	bobTok := c.login(bob)

	st := testutil.CreateStudent(t, s, north, "Ada")
	path := fmt.Sprintf("/students/%d", st.ID)

	code, _ := c.do(http.MethodGet, path, aliceTok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, path, bobTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodDelete, path, bobTok, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := c.do(http.MethodGet, "/students", bobTok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]models.Student](t, env.Data))

	// bob's token cannot be pointed at alice's academy
	code, _ = c.do(http.MethodPost, "/academies/switch/"+north.ID, bobTok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = c.do(http.MethodGet, "/academies/"+north.ID, bobTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAttendanceAndFeesOverHTTP(t *testing.T) {
	c, s := newClient(t)

	admin := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, admin)
	tok := c.login(admin)
	cl := testutil.CreateClass(t, s, a, "Form 1")
	ada := testutil.CreateStudent(t, s, a, "Ada")
	bob := testutil.CreateStudent(t, s, a, "Bob")

	code, env := c.do(http.MethodPost, "/attendance", tok, map[string]interface{}{
		"date":    "2025-05-05",
		"classId": cl.ID,
		"records": []map[string]interface{}{
			{"studentId": ada.ID, "status": "present"},
			{"studentId": bob.ID, "status": "absent"},
		},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, _ = c.do(http.MethodPost, "/attendance", tok, map[string]interface{}{
		"date":    "2025-05-05",
		"records": []map[string]interface{}{{"studentId": ada.ID, "status": "present"}, {"studentId": ada.ID, "status": "late"}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.do(http.MethodPost, "/attendance", tok, map[string]interface{}{
		"date": "2025-05-05", "studentId": ada.ID, "status": "sleeping",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodGet, "/attendance?month=5&year=2025", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Attendance](t, env.Data), 2)

	code, env = c.do(http.MethodGet, "/attendance/summary?from=2025-05-01&to=2025-05-31", tok, nil)
	require.Equal(t, http.StatusOK, code)
	summary := decode[struct {
		From     string                     `json:"from"`
		To       string                     `json:"to"`
		Students []*store.AttendanceSummary `json:"students"`
	}](t, env.Data)
	assert.Equal(t, "2025-05-31", summary.To)
	assert.Len(t, summary.Students, 2)

	code, env = c.do(http.MethodPost, "/fee-structures", tok, map[string]interface{}{
		"name": "Tuition", "amount": 150.005, "frequency": "monthly", "classId": cl.ID,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	fee := decode[models.FeeStructure](t, env.Data)

	require.NoError(t, s.AddClassStudents(t.Context(), a.ID, cl.ID, ada.ID))

	code, env = c.do(http.MethodPost, "/payments", tok, map[string]interface{}{
		"studentId": ada.ID, "feeStructureId": fee.ID, "amount": 100, "method": "cash", "paidAt": "2025-05-02",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = c.do(http.MethodGet, fmt.Sprintf("/students/%d/balance", ada.ID), tok, nil)
	require.Equal(t, http.StatusOK, code)
	bal := decode[store.StudentBalance](t, env.Data)
	assert.Equal(t, fee.Amount, bal.TotalDue)
	assert.Equal(t, 100.0, bal.TotalPaid)

	code, env = c.do(http.MethodGet, "/payments?from=2025-05-02&to=2025-05-02", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.FeePayment](t, env.Data), 1)
}

func TestHealth(t *testing.T) {
	c, _ := newClient(t)
	code, env := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}
