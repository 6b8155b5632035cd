package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/testutil"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

func newAcademyService(t *testing.T) (*store.Store, *service.AcademyService) {
	t.Helper()
	s := testutil.NewStore(t)
	files := utils.NewFileStorage(t.TempDir(), "http://localhost:8080")
	return s, service.NewAcademyService(s, service.NewSessionService(s, s.Cfg), files)
}

func TestSwitchAcademy(t *testing.T) {
	ctx := context.Background()
	s, svc := newAcademyService(t)

	owner := testutil.CreateUser(t, s, models.RoleUser)
	mine := testutil.CreateAcademy(t, s, owner)
	teaching := testutil.CreateAcademy(t, s, testutil.CreateUser(t, s, models.RoleUser))
	testutil.AddMember(t, s, teaching, owner, models.RoleTeacher)
	foreign := testutil.CreateAcademy(t, s, testutil.CreateUser(t, s, models.RoleUser))

	t.Run("member gets a token scoped to the academy", func(t *testing.T) {
		tok, err := svc.SwitchAcademy(ctx, owner, teaching.ID)
		require.NoError(t, err)
		assert.Equal(t, teaching.ID, tok.AcademyID)
		assert.Equal(t, models.RoleTeacher, tok.AcademyRole)

		claims, err := auth.ParseAndValidateToken(s.Cfg, tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, teaching.ID, claims.AcademyID)
		assert.Equal(t, owner.ID, claims.UserID)

		m, err := s.GetMembership(ctx, owner.ID, teaching.ID)
		require.NoError(t, err)
		assert.NotNil(t, m.LastUsedAt)
	})

	t.Run("no membership is unauthorized", func(t *testing.T) {
		_, err := svc.SwitchAcademy(ctx, owner, foreign.ID)
		assert.ErrorIs(t, err, apperrors.ErrNoMembership)
		status, _ := utils.StatusFor(err)
		assert.Equal(t, 401, status)
	})

	t.Run("omitted id falls back to the most recent membership", func(t *testing.T) {
		_, err := svc.SwitchAcademy(ctx, owner, mine.ID)
		require.NoError(t, err)
		tok, err := svc.SwitchAcademy(ctx, owner, "")
		require.NoError(t, err)
		assert.Equal(t, mine.ID, tok.AcademyID)
	})

	t.Run("omitted id without memberships", func(t *testing.T) {
		loner := testutil.CreateUser(t, s, models.RoleUser)
		_, err := svc.SwitchAcademy(ctx, loner, "")
		assert.ErrorIs(t, err, apperrors.ErrNoMembership)
	})

	t.Run("superadmin", func(t *testing.T) {
		super := testutil.CreateUser(t, s, models.RoleSuperAdmin)

		tok, err := svc.SwitchAcademy(ctx, super, foreign.ID)
		require.NoError(t, err)
		assert.Equal(t, foreign.ID, tok.AcademyID)
		assert.Empty(t, tok.AcademyRole)

		_, err = svc.SwitchAcademy(ctx, super, "ACD00ZZZZZ")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		tok, err = svc.SwitchAcademy(ctx, super, "")
		require.NoError(t, err)
		assert.Empty(t, tok.AcademyID)
	})
}

func TestCreateAcademyValidatesBeforeWriting(t *testing.T) {
	ctx := context.Background()
	s, svc := newAcademyService(t)
	creator := testutil.CreateUser(t, s, models.RoleAdmin)

	bad := []service.CreateAcademyInput{
		{Name: "", Email: "office@example.com"},
		{Name: "   ", Email: "office@example.com"},
		{Name: "Springfield High", Email: "not-an-email"},
		{Name: "Springfield High", Email: "office@example.com", Status: "closed"},
	}
	for _, in := range bad {
		_, err := svc.CreateAcademy(ctx, creator, in)
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr, "%+v", in)
		assert.NotEmpty(t, verr.Fields)
	}

	var n int64
	require.NoError(t, s.DB.Model(&models.Academy{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.DB.Model(&models.UserAcademy{}).Count(&n).Error)
	assert.Zero(t, n)

	a, err := svc.CreateAcademy(ctx, creator, service.CreateAcademyInput{
		Name:     " Springfield High ",
		Email:    "Office@Example.com",
		Settings: map[string]interface{}{"currency": "USD"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Springfield High", a.Name)
	assert.Equal(t, "office@example.com", a.Email)
	assert.Equal(t, models.AcademyStatusPending, a.Status)

	got, err := s.GetAcademy(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Settings["currency"])
}

func TestUpdateAcademy(t *testing.T) {
	ctx := context.Background()
	s, svc := newAcademyService(t)
	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)

	_, err := svc.UpdateAcademy(ctx, a.ID, service.UpdateAcademyInput{})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	status := models.AcademyStatusInactive
	name := "Renamed"
	got, err := svc.UpdateAcademy(ctx, a.ID, service.UpdateAcademyInput{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, models.AcademyStatusInactive, got.Status)

	_, err = svc.UpdateAcademy(ctx, "ACD00NOPE0", service.UpdateAcademyInput{Name: &name})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAcademyLogo(t *testing.T) {
	ctx := context.Background()
	s, svc := newAcademyService(t)
	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)

	view, err := svc.SetLogo(ctx, a.ID, "logo.png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	assert.Contains(t, view.LogoURL, "/uploads/academy-logos/"+a.ID+"/")

	require.NoError(t, svc.RemoveLogo(ctx, a.ID))
	got, err := s.GetAcademy(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LogoKey)

	require.NoError(t, svc.DeleteAcademy(ctx, a.ID))
	_, err = s.GetAcademy(ctx, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	s, svc := newAcademyService(t)
	owner := testutil.CreateUser(t, s, models.RoleUser)
	a := testutil.CreateAcademy(t, s, owner)
	u := testutil.CreateUser(t, s, models.RoleUser)

	m, err := svc.AddMember(ctx, a.ID, service.AddMemberInput{Email: u.Email})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)

	m, err = svc.AddMember(ctx, a.ID, service.AddMemberInput{UserID: u.ID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, m.Role)

	_, err = svc.AddMember(ctx, a.ID, service.AddMemberInput{UserID: u.ID, Role: models.RoleSuperAdmin})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AddMember(ctx, a.ID, service.AddMemberInput{})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AddMember(ctx, a.ID, service.AddMemberInput{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// the owner is now the only admin
	_, err = svc.AddMember(ctx, a.ID, service.AddMemberInput{UserID: owner.ID, Role: models.RoleStudent})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	members, err := s.ListMembers(ctx, a.ID)
	require.NoError(t, err)
	var admins int
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}
