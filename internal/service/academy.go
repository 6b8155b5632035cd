package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type AcademyService struct {
	store    *store.Store
	sessions *SessionService
	files    utils.FileStore
}

func NewAcademyService(s *store.Store, sessions *SessionService, files utils.FileStore) *AcademyService {
	return &AcademyService{store: s, sessions: sessions, files: files}
}

type CreateAcademyInput struct {
	Name     string                 `json:"name" validate:"required,min=2,max=200"`
	Email    string                 `json:"email" validate:"required,email"`
	Phone    string                 `json:"phone" validate:"omitempty,max=32"`
	Address  string                 `json:"address" validate:"omitempty,max=500"`
	Website  string                 `json:"website" validate:"omitempty,url"`
	Status   models.AcademyStatus   `json:"status" validate:"omitempty,academystatus"`
	Settings map[string]interface{} `json:"settings"`
}

type UpdateAcademyInput struct {
	Name     *string                `json:"name" validate:"omitempty,min=2,max=200"`
	Email    *string                `json:"email" validate:"omitempty,email"`
	Phone    *string                `json:"phone" validate:"omitempty,max=32"`
	Address  *string                `json:"address" validate:"omitempty,max=500"`
	Website  *string                `json:"website" validate:"omitempty,url"`
	Status   *models.AcademyStatus  `json:"status" validate:"omitempty,academystatus"`
	Settings map[string]interface{} `json:"settings"`
}

type AddMemberInput struct {
	UserID string      `json:"userId" validate:"required_without=Email"`
	Email  string      `json:"email" validate:"omitempty,email"`
	Role   models.Role `json:"role" validate:"omitempty,membershiprole"`
}

// CreateAcademy validates the input before anything is written, then creates
// the academy with creator as its admin member.
func (a *AcademyService) CreateAcademy(ctx context.Context, creator *models.User, in CreateAcademyInput) (*models.Academy, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.AcademyStatusPending
	}
	academy := &models.Academy{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		Website:   in.Website,
		Status:    status,
		Settings:  in.Settings,
		CreatedBy: creator.ID,
	}
	if err := a.store.CreateAcademy(ctx, academy, creator.ID); err != nil {
		return nil, err
	}
	return academy, nil
}

func (a *AcademyService) UpdateAcademy(ctx context.Context, id string, in UpdateAcademyInput) (*models.Academy, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		fields["email"] = utils.NormalizeEmail(*in.Email)
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.Website != nil {
		fields["website"] = *in.Website
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if in.Settings != nil {
		fields["settings"] = datatypes.JSONMap(in.Settings)
	}
	if len(fields) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}
	return a.store.UpdateAcademyFields(ctx, id, fields)
}

// DeleteAcademy removes the academy with everything it owns, then its logo.
func (a *AcademyService) DeleteAcademy(ctx context.Context, id string) error {
	academy, err := a.store.GetAcademy(ctx, id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteAcademy(ctx, id); err != nil {
		return err
	}
	if academy.LogoKey != "" && a.files != nil {
		if err := a.files.DeleteFile(ctx, academy.LogoKey); err != nil {
			log.Warn().Err(err).Str("academy_id", id).Msg("could not delete logo of removed academy")
		}
	}
	return nil
}

// SwitchAcademy resolves the caller's active academy and issues a token
// scoped to it.
//
// With an id, the caller must be a member (or SuperAdmin, in which case the
// academy must exist). Without one, the most recently used membership is
// chosen; a SuperAdmin with no memberships gets an unscoped token.
func (a *AcademyService) SwitchAcademy(ctx context.Context, user *models.User, academyID string) (*AccessToken, error) {
	academyID = strings.TrimSpace(academyID)
	if academyID == "" {
		m, err := a.store.DefaultMembership(ctx, user.ID)
		if err != nil {
			if !store.IsNotFound(err) {
				return nil, err
			}
			if user.IsSuperAdmin() {
				return a.sessions.IssueAccessToken(user, "", nil)
			}
			return nil, apperrors.ErrNoMembership
		}
		return a.touchAndIssue(ctx, user, m)
	}

	m, err := a.store.GetMembership(ctx, user.ID, academyID)
	if err == nil {
		return a.touchAndIssue(ctx, user, m)
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	if !user.IsSuperAdmin() {
		return nil, apperrors.ErrNoMembership
	}
	ok, err := a.store.AcademyExists(ctx, academyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("academy not found")
	}
	return a.sessions.IssueAccessToken(user, academyID, nil)
}

func (a *AcademyService) touchAndIssue(ctx context.Context, user *models.User, m *models.UserAcademy) (*AccessToken, error) {
	now := time.Now()
	if err := a.store.TouchMembership(ctx, user.ID, m.AcademyID, now); err != nil {
		return nil, err
	}
	m.LastUsedAt = &now
	return a.sessions.IssueAccessToken(user, m.AcademyID, m)
}

// AddMember adds a user, found by id or email, to the academy. The role
// defaults to admin.
func (a *AcademyService) AddMember(ctx context.Context, academyID string, in AddMemberInput) (*models.UserAcademy, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var (
		user *models.User
		err  error
	)
	if in.UserID != "" {
		user, err = a.store.GetUserByID(ctx, in.UserID)
	} else {
		user, err = a.store.GetUserByEmail(ctx, utils.NormalizeEmail(in.Email))
	}
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleAdmin
	}
	return a.store.UpsertMember(ctx, academyID, user.ID, role)
}

// AcademyView adds a resolved logo URL to an academy.
type AcademyView struct {
	*models.Academy
	LogoURL string `json:"logoUrl,omitempty"`
}

func (a *AcademyService) View(ctx context.Context, academy *models.Academy) *AcademyView {
	v := &AcademyView{Academy: academy}
	if academy.LogoKey != "" && a.files != nil {
		url, err := a.files.URL(ctx, academy.LogoKey)
		if err != nil {
			log.Warn().Err(err).Str("academy_id", academy.ID).Msg("could not resolve logo url")
		} else {
			v.LogoURL = url
		}
	}
	return v
}

// SetLogo stores a new logo and replaces the previous one.
func (a *AcademyService) SetLogo(ctx context.Context, academyID, filename string, r io.Reader) (*AcademyView, error) {
	if a.files == nil {
		return nil, apperrors.BadRequest("file storage is not configured")
	}
	academy, err := a.store.GetAcademy(ctx, academyID)
	if err != nil {
		return nil, err
	}
	key, err := a.files.SaveFile(ctx, "academy-logos/"+academyID, filename, r)
	if err != nil {
		return nil, err
	}
	if err := a.store.SetAcademyLogo(ctx, academyID, key); err != nil {
		_ = a.files.DeleteFile(ctx, key)
		return nil, err
	}
	if academy.LogoKey != "" {
		if err := a.files.DeleteFile(ctx, academy.LogoKey); err != nil {
			log.Warn().Err(err).Str("academy_id", academyID).Msg("could not delete previous logo")
		}
	}
	academy.LogoKey = key
	return a.View(ctx, academy), nil
}

func (a *AcademyService) RemoveLogo(ctx context.Context, academyID string) error {
	academy, err := a.store.GetAcademy(ctx, academyID)
	if err != nil {
		return err
	}
	if academy.LogoKey == "" {
		return nil
	}
	if err := a.store.SetAcademyLogo(ctx, academyID, ""); err != nil {
		return err
	}
	if a.files != nil {
		return a.files.DeleteFile(ctx, academy.LogoKey)
	}
	return nil
}
