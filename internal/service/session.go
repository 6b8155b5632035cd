package service

import (
	"context"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

// SessionService issues and rotates credentials.
type SessionService struct {
	store *store.Store
	cfg   *config.Config
}

func NewSessionService(s *store.Store, cfg *config.Config) *SessionService {
	return &SessionService{store: s, cfg: cfg}
}

// AccessToken is the client-held credential scoped to one academy.
type AccessToken struct {
	AccessToken   string      `json:"accessToken"`
	ExpiresIn     int64       `json:"expiresIn"`
	AcademyID     string      `json:"academyId,omitempty"`
	AcademyRole   models.Role `json:"academyRole,omitempty"`
	Role          models.Role `json:"role"`
	UserID        string      `json:"userId"`
	refreshToken  string
	refreshExpiry time.Time
}

// RefreshToken returns the opaque refresh token and its expiry, when one was issued.
func (t *AccessToken) RefreshToken() (string, time.Time) {
	return t.refreshToken, t.refreshExpiry
}

// IssueAccessToken signs a token for user scoped to m (nil for no academy).
func (s *SessionService) IssueAccessToken(user *models.User, academyID string, m *models.UserAcademy) (*AccessToken, error) {
	signed, _, err := auth.GenerateAccessToken(s.cfg, user.ID, user.Role, academyID)
	if err != nil {
		return nil, err
	}
	t := &AccessToken{
		AccessToken: signed,
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
		AcademyID:   academyID,
		Role:        user.Role,
		UserID:      user.ID,
	}
	if m != nil {
		t.AcademyRole = m.Role
	}
	return t, nil
}

// Login issues an access token scoped to the default membership plus a new
// refresh token.
func (s *SessionService) Login(ctx context.Context, user *models.User) (*AccessToken, error) {
	t, err := s.defaultScopedToken(ctx, user)
	if err != nil {
		return nil, err
	}
	plain, err := utils.RandomToken()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.cfg.RefreshTokenTTL)
	if err := s.store.SaveRefreshToken(ctx, user.ID, plain, expires); err != nil {
		return nil, err
	}
	t.refreshToken, t.refreshExpiry = plain, expires
	return t, nil
}

// Refresh rotates the refresh token and issues a new access token.
func (s *SessionService) Refresh(ctx context.Context, refreshPlain string) (*AccessToken, error) {
	if refreshPlain == "" {
		return nil, apperrors.Unauthorized("missing refresh token")
	}
	newPlain, err := utils.RandomToken()
	if err != nil {
		return nil, err
	}
	newExpiry := time.Now().Add(s.cfg.RefreshTokenTTL)
	userID, err := s.store.RotateRefreshToken(ctx, refreshPlain, newPlain, newExpiry)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.ErrAccountDisabled
	}
	t, err := s.defaultScopedToken(ctx, user)
	if err != nil {
		return nil, err
	}
	t.refreshToken, t.refreshExpiry = newPlain, newExpiry
	return t, nil
}

func (s *SessionService) Logout(ctx context.Context, refreshPlain string) error {
	if refreshPlain == "" {
		return nil
	}
	return s.store.RevokeRefreshToken(ctx, refreshPlain)
}

func (s *SessionService) defaultScopedToken(ctx context.Context, user *models.User) (*AccessToken, error) {
	m, err := s.store.DefaultMembership(ctx, user.ID)
	if err != nil {
		if store.IsNotFound(err) {
			return s.IssueAccessToken(user, "", nil)
		}
		return nil, err
	}
	return s.IssueAccessToken(user, m.AcademyID, m)
}
