package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type UserService struct {
	store *store.Store
}

func NewUserService(s *store.Store) *UserService {
	return &UserService{store: s}
}

type RegisterInput struct {
	FullName        string `json:"fullName" validate:"required,min=2,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type UpdateProfileInput struct {
	FullName        *string `json:"fullName" validate:"omitempty,min=2,max=120"`
	Phone           *string `json:"phone" validate:"omitempty,max=32"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword" validate:"omitempty,min=6,max=72"`
}

// Register validates the input and creates a user with the default global
// role. Nothing is written when validation fails.
func (u *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return u.CreateUser(ctx, in.Email, in.Password, in.FullName, models.RoleUser)
}

func (u *UserService) CreateUser(ctx context.Context, email, password, fullName string, role models.Role) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	if _, err := u.store.GetUserByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email already registered")
	} else if !store.IsNotFound(err) {
		return nil, err
	}

	if password == "" {
		// passwordless accounts (Google sign-in) get an unusable random secret
		password = utils.GenerateRandomString(32)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// try create; if conflict on ID (rare), regenerate few times
	for i := 0; i < 5; i++ {
		uid, err := utils.GenerateUserID()
		if err != nil {
			return nil, err
		}
		user.ID = uid
		err = u.store.CreateUser(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		// the email may have been taken concurrently
		if _, lookupErr := u.store.GetUserByEmail(ctx, email); lookupErr == nil {
			return nil, apperrors.Conflict("email already registered")
		}
	}
	return nil, errors.New("could not create unique user id")
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (u *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := u.store.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := utils.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrAccountDisabled
	}
	return user, nil
}

// FindOrCreateExternal returns the user for a verified external email,
// creating a passwordless account on first sign-in.
func (u *UserService) FindOrCreateExternal(ctx context.Context, email, fullName string) (*models.User, error) {
	user, err := u.store.GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if err == nil {
		if !user.Active {
			return nil, apperrors.ErrAccountDisabled
		}
		return user, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}
	return u.CreateUser(ctx, email, "", fullName, models.RoleUser)
}

func (u *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.NewPassword != "" {
		user, err := u.store.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		ok, err := utils.ComparePasswordAndHash(in.CurrentPassword, user.PasswordHash)
		if err != nil || !ok {
			return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "currentPassword", Message: "currentPassword is incorrect"})
		}
		hash, err := utils.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if len(fields) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}
	if err := u.store.UpdateUserFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return u.store.GetUserByID(ctx, userID)
}

// ChangeRole sets the global role. Only a SuperAdmin may grant or revoke
// the SuperAdmin role.
func (u *UserService) ChangeRole(ctx context.Context, actor *models.User, userID string, role models.Role) (*models.User, error) {
	if err := validation.Var("role", string(role), "required,role"); err != nil {
		return nil, err
	}
	target, err := u.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if (role == models.RoleSuperAdmin || target.IsSuperAdmin()) && !actor.IsSuperAdmin() {
		return nil, apperrors.Forbidden("only a super admin can change super admin roles")
	}
	if err := u.store.ChangeUserRole(ctx, userID, role); err != nil {
		return nil, err
	}
	return u.store.GetUserByID(ctx, userID)
}

func (u *UserService) SetActive(ctx context.Context, actor *models.User, userID string, active bool) (*models.User, error) {
	if actor.ID == userID && !active {
		return nil, apperrors.BadRequest("cannot deactivate your own account")
	}
	target, err := u.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.IsSuperAdmin() && !actor.IsSuperAdmin() {
		return nil, apperrors.Forbidden("only a super admin can change a super admin account")
	}
	if err := u.store.SetUserActive(ctx, userID, active); err != nil {
		return nil, err
	}
	return u.store.GetUserByID(ctx, userID)
}
