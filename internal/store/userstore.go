package store

import (
	"context"
	"time"

	"github.com/madhava-poojari/academy-api/internal/models"
)

/* ------------------ User CRUD ------------------ */

type UserListFilter struct {
	ListParams
	Role   *models.Role
	Active *bool
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.DB.WithContext(ctx).Create(u).Error, "user")
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (s *Store) UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return affected(s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields), "user")
}

func (s *Store) ChangeUserRole(ctx context.Context, userID string, role models.Role) error {
	return s.UpdateUserFields(ctx, userID, map[string]interface{}{"role": role})
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	return s.UpdateUserFields(ctx, userID, map[string]interface{}{"active": active})
}

func (s *Store) ListUsers(ctx context.Context, f UserListFilter) ([]*models.User, error) {
	q := s.DB.WithContext(ctx).Model(&models.User{})
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	var res []*models.User
	if err := f.apply(q, "full_name", "email").Order("created_at desc").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

// CountSuperAdmins is used by the bootstrap command to avoid creating duplicates.
func (s *Store) CountSuperAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&n).Error
	return n, err
}
