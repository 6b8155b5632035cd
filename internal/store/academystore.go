package store

import (
	"context"
	"errors"
	"time"

	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"gorm.io/gorm"
)

const idAttempts = 5

// UserAcademyView is an academy as seen by one of its members.
type UserAcademyView struct {
	models.Academy
	MembershipRole models.Role `json:"membershipRole"`
	LastUsedAt     *time.Time  `json:"lastUsedAt,omitempty"`
}

// CreateAcademy inserts the academy and makes ownerID its admin in one
// transaction. An empty ID is generated, retrying on collision.
func (s *Store) CreateAcademy(ctx context.Context, a *models.Academy, ownerID string) error {
	generated := a.ID == ""
	for attempt := 0; ; attempt++ {
		if generated {
			id, err := utils.GenerateAcademyID()
			if err != nil {
				return err
			}
			a.ID = id
		}
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(a).Error; err != nil {
				return err
			}
			return tx.Create(&models.UserAcademy{
				UserID:    ownerID,
				AcademyID: a.ID,
				Role:      models.RoleAdmin,
			}).Error
		})
		if err == nil {
			return nil
		}
		if !generated || !errors.Is(err, gorm.ErrDuplicatedKey) || attempt+1 >= idAttempts {
			if generated {
				a.ID = ""
			}
			return translate(err, "academy")
		}
	}
}

func (s *Store) GetAcademy(ctx context.Context, id string) (*models.Academy, error) {
	var a models.Academy
	if err := s.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, "academy")
	}
	return &a, nil
}

func (s *Store) AcademyExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Academy{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *Store) UpdateAcademyFields(ctx context.Context, id string, fields map[string]interface{}) (*models.Academy, error) {
	fields["updated_at"] = time.Now()
	if err := affected(s.DB.WithContext(ctx).Model(&models.Academy{}).Where("id = ?", id).Updates(fields), "academy"); err != nil {
		return nil, err
	}
	return s.GetAcademy(ctx, id)
}

// DeleteAcademy hard-deletes the academy; memberships, scoped grants and all
// tenant rows go with it through ON DELETE CASCADE.
func (s *Store) DeleteAcademy(ctx context.Context, id string) error {
	return affected(s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Academy{}), "academy")
}

// ListAcademies returns every academy; used for SuperAdmin listings.
func (s *Store) ListAcademies(ctx context.Context, p ListParams, status *models.AcademyStatus) ([]*models.Academy, error) {
	q := s.DB.WithContext(ctx).Model(&models.Academy{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []*models.Academy
	if err := p.apply(q, "name", "email").Order("created_at desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAcademiesForUser returns the academies userID belongs to, most recently
// used first.
func (s *Store) ListAcademiesForUser(ctx context.Context, userID string) ([]*UserAcademyView, error) {
	var out []*UserAcademyView
	err := s.DB.WithContext(ctx).
		Table("academies").
		Select("academies.*, ua.role AS membership_role, ua.last_used_at AS last_used_at").
		Joins("JOIN user_academies ua ON ua.academy_id = academies.id").
		Where("ua.user_id = ?", userID).
		Order(membershipOrder).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetAcademyLogo(ctx context.Context, id, key string) error {
	return affected(s.DB.WithContext(ctx).Model(&models.Academy{}).Where("id = ?", id).
		Updates(map[string]interface{}{"logo_key": key, "updated_at": time.Now()}), "academy")
}
