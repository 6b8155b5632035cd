package store

import (
	"context"
	"errors"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// never-used memberships sort after used ones, on postgres and sqlite alike
const membershipOrder = "ua.last_used_at IS NULL, ua.last_used_at DESC, ua.created_at DESC"

// Member is a user row joined with their membership in one academy.
type Member struct {
	UserID     string      `json:"userId"`
	FullName   string      `json:"fullName"`
	Email      string      `json:"email"`
	Role       models.Role `json:"role"`
	LastUsedAt *time.Time  `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (s *Store) GetMembership(ctx context.Context, userID, academyID string) (*models.UserAcademy, error) {
	var m models.UserAcademy
	err := s.DB.WithContext(ctx).Where("user_id = ? AND academy_id = ?", userID, academyID).First(&m).Error
	if err != nil {
		return nil, translate(err, "membership")
	}
	return &m, nil
}

// DefaultMembership is the most recently used membership of userID, falling
// back to the most recently created one.
func (s *Store) DefaultMembership(ctx context.Context, userID string) (*models.UserAcademy, error) {
	var m models.UserAcademy
	err := s.DB.WithContext(ctx).
		Table("user_academies ua").
		Select("ua.*").
		Where("ua.user_id = ?", userID).
		Order(membershipOrder).
		Limit(1).
		Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.AcademyID == "" {
		return nil, apperrors.NotFound("membership not found")
	}
	return &m, nil
}

func (s *Store) TouchMembership(ctx context.Context, userID, academyID string, at time.Time) error {
	return affected(s.DB.WithContext(ctx).Model(&models.UserAcademy{}).
		Where("user_id = ? AND academy_id = ?", userID, academyID).
		Update("last_used_at", at), "membership")
}

// UpsertMember adds userID to the academy or changes their role there. The
// last admin of an academy cannot be demoted.
func (s *Store) UpsertMember(ctx context.Context, academyID, userID string, role models.Role) (*models.UserAcademy, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.UserAcademy
		err := tx.Where("user_id = ? AND academy_id = ?", userID, academyID).First(&cur).Error
		switch {
		case err == nil:
			if cur.Role == models.RoleAdmin && role != models.RoleAdmin {
				if err := requireAnotherAdmin(tx, academyID, "cannot demote the last admin of an academy"); err != nil {
					return err
				}
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		m := models.UserAcademy{UserID: userID, AcademyID: academyID, Role: role}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "academy_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).Create(&m).Error
	})
	if err != nil {
		return nil, translate(err, "membership")
	}
	return s.GetMembership(ctx, userID, academyID)
}

// RemoveMember deletes the membership. The last admin of an academy cannot
// be removed.
func (s *Store) RemoveMember(ctx context.Context, academyID, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.UserAcademy
		if err := tx.Where("user_id = ? AND academy_id = ?", userID, academyID).First(&m).Error; err != nil {
			return translate(err, "membership")
		}
		if m.Role == models.RoleAdmin {
			if err := requireAnotherAdmin(tx, academyID, "cannot remove the last admin of an academy"); err != nil {
				return err
			}
		}
		return tx.Where("user_id = ? AND academy_id = ?", userID, academyID).Delete(&models.UserAcademy{}).Error
	})
}

func requireAnotherAdmin(tx *gorm.DB, academyID, msg string) error {
	var admins int64
	if err := tx.Model(&models.UserAcademy{}).
		Where("academy_id = ? AND role = ?", academyID, models.RoleAdmin).
		Count(&admins).Error; err != nil {
		return err
	}
	if admins <= 1 {
		return apperrors.Conflict(msg)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context, academyID string) ([]*Member, error) {
	var out []*Member
	err := s.DB.WithContext(ctx).
		Table("user_academies ua").
		Select("u.id AS user_id, u.full_name, u.email, ua.role, ua.last_used_at, ua.created_at").
		Joins("JOIN users u ON u.id = ua.user_id").
		Where("ua.academy_id = ?", academyID).
		Order("ua.created_at ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
