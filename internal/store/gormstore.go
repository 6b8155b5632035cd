package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// GormConfig is shared by the postgres store and the sqlite test store.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

func NewGormStore(cfg *config.Config) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), GormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return New(context.Background(), db, cfg)
}

// New wraps an open connection, migrating the schema and seeding RBAC rows.
func New(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Store, error) {
	s := &Store{DB: db, Cfg: cfg}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates tables, columns, indexes and foreign keys (non-destructive)
// and seeds roles and permissions.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(models.AllModels()...); err != nil {
		return err
	}
	return s.SeedRBAC(ctx)
}

/* ------------------ Refresh token methods ------------------ */

func hashTokenPlain(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SaveRefreshToken stores a token (hashed) and expiry
func (s *Store) SaveRefreshToken(ctx context.Context, userID, plainToken string, expiresAt time.Time) error {
	rt := models.RefreshToken{
		ID:        utils.GenerateID(),
		UserID:    userID,
		TokenHash: hashTokenPlain(plainToken),
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}
	return s.DB.WithContext(ctx).Create(&rt).Error
}

// findRefreshToken returns the token row if it is valid and not revoked.
func findRefreshToken(db *gorm.DB, plainToken string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := db.Where("token_hash = ? AND revoked = ? AND expires_at > ?", hashTokenPlain(plainToken), false, time.Now()).
		First(&rt).Error
	if err != nil {
		return nil, translate(err, "refresh token")
	}
	return &rt, nil
}

// RevokeRefreshToken marks token revoked
func (s *Store) RevokeRefreshToken(ctx context.Context, plainToken string) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashTokenPlain(plainToken)).Update("revoked", true).Error
}

// RotateRefreshToken revokes the old token and stores the new one in one
// transaction. It returns the owner of the token.
func (s *Store) RotateRefreshToken(ctx context.Context, oldPlain, newPlain string, newExpiry time.Time) (string, error) {
	var userID string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := findRefreshToken(tx, oldPlain)
		if err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).Where("id = ? AND revoked = ?", old.ID, false).Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		// lost a race with a concurrent rotation
		if res.RowsAffected == 0 {
			return apperrors.NotFound("refresh token not found")
		}
		userID = old.UserID
		return tx.Create(&models.RefreshToken{
			ID:        utils.GenerateID(),
			UserID:    old.UserID,
			TokenHash: hashTokenPlain(newPlain),
			IssuedAt:  time.Now(),
			ExpiresAt: newExpiry,
		}).Error
	})
	return userID, err
}

func (s *Store) DeleteExpiredTokens(ctx context.Context) error {
	return s.DB.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}

/* ------------------ Helpers ------------------ */

// ListParams is the common search/pagination input of list endpoints.
type ListParams struct {
	Search string
	Limit  int
	Offset int
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

func (p ListParams) apply(q *gorm.DB, searchCols ...string) *gorm.DB {
	if term := strings.TrimSpace(p.Search); term != "" && len(searchCols) > 0 {
		like := "%" + strings.ToLower(term) + "%"
		conds := make([]string, 0, len(searchCols))
		args := make([]interface{}, 0, len(searchCols))
		for _, c := range searchCols {
			conds = append(conds, "LOWER("+c+") LIKE ?")
			args = append(args, like)
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return q.Limit(limit).Offset(p.Offset)
}

// translate maps driver errors onto apperrors sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(what + " not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.Conflict(what + " already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.BadRequest(what + " references a record that does not exist")
	default:
		return err
	}
}

// affected turns a zero-row update or delete into a not-found error.
func affected(res *gorm.DB, what string) error {
	if res.Error != nil {
		return translate(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(what + " not found")
	}
	return nil
}

// IsNotFound is used by handlers to detect not-found vs other errors.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
