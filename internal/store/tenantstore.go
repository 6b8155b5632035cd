package store

import (
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Every tenant table carries academy_id; rows of other academies are reported
// as not found so their existence is never revealed.

func scopedFirst[T any](db *gorm.DB, academyID string, id uint, what string) (*T, error) {
	var v T
	if err := db.Where("academy_id = ? AND id = ?", academyID, id).First(&v).Error; err != nil {
		return nil, translate(err, what)
	}
	return &v, nil
}

func scopedUpdate[T any](db *gorm.DB, academyID string, id uint, fields map[string]interface{}, what string) (*T, error) {
	fields["updated_at"] = time.Now()
	if err := affected(db.Model(new(T)).Where("academy_id = ? AND id = ?", academyID, id).Updates(fields), what); err != nil {
		return nil, err
	}
	return scopedFirst[T](db, academyID, id, what)
}

func scopedDelete[T any](db *gorm.DB, academyID string, id uint, what string) error {
	return affected(db.Where("academy_id = ? AND id = ?", academyID, id).Delete(new(T)), what)
}

// requireScoped fails with not found unless every id is a row of model in academyID.
func requireScoped(db *gorm.DB, model interface{}, academyID, what string, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	uniq := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	var n int64
	if err := db.Model(model).Where("academy_id = ? AND id IN ?", academyID, ids).Count(&n).Error; err != nil {
		return err
	}
	if n != int64(len(uniq)) {
		return apperrors.NotFound(what + " not found")
	}
	return nil
}

// link inserts a join row, ignoring an existing one.
func link(db *gorm.DB, row interface{}) error {
	return translate(db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error, "link")
}
