package store

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"gorm.io/gorm"
)

type ClassFilter struct {
	ListParams
	Grade   string
	Section string
}

func (s *Store) CreateClass(ctx context.Context, c *models.Class) error {
	return translate(s.DB.WithContext(ctx).Create(c).Error, "class")
}

func (s *Store) GetClass(ctx context.Context, academyID string, id uint) (*models.Class, error) {
	return scopedFirst[models.Class](s.DB.WithContext(ctx), academyID, id, "class")
}

func (s *Store) UpdateClassFields(ctx context.Context, academyID string, id uint, fields map[string]interface{}) (*models.Class, error) {
	return scopedUpdate[models.Class](s.DB.WithContext(ctx), academyID, id, fields, "class")
}

func (s *Store) DeleteClass(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.Class](s.DB.WithContext(ctx), academyID, id, "class")
}

func (s *Store) ListClasses(ctx context.Context, academyID string, f ClassFilter) ([]*models.Class, error) {
	q := s.DB.WithContext(ctx).Model(&models.Class{}).Where("academy_id = ?", academyID)
	if f.Grade != "" {
		q = q.Where("grade = ?", f.Grade)
	}
	if f.Section != "" {
		q = q.Where("section = ?", f.Section)
	}
	var out []*models.Class
	if err := f.apply(q, "name", "grade", "room").Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

/* ------------------ Class members ------------------ */

// AddClassStudents enrolls students; capacity, when set, is enforced.
func (s *Store) AddClassStudents(ctx context.Context, academyID string, classID uint, studentIDs ...uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		class, err := scopedFirst[models.Class](tx, academyID, classID, "class")
		if err != nil {
			return err
		}
		if err := requireScoped(tx, &models.Student{}, academyID, "student", studentIDs...); err != nil {
			return err
		}
		for _, id := range studentIDs {
			if err := link(tx, &models.ClassStudent{ClassID: classID, StudentID: id}); err != nil {
				return err
			}
		}
		if class.Capacity > 0 {
			var n int64
			if err := tx.Model(&models.ClassStudent{}).Where("class_id = ?", classID).Count(&n).Error; err != nil {
				return err
			}
			if n > int64(class.Capacity) {
				return apperrors.Conflict("class is at capacity")
			}
		}
		return nil
	})
}

func (s *Store) RemoveClassStudent(ctx context.Context, academyID string, classID, studentID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Class{}, academyID, "class", classID); err != nil {
		return err
	}
	return affected(db.Where("class_id = ? AND student_id = ?", classID, studentID).
		Delete(&models.ClassStudent{}), "class student")
}

func (s *Store) ListClassStudents(ctx context.Context, academyID string, classID uint) ([]*models.Student, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Class{}, academyID, "class", classID); err != nil {
		return nil, err
	}
	var out []*models.Student
	err := db.Model(&models.Student{}).
		Joins("JOIN class_students cs ON cs.student_id = students.id").
		Where("cs.class_id = ?", classID).
		Order("students.full_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AddClassTeacher(ctx context.Context, academyID string, classID, teacherID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Class{}, academyID, "class", classID); err != nil {
		return err
	}
	if err := requireScoped(db, &models.Teacher{}, academyID, "teacher", teacherID); err != nil {
		return err
	}
	return link(db, &models.ClassTeacher{ClassID: classID, TeacherID: teacherID})
}

func (s *Store) RemoveClassTeacher(ctx context.Context, academyID string, classID, teacherID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Class{}, academyID, "class", classID); err != nil {
		return err
	}
	return affected(db.Where("class_id = ? AND teacher_id = ?", classID, teacherID).
		Delete(&models.ClassTeacher{}), "class teacher")
}

func (s *Store) ListClassTeachers(ctx context.Context, academyID string, classID uint) ([]*models.Teacher, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Class{}, academyID, "class", classID); err != nil {
		return nil, err
	}
	var out []*models.Teacher
	err := db.Model(&models.Teacher{}).
		Joins("JOIN class_teachers ct ON ct.teacher_id = teachers.id").
		Where("ct.class_id = ?", classID).
		Order("teachers.full_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
