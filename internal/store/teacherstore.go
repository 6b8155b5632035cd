package store

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/models"
)

type TeacherFilter struct {
	ListParams
	Status         *models.TeacherStatus
	Specialization string
}

func (s *Store) CreateTeacher(ctx context.Context, t *models.Teacher) error {
	return translate(s.DB.WithContext(ctx).Create(t).Error, "teacher")
}

func (s *Store) GetTeacher(ctx context.Context, academyID string, id uint) (*models.Teacher, error) {
	return scopedFirst[models.Teacher](s.DB.WithContext(ctx), academyID, id, "teacher")
}

func (s *Store) UpdateTeacherFields(ctx context.Context, academyID string, id uint, fields map[string]interface{}) (*models.Teacher, error) {
	return scopedUpdate[models.Teacher](s.DB.WithContext(ctx), academyID, id, fields, "teacher")
}

func (s *Store) DeleteTeacher(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.Teacher](s.DB.WithContext(ctx), academyID, id, "teacher")
}

func (s *Store) ListTeachers(ctx context.Context, academyID string, f TeacherFilter) ([]*models.Teacher, error) {
	q := s.DB.WithContext(ctx).Model(&models.Teacher{}).Where("academy_id = ?", academyID)
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Specialization != "" {
		q = q.Where("specialization = ?", f.Specialization)
	}
	var out []*models.Teacher
	if err := f.apply(q, "full_name", "email", "specialization").Order("full_name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

/* ------------------ Teacher <-> student assignments ------------------ */

func (s *Store) AssignTeacherStudent(ctx context.Context, academyID string, teacherID, studentID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Teacher{}, academyID, "teacher", teacherID); err != nil {
		return err
	}
	if err := requireScoped(db, &models.Student{}, academyID, "student", studentID); err != nil {
		return err
	}
	return link(db, &models.TeacherStudent{TeacherID: teacherID, StudentID: studentID})
}

func (s *Store) UnassignTeacherStudent(ctx context.Context, academyID string, teacherID, studentID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Teacher{}, academyID, "teacher", teacherID); err != nil {
		return err
	}
	return affected(db.Where("teacher_id = ? AND student_id = ?", teacherID, studentID).
		Delete(&models.TeacherStudent{}), "assignment")
}

func (s *Store) ListTeacherStudents(ctx context.Context, academyID string, teacherID uint) ([]*models.Student, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Teacher{}, academyID, "teacher", teacherID); err != nil {
		return nil, err
	}
	var out []*models.Student
	err := db.Model(&models.Student{}).
		Joins("JOIN teacher_students ts ON ts.student_id = students.id").
		Where("ts.teacher_id = ? AND students.academy_id = ?", teacherID, academyID).
		Order("ts.created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
