package store

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/models"
)

type StudentFilter struct {
	ListParams
	Status   *models.StudentStatus
	ClassID  *uint
	CourseID *uint
	UserID   *string
}

func (s *Store) CreateStudent(ctx context.Context, st *models.Student) error {
	return translate(s.DB.WithContext(ctx).Create(st).Error, "student")
}

func (s *Store) GetStudent(ctx context.Context, academyID string, id uint) (*models.Student, error) {
	return scopedFirst[models.Student](s.DB.WithContext(ctx), academyID, id, "student")
}

func (s *Store) UpdateStudentFields(ctx context.Context, academyID string, id uint, fields map[string]interface{}) (*models.Student, error) {
	return scopedUpdate[models.Student](s.DB.WithContext(ctx), academyID, id, fields, "student")
}

func (s *Store) DeleteStudent(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.Student](s.DB.WithContext(ctx), academyID, id, "student")
}

func (s *Store) ListStudents(ctx context.Context, academyID string, f StudentFilter) ([]*models.Student, error) {
	q := s.DB.WithContext(ctx).Model(&models.Student{}).Where("students.academy_id = ?", academyID)
	if f.Status != nil {
		q = q.Where("students.status = ?", *f.Status)
	}
	if f.UserID != nil {
		q = q.Where("students.user_id = ?", *f.UserID)
	}
	if f.ClassID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM class_students cs WHERE cs.student_id = students.id AND cs.class_id = ?)", *f.ClassID)
	}
	if f.CourseID != nil {
		q = q.Where("EXISTS (SELECT 1 FROM course_students cs WHERE cs.student_id = students.id AND cs.course_id = ?)", *f.CourseID)
	}
	var out []*models.Student
	if err := f.apply(q, "students.full_name", "students.email").Order("students.full_name ASC, students.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
