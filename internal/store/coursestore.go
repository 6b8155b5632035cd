package store

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/models"
	"gorm.io/gorm"
)

type CourseFilter struct {
	ListParams
	ClassID *uint
}

func (s *Store) CreateCourse(ctx context.Context, c *models.Course) error {
	db := s.DB.WithContext(ctx)
	if c.ClassID != nil {
		if err := requireScoped(db, &models.Class{}, c.AcademyID, "class", *c.ClassID); err != nil {
			return err
		}
	}
	return translate(db.Create(c).Error, "course")
}

func (s *Store) GetCourse(ctx context.Context, academyID string, id uint) (*models.Course, error) {
	return scopedFirst[models.Course](s.DB.WithContext(ctx), academyID, id, "course")
}

func (s *Store) UpdateCourseFields(ctx context.Context, academyID string, id uint, fields map[string]interface{}) (*models.Course, error) {
	db := s.DB.WithContext(ctx)
	if classID, ok := fields["class_id"].(*uint); ok && classID != nil {
		if err := requireScoped(db, &models.Class{}, academyID, "class", *classID); err != nil {
			return nil, err
		}
	}
	return scopedUpdate[models.Course](db, academyID, id, fields, "course")
}

func (s *Store) DeleteCourse(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.Course](s.DB.WithContext(ctx), academyID, id, "course")
}

func (s *Store) ListCourses(ctx context.Context, academyID string, f CourseFilter) ([]*models.Course, error) {
	q := s.DB.WithContext(ctx).Model(&models.Course{}).Where("academy_id = ?", academyID)
	if f.ClassID != nil {
		q = q.Where("class_id = ?", *f.ClassID)
	}
	var out []*models.Course
	if err := f.apply(q, "name", "code").Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

/* ------------------ Enrollment, teaching and fees ------------------ */

func (s *Store) EnrollCourseStudents(ctx context.Context, academyID string, courseID uint, studentIDs ...uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireScoped(tx, &models.Course{}, academyID, "course", courseID); err != nil {
			return err
		}
		if err := requireScoped(tx, &models.Student{}, academyID, "student", studentIDs...); err != nil {
			return err
		}
		for _, id := range studentIDs {
			if err := link(tx, &models.CourseStudent{CourseID: courseID, StudentID: id}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UnenrollCourseStudent(ctx context.Context, academyID string, courseID, studentID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return err
	}
	return affected(db.Where("course_id = ? AND student_id = ?", courseID, studentID).
		Delete(&models.CourseStudent{}), "enrollment")
}

func (s *Store) ListCourseStudents(ctx context.Context, academyID string, courseID uint) ([]*models.Student, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return nil, err
	}
	var out []*models.Student
	err := db.Model(&models.Student{}).
		Joins("JOIN course_students cs ON cs.student_id = students.id").
		Where("cs.course_id = ?", courseID).
		Order("students.full_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AddCourseTeacher(ctx context.Context, academyID string, courseID, teacherID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return err
	}
	if err := requireScoped(db, &models.Teacher{}, academyID, "teacher", teacherID); err != nil {
		return err
	}
	return link(db, &models.CourseTeacher{CourseID: courseID, TeacherID: teacherID})
}

func (s *Store) RemoveCourseTeacher(ctx context.Context, academyID string, courseID, teacherID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return err
	}
	return affected(db.Where("course_id = ? AND teacher_id = ?", courseID, teacherID).
		Delete(&models.CourseTeacher{}), "course teacher")
}

func (s *Store) ListCourseTeachers(ctx context.Context, academyID string, courseID uint) ([]*models.Teacher, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return nil, err
	}
	var out []*models.Teacher
	err := db.Model(&models.Teacher{}).
		Joins("JOIN course_teachers ct ON ct.teacher_id = teachers.id").
		Where("ct.course_id = ?", courseID).
		Order("teachers.full_name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LinkCourseFeeStructure(ctx context.Context, academyID string, courseID, feeStructureID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return err
	}
	if err := requireScoped(db, &models.FeeStructure{}, academyID, "fee structure", feeStructureID); err != nil {
		return err
	}
	return link(db, &models.CourseFeeStructure{CourseID: courseID, FeeStructureID: feeStructureID})
}

func (s *Store) UnlinkCourseFeeStructure(ctx context.Context, academyID string, courseID, feeStructureID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return err
	}
	return affected(db.Where("course_id = ? AND fee_structure_id = ?", courseID, feeStructureID).
		Delete(&models.CourseFeeStructure{}), "course fee structure")
}

func (s *Store) ListCourseFeeStructures(ctx context.Context, academyID string, courseID uint) ([]*models.FeeStructure, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, academyID, "course", courseID); err != nil {
		return nil, err
	}
	var out []*models.FeeStructure
	err := db.Model(&models.FeeStructure{}).
		Joins("JOIN course_fee_structures cfs ON cfs.fee_structure_id = fee_structures.id").
		Where("cfs.course_id = ?", courseID).
		Order("fee_structures.name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
