package store

import (
	"context"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamFilter struct {
	ListParams
	CourseID *uint
	From     *time.Time
	To       *time.Time
}

// ResultInput is one student's mark for an exam.
type ResultInput struct {
	StudentID uint
	Marks     float64
	Remarks   string
}

func (s *Store) CreateExam(ctx context.Context, e *models.Exam) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Course{}, e.AcademyID, "course", e.CourseID); err != nil {
		return err
	}
	return translate(db.Create(e).Error, "exam")
}

func (s *Store) GetExam(ctx context.Context, academyID string, id uint) (*models.Exam, error) {
	return scopedFirst[models.Exam](s.DB.WithContext(ctx), academyID, id, "exam")
}

// UpdateExamFields applies fields and re-checks that passing marks do not
// exceed total marks after the change.
func (s *Store) UpdateExamFields(ctx context.Context, academyID string, id uint, fields map[string]interface{}) (*models.Exam, error) {
	var out *models.Exam
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if courseID, ok := fields["course_id"].(uint); ok {
			if err := requireScoped(tx, &models.Course{}, academyID, "course", courseID); err != nil {
				return err
			}
		}
		e, err := scopedUpdate[models.Exam](tx, academyID, id, fields, "exam")
		if err != nil {
			return err
		}
		if e.PassingMarks > e.TotalMarks {
			return apperrors.NewValidationError(apperrors.FieldError{Field: "passingMarks", Message: "passingMarks cannot exceed totalMarks"})
		}
		out = e
		return nil
	})
	return out, err
}

func (s *Store) DeleteExam(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.Exam](s.DB.WithContext(ctx), academyID, id, "exam")
}

func (s *Store) ListExams(ctx context.Context, academyID string, f ExamFilter) ([]*models.Exam, error) {
	q := s.DB.WithContext(ctx).Model(&models.Exam{}).Where("academy_id = ?", academyID)
	if f.CourseID != nil {
		q = q.Where("course_id = ?", *f.CourseID)
	}
	if f.From != nil {
		q = q.Where("exam_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("exam_date <= ?", *f.To)
	}
	var out []*models.Exam
	if err := f.apply(q, "title").Order("exam_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

/* ------------------ Results ------------------ */

// RecordExamResults upserts one result per student. Marks must lie within
// [0, totalMarks]; Passed is derived from the exam's passing marks.
func (s *Store) RecordExamResults(ctx context.Context, academyID string, examID uint, in []ResultInput) ([]*models.ExamResult, error) {
	var out []*models.ExamResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exam, err := scopedFirst[models.Exam](tx, academyID, examID, "exam")
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(in))
		var fieldErrs []apperrors.FieldError
		for _, r := range in {
			ids = append(ids, r.StudentID)
			if r.Marks < 0 || r.Marks > exam.TotalMarks {
				fieldErrs = append(fieldErrs, apperrors.FieldError{Field: "marks", Message: "marks must be between 0 and totalMarks"})
			}
		}
		if len(fieldErrs) > 0 {
			return apperrors.NewValidationError(fieldErrs...)
		}
		if err := requireScoped(tx, &models.Student{}, academyID, "student", ids...); err != nil {
			return err
		}
		now := time.Now()
		for _, r := range in {
			res := &models.ExamResult{
				ExamID:    examID,
				StudentID: r.StudentID,
				Marks:     r.Marks,
				Passed:    r.Marks >= exam.PassingMarks,
				Remarks:   r.Remarks,
				UpdatedAt: now,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "exam_id"}, {Name: "student_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"marks", "passed", "remarks", "updated_at"}),
			}).Create(res).Error
			if err != nil {
				return translate(err, "exam result")
			}
		}
		return tx.Where("exam_id = ? AND student_id IN ?", examID, ids).Order("student_id").Find(&out).Error
	})
	return out, err
}

func (s *Store) ListExamResults(ctx context.Context, academyID string, examID uint) ([]*models.ExamResult, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Exam{}, academyID, "exam", examID); err != nil {
		return nil, err
	}
	var out []*models.ExamResult
	if err := db.Where("exam_id = ?", examID).Order("marks DESC, student_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteExamResult(ctx context.Context, academyID string, examID, studentID uint) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Exam{}, academyID, "exam", examID); err != nil {
		return err
	}
	return affected(db.Where("exam_id = ? AND student_id = ?", examID, studentID).
		Delete(&models.ExamResult{}), "exam result")
}
