package store

import (
	"context"
	"time"

	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"gorm.io/gorm"
)

type AttendanceListFilter struct {
	StartDate time.Time
	EndDate   time.Time
	StudentID *uint
	ClassID   *uint
	Status    *models.AttendanceStatus
	Limit     int
	Offset    int
}

// AttendanceSummary counts a student's records by status over a date range.
type AttendanceSummary struct {
	StudentID uint    `json:"studentId"`
	Present   int64   `json:"present"`
	Absent    int64   `json:"absent"`
	Late      int64   `json:"late"`
	Excused   int64   `json:"excused"`
	Total     int64   `json:"total"`
	Rate      float64 `json:"rate"`
}

// UpsertAttendance writes one record per (student, class, day), replacing an
// earlier record for the same slot. All records are written or none.
func (s *Store) UpsertAttendance(ctx context.Context, academyID string, records []*models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		studentIDs := make([]uint, 0, len(records))
		var classIDs []uint
		for _, a := range records {
			studentIDs = append(studentIDs, a.StudentID)
			if a.ClassID != nil {
				classIDs = append(classIDs, *a.ClassID)
			}
		}
		if err := requireScoped(tx, &models.Student{}, academyID, "student", studentIDs...); err != nil {
			return err
		}
		if err := requireScoped(tx, &models.Class{}, academyID, "class", classIDs...); err != nil {
			return err
		}

		for _, a := range records {
			a.AcademyID = academyID
			a.Date = utils.DateOnly(a.Date)

			// class_id may be NULL, which a unique index cannot match on
			q := tx.Model(&models.Attendance{}).Where("student_id = ? AND date = ?", a.StudentID, a.Date)
			if a.ClassID == nil {
				q = q.Where("class_id IS NULL")
			} else {
				q = q.Where("class_id = ?", *a.ClassID)
			}
			var existing models.Attendance
			err := q.First(&existing).Error
			switch {
			case err == nil:
				a.ID = existing.ID
				a.CreatedAt = existing.CreatedAt
				if err := tx.Model(&existing).Updates(map[string]interface{}{
					"status":      a.Status,
					"remarks":     a.Remarks,
					"recorded_by": a.RecordedBy,
					"updated_at":  time.Now(),
				}).Error; err != nil {
					return err
				}
			case IsNotFound(err):
				if err := tx.Create(a).Error; err != nil {
					return translate(err, "attendance")
				}
			default:
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetAttendanceByID(ctx context.Context, academyID string, id uint) (*models.Attendance, error) {
	return scopedFirst[models.Attendance](s.DB.WithContext(ctx), academyID, id, "attendance")
}

func (s *Store) UpdateAttendanceByID(ctx context.Context, academyID string, id uint, updates map[string]interface{}) (*models.Attendance, error) {
	return scopedUpdate[models.Attendance](s.DB.WithContext(ctx), academyID, id, updates, "attendance")
}

func (s *Store) DeleteAttendanceByID(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.Attendance](s.DB.WithContext(ctx), academyID, id, "attendance")
}

func (s *Store) attendanceQuery(ctx context.Context, academyID string, f AttendanceListFilter) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&models.Attendance{}).
		Where("academy_id = ? AND date >= ? AND date < ?", academyID, utils.DateOnly(f.StartDate), utils.DateOnly(f.EndDate))

	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.ClassID != nil {
		q = q.Where("class_id = ?", *f.ClassID)
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", *f.Status)
	}
	return q
}

func (s *Store) ListAttendances(ctx context.Context, academyID string, f AttendanceListFilter) ([]*models.Attendance, error) {
	q := ListParams{Limit: f.Limit, Offset: f.Offset}.apply(s.attendanceQuery(ctx, academyID, f))
	var out []*models.Attendance
	if err := q.Order("date desc, id desc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SummarizeAttendance returns per-student counts; Rate counts late as attended.
func (s *Store) SummarizeAttendance(ctx context.Context, academyID string, f AttendanceListFilter) ([]*AttendanceSummary, error) {
	var rows []struct {
		StudentID uint
		Status    models.AttendanceStatus
		Count     int64
	}
	err := s.attendanceQuery(ctx, academyID, f).
		Select("student_id, status, COUNT(*) AS count").
		Group("student_id, status").
		Order("student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var out []*AttendanceSummary
	byStudent := make(map[uint]*AttendanceSummary)
	for _, r := range rows {
		sum, ok := byStudent[r.StudentID]
		if !ok {
			sum = &AttendanceSummary{StudentID: r.StudentID}
			byStudent[r.StudentID] = sum
			out = append(out, sum)
		}
		switch r.Status {
		case models.AttendanceStatusPresent:
			sum.Present += r.Count
		case models.AttendanceStatusAbsent:
			sum.Absent += r.Count
		case models.AttendanceStatusLate:
			sum.Late += r.Count
		case models.AttendanceStatusExcused:
			sum.Excused += r.Count
		}
		sum.Total += r.Count
	}
	for _, sum := range out {
		if sum.Total > 0 {
			sum.Rate = utils.RoundCents(float64(sum.Present+sum.Late) / float64(sum.Total))
		}
	}
	return out, nil
}
