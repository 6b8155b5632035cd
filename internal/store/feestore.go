package store

import (
	"context"
	"time"

	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

type FeeStructureFilter struct {
	ListParams
	ClassID   *uint
	Frequency *models.FeeFrequency
}

type PaymentFilter struct {
	ListParams
	StudentID      *uint
	FeeStructureID *uint
	Method         *models.PaymentMethod
	From           *time.Time
	To             *time.Time
}

// StudentBalance is what a student owes across linked fee structures.
type StudentBalance struct {
	StudentID uint    `json:"studentId"`
	TotalDue  float64 `json:"totalDue"`
	TotalPaid float64 `json:"totalPaid"`
	Balance   float64 `json:"balance"`
}

/* ------------------ Fee structures ------------------ */

func (s *Store) CreateFeeStructure(ctx context.Context, f *models.FeeStructure) error {
	db := s.DB.WithContext(ctx)
	if f.ClassID != nil {
		if err := requireScoped(db, &models.Class{}, f.AcademyID, "class", *f.ClassID); err != nil {
			return err
		}
	}
	return translate(db.Create(f).Error, "fee structure")
}

func (s *Store) GetFeeStructure(ctx context.Context, academyID string, id uint) (*models.FeeStructure, error) {
	return scopedFirst[models.FeeStructure](s.DB.WithContext(ctx), academyID, id, "fee structure")
}

func (s *Store) UpdateFeeStructureFields(ctx context.Context, academyID string, id uint, fields map[string]interface{}) (*models.FeeStructure, error) {
	db := s.DB.WithContext(ctx)
	if classID, ok := fields["class_id"].(*uint); ok && classID != nil {
		if err := requireScoped(db, &models.Class{}, academyID, "class", *classID); err != nil {
			return nil, err
		}
	}
	return scopedUpdate[models.FeeStructure](db, academyID, id, fields, "fee structure")
}

func (s *Store) DeleteFeeStructure(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.FeeStructure](s.DB.WithContext(ctx), academyID, id, "fee structure")
}

func (s *Store) ListFeeStructures(ctx context.Context, academyID string, f FeeStructureFilter) ([]*models.FeeStructure, error) {
	q := s.DB.WithContext(ctx).Model(&models.FeeStructure{}).Where("academy_id = ?", academyID)
	if f.ClassID != nil {
		q = q.Where("class_id = ?", *f.ClassID)
	}
	if f.Frequency != nil {
		q = q.Where("frequency = ?", *f.Frequency)
	}
	var out []*models.FeeStructure
	if err := f.apply(q, "name").Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

/* ------------------ Payments ------------------ */

// CreatePayment records a payment. Student and fee structure must belong to
// the payment's academy.
func (s *Store) CreatePayment(ctx context.Context, p *models.FeePayment) error {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Student{}, p.AcademyID, "student", p.StudentID); err != nil {
		return err
	}
	if p.FeeStructureID != nil {
		if err := requireScoped(db, &models.FeeStructure{}, p.AcademyID, "fee structure", *p.FeeStructureID); err != nil {
			return err
		}
	}
	p.Amount = utils.RoundCents(p.Amount)
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	return translate(db.Create(p).Error, "payment")
}

func (s *Store) GetPayment(ctx context.Context, academyID string, id uint) (*models.FeePayment, error) {
	return scopedFirst[models.FeePayment](s.DB.WithContext(ctx), academyID, id, "payment")
}

func (s *Store) DeletePayment(ctx context.Context, academyID string, id uint) error {
	return scopedDelete[models.FeePayment](s.DB.WithContext(ctx), academyID, id, "payment")
}

func (s *Store) ListPayments(ctx context.Context, academyID string, f PaymentFilter) ([]*models.FeePayment, error) {
	q := s.DB.WithContext(ctx).Model(&models.FeePayment{}).Where("academy_id = ?", academyID)
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.FeeStructureID != nil {
		q = q.Where("fee_structure_id = ?", *f.FeeStructureID)
	}
	if f.Method != nil {
		q = q.Where("method = ?", *f.Method)
	}
	if f.From != nil {
		q = q.Where("paid_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("paid_at < ?", *f.To)
	}
	var out []*models.FeePayment
	if err := f.apply(q, "reference").Order("paid_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// StudentBalance sums every fee structure linked to a course the student is
// enrolled in or attached to a class they belong to (each structure counted
// once), minus the student's payments.
func (s *Store) StudentBalance(ctx context.Context, academyID string, studentID uint) (*StudentBalance, error) {
	db := s.DB.WithContext(ctx)
	if err := requireScoped(db, &models.Student{}, academyID, "student", studentID); err != nil {
		return nil, err
	}

	courseFees := db.Table("course_fee_structures cfs").
		Select("cfs.fee_structure_id").
		Joins("JOIN course_students cs ON cs.course_id = cfs.course_id").
		Where("cs.student_id = ?", studentID)
	classes := db.Table("class_students").Select("class_id").Where("student_id = ?", studentID)

	var due float64
	if err := db.Model(&models.FeeStructure{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("academy_id = ?", academyID).
		Where(db.Where("id IN (?)", courseFees).Or("class_id IN (?)", classes)).
		Row().Scan(&due); err != nil {
		return nil, err
	}

	var paid float64
	if err := db.Model(&models.FeePayment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("academy_id = ? AND student_id = ?", academyID, studentID).
		Row().Scan(&paid); err != nil {
		return nil, err
	}

	due, paid = utils.RoundCents(due), utils.RoundCents(paid)
	return &StudentBalance{
		StudentID: studentID,
		TotalDue:  due,
		TotalPaid: paid,
		Balance:   utils.RoundCents(due - paid),
	}, nil
}
