package models

import (
	"time"

	"gorm.io/datatypes"
)

// Associations below are declared on the child side only, so that AutoMigrate
// emits the foreign keys. Related rows are always loaded with explicit joins
// in the store; the association fields stay nil and are never serialized.

type User struct {
	ID    string `gorm:"primaryKey;size:10" json:"id"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	PasswordHash string    `json:"-"`
	FullName     string    `gorm:"not null" json:"fullName"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `gorm:"type:text;not null;default:user" json:"role"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsSuperAdmin() bool {
	return u != nil && u.Role == RoleSuperAdmin
}

type RefreshToken struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:10" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenHash string    `gorm:"not null;index" json:"-"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

type Academy struct {
	ID        string            `gorm:"primaryKey;size:10" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null" json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Address   string            `json:"address,omitempty"`
	Website   string            `json:"website,omitempty"`
	LogoKey   string            `json:"logoKey,omitempty"`
	Status    AcademyStatus     `gorm:"type:text;not null;default:pending;index" json:"status"`
	Settings  datatypes.JSONMap `json:"settings,omitempty"`
	CreatedBy string            `gorm:"size:10" json:"createdBy"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// UserAcademy is the membership edge. The composite key makes a
// (user, academy) pair unique.
type UserAcademy struct {
	UserID     string     `gorm:"primaryKey;size:10" json:"userId"`
	AcademyID  string     `gorm:"primaryKey;size:10;index" json:"academyId"`
	Role       Role       `gorm:"type:text;not null;default:admin" json:"role"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserAcademy) TableName() string { return "user_academies" }

type RoleRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        Role   `gorm:"type:text;uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`
}

func (RoleRecord) TableName() string { return "roles" }

type PermissionRecord struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        PermissionName `gorm:"type:text;uniqueIndex;not null" json:"name"`
	Description string         `json:"description,omitempty"`
}

func (PermissionRecord) TableName() string { return "permissions" }

type RolePermission struct {
	RoleID       uint `gorm:"primaryKey" json:"roleId"`
	PermissionID uint `gorm:"primaryKey" json:"permissionId"`

	Role       *RoleRecord       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
	Permission *PermissionRecord `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserPermission is a direct grant. A nil AcademyID makes it global.
type UserPermission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:10;not null;uniqueIndex:idx_user_permission_scope" json:"userId"`
	PermissionID uint      `gorm:"not null;uniqueIndex:idx_user_permission_scope" json:"permissionId"`
	AcademyID    *string   `gorm:"size:10;uniqueIndex:idx_user_permission_scope" json:"academyId,omitempty"`
	GrantedBy    string    `gorm:"size:10" json:"grantedBy"`
	CreatedAt    time.Time `json:"createdAt"`

	User       *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Permission *PermissionRecord `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"-"`
	Academy    *Academy          `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
}

type Student struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	AcademyID      string        `gorm:"size:10;not null;index" json:"academyId"`
	UserID         *string       `gorm:"size:10;index" json:"userId,omitempty"`
	FullName       string        `gorm:"not null" json:"fullName"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	DateOfBirth    *time.Time    `gorm:"type:date" json:"dateOfBirth,omitempty"`
	GuardianName   string        `json:"guardianName,omitempty"`
	GuardianPhone  string        `json:"guardianPhone,omitempty"`
	Address        string        `json:"address,omitempty"`
	EnrollmentDate *time.Time    `gorm:"type:date" json:"enrollmentDate,omitempty"`
	Status         StudentStatus `gorm:"type:text;not null;default:active;index" json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

type Teacher struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	AcademyID      string        `gorm:"size:10;not null;index" json:"academyId"`
	UserID         *string       `gorm:"size:10;index" json:"userId,omitempty"`
	FullName       string        `gorm:"not null" json:"fullName"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Specialization string        `json:"specialization,omitempty"`
	Qualification  string        `json:"qualification,omitempty"`
	HireDate       *time.Time    `gorm:"type:date" json:"hireDate,omitempty"`
	Status         TeacherStatus `gorm:"type:text;not null;default:active;index" json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

type TeacherStudent struct {
	TeacherID uint      `gorm:"primaryKey" json:"teacherId"`
	StudentID uint      `gorm:"primaryKey;index" json:"studentId"`
	CreatedAt time.Time `json:"createdAt"`

	Teacher *Teacher `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AcademyID string    `gorm:"size:10;not null;index" json:"academyId"`
	Name      string    `gorm:"not null" json:"name"`
	Grade     string    `json:"grade,omitempty"`
	Section   string    `json:"section,omitempty"`
	Room      string    `json:"room,omitempty"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
}

type ClassStudent struct {
	ClassID   uint      `gorm:"primaryKey" json:"classId"`
	StudentID uint      `gorm:"primaryKey;index" json:"studentId"`
	CreatedAt time.Time `json:"createdAt"`

	Class   *Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

type ClassTeacher struct {
	ClassID   uint      `gorm:"primaryKey" json:"classId"`
	TeacherID uint      `gorm:"primaryKey;index" json:"teacherId"`
	CreatedAt time.Time `json:"createdAt"`

	Class   *Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AcademyID   string    `gorm:"size:10;not null;index;uniqueIndex:idx_course_academy_code" json:"academyId"`
	Code        string    `gorm:"not null;uniqueIndex:idx_course_academy_code" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Credits     int       `json:"credits"`
	ClassID     *uint     `gorm:"index" json:"classId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Class   *Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:SET NULL" json:"-"`
}

type CourseStudent struct {
	CourseID  uint      `gorm:"primaryKey" json:"courseId"`
	StudentID uint      `gorm:"primaryKey;index" json:"studentId"`
	CreatedAt time.Time `json:"createdAt"`

	Course  *Course  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

type CourseTeacher struct {
	CourseID  uint      `gorm:"primaryKey" json:"courseId"`
	TeacherID uint      `gorm:"primaryKey;index" json:"teacherId"`
	CreatedAt time.Time `json:"createdAt"`

	Course  *Course  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

type CourseFeeStructure struct {
	CourseID       uint      `gorm:"primaryKey" json:"courseId"`
	FeeStructureID uint      `gorm:"primaryKey;index" json:"feeStructureId"`
	CreatedAt      time.Time `json:"createdAt"`

	Course       *Course       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	FeeStructure *FeeStructure `gorm:"foreignKey:FeeStructureID;constraint:OnDelete:CASCADE" json:"-"`
}

type Exam struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AcademyID    string    `gorm:"size:10;not null;index" json:"academyId"`
	CourseID     uint      `gorm:"not null;index" json:"courseId"`
	Title        string    `gorm:"not null" json:"title"`
	ExamDate     time.Time `gorm:"type:date;index" json:"examDate"`
	TotalMarks   float64   `gorm:"type:numeric(8,2);not null" json:"totalMarks"`
	PassingMarks float64   `gorm:"type:numeric(8,2);not null" json:"passingMarks"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Course  *Course  `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

type ExamResult struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ExamID    uint      `gorm:"not null;uniqueIndex:idx_exam_student" json:"examId"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_exam_student;index" json:"studentId"`
	Marks     float64   `gorm:"type:numeric(8,2);not null" json:"marks"`
	Passed    bool      `json:"passed"`
	Remarks   string    `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Exam    *Exam    `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"-"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

type FeeStructure struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	AcademyID   string       `gorm:"size:10;not null;index" json:"academyId"`
	Name        string       `gorm:"not null" json:"name"`
	Amount      float64      `gorm:"type:numeric(12,2);not null" json:"amount"`
	Frequency   FeeFrequency `gorm:"type:text;not null;default:one_time" json:"frequency"`
	ClassID     *uint        `gorm:"index" json:"classId,omitempty"`
	DueDay      int          `json:"dueDay,omitempty"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Class   *Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:SET NULL" json:"-"`
}

type FeePayment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	AcademyID      string        `gorm:"size:10;not null;index" json:"academyId"`
	StudentID      uint          `gorm:"not null;index" json:"studentId"`
	FeeStructureID *uint         `gorm:"index" json:"feeStructureId,omitempty"`
	Amount         float64       `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method         PaymentMethod `gorm:"type:text;not null" json:"method"`
	Reference      string        `json:"reference,omitempty"`
	PaidAt         time.Time     `gorm:"index" json:"paidAt"`
	RecordedBy     string        `gorm:"size:10" json:"recordedBy"`
	CreatedAt      time.Time     `json:"createdAt"`

	Academy      *Academy      `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Student      *Student      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	FeeStructure *FeeStructure `gorm:"foreignKey:FeeStructureID;constraint:OnDelete:SET NULL" json:"-"`
}

type Attendance struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	AcademyID  string           `gorm:"size:10;not null;index" json:"academyId"`
	StudentID  uint             `gorm:"not null;uniqueIndex:idx_attendance_day" json:"studentId"`
	ClassID    *uint            `gorm:"uniqueIndex:idx_attendance_day" json:"classId,omitempty"`
	Date       time.Time        `gorm:"type:date;not null;index;uniqueIndex:idx_attendance_day" json:"date"`
	Status     AttendanceStatus `gorm:"type:text;not null" json:"status"`
	Remarks    string           `gorm:"type:text" json:"remarks,omitempty"`
	RecordedBy string           `gorm:"size:10" json:"recordedBy"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`

	Academy *Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Student *Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Class   *Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &RefreshToken{}, &Academy{}, &UserAcademy{},
		&RoleRecord{}, &PermissionRecord{}, &RolePermission{}, &UserPermission{},
		&Student{}, &Teacher{}, &TeacherStudent{},
		&Class{}, &ClassStudent{}, &ClassTeacher{},
		&Course{}, &CourseStudent{}, &CourseTeacher{},
		&FeeStructure{}, &CourseFeeStructure{},
		&Exam{}, &ExamResult{},
		&FeePayment{}, &Attendance{},
	}
}
