package models

import "fmt"

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Role is both the global role of a user and the role held inside an academy.
// Every value has a row in the roles table; SuperAdmin bypasses permission checks.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
)

var AllRoles = []Role{RoleUser, RoleAdmin, RoleSuperAdmin, RoleStudent, RoleTeacher}

// MembershipRoles are the roles a user may hold within a single academy.
var MembershipRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsMembershipRole() bool {
	for _, m := range MembershipRoles {
		if r == m {
			return true
		}
	}
	return false
}

// PermissionName is a named capability. The set is closed: rows in the
// permissions table are seeded from AllPermissions.
type PermissionName string

const (
	PermAcademyCreate        PermissionName = "academy.create"
	PermAcademyRead          PermissionName = "academy.read"
	PermAcademyUpdate        PermissionName = "academy.update"
	PermAcademyDelete        PermissionName = "academy.delete"
	PermAcademyMembersManage PermissionName = "academy.members.manage"
	PermStudentRead          PermissionName = "student.read"
	PermStudentWrite         PermissionName = "student.write"
	PermTeacherRead          PermissionName = "teacher.read"
	PermTeacherWrite         PermissionName = "teacher.write"
	PermClassRead            PermissionName = "class.read"
	PermClassWrite           PermissionName = "class.write"
	PermCourseRead           PermissionName = "course.read"
	PermCourseWrite          PermissionName = "course.write"
	PermExamRead             PermissionName = "exam.read"
	PermExamWrite            PermissionName = "exam.write"
	PermFeeRead              PermissionName = "fee.read"
	PermFeeWrite             PermissionName = "fee.write"
	PermPaymentRead          PermissionName = "payment.read"
	PermPaymentWrite         PermissionName = "payment.write"
	PermAttendanceRead       PermissionName = "attendance.read"
	PermAttendanceWrite      PermissionName = "attendance.write"
	PermRBACManage           PermissionName = "rbac.manage"
)

var AllPermissions = []PermissionName{
	PermAcademyCreate, PermAcademyRead, PermAcademyUpdate, PermAcademyDelete, PermAcademyMembersManage,
	PermStudentRead, PermStudentWrite,
	PermTeacherRead, PermTeacherWrite,
	PermClassRead, PermClassWrite,
	PermCourseRead, PermCourseWrite,
	PermExamRead, PermExamWrite,
	PermFeeRead, PermFeeWrite,
	PermPaymentRead, PermPaymentWrite,
	PermAttendanceRead, PermAttendanceWrite,
	PermRBACManage,
}

func ParsePermission(s string) (PermissionName, error) {
	for _, p := range AllPermissions {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// DefaultRolePermissions seeds role_permissions on first migrate. Later edits
// through the rbac endpoints are kept; seeding never removes rows.
var DefaultRolePermissions = map[Role][]PermissionName{
	RoleUser: {},
	RoleAdmin: {
		PermAcademyCreate, PermAcademyRead, PermAcademyUpdate, PermAcademyDelete, PermAcademyMembersManage,
		PermStudentRead, PermStudentWrite,
		PermTeacherRead, PermTeacherWrite,
		PermClassRead, PermClassWrite,
		PermCourseRead, PermCourseWrite,
		PermExamRead, PermExamWrite,
		PermFeeRead, PermFeeWrite,
		PermPaymentRead, PermPaymentWrite,
		PermAttendanceRead, PermAttendanceWrite,
	},
	RoleTeacher: {
		PermAcademyRead,
		PermStudentRead, PermTeacherRead, PermClassRead, PermCourseRead,
		PermExamRead, PermExamWrite,
		PermAttendanceRead, PermAttendanceWrite,
	},
	RoleStudent: {
		PermAcademyRead, PermClassRead, PermCourseRead, PermExamRead,
	},
	RoleSuperAdmin: {},
}

type AcademyStatus string

const (
	AcademyStatusActive   AcademyStatus = "active"
	AcademyStatusInactive AcademyStatus = "inactive"
	AcademyStatusPending  AcademyStatus = "pending"
)

type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
	StudentStatusSuspended StudentStatus = "suspended"
)

type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "active"
	TeacherStatusInactive TeacherStatus = "inactive"
	TeacherStatusOnLeave  TeacherStatus = "on_leave"
)

type FeeFrequency string

const (
	FeeFrequencyOneTime   FeeFrequency = "one_time"
	FeeFrequencyMonthly   FeeFrequency = "monthly"
	FeeFrequencyQuarterly FeeFrequency = "quarterly"
	FeeFrequencyTermly    FeeFrequency = "termly"
	FeeFrequencyYearly    FeeFrequency = "yearly"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodOnline       PaymentMethod = "online"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// PermissionSet is the effective set of permissions of a user in one scope.
type PermissionSet map[PermissionName]struct{}

func NewPermissionSet(names ...PermissionName) PermissionSet {
	s := make(PermissionSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(name PermissionName) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in AllPermissions order.
func (s PermissionSet) Sorted() []PermissionName {
	out := make([]PermissionName, 0, len(s))
	for _, p := range AllPermissions {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}
