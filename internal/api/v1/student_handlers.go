package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type StudentHandler struct {
	store *store.Store
}

func NewStudentHandler(s serviceStore) *StudentHandler {
	return &StudentHandler{store: s.Store}
}

type studentReq struct {
	UserID         *string               `json:"userId" validate:"omitempty,min=1"`
	FullName       *string               `json:"fullName" validate:"omitempty,min=1,max=200"`
	Email          *string               `json:"email" validate:"omitempty,email"`
	Phone          *string               `json:"phone" validate:"omitempty,max=32"`
	Gender         *string               `json:"gender" validate:"omitempty,max=32"`
	DateOfBirth    *string               `json:"dateOfBirth"`
	GuardianName   *string               `json:"guardianName" validate:"omitempty,max=200"`
	GuardianPhone  *string               `json:"guardianPhone" validate:"omitempty,max=32"`
	Address        *string               `json:"address" validate:"omitempty,max=500"`
	EnrollmentDate *string               `json:"enrollmentDate"`
	Status         *models.StudentStatus `json:"status" validate:"omitempty,studentstatus"`
}

// fields converts the set members of req into column updates.
func (req studentReq) fields() (map[string]interface{}, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	f := map[string]interface{}{}
	if req.UserID != nil {
		f["user_id"] = *req.UserID
	}
	if req.FullName != nil {
		f["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		f["email"] = utils.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		f["phone"] = *req.Phone
	}
	if req.Gender != nil {
		f["gender"] = *req.Gender
	}
	if req.GuardianName != nil {
		f["guardian_name"] = *req.GuardianName
	}
	if req.GuardianPhone != nil {
		f["guardian_phone"] = *req.GuardianPhone
	}
	if req.Address != nil {
		f["address"] = *req.Address
	}
	if req.Status != nil {
		f["status"] = *req.Status
	}
	if req.DateOfBirth != nil {
		d, err := optionalDate("dateOfBirth", *req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		f["date_of_birth"] = d
	}
	if req.EnrollmentDate != nil {
		d, err := optionalDate("enrollmentDate", *req.EnrollmentDate)
		if err != nil {
			return nil, err
		}
		f["enrollment_date"] = d
	}
	return f, nil
}

// POST /students
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req studentReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FullName == nil || strings.TrimSpace(*req.FullName) == "" {
		utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{Field: "fullName", Message: "fullName is required"}))
		return
	}
	f, err := req.fields()
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	st := &models.Student{
		AcademyID: auth.AcademyIDFromCtx(r.Context()),
		UserID:    req.UserID,
		FullName:  f["full_name"].(string),
		Status:    models.StudentStatusActive,
	}
	if v, ok := f["email"].(string); ok {
		st.Email = v
	}
	if req.Phone != nil {
		st.Phone = *req.Phone
	}
	if req.Gender != nil {
		st.Gender = *req.Gender
	}
	if req.GuardianName != nil {
		st.GuardianName = *req.GuardianName
	}
	if req.GuardianPhone != nil {
		st.GuardianPhone = *req.GuardianPhone
	}
	if req.Address != nil {
		st.Address = *req.Address
	}
	if req.Status != nil {
		st.Status = *req.Status
	}
	if d, ok := f["date_of_birth"]; ok {
		st.DateOfBirth = d.(*time.Time)
	}
	if d, ok := f["enrollment_date"]; ok {
		st.EnrollmentDate = d.(*time.Time)
	}
	if err := h.store.CreateStudent(r.Context(), st); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "student created", st)
}

// GET /students/{id}
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	st, err := h.store.GetStudent(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", st)
}

// PUT /students/{id} applies the fields present in the body.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req studentReq
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := req.fields()
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if name, ok := f["full_name"]; ok && name == "" {
		utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{Field: "fullName", Message: "fullName cannot be empty"}))
		return
	}
	if len(f) == 0 {
		utils.WriteError(w, r, apperrors.BadRequest("no fields to update"))
		return
	}
	st, err := h.store.UpdateStudentFields(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "student updated", st)
}

// DELETE /students/{id}
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteStudent(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "student deleted", nil)
}

// GET /students?search=&status=&classId=&courseId=&userId=
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.StudentFilter{ListParams: p, UserID: queryString(r, "userId")}
	if s := queryString(r, "status"); s != nil {
		if err := validation.Var("status", *s, "studentstatus"); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		st := models.StudentStatus(*s)
		f.Status = &st
	}
	if f.ClassID, err = queryUint(r, "classId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if f.CourseID, err = queryUint(r, "courseId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListStudents(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// GET /students/{id}/balance
func (h *StudentHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	b, err := h.store.StudentBalance(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", b)
}
