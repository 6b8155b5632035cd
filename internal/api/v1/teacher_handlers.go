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

type TeacherHandler struct {
	store *store.Store
}

func NewTeacherHandler(s serviceStore) *TeacherHandler {
	return &TeacherHandler{store: s.Store}
}

type teacherReq struct {
	UserID         *string               `json:"userId" validate:"omitempty,min=1"`
	FullName       *string               `json:"fullName" validate:"omitempty,min=1,max=200"`
	Email          *string               `json:"email" validate:"omitempty,email"`
	Phone          *string               `json:"phone" validate:"omitempty,max=32"`
	Specialization *string               `json:"specialization" validate:"omitempty,max=200"`
	Qualification  *string               `json:"qualification" validate:"omitempty,max=200"`
	HireDate       *string               `json:"hireDate"`
	Status         *models.TeacherStatus `json:"status" validate:"omitempty,teacherstatus"`
}

func (req teacherReq) fields() (map[string]interface{}, error) {
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
	if req.Specialization != nil {
		f["specialization"] = *req.Specialization
	}
	if req.Qualification != nil {
		f["qualification"] = *req.Qualification
	}
	if req.Status != nil {
		f["status"] = *req.Status
	}
	if req.HireDate != nil {
		d, err := optionalDate("hireDate", *req.HireDate)
		if err != nil {
			return nil, err
		}
		f["hire_date"] = d
	}
	return f, nil
}

// POST /teachers
func (h *TeacherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req teacherReq
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
	t := &models.Teacher{
		AcademyID: auth.AcademyIDFromCtx(r.Context()),
		UserID:    req.UserID,
		FullName:  f["full_name"].(string),
		Status:    models.TeacherStatusActive,
	}
	if v, ok := f["email"].(string); ok {
		t.Email = v
	}
	if req.Phone != nil {
		t.Phone = *req.Phone
	}
	if req.Specialization != nil {
		t.Specialization = *req.Specialization
	}
	if req.Qualification != nil {
		t.Qualification = *req.Qualification
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if d, ok := f["hire_date"]; ok {
		t.HireDate = d.(*time.Time)
	}
	if err := h.store.CreateTeacher(r.Context(), t); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "teacher created", t)
}

// GET /teachers/{id}
func (h *TeacherHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.store.GetTeacher(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", t)
}

// PUT /teachers/{id}
func (h *TeacherHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req teacherReq
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
	t, err := h.store.UpdateTeacherFields(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "teacher updated", t)
}

// DELETE /teachers/{id}
func (h *TeacherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteTeacher(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "teacher deleted", nil)
}

// GET /teachers?search=&status=&specialization=
func (h *TeacherHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.TeacherFilter{ListParams: p}
	if s := queryString(r, "specialization"); s != nil {
		f.Specialization = *s
	}
	if s := queryString(r, "status"); s != nil {
		if err := validation.Var("status", *s, "teacherstatus"); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		st := models.TeacherStatus(*s)
		f.Status = &st
	}
	list, err := h.store.ListTeachers(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// GET /teachers/{id}/students
func (h *TeacherHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListTeacherStudents(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /teachers/{id}/students/{studentId}
func (h *TeacherHandler) AssignStudent(w http.ResponseWriter, r *http.Request) {
	id, studentID, err := pathIDs(r, "studentId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.AssignTeacherStudent(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, studentID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "student assigned", nil)
}

// DELETE /teachers/{id}/students/{studentId}
func (h *TeacherHandler) UnassignStudent(w http.ResponseWriter, r *http.Request) {
	id, studentID, err := pathIDs(r, "studentId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.UnassignTeacherStudent(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, studentID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "student unassigned", nil)
}
