package v1

import (
	"net/http"
	"strings"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type ClassHandler struct {
	store *store.Store
}

func NewClassHandler(s serviceStore) *ClassHandler {
	return &ClassHandler{store: s.Store}
}

type classReq struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Grade    *string `json:"grade" validate:"omitempty,max=64"`
	Section  *string `json:"section" validate:"omitempty,max=64"`
	Room     *string `json:"room" validate:"omitempty,max=64"`
	Capacity *int    `json:"capacity" validate:"omitempty,gte=0"`
}

func (req classReq) fields() (map[string]interface{}, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	f := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "name", Message: "name cannot be empty"})
		}
		f["name"] = name
	}
	if req.Grade != nil {
		f["grade"] = *req.Grade
	}
	if req.Section != nil {
		f["section"] = *req.Section
	}
	if req.Room != nil {
		f["room"] = *req.Room
	}
	if req.Capacity != nil {
		f["capacity"] = *req.Capacity
	}
	return f, nil
}

// POST /classes
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req classReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil {
		utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{Field: "name", Message: "name is required"}))
		return
	}
	f, err := req.fields()
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c := &models.Class{AcademyID: auth.AcademyIDFromCtx(r.Context()), Name: f["name"].(string)}
	if req.Grade != nil {
		c.Grade = *req.Grade
	}
	if req.Section != nil {
		c.Section = *req.Section
	}
	if req.Room != nil {
		c.Room = *req.Room
	}
	if req.Capacity != nil {
		c.Capacity = *req.Capacity
	}
	if err := h.store.CreateClass(r.Context(), c); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "class created", c)
}

// GET /classes/{id}
func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.store.GetClass(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", c)
}

// PUT /classes/{id}
func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req classReq
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := req.fields()
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if len(f) == 0 {
		utils.WriteError(w, r, apperrors.BadRequest("no fields to update"))
		return
	}
	c, err := h.store.UpdateClassFields(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "class updated", c)
}

// DELETE /classes/{id}
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteClass(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "class deleted", nil)
}

// GET /classes?search=&grade=&section=
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.ClassFilter{ListParams: p}
	if s := queryString(r, "grade"); s != nil {
		f.Grade = *s
	}
	if s := queryString(r, "section"); s != nil {
		f.Section = *s
	}
	list, err := h.store.ListClasses(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// GET /classes/{id}/students
func (h *ClassHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListClassStudents(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /classes/{id}/students with {"ids": [...]}
func (h *ClassHandler) AddStudents(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req idsBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.AddClassStudents(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, req.IDs...); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "students added", nil)
}

// DELETE /classes/{id}/students/{studentId}
func (h *ClassHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	id, studentID, err := pathIDs(r, "studentId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.RemoveClassStudent(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, studentID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "student removed", nil)
}

// GET /classes/{id}/teachers
func (h *ClassHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListClassTeachers(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /classes/{id}/teachers/{teacherId}
func (h *ClassHandler) AddTeacher(w http.ResponseWriter, r *http.Request) {
	id, teacherID, err := pathIDs(r, "teacherId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.AddClassTeacher(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, teacherID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "teacher added", nil)
}

// DELETE /classes/{id}/teachers/{teacherId}
func (h *ClassHandler) RemoveTeacher(w http.ResponseWriter, r *http.Request) {
	id, teacherID, err := pathIDs(r, "teacherId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.RemoveClassTeacher(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, teacherID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "teacher removed", nil)
}
