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

type CourseHandler struct {
	store *store.Store
}

func NewCourseHandler(s serviceStore) *CourseHandler {
	return &CourseHandler{store: s.Store}
}

type courseReq struct {
	Code        *string `json:"code" validate:"omitempty,min=1,max=32"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Credits     *int    `json:"credits" validate:"omitempty,gte=0"`
	// 0 detaches the course from its class
	ClassID *uint `json:"classId"`
}

func (req courseReq) fields() (map[string]interface{}, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	f := map[string]interface{}{}
	for col, v := range map[string]*string{"code": req.Code, "name": req.Name} {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return nil, apperrors.NewValidationError(apperrors.FieldError{Field: col, Message: col + " cannot be empty"})
		}
		f[col] = s
	}
	if req.Description != nil {
		f["description"] = *req.Description
	}
	if req.Credits != nil {
		f["credits"] = *req.Credits
	}
	if req.ClassID != nil {
		if *req.ClassID == 0 {
			f["class_id"] = (*uint)(nil)
		} else {
			f["class_id"] = req.ClassID
		}
	}
	return f, nil
}

// POST /courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseReq
	if !decodeJSON(w, r, &req) {
		return
	}
	var missing []apperrors.FieldError
	if req.Code == nil {
		missing = append(missing, apperrors.FieldError{Field: "code", Message: "code is required"})
	}
	if req.Name == nil {
		missing = append(missing, apperrors.FieldError{Field: "name", Message: "name is required"})
	}
	if len(missing) > 0 {
		utils.WriteError(w, r, apperrors.NewValidationError(missing...))
		return
	}
	f, err := req.fields()
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c := &models.Course{
		AcademyID: auth.AcademyIDFromCtx(r.Context()),
		Code:      f["code"].(string),
		Name:      f["name"].(string),
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Credits != nil {
		c.Credits = *req.Credits
	}
	if req.ClassID != nil && *req.ClassID != 0 {
		c.ClassID = req.ClassID
	}
	if err := h.store.CreateCourse(r.Context(), c); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "course created", c)
}

// GET /courses/{id}
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.store.GetCourse(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", c)
}

// PUT /courses/{id}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req courseReq
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
	c, err := h.store.UpdateCourseFields(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "course updated", c)
}

// DELETE /courses/{id}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteCourse(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "course deleted", nil)
}

// GET /courses?search=&classId=
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.CourseFilter{ListParams: p}
	if f.ClassID, err = queryUint(r, "classId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListCourses(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// GET /courses/{id}/students
func (h *CourseHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListCourseStudents(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /courses/{id}/students with {"ids": [...]}
func (h *CourseHandler) EnrollStudents(w http.ResponseWriter, r *http.Request) {
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
	if err := h.store.EnrollCourseStudents(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, req.IDs...); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "students enrolled", nil)
}

// DELETE /courses/{id}/students/{studentId}
func (h *CourseHandler) UnenrollStudent(w http.ResponseWriter, r *http.Request) {
	id, studentID, err := pathIDs(r, "studentId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.UnenrollCourseStudent(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, studentID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "student unenrolled", nil)
}

// GET /courses/{id}/teachers
func (h *CourseHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListCourseTeachers(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /courses/{id}/teachers/{teacherId}
func (h *CourseHandler) AddTeacher(w http.ResponseWriter, r *http.Request) {
	id, teacherID, err := pathIDs(r, "teacherId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.AddCourseTeacher(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, teacherID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "teacher added", nil)
}

// DELETE /courses/{id}/teachers/{teacherId}
func (h *CourseHandler) RemoveTeacher(w http.ResponseWriter, r *http.Request) {
	id, teacherID, err := pathIDs(r, "teacherId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.RemoveCourseTeacher(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, teacherID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "teacher removed", nil)
}

// GET /courses/{id}/fee-structures
func (h *CourseHandler) ListFeeStructures(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListCourseFeeStructures(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /courses/{id}/fee-structures/{feeStructureId}
func (h *CourseHandler) LinkFeeStructure(w http.ResponseWriter, r *http.Request) {
	id, feeID, err := pathIDs(r, "feeStructureId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.LinkCourseFeeStructure(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, feeID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "fee structure linked", nil)
}

// DELETE /courses/{id}/fee-structures/{feeStructureId}
func (h *CourseHandler) UnlinkFeeStructure(w http.ResponseWriter, r *http.Request) {
	id, feeID, err := pathIDs(r, "feeStructureId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.UnlinkCourseFeeStructure(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, feeID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "fee structure unlinked", nil)
}
