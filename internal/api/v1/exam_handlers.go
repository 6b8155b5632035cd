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

type ExamHandler struct {
	store *store.Store
}

func NewExamHandler(s serviceStore) *ExamHandler {
	return &ExamHandler{store: s.Store}
}

// POST /exams
func (h *ExamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID     uint    `json:"courseId" validate:"required"`
		Title        string  `json:"title" validate:"required,max=200"`
		ExamDate     string  `json:"examDate" validate:"required"`
		TotalMarks   float64 `json:"totalMarks" validate:"gt=0"`
		PassingMarks float64 `json:"passingMarks" validate:"gte=0,ltefield=TotalMarks"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	date, err := optionalDate("examDate", req.ExamDate)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	e := &models.Exam{
		AcademyID:    auth.AcademyIDFromCtx(r.Context()),
		CourseID:     req.CourseID,
		Title:        req.Title,
		ExamDate:     *date,
		TotalMarks:   req.TotalMarks,
		PassingMarks: req.PassingMarks,
	}
	if err := h.store.CreateExam(r.Context(), e); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "exam created", e)
}

// GET /exams/{id}
func (h *ExamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	e, err := h.store.GetExam(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", e)
}

// PUT /exams/{id}
func (h *ExamHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req struct {
		CourseID     *uint    `json:"courseId" validate:"omitempty,gt=0"`
		Title        *string  `json:"title" validate:"omitempty,min=1,max=200"`
		ExamDate     *string  `json:"examDate"`
		TotalMarks   *float64 `json:"totalMarks" validate:"omitempty,gt=0"`
		PassingMarks *float64 `json:"passingMarks" validate:"omitempty,gte=0"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := map[string]interface{}{}
	if req.CourseID != nil {
		f["course_id"] = *req.CourseID
	}
	if req.Title != nil {
		f["title"] = strings.TrimSpace(*req.Title)
	}
	if req.ExamDate != nil {
		d, err := optionalDate("examDate", *req.ExamDate)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		if d == nil {
			utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{Field: "examDate", Message: "examDate cannot be empty"}))
			return
		}
		f["exam_date"] = *d
	}
	if req.TotalMarks != nil {
		f["total_marks"] = *req.TotalMarks
	}
	if req.PassingMarks != nil {
		f["passing_marks"] = *req.PassingMarks
	}
	if len(f) == 0 {
		utils.WriteError(w, r, apperrors.BadRequest("no fields to update"))
		return
	}
	e, err := h.store.UpdateExamFields(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "exam updated", e)
}

// DELETE /exams/{id}
func (h *ExamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteExam(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "exam deleted", nil)
}

// GET /exams?courseId=&from=&to=&search=
func (h *ExamHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.ExamFilter{ListParams: p}
	if f.CourseID, err = queryUint(r, "courseId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if f.From, err = optionalDate("from", r.URL.Query().Get("from")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if f.To, err = optionalDate("to", r.URL.Query().Get("to")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListExams(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// GET /exams/{id}/results
func (h *ExamHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.store.ListExamResults(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /exams/{id}/results records marks for several students at once.
func (h *ExamHandler) RecordResults(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req struct {
		Results []struct {
			StudentID uint     `json:"studentId" validate:"required"`
			Marks     *float64 `json:"marks" validate:"required"`
			Remarks   string   `json:"remarks" validate:"max=1000"`
		} `json:"results" validate:"required,min=1,dive"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	in := make([]store.ResultInput, 0, len(req.Results))
	for _, res := range req.Results {
		in = append(in, store.ResultInput{StudentID: res.StudentID, Marks: *res.Marks, Remarks: res.Remarks})
	}
	out, err := h.store.RecordExamResults(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "results recorded", out)
}

// DELETE /exams/{id}/results/{studentId}
func (h *ExamHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id, studentID, err := pathIDs(r, "studentId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteExamResult(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, studentID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "result deleted", nil)
}
