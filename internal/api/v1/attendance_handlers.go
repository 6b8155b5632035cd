package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type AttendanceHandler struct {
	store *store.Store
}

func NewAttendanceHandler(s serviceStore) *AttendanceHandler {
	return &AttendanceHandler{store: s.Store}
}

type attendanceEntry struct {
	StudentID uint                    `json:"studentId" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required,attendancestatus"`
	Remarks   string                  `json:"remarks" validate:"max=1000"`
}

// POST /attendance
//
// Accepts a single record ({studentId, status}) or a roll call
// ({records: [{studentId, status}]}) for one date and optional class.
// Re-submitting a slot replaces the earlier record.
func (h *AttendanceHandler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date    string            `json:"date" validate:"required"`
		ClassID *uint             `json:"classId" validate:"omitempty,gt=0"`
		Records []attendanceEntry `json:"records" validate:"omitempty,dive"`

		StudentID uint                    `json:"studentId"`
		Status    models.AttendanceStatus `json:"status"`
		Remarks   string                  `json:"remarks"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Records) == 0 {
		req.Records = []attendanceEntry{{StudentID: req.StudentID, Status: req.Status, Remarks: req.Remarks}}
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx := r.Context()
	current := auth.GetUserFromCtx(ctx)
	records := make([]*models.Attendance, 0, len(req.Records))
	seen := make(map[uint]bool, len(req.Records))
	for _, e := range req.Records {
		if seen[e.StudentID] {
			utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{
				Field: "records", Message: "student " + strconv.FormatUint(uint64(e.StudentID), 10) + " appears more than once",
			}))
			return
		}
		seen[e.StudentID] = true
		records = append(records, &models.Attendance{
			StudentID:  e.StudentID,
			ClassID:    req.ClassID,
			Date:       *date,
			Status:     e.Status,
			Remarks:    e.Remarks,
			RecordedBy: current.ID,
		})
	}
	if err := h.store.UpsertAttendance(ctx, auth.AcademyIDFromCtx(ctx), records); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if len(records) == 1 {
		writeCreated(w, "attendance recorded", records[0])
		return
	}
	writeCreated(w, "attendance recorded", records)
}

// attendanceFilter reads the date range plus equality filters. The range is
// from..to inclusive, or month/year; it defaults to the current month.
func attendanceFilter(r *http.Request) (store.AttendanceListFilter, error) {
	var f store.AttendanceListFilter
	q := r.URL.Query()

	from, err := optionalDate("from", q.Get("from"))
	if err != nil {
		return f, err
	}
	to, err := optionalDate("to", q.Get("to"))
	if err != nil {
		return f, err
	}
	switch {
	case from != nil || to != nil:
		if from == nil || to == nil {
			return f, apperrors.BadRequest("from and to must be given together")
		}
		if to.Before(*from) {
			return f, apperrors.BadRequest("to is before from")
		}
		f.StartDate, f.EndDate = *from, to.AddDate(0, 0, 1)
	case q.Get("month") != "" || q.Get("year") != "":
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil || month < 1 || month > 12 {
			return f, apperrors.BadRequest("invalid month")
		}
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil || year < 1970 || year > 2100 {
			return f, apperrors.BadRequest("invalid year")
		}
		f.StartDate = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		f.EndDate = f.StartDate.AddDate(0, 1, 0)
	default:
		now := time.Now().UTC()
		f.StartDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		f.EndDate = f.StartDate.AddDate(0, 1, 0)
	}

	if f.StudentID, err = queryUint(r, "studentId"); err != nil {
		return f, err
	}
	if f.ClassID, err = queryUint(r, "classId"); err != nil {
		return f, err
	}
	if s := queryString(r, "status"); s != nil {
		if err := validation.Var("status", *s, "attendancestatus"); err != nil {
			return f, err
		}
		st := models.AttendanceStatus(*s)
		f.Status = &st
	}
	p, err := listParams(r)
	if err != nil {
		return f, err
	}
	f.Limit, f.Offset = p.Limit, p.Offset
	return f, nil
}

// GET /attendance?from=&to=&month=&year=&studentId=&classId=&status=
func (h *AttendanceHandler) ListAttendances(w http.ResponseWriter, r *http.Request) {
	f, err := attendanceFilter(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	out, err := h.store.ListAttendances(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", out)
}

// GET /attendance/summary takes the same filters as the list.
func (h *AttendanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	f, err := attendanceFilter(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	out, err := h.store.SummarizeAttendance(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", map[string]interface{}{
		"from":     f.StartDate.Format("2006-01-02"),
		"to":       f.EndDate.AddDate(0, 0, -1).Format("2006-01-02"),
		"students": out,
	})
}

// GET /attendance/{id}
func (h *AttendanceHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	a, err := h.store.GetAttendanceByID(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", a)
}

// PATCH /attendance/{id}
func (h *AttendanceHandler) UpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req struct {
		Status  *models.AttendanceStatus `json:"status" validate:"omitempty,attendancestatus"`
		Remarks *string                  `json:"remarks" validate:"omitempty,max=1000"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx := r.Context()
	updates := map[string]interface{}{"recorded_by": auth.GetUserFromCtx(ctx).ID}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Remarks != nil {
		updates["remarks"] = *req.Remarks
	}
	if len(updates) == 1 {
		utils.WriteError(w, r, apperrors.BadRequest("no fields to update"))
		return
	}
	a, err := h.store.UpdateAttendanceByID(ctx, auth.AcademyIDFromCtx(ctx), id, updates)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "attendance updated", a)
}

// DELETE /attendance/{id}
func (h *AttendanceHandler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteAttendanceByID(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "attendance deleted", nil)
}
