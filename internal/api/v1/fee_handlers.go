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

type FeeHandler struct {
	store *store.Store
}

func NewFeeHandler(s serviceStore) *FeeHandler {
	return &FeeHandler{store: s.Store}
}

/* ------------------ Fee structures ------------------ */

type feeStructureReq struct {
	Name        *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Amount      *float64             `json:"amount" validate:"omitempty,gt=0"`
	Frequency   *models.FeeFrequency `json:"frequency" validate:"omitempty,feefrequency"`
	ClassID     *uint                `json:"classId"`
	DueDay      *int                 `json:"dueDay" validate:"omitempty,min=1,max=31"`
	Description *string              `json:"description" validate:"omitempty,max=5000"`
}

func (req feeStructureReq) fields() (map[string]interface{}, error) {
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
	if req.Amount != nil {
		f["amount"] = utils.RoundCents(*req.Amount)
	}
	if req.Frequency != nil {
		f["frequency"] = *req.Frequency
	}
	if req.ClassID != nil {
		if *req.ClassID == 0 {
			f["class_id"] = (*uint)(nil)
		} else {
			f["class_id"] = req.ClassID
		}
	}
	if req.DueDay != nil {
		f["due_day"] = *req.DueDay
	}
	if req.Description != nil {
		f["description"] = *req.Description
	}
	return f, nil
}

// POST /fee-structures
func (h *FeeHandler) CreateStructure(w http.ResponseWriter, r *http.Request) {
	var req feeStructureReq
	if !decodeJSON(w, r, &req) {
		return
	}
	var missing []apperrors.FieldError
	if req.Name == nil {
		missing = append(missing, apperrors.FieldError{Field: "name", Message: "name is required"})
	}
	if req.Amount == nil {
		missing = append(missing, apperrors.FieldError{Field: "amount", Message: "amount is required"})
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
	fs := &models.FeeStructure{
		AcademyID: auth.AcademyIDFromCtx(r.Context()),
		Name:      f["name"].(string),
		Amount:    f["amount"].(float64),
		Frequency: models.FeeFrequencyOneTime,
	}
	if req.Frequency != nil {
		fs.Frequency = *req.Frequency
	}
	if req.ClassID != nil && *req.ClassID != 0 {
		fs.ClassID = req.ClassID
	}
	if req.DueDay != nil {
		fs.DueDay = *req.DueDay
	}
	if req.Description != nil {
		fs.Description = *req.Description
	}
	if err := h.store.CreateFeeStructure(r.Context(), fs); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "fee structure created", fs)
}

// GET /fee-structures/{id}
func (h *FeeHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	fs, err := h.store.GetFeeStructure(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", fs)
}

// PUT /fee-structures/{id}
func (h *FeeHandler) UpdateStructure(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req feeStructureReq
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
	fs, err := h.store.UpdateFeeStructureFields(r.Context(), auth.AcademyIDFromCtx(r.Context()), id, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "fee structure updated", fs)
}

// DELETE /fee-structures/{id}
func (h *FeeHandler) DeleteStructure(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeleteFeeStructure(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "fee structure deleted", nil)
}

// GET /fee-structures?search=&classId=&frequency=
func (h *FeeHandler) ListStructures(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.FeeStructureFilter{ListParams: p}
	if f.ClassID, err = queryUint(r, "classId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if s := queryString(r, "frequency"); s != nil {
		if err := validation.Var("frequency", *s, "feefrequency"); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		fr := models.FeeFrequency(*s)
		f.Frequency = &fr
	}
	list, err := h.store.ListFeeStructures(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

/* ------------------ Payments ------------------ */

// POST /payments
func (h *FeeHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID      uint                 `json:"studentId" validate:"required"`
		FeeStructureID *uint                `json:"feeStructureId" validate:"omitempty,gt=0"`
		Amount         float64              `json:"amount" validate:"gt=0"`
		Method         models.PaymentMethod `json:"method" validate:"required,paymentmethod"`
		Reference      string               `json:"reference" validate:"max=200"`
		PaidAt         string               `json:"paidAt"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx := r.Context()
	p := &models.FeePayment{
		AcademyID:      auth.AcademyIDFromCtx(ctx),
		StudentID:      req.StudentID,
		FeeStructureID: req.FeeStructureID,
		Amount:         req.Amount,
		Method:         req.Method,
		Reference:      strings.TrimSpace(req.Reference),
		RecordedBy:     auth.GetUserFromCtx(ctx).ID,
	}
	if req.PaidAt != "" {
		t, err := parseDateFlexible(req.PaidAt)
		if err != nil {
			utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{Field: "paidAt", Message: "paidAt must be a date or RFC3339 time"}))
			return
		}
		p.PaidAt = t.UTC()
	}
	if err := h.store.CreatePayment(ctx, p); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "payment recorded", p)
}

// GET /payments/{id}
func (h *FeeHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.store.GetPayment(r.Context(), auth.AcademyIDFromCtx(r.Context()), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", p)
}

// DELETE /payments/{id}
func (h *FeeHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.DeletePayment(r.Context(), auth.AcademyIDFromCtx(r.Context()), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "payment deleted", nil)
}

// GET /payments?studentId=&feeStructureId=&method=&from=&to=
// from and to are inclusive days.
func (h *FeeHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.PaymentFilter{ListParams: p}
	if f.StudentID, err = queryUint(r, "studentId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if f.FeeStructureID, err = queryUint(r, "feeStructureId"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if s := queryString(r, "method"); s != nil {
		if err := validation.Var("method", *s, "paymentmethod"); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		m := models.PaymentMethod(*s)
		f.Method = &m
	}
	if f.From, err = optionalDate("from", r.URL.Query().Get("from")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	to, err := optionalDate("to", r.URL.Query().Get("to"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		f.To = &end
	}
	list, err := h.store.ListPayments(r.Context(), auth.AcademyIDFromCtx(r.Context()), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}
