package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

const maxLogoBytes = 5 << 20

type AcademyHandler struct {
	store     *store.Store
	academies *service.AcademyService
}

func NewAcademyHandler(s serviceStore, academies *service.AcademyService) *AcademyHandler {
	return &AcademyHandler{store: s.Store, academies: academies}
}

// GET /academies/user lists the caller's memberships, most recently used first.
func (h *AcademyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	list, err := h.store.ListAcademiesForUser(r.Context(), current.ID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// GET /academies?status=&search=
func (h *AcademyHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var status *models.AcademyStatus
	if s := queryString(r, "status"); s != nil {
		if err := validation.Var("status", *s, "academystatus"); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		st := models.AcademyStatus(*s)
		status = &st
	}
	list, err := h.store.ListAcademies(r.Context(), p, status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", list)
}

// POST /academies/switch/{id} and POST /academies/switch
func (h *AcademyHandler) Switch(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	tok, err := h.academies.SwitchAcademy(r.Context(), current, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "academy switched", tok)
}

// POST /academies
func (h *AcademyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateAcademyInput
	if !decodeJSON(w, r, &req) {
		return
	}
	academy, err := h.academies.CreateAcademy(r.Context(), auth.GetUserFromCtx(r.Context()), req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "academy created", academy)
}

// GET /academies/{id}
func (h *AcademyHandler) Get(w http.ResponseWriter, r *http.Request) {
	academy, err := h.store.GetAcademy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", h.academies.View(r.Context(), academy))
}

// PUT /academies/{id}
func (h *AcademyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateAcademyInput
	if !decodeJSON(w, r, &req) {
		return
	}
	academy, err := h.academies.UpdateAcademy(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "academy updated", h.academies.View(r.Context(), academy))
}

// DELETE /academies/{id}
func (h *AcademyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.academies.DeleteAcademy(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "academy deleted", nil)
}

// POST /academies/{id}/logo takes a multipart "file" field.
func (h *AcademyHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+1024)
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		utils.WriteError(w, r, apperrors.BadRequest("logo must be a multipart upload of at most 5MB"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, r, apperrors.BadRequest("file is required"))
		return
	}
	defer file.Close()

	view, err := h.academies.SetLogo(r.Context(), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "logo uploaded", view)
}

// DELETE /academies/{id}/logo
func (h *AcademyHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.academies.RemoveLogo(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "logo removed", nil)
}

// GET /academies/{id}/members
func (h *AcademyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", members)
}

// POST /academies/{id}/members adds or re-roles a member.
func (h *AcademyHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req service.AddMemberInput
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.academies.AddMember(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "member saved", m)
}

// DELETE /academies/{id}/members/{userId}
func (h *AcademyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "member removed", nil)
}
