package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type UserHandler struct {
	store *store.Store
	users *service.UserService
}

func NewUserHandler(s serviceStore, users *service.UserService) *UserHandler {
	return &UserHandler{store: s.Store, users: users}
}

// GET /users/me
func (h *UserHandler) GetSelfProfile(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	writeOK(w, "", map[string]interface{}{
		"user":       sess.User,
		"academyId":  sess.AcademyID,
		"membership": sess.Membership,
	})
}

// PUT /users/me
func (h *UserHandler) UpdateSelf(w http.ResponseWriter, r *http.Request) {
	current := auth.GetUserFromCtx(r.Context())
	var req service.UpdateProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), current.ID, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "profile updated", u)
}

// GET /users?search=&role=&active=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := listParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	f := store.UserListFilter{ListParams: p}
	if role := queryString(r, "role"); role != nil {
		if err := validation.Var("role", *role, "role"); err != nil {
			utils.WriteError(w, r, err)
			return
		}
		rl := models.Role(*role)
		f.Role = &rl
	}
	if f.Active, err = queryBool(r, "active"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	users, err := h.store.ListUsers(r.Context(), f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", users)
}

// GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUserByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	academies, err := h.store.ListAcademiesForUser(r.Context(), u.ID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", map[string]interface{}{"user": u, "academies": academies})
}

// PATCH /users/{id}/role
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.ChangeRole(r.Context(), auth.GetUserFromCtx(r.Context()), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "role updated", u)
}

// PATCH /users/{id}/active
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Active *bool `json:"active" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	u, err := h.users.SetActive(r.Context(), auth.GetUserFromCtx(r.Context()), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "account updated", u)
}
