package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/auth"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
	"github.com/madhava-poojari/academy-api/internal/validation"
)

type RBACHandler struct {
	store *store.Store
}

func NewRBACHandler(s serviceStore) *RBACHandler {
	return &RBACHandler{store: s.Store}
}

// GET /rbac/roles
func (h *RBACHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", roles)
}

// GET /rbac/permissions
func (h *RBACHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.store.ListPermissions(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", perms)
}

func rolePermParams(r *http.Request) (models.Role, models.PermissionName, error) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", "", apperrors.NewValidationError(apperrors.FieldError{Field: "role", Message: err.Error()})
	}
	perm, err := models.ParsePermission(chi.URLParam(r, "permission"))
	if err != nil {
		return "", "", apperrors.NewValidationError(apperrors.FieldError{Field: "permission", Message: err.Error()})
	}
	return role, perm, nil
}

// POST /rbac/roles/{role}/permissions/{permission}
func (h *RBACHandler) GrantRolePermission(w http.ResponseWriter, r *http.Request) {
	role, perm, err := rolePermParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.GrantRolePermission(r.Context(), role, perm); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "permission granted", nil)
}

// DELETE /rbac/roles/{role}/permissions/{permission}
func (h *RBACHandler) RevokeRolePermission(w http.ResponseWriter, r *http.Request) {
	role, perm, err := rolePermParams(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.RevokeRolePermission(r.Context(), role, perm); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "permission revoked", nil)
}

// POST /rbac/users/{id}/permissions
//
// A grant scoped to an academy only adds to an existing membership there, so
// the user must already be a member of that academy.
func (h *RBACHandler) GrantUserPermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Permission string  `json:"permission" validate:"required,permission"`
		AcademyID  *string `json:"academyId" validate:"omitempty,min=1"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx := r.Context()
	if req.AcademyID != nil {
		ok, err := h.store.AcademyExists(ctx, *req.AcademyID)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		if !ok {
			utils.WriteError(w, r, apperrors.NotFound("academy not found"))
			return
		}
		if _, err := h.store.GetMembership(ctx, chi.URLParam(r, "id"), *req.AcademyID); err != nil {
			if store.IsNotFound(err) {
				err = apperrors.NewValidationError(apperrors.FieldError{
					Field: "academyId", Message: "user is not a member of academy " + *req.AcademyID,
				})
			}
			utils.WriteError(w, r, err)
			return
		}
	}
	grant, err := h.store.GrantUserPermission(ctx, chi.URLParam(r, "id"), models.PermissionName(req.Permission),
		req.AcademyID, auth.GetUserFromCtx(ctx).ID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "permission granted", grant)
}

// DELETE /rbac/users/{id}/permissions/{grantId}
func (h *RBACHandler) RevokeUserPermission(w http.ResponseWriter, r *http.Request) {
	grantID, err := uintParam(r, "grantId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.store.RevokeUserPermission(r.Context(), chi.URLParam(r, "id"), grantID); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "permission revoked", nil)
}

// GET /rbac/users/{id}/permissions?academyId= returns the user's direct grants
// and the effective set in the given academy, or globally without one.
func (h *RBACHandler) UserPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.store.GetUserByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	sess := &auth.Session{User: user}
	if aid := queryString(r, "academyId"); aid != nil {
		sess.AcademyID = *aid
		m, err := h.store.GetMembership(ctx, user.ID, *aid)
		if err != nil && !store.IsNotFound(err) {
			utils.WriteError(w, r, err)
			return
		}
		sess.Membership = m
	}
	effective, err := auth.EffectivePermissions(ctx, h.store, sess)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	grants, err := h.store.ListUserGrants(ctx, user.ID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeOK(w, "", map[string]interface{}{
		"userId":     user.ID,
		"academyId":  sess.AcademyID,
		"superAdmin": user.IsSuperAdmin(),
		"effective":  effective.Sorted(),
		"grants":     grants,
	})
}
