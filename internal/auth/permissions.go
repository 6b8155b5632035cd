package auth

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
)

// Allows reports whether user may perform name given their effective
// permissions. SuperAdmin is always allowed.
func Allows(user *models.User, effective models.PermissionSet, name models.PermissionName) bool {
	if user == nil {
		return false
	}
	if user.IsSuperAdmin() {
		return true
	}
	return effective.Has(name)
}

// EffectivePermissions resolves the permission set of the session: global
// role, membership role in the active academy and matching direct grants.
func EffectivePermissions(ctx context.Context, s *store.Store, sess *Session) (models.PermissionSet, error) {
	if sess == nil || sess.User == nil {
		return models.NewPermissionSet(), nil
	}
	return s.EffectivePermissions(ctx, sess.User.ID, store.RolesFor(sess.User, sess.Membership), sess.AcademyID)
}

// Check resolves the session's permissions and evaluates name against them.
func Check(ctx context.Context, s *store.Store, sess *Session, name models.PermissionName) (bool, error) {
	if sess == nil || sess.User == nil {
		return false, nil
	}
	if sess.User.IsSuperAdmin() {
		return true, nil
	}
	perms, err := EffectivePermissions(ctx, s, sess)
	if err != nil {
		return false, err
	}
	return Allows(sess.User, perms, name), nil
}
