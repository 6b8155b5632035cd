package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

// AuthMiddleware validates the bearer JWT, loads the user and the membership
// of the academy the token is scoped to, and puts the Session in the context.
func AuthMiddleware(s *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "missing authorization", nil, nil)
				return
			}
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "invalid authorization header", nil, nil)
				return
			}
			claims, err := ParseAndValidateToken(s.Cfg, parts[1])
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, ErrExpiredToken) {
					msg = "token expired"
				}
				utils.WriteJSONResponse(w, http.StatusUnauthorized, false, msg, nil, nil)
				return
			}
			u, err := s.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				if store.IsNotFound(err) {
					utils.WriteJSONResponse(w, http.StatusUnauthorized, false, "user not found", nil, nil)
					return
				}
				utils.WriteError(w, r, err)
				return
			}
			if !u.Active {
				utils.WriteJSONResponse(w, http.StatusForbidden, false, "account disabled", nil, nil)
				return
			}

			sess := &Session{User: u, AcademyID: claims.AcademyID}
			if claims.AcademyID != "" {
				m, err := s.GetMembership(r.Context(), u.ID, claims.AcademyID)
				switch {
				case err == nil:
					sess.Membership = m
				case !store.IsNotFound(err):
					utils.WriteError(w, r, err)
					return
				}
				// a revoked membership leaves Membership nil; RequireAcademy rejects it
			}
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", u.ID).Str("academy_id", sess.AcademyID)
			})
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireAcademy guards tenant routes: the session must have an active
// academy and, unless SuperAdmin, a live membership in it.
func RequireAcademy(s *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil || sess.User == nil {
				utils.WriteError(w, r, apperrors.ErrUnauthorized)
				return
			}
			if sess.AcademyID == "" {
				utils.WriteError(w, r, apperrors.ErrNoActiveAcademy)
				return
			}
			if err := checkAcademyAccess(r, s, sess); err != nil {
				utils.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAcademyParam scopes the session to the academy named by the URL
// parameter, for routes such as /academies/{id} that address an academy
// directly rather than through the token.
func RequireAcademyParam(s *store.Store, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil || sess.User == nil {
				utils.WriteError(w, r, apperrors.ErrUnauthorized)
				return
			}
			academyID := chi.URLParam(r, param)
			scoped := &Session{User: sess.User, AcademyID: academyID}
			if sess.AcademyID == academyID {
				scoped.Membership = sess.Membership
			} else {
				m, err := s.GetMembership(r.Context(), sess.User.ID, academyID)
				if err != nil && !store.IsNotFound(err) {
					utils.WriteError(w, r, err)
					return
				}
				scoped.Membership = m
			}
			if err := checkAcademyAccess(r, s, scoped); err != nil {
				utils.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), scoped)))
		})
	}
}

func checkAcademyAccess(r *http.Request, s *store.Store, sess *Session) error {
	if sess.Membership != nil {
		return nil
	}
	if !sess.User.IsSuperAdmin() {
		return apperrors.Forbidden("not a member of this academy")
	}
	ok, err := s.AcademyExists(r.Context(), sess.AcademyID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("academy not found")
	}
	return nil
}

// RequirePermission rejects the request with 403 unless the session holds
// name in its active academy scope.
func RequirePermission(s *store.Store, name models.PermissionName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil || sess.User == nil {
				utils.WriteError(w, r, apperrors.ErrUnauthorized)
				return
			}
			ok, err := Check(r.Context(), s, sess, name)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}
			if !ok {
				utils.WriteError(w, r, apperrors.Forbidden("missing permission "+string(name)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGlobalPermission evaluates name without any academy scope: only the
// global role and global grants count.
func RequireGlobalPermission(s *store.Store, name models.PermissionName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil || sess.User == nil {
				utils.WriteError(w, r, apperrors.ErrUnauthorized)
				return
			}
			ok, err := Check(r.Context(), s, &Session{User: sess.User}, name)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}
			if !ok {
				utils.WriteError(w, r, apperrors.Forbidden("missing permission "+string(name)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
