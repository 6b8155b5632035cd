package auth

import (
	"context"

	"github.com/madhava-poojari/academy-api/internal/models"
)

type ctxKey string

const ctxSessionKey ctxKey = "session"

// Session is the authenticated caller of one request. Membership is nil when
// no academy is active or the caller is a SuperAdmin without a membership row.
type Session struct {
	User       *models.User
	AcademyID  string
	Membership *models.UserAcademy
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxSessionKey, s)
}

func GetSession(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxSessionKey).(*Session); ok {
		return s
	}
	return nil
}

func GetUserFromCtx(ctx context.Context) *models.User {
	if s := GetSession(ctx); s != nil {
		return s.User
	}
	return nil
}

// AcademyIDFromCtx returns the active academy of the request, or "".
func AcademyIDFromCtx(ctx context.Context) string {
	if s := GetSession(ctx); s != nil {
		return s.AcademyID
	}
	return ""
}
