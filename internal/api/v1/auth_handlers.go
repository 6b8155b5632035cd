package v1

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/config"
	"github.com/madhava-poojari/academy-api/internal/service"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	cfg      *config.Config
	user     *service.UserService
	sessions *service.SessionService
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(cfg *config.Config, userSvc *service.UserService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{cfg: cfg, user: userSvc, sessions: sessions}
}

// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.user.Register(r.Context(), req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	writeCreated(w, "user created", map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"fullName": user.FullName,
		"role":     user.Role,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.user.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	tok, err := h.sessions.Login(r.Context(), u)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	h.setRefreshCookie(w, r, tok)
	writeOK(w, "login successful", tok)
}

// POST /auth/refresh rotates the refresh token taken from the cookie, or from
// the body for clients without cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	plain := refreshFromRequest(r)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tok, err := h.sessions.Refresh(ctx, plain)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	h.setRefreshCookie(w, r, tok)
	writeOK(w, "refresh successful", tok)
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), refreshFromRequest(r)); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w, "logged out", nil)
}

// POST /auth/google exchanges an authorization code and signs the user in
// with the verified email of the id token.
func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	if h.cfg.GoogleClientID == "" {
		utils.WriteError(w, r, apperrors.BadRequest("google sign-in is not configured"))
		return
	}
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		utils.WriteError(w, r, apperrors.NewValidationError(apperrors.FieldError{Field: "code", Message: "code is required"}))
		return
	}

	ctx := r.Context()
	oauthCfg := &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  h.cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
	token, err := oauthCfg.Exchange(ctx, req.Code)
	if err != nil {
		utils.WriteError(w, r, apperrors.Unauthorized("code exchange failed"))
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		utils.WriteError(w, r, apperrors.Unauthorized("id_token not present in token response"))
		return
	}
	// audience must be our client id
	payload, err := idtoken.Validate(ctx, rawIDToken, h.cfg.GoogleClientID)
	if err != nil {
		utils.WriteError(w, r, apperrors.Unauthorized("invalid id token"))
		return
	}
	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		utils.WriteError(w, r, apperrors.Unauthorized("verified email not present in token"))
		return
	}
	name, _ := payload.Claims["name"].(string)

	u, err := h.user.FindOrCreateExternal(ctx, email, name)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	tok, err := h.sessions.Login(ctx, u)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	h.setRefreshCookie(w, r, tok)
	writeOK(w, "login successful", tok)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, r *http.Request, tok *service.AccessToken) {
	plain, expires := tok.RefreshToken()
	if plain == "" {
		return
	}
	host := r.Host
	if hst, _, err := net.SplitHostPort(host); err == nil {
		host = hst
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    plain,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Domain:   host,
		Expires:  expires,
	})
}

func refreshFromRequest(r *http.Request) string {
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)
	}
	return body.RefreshToken
}
