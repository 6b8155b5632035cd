package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/models"
)

func WriteJSONResponse(w http.ResponseWriter, status int, success bool, message string, data interface{}, errDetail interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: success,
		Message: message,
		Data:    data,
		Error:   errDetail,
	})
}

// WriteError maps err onto a status code and writes the envelope. Details of
// unexpected errors are logged, never returned.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		WriteJSONResponse(w, http.StatusBadRequest, false, "validation failed", nil, verr.Fields)
		return
	}
	status, msg := StatusFor(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	WriteJSONResponse(w, status, false, msg, nil, nil)
}

// StatusFor returns the HTTP status and client message for err.
func StatusFor(err error) (int, string) {
	var appErr *apperrors.Error
	msg := ""
	if errors.As(err, &appErr) {
		msg = appErr.Error()
	}
	pick := func(status int, def string) (int, string) {
		if msg == "" {
			msg = def
		}
		return status, msg
	}
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrBadRequest):
		return pick(http.StatusBadRequest, "bad request")
	case errors.Is(err, apperrors.ErrNoActiveAcademy):
		return pick(http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrNoMembership):
		return pick(http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrAccountDisabled):
		return pick(http.StatusForbidden, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return pick(http.StatusNotFound, "not found")
	case errors.Is(err, apperrors.ErrConflict):
		return pick(http.StatusConflict, "already exists")
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
