package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/madhava-poojari/academy-api/internal/apperrors"
	"github.com/madhava-poojari/academy-api/internal/store"
	"github.com/madhava-poojari/academy-api/internal/utils"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		utils.WriteJSONResponse(w, http.StatusBadRequest, false, msg, nil, err.Error())
		return false
	}
	return true
}

func parseDateFlexible(s string) (time.Time, error) {
	// Prefer YYYY-MM-DD for "date" fields; allow RFC3339 as fallback.
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// optionalDate parses s when non-empty; field names the value in errors.
func optionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDateFlexible(s)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: field, Message: field + " must be a date (YYYY-MM-DD)"})
	}
	d := utils.DateOnly(t)
	return &d, nil
}

func uintParam(r *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperrors.BadRequest("invalid " + name)
	}
	return uint(v), nil
}

func queryUint(r *http.Request, name string) (*uint, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, apperrors.BadRequest("invalid " + name)
	}
	u := uint(v)
	return &u, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, apperrors.BadRequest("invalid " + name)
	}
	return &b, nil
}

// queryString returns the trimmed query value, nil when absent.
func queryString(r *http.Request, name string) *string {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil
	}
	return &s
}

func listParams(r *http.Request) (store.ListParams, error) {
	q := r.URL.Query()
	p := store.ListParams{Search: strings.TrimSpace(q.Get("search"))}
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		s := q.Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, apperrors.BadRequest("invalid " + name)
		}
		*dst = n
	}
	return p, nil
}

// pathIDs reads the usual {id} plus a second numeric parameter.
func pathIDs(r *http.Request, second string) (uint, uint, error) {
	id, err := uintParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	other, err := uintParam(r, second)
	if err != nil {
		return 0, 0, err
	}
	return id, other, nil
}

// idsBody is the payload of endpoints attaching several rows at once.
type idsBody struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func writeOK(w http.ResponseWriter, msg string, data interface{}) {
	utils.WriteJSONResponse(w, http.StatusOK, true, msg, data, nil)
}

func writeCreated(w http.ResponseWriter, msg string, data interface{}) {
	utils.WriteJSONResponse(w, http.StatusCreated, true, msg, data, nil)
}
