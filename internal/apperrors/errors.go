package apperrors

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrBadRequest   = errors.New("bad request")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrNoMembership       = errors.New("no membership for academy")
	ErrNoActiveAcademy    = errors.New("no active academy")
)

// FieldError describes a problem with one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Error wraps a sentinel with a message meant for the client.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) error {
	return &Error{Err: ErrNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Err: ErrConflict, Message: message}
}

func Unauthorized(message string) error {
	return &Error{Err: ErrUnauthorized, Message: message}
}

func Forbidden(message string) error {
	return &Error{Err: ErrForbidden, Message: message}
}

func BadRequest(message string) error {
	return &Error{Err: ErrBadRequest, Message: message}
}
