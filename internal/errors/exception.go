package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotAuthorized   Kind = "NotAuthorized"
	KindInvalidState    Kind = "InvalidState"
	KindValidation      Kind = "ValidationError"
	KindNotFound        Kind = "NotFound"
	KindConflict        Kind = "Conflict"
	KindUnauthenticated Kind = "Unauthenticated"
	KindBadRequest      Kind = "BadRequest"
	KindUnavailable     Kind = "Unavailable"
)

var kindStatus = map[Kind]int{
	KindNotAuthorized:   http.StatusForbidden,
	KindInvalidState:    http.StatusConflict,
	KindValidation:      http.StatusUnprocessableEntity,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindUnauthenticated: http.StatusUnauthorized,
	KindBadRequest:      http.StatusBadRequest,
	KindUnavailable:     http.StatusServiceUnavailable,
}

type Exception struct {
	Kind       Kind
	Field      string
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Is matches by kind, so errors.Is(err, ErrNotAuthorized) holds for any
// NotAuthorized exception regardless of its message.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Exception {
	return &Exception{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: kindStatus[kind],
	}
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		if appErr.StatusCode != 0 {
			return appErr.StatusCode
		}
		if code, ok := kindStatus[appErr.Kind]; ok {
			return code
		}
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind carried by err, or "" for untyped errors.
func KindOf(err error) Kind {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
