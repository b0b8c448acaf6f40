package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Stable error kinds surfaced to clients.
const (
	KindValidation   = "Validation"
	KindNotFound     = "NotFound"
	KindDuplicate    = "Duplicate"
	KindPrecondition = "Precondition"
	KindAuth         = "Auth"
	KindForbidden    = "Forbidden"
	KindTransient    = "Transient"
	KindInternal     = "Internal"
)

var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict") // e.g., email already registered
	ErrValidation      = errors.New("validation failed")
	ErrPrecondition    = errors.New("precondition failed")
	ErrTransient       = errors.New("temporary storage failure")
	ErrLockNotAcquired = errors.New("failed to acquire lock")
)

// PrerequisiteError blocks a completion until the listed challenges are done.
type PrerequisiteError struct {
	Missing []int64
}

func (e *PrerequisiteError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return "Complete prerequisite challenge(s) first: " + strings.Join(ids, ", ")
}

func (e *PrerequisiteError) Unwrap() error { return ErrPrecondition }

// KindOf returns the stable kind tag for err.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindDuplicate
	case errors.Is(err, ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, ErrUnauthorized):
		return KindAuth
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrTransient), errors.Is(err, ErrLockNotAcquired):
		return KindTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
		return KindDuplicate
	}
	return KindInternal
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation, KindPrecondition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicate:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Invalid wraps a message as a validation error.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}
