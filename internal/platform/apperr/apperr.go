// Package apperr defines the error taxonomy shared by every domain package and
// its mapping onto HTTP responses.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrConflict           = errors.New("concurrent update conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInterval    = errors.New("invalid interval")

	// ErrInvalidQuantity is a validation error; errors.Is(err, ErrValidation) holds.
	ErrInvalidQuantity = fmt.Errorf("%w: invalid quantity value", ErrValidation)
)

// Validation returns an error that matches ErrValidation and carries msg.
func Validation(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

// NotFound wraps ErrNotFound with the name of the missing entity.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// Unavailable wraps a collaborator failure so it matches ErrStorageUnavailable
// while keeping the underlying cause reachable through errors.Unwrap.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &unavailableError{op: op, cause: err}
}

type unavailableError struct {
	op    string
	cause error
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.op, ErrStorageUnavailable, e.cause)
}

func (e *unavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

func (e *unavailableError) Unwrap() error { return e.cause }

// HTTPStatus maps an error from the taxonomy to its HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidInterval),
		errors.Is(err, ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTP converts err into an echo.HTTPError carrying {"error": message}.
func ToHTTP(err error) *echo.HTTPError {
	status := HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	he := echo.NewHTTPError(status, map[string]string{"error": msg})
	he.Internal = err
	return he
}

// ErrorHandler renders every echo error as {"error": "..."}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	var body interface{} = map[string]string{"error": "internal server error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case map[string]string:
			body = m
		case string:
			body = map[string]string{"error": m}
		default:
			body = map[string]string{"error": http.StatusText(status)}
		}
	} else {
		status = HTTPStatus(err)
		if status != http.StatusInternalServerError {
			body = map[string]string{"error": err.Error()}
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
