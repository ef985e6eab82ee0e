package utils

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"

	"github.com/brentedwards-nz/Benefit-sub000/backend/config"
)

type ErrorKind string

const (
	KindInvalidInput   ErrorKind = "invalid_input"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindForbidden      ErrorKind = "forbidden"
	KindNotFound       ErrorKind = "not_found"
	KindOutOfWindow    ErrorKind = "out_of_window"
	KindConflict       ErrorKind = "conflict"
	KindStorageFailure ErrorKind = "storage_failure"
)

// Status maps the kind to its HTTP status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindInvalidInput:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindOutOfWindow:
		return fiber.StatusUnprocessableEntity
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// AppError carries a caller-facing message and an optional cause.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...interface{}) *AppError {
	return newAppError(KindInvalidInput, format, args...)
}

func NotAuthenticated(format string, args ...interface{}) *AppError {
	return newAppError(KindUnauthorized, format, args...)
}

func NotPermitted(format string, args ...interface{}) *AppError {
	return newAppError(KindForbidden, format, args...)
}

func Missing(format string, args ...interface{}) *AppError {
	return newAppError(KindNotFound, format, args...)
}

func OutOfWindow(format string, args ...interface{}) *AppError {
	return newAppError(KindOutOfWindow, format, args...)
}

func Conflict(format string, args ...interface{}) *AppError {
	return newAppError(KindConflict, format, args...)
}

// StorageFailure wraps a database error. The cause is only shown to callers
// outside production.
func StorageFailure(err error, format string, args ...interface{}) *AppError {
	e := newAppError(KindStorageFailure, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindStorageFailure for anything unclassified.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorageFailure
}

// HandleError renders err using the standard error envelope.
func HandleError(c *fiber.Ctx, err error, cfg *config.Config) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = StorageFailure(err, "Unexpected error")
	}

	status := appErr.Kind.Status()
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"kind", appErr.Kind,
			"error", err,
		)
		message := appErr.Message
		if !cfg.IsProduction() && appErr.Err != nil {
			return errorResponse(c, status, appErr.Kind, message, appErr.Err.Error())
		}
		return errorResponse(c, status, appErr.Kind, message, nil)
	}

	return errorResponse(c, status, appErr.Kind, appErr.Message, nil)
}

// ErrorHandler is the fiber fallback for errors returned by handlers.
func ErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return Error(c, fiberErr.Code, fiberErr)
		}
		return HandleError(c, err, cfg)
	}
}
