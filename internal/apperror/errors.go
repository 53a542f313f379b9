package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeConfig              ErrorCode = "CONFIG_ERROR"
	ErrCodeUpstream            ErrorCode = "UPSTREAM_ERROR"
	ErrCodeUpstreamUnreachable ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// AppError carries the kind of failure and the status a handler should answer with.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Upstream builds an error that passes the remote status code through.
func Upstream(status int, body string) *AppError {
	return &AppError{
		Code:       ErrCodeUpstream,
		Message:    "Google Script responded with error",
		HTTPStatus: status,
		Cause:      fmt.Errorf("upstream status %d: %s", status, body),
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf returns the HTTP status and client-facing message for err.
// Errors that are not an AppError are reported as a generic internal error.
func StatusOf(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, appErr.Message
	}
	return http.StatusInternalServerError, "internal server error"
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

var (
	ErrNotConfigured = New(ErrCodeConfig, "Configuration Error: Missing Google Script URL")
	ErrUnreachable   = New(ErrCodeUpstreamUnreachable, "Failed to connect to Google Sheets")
)
