// internal/utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/readsphere/readsphere-api/internal/i18n"
)

// Error codes carried in the response envelope
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "UNAUTHORIZED"
	CodeAuthorization  = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnexpected     = "INTERNAL_ERROR"
)

// AppError represents an application error. Key is an i18n message key.
type AppError struct {
	Code    string
	Status  int
	Key     string
	Args    []interface{}
	Details []ValidationError
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	message := i18n.T(i18n.DefaultLang, e.Key, e.Args...)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", message, e.Err)
	}
	return message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Message renders the error for the given language
func (e *AppError) Message(lang string) string {
	return i18n.T(lang, e.Key, e.Args...)
}

func NewAppError(status int, code, key string, err error, args ...interface{}) *AppError {
	return &AppError{
		Code:   code,
		Status: status,
		Key:    key,
		Args:   args,
		Err:    err,
	}
}

// ValidationErr creates a 400 error listing every violated field
func ValidationErr(details []ValidationError) *AppError {
	appErr := NewAppError(http.StatusBadRequest, CodeValidation, i18n.KeyValidationFailed, nil)
	appErr.Details = details
	return appErr
}

func BadRequestErr(key string, args ...interface{}) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, key, nil, args...)
}

func AuthenticationErr(key string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeAuthentication, key, nil)
}

func AuthorizationErr(key string) *AppError {
	return NewAppError(http.StatusForbidden, CodeAuthorization, key, nil)
}

func NotFoundErr(key string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, key, nil)
}

func ConflictErr(key string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, key, nil)
}

// UnexpectedErr wraps an infrastructure failure; the cause is logged, never returned to clients
func UnexpectedErr(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeUnexpected, i18n.KeyInternalError, err)
}

// GetAppError returns the AppError in err's chain, if any
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
