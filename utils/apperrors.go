package utils

import "net/http"

// Failure categories surfaced in the response envelope's error.code.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError carries a user-facing message, a machine-usable category and
// an HTTP status. Err holds internal detail that is only serialized
// outside production.
type AppError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func NewValidationError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message}
}

// WithFields attaches per-field validation messages.
func (e *AppError) WithFields(fields map[string]string) *AppError {
	e.Fields = fields
	return e
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeAuthentication, Message: message}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: CodeAuthorization, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message, Err: err}
}
