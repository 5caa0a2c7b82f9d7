package errors

import "errors"

// Error codes shared by the advisory layer and the transport mapping.
const (
	CodeRateLimited         = "rate_limited"
	CodeInvalidInput        = "invalid_input"
	CodeProviderUnavailable = "provider_unavailable"
	CodeMalformedResponse   = "malformed_response"
	CodeInternal            = "internal"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
	// Fields carries per-field validation messages for invalid_input failures.
	Fields map[string]string
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

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// Invalid reports malformed request fields.
func Invalid(message string, fields map[string]string) error {
	return &AppError{Code: CodeInvalidInput, Message: message, Fields: fields}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return CodeInternal
}

// FieldsOf returns validation details attached to err, if any.
func FieldsOf(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
