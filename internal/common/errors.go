package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes. The four submission failure kinds share these strings with state.ErrorKind.
const (
	CodeConfig            = "CONFIG_ERROR"
	CodeEncoding          = "ENCODING_ERROR"
	CodeTransport         = "TRANSPORT_ERROR"
	CodeServer            = "SERVER_ERROR"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
)

// Common application errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEncoding          = errors.New("file encoding failed")
	ErrTransport         = errors.New("transport failure")
	ErrServer            = errors.New("server returned an error status")
	ErrMalformedResponse = errors.New("malformed response body")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the failure code matching err, or "" when err is not one of the known kinds.
func CodeOf(err error) string {
	var appErr *AppError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncoding):
		return CodeEncoding
	case errors.Is(err, ErrTransport):
		return CodeTransport
	case errors.Is(err, ErrServer):
		return CodeServer
	case errors.Is(err, ErrMalformedResponse):
		return CodeMalformedResponse
	case errors.As(err, &appErr):
		return appErr.Code
	}
	return ""
}
