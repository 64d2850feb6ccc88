package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is the application error type. Operational errors carry messages that
// are safe to return to callers; anything else is surfaced as a generic
// failure and logged with full detail server-side.
type Error struct {
	Status      int
	Message     string
	Fields      []string
	Operational bool
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func ErrValidation(message string, fields ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Fields: fields, Operational: true}
}

func ErrValidationFields(fields map[string]string) *Error {
	msgs := make([]string, 0, len(fields))
	names := make([]string, 0, len(fields))
	for field, msg := range fields {
		msgs = append(msgs, msg)
		names = append(names, field)
	}
	return &Error{
		Status:      http.StatusBadRequest,
		Message:     "Invalid input data: " + strings.Join(msgs, ". "),
		Fields:      names,
		Operational: true,
	}
}

func ErrAuthentication(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message, Operational: true}
}

func ErrAuthorization(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message, Operational: true}
}

func ErrNotFound(resource string) *Error {
	return &Error{
		Status:      http.StatusNotFound,
		Message:     fmt.Sprintf("No %s was found!", resource),
		Operational: true,
	}
}

func ErrRateLimit(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: message, Operational: true}
}

func ErrInternal(cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong!",
		cause:   cause,
	}
}

// As unwraps err into *Error, converting unknown errors to internal ones.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal(err)
}

func IsValidation(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == http.StatusBadRequest
}

func IsNotFound(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == http.StatusNotFound
}
