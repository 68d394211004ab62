// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer
// maps them to appropriate HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates one or more invalid input fields.
	KindValidation
	// KindRange indicates a numeric value outside its legal bounds.
	KindRange
	// KindImmutable indicates an attempt to change a field fixed after creation.
	KindImmutable
	// KindDuplicate indicates the relation being added already exists.
	KindDuplicate
	// KindConflict indicates a conflict with concurrent state (stale version).
	KindConflict
	// KindForbidden indicates the caller's role or ownership fails an access check.
	KindForbidden
	// KindUnauthorized indicates authentication is required or failed.
	KindUnauthorized
	// KindBadRequest indicates a malformed request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Code returns the stable machine-readable code used in API responses.
func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindRange:
		return "range_error"
	case KindImmutable:
		return "immutable_field"
	case KindDuplicate:
		return "duplicate_member"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "permission_denied"
	case KindUnauthorized:
		return "unauthorized"
	case KindBadRequest:
		return "bad_request"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// FieldError names one failing input field and why it failed.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindRange, KindImmutable, KindBadRequest:
		return http.StatusBadRequest
	case KindDuplicate, KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Fields returns the failing fields of a validation error, or nil.
func (e *Error) Fields() []FieldError {
	fields, _ := e.Details.([]FieldError)
	return fields
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the operation on the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails sets additional details on the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error without field details.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// ValidationFields creates a validation error carrying every failing field.
// The message lists the field names so logs stay readable without details.
func ValidationFields(fields []FieldError) *Error {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return New(KindValidation, "invalid fields: "+strings.Join(names, ", ")).WithDetails(fields)
}

// Range creates a range error for a numeric field outside [min,max].
func Range(field string, value, min, max int) *Error {
	return New(KindRange, fmt.Sprintf("%s must be between %d and %d, got %d", field, min, max, value)).
		WithDetails([]FieldError{{Field: field, Reason: "out_of_range"}})
}

// Immutable creates an error for an attempt to change a fixed field.
func Immutable(field string) *Error {
	return New(KindImmutable, field+" cannot be changed after creation").
		WithDetails([]FieldError{{Field: field, Reason: "immutable"}})
}

// Duplicate creates a duplicate relation error.
func Duplicate(message string) *Error {
	return New(KindDuplicate, message)
}

// Conflict creates a conflict error (e.g., stale version).
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden creates a permission error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// As extracts the *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is present.
func GetKind(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
