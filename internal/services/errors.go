package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindValidation ErrorKind = "validation"
	ErrKindInvariant  ErrorKind = "invariant_violation"
	ErrKindConflict   ErrorKind = "conflict"
	ErrKindNotFound   ErrorKind = "not_found"
	ErrKindInternal   ErrorKind = "internal"
)

// Error is the one failure shape the trip engine returns: a machine-checkable
// kind and code plus a message readable enough to show a user directly.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func NewValidationError(code, message string) *Error {
	return &Error{Kind: ErrKindValidation, Code: code, Message: message}
}

func NewInvariantError(code, message string, details map[string]string) *Error {
	return &Error{Kind: ErrKindInvariant, Code: code, Message: message, Details: details}
}

func NewConflictError(code, message string, details map[string]string) *Error {
	return &Error{Kind: ErrKindConflict, Code: code, Message: message, Details: details}
}

func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: ErrKindNotFound, Code: code, Message: message}
}

func NewInternalError(message string, cause error) *Error {
	return &Error{Kind: ErrKindInternal, Code: "INTERNAL", Message: message, cause: cause}
}

// Kind classifies any error: engine errors report their own kind, everything
// else is internal.
func Kind(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return Kind(err) == kind
}
