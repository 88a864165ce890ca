package model

import (
	"errors"
	"fmt"
)

// ErrorKind mirrors the callable error codes clients already understand.
type ErrorKind string

const (
	ErrorKindValidation    = ErrorKind("invalid-argument")
	ErrorKindAuthorization = ErrorKind("permission-denied")
	ErrorKindNotFound      = ErrorKind("not-found")
	ErrorKindInternal      = ErrorKind("internal")
)

// Error is the typed failure returned by every usecase operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: ErrorKindValidation, Message: msg}
}

func NewAuthorizationError(msg string) *Error {
	return &Error{Kind: ErrorKindAuthorization, Message: msg}
}

func NewNotFoundError(msg string) *Error {
	return &Error{Kind: ErrorKindNotFound, Message: msg}
}

func NewInternalError(msg string, cause error) *Error {
	return &Error{Kind: ErrorKindInternal, Message: msg, Cause: cause}
}

// AsError keeps typed errors as they are and turns anything else into an
// internal error carrying the underlying message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return NewInternalError(err.Error(), err)
}

// KindOf returns the kind of a typed error and ErrorKindInternal otherwise.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ErrorKindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func (e *Error) String() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
