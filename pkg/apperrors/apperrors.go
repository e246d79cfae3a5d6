package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies a business-rule failure independently of transport.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNotFound covers entities that do not exist or are filtered out
	// by scoping rules — deliberately indistinguishable from "never existed".
	KindNotFound
	KindForbidden
	KindInvalidState
	KindValidation
	// KindAmbiguous marks an id without a type hint matching more than one
	// request variant.
	KindAmbiguous
)

// Error is a typed business error surfaced to the routing layer.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Ambiguous(msg string) *Error {
	return &Error{Kind: KindAmbiguous, Message: msg}
}

// KindOf returns the kind carried by err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error kind to the status code the routing layer reports.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusConflict
	case KindValidation, KindAmbiguous:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
