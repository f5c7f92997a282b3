// Copyright 2024 Canonical Ltd.
// SPDX-License-Identifier: AGPL

// Package apperror carries the error taxonomy shared by the tuple store
// client, the authorizer, and the HTTP view adapters, each error tagged with
// the HTTP status it maps to at the edge.
package apperror

import (
	"fmt"
	"net/http"
)

// Error is a taxonomy-tagged error carrying the HTTP status it maps to.
type Error struct {
	Kind    string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newErr(kind string, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Cause: cause}
}

func Unauthorized(message string) *Error {
	return newErr("Unauthorized", http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return newErr("Forbidden", http.StatusForbidden, message, nil)
}

func ForbiddenImpersonation(message string) *Error {
	return newErr("ForbiddenImpersonation", http.StatusForbidden, message, nil)
}

// ImpersonatedUserNotFound maps to 404, per the spec's explicit instruction
// to avoid disclosing internal membership through a distinct status code.
func ImpersonatedUserNotFound(message string) *Error {
	return newErr("ImpersonatedUserNotFound", http.StatusNotFound, message, nil)
}

func UnknownResource(message string) *Error {
	return newErr("UnknownResource", http.StatusNotFound, message, nil)
}

func UnknownSubject(message string) *Error {
	return newErr("UnknownSubject", http.StatusNotFound, message, nil)
}

func UnknownUser(message string) *Error {
	return newErr("UnknownUser", http.StatusNotFound, message, nil)
}

func TooManyTuples(provided, max int) *Error {
	return newErr("TooManyTuples", http.StatusBadRequest, fmt.Sprintf("provided %d tuples, max is %d", provided, max), nil)
}

func RequestFailure(cause error) *Error {
	return newErr("RequestFailure", http.StatusInternalServerError, "tuple store request failed", cause)
}

// ParsingError indicates the tuple store returned an id the typed relation
// model could not parse back into a Ref — a model/migration drift bug. It
// must never cross the public API unwrapped; callers re-tag it as a 500.
func ParsingError(ident, expectedType string) *Error {
	return newErr("ParsingError", http.StatusInternalServerError, fmt.Sprintf("could not parse %q as %s", ident, expectedType), nil)
}

func DatabaseError(cause error) *Error {
	return newErr("DatabaseError", http.StatusInternalServerError, "storage driver failure", cause)
}

func Timeout(message string) *Error {
	return newErr("Timeout", http.StatusServiceUnavailable, message, nil)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind string) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
