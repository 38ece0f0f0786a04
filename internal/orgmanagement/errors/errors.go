package errors

import (
	"errors"
	"net/http"
)

// PermissionError is returned when the caller lacks team access or the
// admin role required for the requested operation.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string {
	return e.Msg
}

func NewPermissionError(msg string) error {
	return &PermissionError{Msg: msg}
}

func IsPermissionError(err error) bool {
	var permissionError *PermissionError
	return errors.As(err, &permissionError)
}

// NotFoundError covers both missing entities and ownership mismatches,
// e.g. a budget that exists but does not belong to the claimed team.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	return e.Msg
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{Msg: msg}
}

func IsNotFoundError(err error) bool {
	var notFoundError *NotFoundError
	return errors.As(err, &notFoundError)
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// InvalidPeriodError is raised before any query when a budget summary is
// requested with an unsupported period token.
type InvalidPeriodError struct {
	Msg string
}

func (e *InvalidPeriodError) Error() string {
	return e.Msg
}

func NewInvalidPeriodError(msg string) error {
	return &InvalidPeriodError{Msg: msg}
}

func IsInvalidPeriodError(err error) bool {
	var invalidPeriodError *InvalidPeriodError
	return errors.As(err, &invalidPeriodError)
}

// ConflictError is returned when a record already exists, e.g. inviting a
// user who is already a member of the team.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func NewConflictError(msg string) error {
	return &ConflictError{Msg: msg}
}

func IsConflictError(err error) bool {
	var conflictError *ConflictError
	return errors.As(err, &conflictError)
}

// HTTPStatus maps a service error to the status code the HTTP boundary
// must surface: 403 for permission errors, 404 for not-found/ownership
// mismatches, 422 for validation failures, 400 for bad period tokens.
// Anything unrecognized is a generic 500.
func HTTPStatus(err error) int {
	switch {
	case IsPermissionError(err):
		return http.StatusForbidden
	case IsNotFoundError(err):
		return http.StatusNotFound
	case IsValidationError(err):
		return http.StatusUnprocessableEntity
	case IsInvalidPeriodError(err):
		return http.StatusBadRequest
	case IsConflictError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
