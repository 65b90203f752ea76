package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is a string type for consistent error classification.
type ErrorKind string

// Every external call site returns one of these kinds instead of relying on
// a catch-all.
const (
	ErrKindConfiguration   ErrorKind = "configuration_error"
	ErrKindValidation      ErrorKind = "validation_error"
	ErrKindUpstreamData    ErrorKind = "upstream_data_error"
	ErrKindUpstreamService ErrorKind = "upstream_service_error"
	ErrKindInternal        ErrorKind = "internal_error"
)

// AppError carries an error kind alongside a human-readable message.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports invalid user input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: ErrKindValidation, Message: message}
}

// NewUpstreamDataError reports missing/empty data in the remote store.
func NewUpstreamDataError(message string) *AppError {
	return &AppError{Kind: ErrKindUpstreamData, Message: message}
}

// NewUpstreamServiceError wraps a failed remote call.
func NewUpstreamServiceError(message string, err error) *AppError {
	return &AppError{Kind: ErrKindUpstreamService, Message: message, Err: err}
}

// KindOf classifies any error; unclassified errors are internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrKindInternal
}

// MessageOf returns the user-visible message for an error.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps an error kind to a response status code.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case ErrKindValidation:
		return http.StatusBadRequest
	case ErrKindUpstreamData, ErrKindUpstreamService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
