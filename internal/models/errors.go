package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies an AppError for transport mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindBadRequest
	KindConflict
	KindValidation
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Code   string       `json:"code,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
	Fields  []FieldError
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *AppError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindBadRequest:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Code:    "PERMISSION_DENIED",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Kind:    KindBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewValidationError reports rejected input. Fields may be empty for whole-payload problems.
func NewValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Kind:    KindInternal,
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// StatusOf returns the HTTP status for any error. Non-AppErrors map to 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

// RespondWithError creates a standardized error response.
// Wrapped causes are never serialized; only the AppError message reaches the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		response = ErrorResponse{
			Detail: appErr.Message,
			Code:   appErr.Code,
			Errors: appErr.Fields,
		}
	case status >= fiber.StatusInternalServerError:
		response = ErrorResponse{Detail: "Internal server error", Code: "INTERNAL_ERROR"}
	default:
		response = ErrorResponse{Detail: err.Error()}
	}

	return c.Status(status).JSON(response)
}

// Respond writes err using the status derived from its kind.
func Respond(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusOf(err), err)
}
