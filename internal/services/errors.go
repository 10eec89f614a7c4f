package services

import (
	"errors"
	"fmt"

	"github.com/verithos/policyforge-backend/internal/steps"
)

// ValidationError carries per-field messages for a rejected payload.
type ValidationError struct {
	Message string
	Fields  steps.FieldErrors
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Fields)
	}
	return e.Message
}

func NewValidationError(message string, fields steps.FieldErrors) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ConflictError marks an operation that contradicts the current state of the
// resource, like publishing an incomplete policy.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// ForbiddenError marks an operation the caller may not perform, like writing
// a step that is not yet accessible or touching another user's policy.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// QuotaError marks a plan limit being hit.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string { return e.Message }

func NewQuotaError(message string) *QuotaError {
	return &QuotaError{Message: message}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
