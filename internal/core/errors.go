package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrClassification = errors.New("classification failed")
	ErrConflict       = errors.New("conflict")
)

// ValidationError reports a malformed or missing field of a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a reference that does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ClassificationError wraps any failure of the anomaly classifier, including
// responses that break the verdict schema.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("failed to classify clocking event: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func (e *ClassificationError) Is(target error) bool {
	return target == ErrClassification
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// EmployeeNotFound builds the NotFoundError returned for an unknown employee id.
func EmployeeNotFound(id string) error {
	return &NotFoundError{Resource: "Employee", ID: id}
}

// LogNotFound builds the NotFoundError returned for an unknown clocking log id.
func LogNotFound(id string) error {
	return &NotFoundError{Resource: "Clocking log", ID: id}
}
