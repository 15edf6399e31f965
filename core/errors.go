package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError indicates a reference to a nonexistent entity.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err *NotFoundError) Error() string {
	return err.Resource + " not found"
}

// DuplicateKeyError indicates a unique-key collision on Field.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func NewDuplicateKeyError(field string, err error) error {
	return &DuplicateKeyError{Field: field, Err: err}
}

func (err *DuplicateKeyError) Error() string {
	if err.Err == nil {
		return "duplicate " + err.Field
	}
	return err.Err.Error()
}

// ReferentialConflictError indicates a delete blocked by dependent rows.
type ReferentialConflictError struct {
	Resource  string
	Dependent string
}

func NewReferentialConflictError(resource, dependent string) error {
	return &ReferentialConflictError{Resource: resource, Dependent: dependent}
}

func (err *ReferentialConflictError) Error() string {
	return "cannot delete " + err.Resource + ": " + err.Dependent + " records still reference it"
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
