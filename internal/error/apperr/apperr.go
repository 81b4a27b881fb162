// Package apperr defines the error kinds raised by the registry services.
// Test kinds with errors.Is against ErrNotFound, ErrConflict, ErrValidation
// and ErrStoreUnavailable; read details with errors.As into *Error.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"barangay-registry/internal/error/code"
	"barangay-registry/internal/infrastructure/kv"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error carries the kind, a numeric code and the context of a failure
type Error struct {
	Kind    error
	Code    int
	Entity  string
	ID      string
	Message string
	// Fields lists the invalid input fields of a validation failure
	Fields []string
	// Count is the number of blocking references of a guarded delete
	Count int64
	// Retryable marks conflicts caused by a concurrent writer
	Retryable bool
	// StatusUnknown marks store failures raised while a batch was in flight
	StatusUnknown bool
	Err           error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != "" {
			b.WriteString(" ")
			b.WriteString(e.ID)
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a missing record
func NotFound(c int, entity, id string) *Error {
	return &Error{Kind: ErrNotFound, Code: c, Entity: entity, ID: id}
}

// Conflict reports a uniqueness or reference conflict detected before any write
func Conflict(c int, entity, id, format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Code: c, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// Validation reports invalid input
func Validation(entity string, fields []string, format string, args ...any) *Error {
	return &Error{
		Kind:    ErrValidation,
		Code:    code.ErrValidation,
		Entity:  entity,
		Fields:  fields,
		Message: fmt.Sprintf(format, args...),
	}
}

// FromStore translates a kv failure, leaving domain errors untouched
func FromStore(entity, id string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, kv.ErrTxConflict):
		return &Error{
			Kind:      ErrConflict,
			Code:      code.ErrConflict,
			Entity:    entity,
			ID:        id,
			Message:   "record was modified concurrently",
			Retryable: true,
			Err:       err,
		}
	case errors.Is(err, kv.ErrCommitUnknown):
		return &Error{
			Kind:          ErrStoreUnavailable,
			Code:          code.ErrCommitUnknown,
			Entity:        entity,
			ID:            id,
			StatusUnknown: true,
			Err:           err,
		}
	default:
		return &Error{Kind: ErrStoreUnavailable, Code: code.ErrStoreUnavailable, Entity: entity, ID: id, Err: err}
	}
}

// CodeOf returns the numeric code of err, code.ErrSuccess for nil
func CodeOf(err error) int {
	if err == nil {
		return code.ErrSuccess
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return code.ErrUnknown
}

// IsRetryable reports whether err is a conflict caused by a concurrent writer
func IsRetryable(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Retryable
}
