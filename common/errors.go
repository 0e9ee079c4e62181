package common

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorCode int

const (
	// DuplicateObjectError indicates an attempt to create a table, index, rule or
	// metadata handler that is already registered.
	DuplicateObjectError ErrorCode = iota
	// NoSuchObjectError indicates a request for a table, index or column that does
	// not exist in the catalog.
	NoSuchObjectError
	// InvalidConfigurationError is a programming defect in an extension (for example,
	// a converter rule producing a node of the wrong convention). It is reported at
	// registration or construction time and is fatal for the planning session.
	InvalidConfigurationError
	// SchemaMismatchError indicates that a row type does not match what the caller
	// declared, e.g. a converter rule that changed the result schema.
	SchemaMismatchError
	// ResourceExhaustedError is returned when a session-scoped resource (placeholder
	// identifiers, expression-tree depth) runs out. The host should abort the session.
	ResourceExhaustedError
	// NoPlanError indicates that no registered rule could convert a node to the
	// requested convention.
	NoPlanError
)

func (ec ErrorCode) String() string {
	switch ec {
	case DuplicateObjectError:
		return "DuplicateObjectError"
	case NoSuchObjectError:
		return "NoSuchObjectError"
	case InvalidConfigurationError:
		return "InvalidConfigurationError"
	case SchemaMismatchError:
		return "SchemaMismatchError"
	case ResourceExhaustedError:
		return "ResourceExhaustedError"
	case NoPlanError:
		return "NoPlanError"
	}
	return "unknown"
}

// Error is the custom error type for the planner.
// It wraps a specific ErrorCode with a detailed message so callers can decide
// whether a failure is local (retry with another alternative) or fatal for the session.
type Error struct {
	Code      ErrorCode
	ErrString string
}

func (e Error) Error() string {
	return fmt.Sprintf("err: %s; msg: %s", e.Code.String(), e.ErrString)
}

// NewError builds an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) error {
	return Error{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err, or any error it wraps, is an Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsFatal reports whether err must abort the planning session.
func IsFatal(err error) bool {
	var e Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case InvalidConfigurationError, SchemaMismatchError, ResourceExhaustedError:
		return true
	}
	return false
}
