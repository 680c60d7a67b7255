// Package apperr defines the error kinds surfaced by the service layer.
// Handlers map kinds to HTTP statuses; services attach human-readable
// messages that name the violated rule.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a service-level failure
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindAccessDenied
	KindPrecondition
)

// String returns the kind name for logs
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation_failed"
	case KindAccessDenied:
		return "access_denied"
	case KindPrecondition:
		return "precondition_failed"
	}
	return "unknown"
}

// Error is a classified service error
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound reports a missing entity
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness or concurrent-update violation
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation reports rejected input; the message must name the violated rule
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// AccessDenied reports a failed membership or permission check
func AccessDenied(format string, args ...interface{}) error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// Precondition reports a delete blocked by dependent records
func Precondition(format string, args ...interface{}) error {
	return &Error{Kind: KindPrecondition, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain; unclassified errors
// (I/O, driver failures) report KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
