package fhir

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies the result of a repository operation. Expected
// business conditions are returned as values of this taxonomy; only
// infrastructure failures surface as wrapped errors under OutcomeInternal.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeValidationError
	OutcomeNotFound
	OutcomeNotModified
	OutcomeBadRequest
	OutcomeForbidden
	OutcomeConflict
	OutcomeInternal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeValidationError:
		return "validation-error"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeNotModified:
		return "not-modified"
	case OutcomeBadRequest:
		return "bad-request"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeConflict:
		return "conflict"
	case OutcomeInternal:
		return "internal-error"
	default:
		return "unknown"
	}
}

// Error is the typed failure outcome returned by repository operations.
// NotModified is a success variant: it carries the current resource and
// signals that no new version was created.
type Error struct {
	Kind        OutcomeKind
	Diagnostics string
	// Resource is populated for NotModified outcomes.
	Resource Resource
	// Err is the underlying cause for internal errors.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Diagnostics, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Diagnostics)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: OutcomeValidationError, Diagnostics: fmt.Sprintf(format, args...)}
}

func NotFoundError(resourceType, id string) *Error {
	return &Error{Kind: OutcomeNotFound, Diagnostics: resourceType + "/" + id + " not found"}
}

func NotModified(current Resource) *Error {
	return &Error{Kind: OutcomeNotModified, Diagnostics: "not modified", Resource: current}
}

func BadRequestError(format string, args ...any) *Error {
	return &Error{Kind: OutcomeBadRequest, Diagnostics: fmt.Sprintf(format, args...)}
}

func ForbiddenError(diagnostics string) *Error {
	return &Error{Kind: OutcomeForbidden, Diagnostics: diagnostics}
}

func ConflictError(format string, args ...any) *Error {
	return &Error{Kind: OutcomeConflict, Diagnostics: fmt.Sprintf(format, args...)}
}

func InternalError(err error) *Error {
	return &Error{Kind: OutcomeInternal, Diagnostics: "internal error", Err: err}
}

// KindOf extracts the outcome kind from an error. Plain errors map to
// OutcomeInternal; nil maps to OutcomeOK.
func KindOf(err error) OutcomeKind {
	if err == nil {
		return OutcomeOK
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return OutcomeInternal
}

// IsNotModified reports whether err is the no-op write outcome and, if so,
// returns the current resource.
func IsNotModified(err error) (Resource, bool) {
	var oe *Error
	if errors.As(err, &oe) && oe.Kind == OutcomeNotModified {
		return oe.Resource, true
	}
	return nil, false
}
