package assessment

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"candidate-assessment/internal/storage"
)

// Kind is the closed set of failure classes the assessment flows can produce.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	default:
		return "internal"
	}
}

// Reason narrows a Kind for clients that branch on it.
type Reason string

const (
	ReasonInvalidFormat     Reason = "invalid_format"
	ReasonMissingField      Reason = "missing_field"
	ReasonInvalidEmail      Reason = "invalid_email"
	ReasonTooManySelections Reason = "too_many_selections"
	ReasonUnknownStatus     Reason = "unknown_status"
	ReasonTokenNotFound     Reason = "token_not_found"
	ReasonAlreadyCompleted  Reason = "already_completed"
	ReasonTokenExpired      Reason = "token_expired"
	ReasonInternal          Reason = "internal"
)

// Error is the only error type that leaves the assessment package.
// Message is safe to show to clients; the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	// Status is set on conflicts and carries the candidate's current terminal status.
	Status storage.Status
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func validationError(reason Reason, msg string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Reason: ReasonTokenNotFound, Message: msg}
}

func alreadyCompleted(status storage.Status) *Error {
	return &Error{
		Kind:    KindConflict,
		Reason:  ReasonAlreadyCompleted,
		Message: "assessment already completed",
		Status:  status,
	}
}

func expiredError() *Error {
	return &Error{Kind: KindExpired, Reason: ReasonTokenExpired, Message: "token expired, request a new link"}
}

// internalError hides store detail behind a generic message and keeps the cause with a stack.
func internalError(err error, op string) *Error {
	return &Error{
		Kind:    KindInternal,
		Reason:  ReasonInternal,
		Message: "internal error",
		cause:   errors.Wrap(err, op),
	}
}

// AsError extracts the assessment error from err. Anything unclassified becomes an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Reason: ReasonInternal, Message: "internal error", cause: err}
}

// KindOf returns the failure class of err.
func KindOf(err error) Kind {
	return AsError(err).Kind
}
