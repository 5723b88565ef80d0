package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for retry decisions and HTTP mapping. The set is
// deliberately small: everything the retry wrapper or a handler needs to
// branch on is a Kind; finer detail lives in the Code.
type Kind string

const (
	// KindValidation marks a malformed caller request. Never retried.
	KindValidation Kind = "VALIDATION"
	// KindNotFound marks a reference to an operation the store does not
	// know about, or a stored record too mangled to refresh.
	KindNotFound Kind = "NOT_FOUND"
	// KindTransient marks network/timeout/server-error class failures,
	// eligible for retry under the backoff policy.
	KindTransient Kind = "TRANSIENT"
	// KindPolicyRejected marks a provider content-safety refusal. Never
	// retried; retrying burns quota with no chance of success.
	KindPolicyRejected Kind = "POLICY_REJECTED"
	// KindInconsistentState marks an operation that reports done with
	// neither an error nor a usable result. Always fatal.
	KindInconsistentState Kind = "INCONSISTENT_TERMINAL_STATE"
	// KindInternal is the catch-all for everything else.
	KindInternal Kind = "INTERNAL"
)

// Error is the domain failure type. Code is a stable machine-readable
// identifier that doubles as the i18n message key for the user-facing text.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// E constructs a domain error.
func E(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and code to an underlying error, preserving the chain.
func Wrap(kind Kind, code string, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: kind, Code: code, Message: msg, cause: err}
}

// KindOf walks the error chain and returns the first domain Kind found,
// or KindInternal when the chain carries no domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf returns the machine code of the first domain error in the chain.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ErrNoOperationName is returned when a submission succeeds transport-wise
// but the provider hands back an operation without a name. It is distinct
// from a network failure so callers never retry or misreport it.
var ErrNoOperationName = E(KindInternal, "no_operation_name", "provider returned an operation without a name")
