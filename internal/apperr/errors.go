// Package apperr defines the error taxonomy shared by the gateways, engines and
// the HTTP dispatcher.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for recovery and reporting.
type Kind string

const (
	// KindConfiguration marks a missing credential or identifier.
	KindConfiguration Kind = "configuration"
	// KindUpstream marks a non-2xx or malformed response from an external API.
	KindUpstream Kind = "upstream"
	// KindValidation marks bad caller input. It is not a system fault.
	KindValidation Kind = "validation"
	// KindToken marks an access token that could not be obtained or refreshed.
	KindToken Kind = "token"
)

// Error is a classified error carrying the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Configuration returns a KindConfiguration error.
func Configuration(op, msg string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: msg}
}

// Validation returns a KindValidation error.
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

// Upstream returns a KindUpstream error wrapping err.
func Upstream(op, msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Message: msg, Err: err}
}

// Token returns a KindToken error wrapping err.
func Token(op, msg string, err error) *Error {
	return &Error{Kind: KindToken, Op: op, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-facing message of a classified error, falling
// back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
