// Package apperr defines the error taxonomy shared by the webhook
// dispatcher and the REST handlers. Every failure that crosses a
// component boundary is classified into one of the kinds below so the
// HTTP layer can map it to a status code without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary mapping.
type Kind int

const (
	// Internal is the default for unexpected failures.
	Internal Kind = iota
	// Validation marks bad or missing input supplied by the client.
	Validation
	// NotFound marks a referenced user, transaction or category that
	// does not exist.
	NotFound
	// Conflict marks a duplicate resource on explicit create.
	Conflict
	// Upstream marks a failed call to the chat gateway or the advice
	// generator.
	Upstream
)

// Error carries a kind plus a user-presentable message. The wrapped
// cause, when present, is for logs only and never leaks to chat replies.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from err, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the user-presentable message for err. Unclassified
// errors get a generic message so internal details are not exposed.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Erro interno, tente novamente mais tarde"
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
