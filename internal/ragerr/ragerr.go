// Package ragerr defines the error taxonomy shared across the knowledge engine.
package ragerr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category. It is not a Go error
// type itself — errors carry a Kind alongside a human message so callers can
// switch on category without string matching.
type Kind string

const (
	KindConfig    Kind = "config"
	KindIO        Kind = "io"
	KindParse     Kind = "parse"
	KindChunking  Kind = "chunking"
	KindEmbedding Kind = "embedding"
	KindIndex     Kind = "index"
	KindRetrieval Kind = "retrieval"
	KindTemplate  Kind = "template"
	KindLLM       Kind = "llm"
	KindCancelled Kind = "cancelled"
)

// Error is a taxonomy-tagged error. Unwrap exposes the underlying cause so
// errors.Is/errors.As keep working across the wrapping boundary.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error carrying an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of reports the Kind of err, or "" if err does not carry one.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return Of(err) == kind
}

// Sentinel errors for conditions checked by identity rather than kind.
var (
	// ErrNotFound indicates a requested base, source, or chunk does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch indicates a provider's dimensions disagree with a
	// base's stored embedding configuration. Fatal per the consistency guard.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrConfigMismatch indicates a base's stored (provider, model, dimensions)
	// disagree with the requested embedding configuration.
	ErrConfigMismatch = errors.New("embedding configuration mismatch")

	// ErrTooManyFailures indicates more than half the sources in a learn pass
	// failed, aborting the whole pass per the isolation policy.
	ErrTooManyFailures = errors.New("too many source failures")
)

// Response is the structured shape the caller-facing surface serializes:
// {"success": false, "error": "...", "error_code": "..."}.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
}

// ToResponse converts any error into the structured error response. Errors
// without a Kind are reported under "unknown".
func ToResponse(err error) Response {
	kind := Of(err)
	if kind == "" {
		kind = "unknown"
	}
	return Response{Success: false, Error: err.Error(), ErrorCode: string(kind)}
}
