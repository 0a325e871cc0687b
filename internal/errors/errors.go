// Package errors provides the domain error taxonomy shared by every module.
//
// Every error surfaced out of a usecase carries a Kind, set either by
// wrapping one of the sentinel errors below or by constructing one directly
// with New/Newf. HTTP status mapping happens in exactly one place
// (internal/httputil), never in a handler or usecase.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the single HTTP-status-mapping boundary.
type Kind string

const (
	KindValidation           Kind = "validation_failure"
	KindAuthenticationNeeded Kind = "authentication_required"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindAuthFailure          Kind = "authentication_failure" // AEAD tag mismatch
	KindTransportCorruption Kind = "transport_corruption"    // KMS CRC mismatch
	KindTransportTimeout     Kind = "transport_timeout"
	KindInternal             Kind = "internal"
)

// Error is a Kind-tagged error that wraps an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a Kind-tagged error with no underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a Kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to an existing error, preserving the chain.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Wrapf attaches a Kind and a formatted message to an existing error,
// preserving the chain.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WrapInternal wraps an unexpected error as KindInternal, for collaborator
// failures (database, KMS transport setup) that don't map to a domain kind.
func WrapInternal(err error, msg string) error {
	return Wrap(KindInternal, err, msg)
}

// GetKind extracts the Kind from err's tree, defaulting to KindInternal
// when err carries no Kind (a bare collaborator error that escaped wrapping).
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Sentinel errors for use with Is/As where a Kind check isn't granular enough.
var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrClientInactive      = errors.New("client is inactive")
	ErrDekStillReferenced  = errors.New("dek is still referenced by a secret")
	ErrFolderCycle         = errors.New("folder parent would create a cycle")
	ErrDekIDMismatch       = errors.New("envelope dek id does not match secret row")
	ErrAuthenticationFail  = errors.New("authentication failure")
	ErrTransportCorruption = errors.New("transport corruption")
	ErrTransportTimeout    = errors.New("transport timeout")
)
