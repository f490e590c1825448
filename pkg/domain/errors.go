package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrorKind is the closed set of failure categories surfaced by the core.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindCatalogUnavailable ErrorKind = "catalog_unavailable"
	KindConnectFailed      ErrorKind = "connect_failed"
	KindNotFound           ErrorKind = "not_found"
	KindServerError        ErrorKind = "server_error"
	KindTimeout            ErrorKind = "timeout"
	KindInvalidState       ErrorKind = "invalid_state"
)

// Sentinels, one per kind. Every *Error matches its kind's sentinel with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrConnectFailed      = errors.New("connect failed")
	ErrNotFound           = errors.New("not found")
	ErrServerError        = errors.New("server error")
	ErrTimeout            = errors.New("timeout")
	ErrInvalidState       = errors.New("invalid state")
)

var sentinels = map[ErrorKind]error{
	KindInvalidInput:       ErrInvalidInput,
	KindCatalogUnavailable: ErrCatalogUnavailable,
	KindConnectFailed:      ErrConnectFailed,
	KindNotFound:           ErrNotFound,
	KindServerError:        ErrServerError,
	KindTimeout:            ErrTimeout,
	KindInvalidState:       ErrInvalidState,
}

// Sentinel returns the sentinel error for the kind, or nil for an unknown kind.
func (k ErrorKind) Sentinel() error {
	return sentinels[k]
}

// Valid reports whether k belongs to the taxonomy.
func (k ErrorKind) Valid() bool {
	_, ok := sentinels[k]
	return ok
}

// Error is a classified failure.
type Error struct {
	Kind ErrorKind
	// Op names the operation that failed, e.g. "navigate" or "search".
	Op  string
	Err error
}

// NewError builds a classified error. err may be nil.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error with a formatted cause.
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if s := e.Kind.Sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf classifies any error into the taxonomy.
// Unclassified context deadlines become KindTimeout, anything else KindServerError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Kind.Valid() {
		return de.Kind
	}
	for kind, s := range sentinels {
		if errors.Is(err, s) {
			return kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindServerError
}

// Classify returns err as an *Error, classifying it with KindOf when it is not one already.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) && de.Kind.Valid() {
		return de
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}
