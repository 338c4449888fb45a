// Package errors provides the error type shared by encode-audit packages.
// Every error carries the operation that failed and a Kind so the CLI can
// tell a bad keyfile apart from a malformed server response.
package errors

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Op represents an operation name for error context.
type Op string

// Error represents an application error with context.
type Error struct {
	Op   Op     // Operation that failed
	Kind Kind   // Category of error
	Err  error  // Underlying error
	Msg  string // Additional context message
}

// Kind represents the category of error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig
	KindAuth
	KindNetwork
	KindParse
	KindValidation
	KindIO
	KindStorage
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindParse:
		return "malformed response"
	case KindValidation:
		return "validation"
	case KindIO:
		return "io"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
		if e.Err != nil {
			b.WriteString(": ")
		}
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error with the given arguments.
// Arguments can be: Op, Kind, error, string (message).
func E(args ...interface{}) *Error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case error:
			e.Err = a
		case string:
			e.Msg = a
		}
	}
	return e
}

// Errorf creates an Error of the given kind with a formatted message.
func Errorf(op Op, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with an operation name for context.
// The kind of a wrapped *Error is preserved.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Err: err}
}

// WrapMsg wraps an error with an operation name and message.
func WrapMsg(op Op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: GetKind(err), Msg: msg, Err: err}
}

var ignoreLog = log.Default()

// SetIgnoreLogger sets where IgnoreError reports. A nil logger discards.
func SetIgnoreLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	ignoreLog = l
}

// IgnoreError explicitly ignores an error with a reason.
//
// Example:
//
//	errors.IgnoreError(file.Close(), "cleanup after failed write")
func IgnoreError(err error, reason string) {
	if err != nil {
		ignoreLog.Printf("ignoring error (%s): %v", reason, err)
	}
}

// IsKind checks if an error, or any *Error it wraps, is of the given kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// GetKind returns the first non-unknown kind found while unwrapping err,
// or KindUnknown.
func GetKind(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind != KindUnknown {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}
