// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for the hioload-rt runtime.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the runtime.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrNotSupported      = errors.New("operation not supported")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrNotFound          = errors.New("resource not found")
	ErrClosed            = errors.New("closed")
)

// ErrorCode represents specific error conditions in the runtime.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeNotSupported
	ErrCodeAlreadyExists
	ErrCodeNotFound
	// ErrCodeContract marks a programming-contract violation (double free,
	// double enqueue, waiting on an unbound event). Raised via panic.
	ErrCodeContract
	// ErrCodeHardware marks a hardware or initialization failure. Fatal at boot.
	ErrCodeHardware
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeNotSupported:
		return "not_supported"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeContract:
		return "contract_violation"
	case ErrCodeHardware:
		return "hardware"
	default:
		return "internal"
	}
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Wrap attaches a cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// codeSentinels maps error codes onto the package sentinels.
var codeSentinels = map[ErrorCode]error{
	ErrCodeInvalidArgument:   ErrInvalidArgument,
	ErrCodeResourceExhausted: ErrResourceExhausted,
	ErrCodeNotSupported:      ErrNotSupported,
	ErrCodeAlreadyExists:     ErrAlreadyExists,
	ErrCodeNotFound:          ErrNotFound,
}

// Is matches the sentinel of the error code, so that errors.Is(err,
// ErrNotFound) holds for a structured not-found error.
func (e *Error) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}

// CodeOf classifies err: the code of the first *Error in its chain, else the
// code of a wrapped sentinel. Nil is ErrCodeOK; anything else is
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for code, s := range codeSentinels {
		if errors.Is(err, s) {
			return code
		}
	}
	return ErrCodeInternal
}

// Contract builds the panic value used for programming-contract violations.
func Contract(message string) *Error {
	return NewError(ErrCodeContract, message)
}

// IsContract reports whether v (typically a recovered panic value) is a
// contract violation.
func IsContract(v any) bool {
	err, ok := v.(error)
	if !ok {
		return false
	}
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeContract
}
