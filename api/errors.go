// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-mempool.
// Every fallible pool, queue and ring operation returns one of these kinds;
// nothing on the data path panics.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrOutOfRange        = errors.New("out of range")
	ErrDuplicateEnqueue  = errors.New("already enqueued")
	ErrDoubleFree        = errors.New("block already free")
	ErrClosed            = errors.New("resource is closed")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeResourceExhausted
	ErrCodeOutOfRange
	ErrCodeDuplicateEnqueue
	ErrCodeDoubleFree
	ErrCodeClosed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeDuplicateEnqueue:
		return "duplicate_enqueue"
	case ErrCodeDoubleFree:
		return "double_free"
	case ErrCodeClosed:
		return "closed"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// sentinel maps a code to the package-level error it matches under errors.Is.
func (c ErrorCode) sentinel() error {
	switch c {
	case ErrCodeInvalidArgument:
		return ErrInvalidArgument
	case ErrCodeResourceExhausted:
		return ErrResourceExhausted
	case ErrCodeOutOfRange:
		return ErrOutOfRange
	case ErrCodeDuplicateEnqueue:
		return ErrDuplicateEnqueue
	case ErrCodeDoubleFree:
		return ErrDoubleFree
	case ErrCodeClosed:
		return ErrClosed
	}
	return nil
}

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Is reports whether target is the sentinel for e.Code, so callers can use
// errors.Is(err, api.ErrOutOfRange) regardless of the attached context.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	s := e.Code.sentinel()
	return s != nil && s == target
}

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

// CodeOf extracts the ErrorCode carried by err, falling back to the sentinel
// identity for plain errors. Unknown errors report ErrCodeOK only for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for _, c := range []ErrorCode{
		ErrCodeInvalidArgument,
		ErrCodeResourceExhausted,
		ErrCodeOutOfRange,
		ErrCodeDuplicateEnqueue,
		ErrCodeDoubleFree,
		ErrCodeClosed,
	} {
		if errors.Is(err, c.sentinel()) {
			return c
		}
	}
	return -1
}

// IsRetriable reports whether err signals a transient capacity condition
// (exhausted pool, full queue, duplicate membership) that the caller may retry.
func IsRetriable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeResourceExhausted, ErrCodeDuplicateEnqueue:
		return true
	}
	return false
}
