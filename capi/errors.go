// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package capi

import (
	"errors"
	"strings"

	"github.com/born-ml/gotorch/internal/boundary"
	"github.com/born-ml/gotorch/internal/dtype"
	"github.com/born-ml/gotorch/internal/handle"
	"github.com/born-ml/gotorch/internal/jit"
)

// Kind categorizes a boundary failure.
type Kind string

const (
	// KindConstruction covers failures creating or persisting runtime
	// objects, from tensor wrapping and compilation to method lookup and
	// archive export.
	KindConstruction Kind = "construction"
	// KindConversion covers value tree encode and decode failures.
	KindConversion Kind = "conversion"
	// KindOwnership covers released, stale, foreign or wrong-kind handles.
	KindOwnership Kind = "ownership"
	// KindMapping covers scalar type tags with no runtime equivalent.
	KindMapping Kind = "mapping"
	// KindInvalidInput covers bad arguments such as wrong argument counts.
	KindInvalidInput Kind = "invalid_input"
)

// Kind sentinels for errors.Is.
var (
	ErrConstruction = &Error{Kind: KindConstruction}
	ErrConversion   = &Error{Kind: KindConversion}
	ErrOwnership    = &Error{Kind: KindOwnership}
	ErrMapping      = &Error{Kind: KindMapping}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
)

// Causes callers commonly match on.
var (
	ErrInvalidHandle   = handle.ErrInvalidHandle
	ErrHandleKind      = handle.ErrHandleKind
	ErrUnmappedTag     = dtype.ErrUnmappedTag
	ErrUnsupportedKind = boundary.ErrUnsupportedKind
	ErrInvalidTag      = boundary.ErrInvalidTag
	ErrTooDeep         = boundary.ErrTooDeep
	ErrMethodNotFound  = jit.ErrMethodNotFound
	ErrArgument        = jit.ErrArgument
)

// Error is the structured error returned by every capi operation.
type Error struct {
	Op     string // operation name, e.g. "run_method"
	Kind   Kind
	Handle Handle // offending handle, if any
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(e.Op)
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != handle.Invalid {
		b.WriteString(" at ")
		b.WriteString(e.Handle.String())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. A target that
// names an Op must match it too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// fail wraps cause into an *Error. The kind is taken from the cause when it
// is one of the well-known sentinels, falling back to kind.
func fail(op string, kind Kind, h Handle, cause error, detail string) *Error {
	return &Error{Op: op, Kind: classify(cause, kind), Handle: h, Detail: detail, Cause: cause}
}

func classify(err error, fallback Kind) Kind {
	switch {
	case err == nil:
		return fallback
	case errors.Is(err, handle.ErrInvalidHandle), errors.Is(err, handle.ErrHandleKind), errors.Is(err, handle.ErrClosed):
		return KindOwnership
	case errors.Is(err, dtype.ErrUnmappedTag):
		return KindMapping
	case errors.Is(err, boundary.ErrUnsupportedKind), errors.Is(err, boundary.ErrInvalidTag), errors.Is(err, boundary.ErrTooDeep):
		return KindConversion
	case errors.Is(err, jit.ErrMethodNotFound):
		return KindConstruction
	case errors.Is(err, jit.ErrArgument):
		return KindInvalidInput
	default:
		return fallback
	}
}
