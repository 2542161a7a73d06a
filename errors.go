// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch

import "github.com/born-ml/gotorch/capi"

// Error is the structured error returned by runtime operations.
type Error = capi.Error

// Errors callers commonly match with errors.Is.
var (
	ErrInvalidHandle   = capi.ErrInvalidHandle
	ErrUnmappedTag     = capi.ErrUnmappedTag
	ErrUnsupportedKind = capi.ErrUnsupportedKind
	ErrMethodNotFound  = capi.ErrMethodNotFound
	ErrArgument        = capi.ErrArgument
	ErrTooDeep         = capi.ErrTooDeep
)
