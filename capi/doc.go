// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package capi is the flat, handle-based boundary over the gotorch runtime.
//
// Every runtime object a caller can hold (tensor, compiled module, bound
// method) is represented by an opaque [Handle]. Handles are issued by a
// [Runtime] and stay valid until the matching release call. Releasing a
// handle twice, or using it after release, is detected and reported as
// [ErrInvalidHandle] instead of touching freed state.
//
// Values passed to and returned from methods cross the boundary as
// [boundary.Value] trees: a tensor leaf holding a tensor handle, or a tuple
// of further values. Trees returned by [Runtime.RunMethod] own their tensor
// handles; release them with [Runtime.FreeValue].
//
// # Example
//
//	rt := capi.Default()
//	mod, err := rt.CompileModule("def sum(a, b):\n    return a + b\n")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.ReleaseModule(mod)
//
//	sum, _ := rt.GetMethod(mod, "sum")
//	defer rt.ReleaseMethod(sum)
//
//	a, _ := rt.NewTensor(unsafe.Pointer(&xs[0]), []int64{3}, capi.Float)
//	b, _ := rt.NewTensor(unsafe.Pointer(&ys[0]), []int64{3}, capi.Float)
//	out, err := rt.RunMethod(sum, []boundary.Value{boundary.TensorValue(a), boundary.TensorValue(b)})
//
// Every function is synchronous and runs on the caller's goroutine. The
// handle table is safe for concurrent use with distinct handles; ordering
// of calls on one handle is the caller's responsibility.
package capi
