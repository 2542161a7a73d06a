// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package torch is the Go API of gotorch: tensors, TorchScript-style
// modules and their methods, built on the handle boundary in package capi.
//
// # Tensors
//
// [NewTensor] accepts nested slices or arrays of uint8, int8, int16,
// int32, int64, float16.Float16, float32 or float64 and infers the shape:
//
//	t, err := torch.NewTensor([][]float32{{1, 2}, {3, 4}})
//	t.Shape() // [2 2]
//	t.Value() // [][]float32{{1, 2}, {3, 4}}
//
// # Modules
//
//	module, err := torch.CompileTorchScript(`
//	    def sum(a, b):
//	        return a + b
//	`)
//	result, err := module.RunMethod("sum", a, b)
//	result.(*torch.Tensor).Value()
//
// Methods return a *Tensor or a [Tuple] of results. Every wrapper can be
// released explicitly; wrappers that become unreachable are released by a
// runtime cleanup.
package torch
