// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package capi

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/born-ml/gotorch/internal/dtype"
	"github.com/born-ml/gotorch/internal/handle"
	"github.com/born-ml/gotorch/internal/tensor"
)

// toShape narrows boundary dims to a runtime shape.
func toShape(dims []int64) (tensor.Shape, error) {
	shape := make(tensor.Shape, len(dims))
	for i, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d at index %d", d, i)
		}
		n, err := safecast.Conv[int](d)
		if err != nil {
			return nil, fmt.Errorf("dimension %d at index %d: %w", d, i, err)
		}
		shape[i] = n
	}
	return shape, nil
}

// NewTensor wraps caller memory as a tensor without copying it. data must
// hold the product of dims elements of the given type and must stay valid,
// unmoved, until the handle is released and no value derived from it is
// still in use.
func (r *Runtime) NewTensor(data unsafe.Pointer, dims []int64, tag Tag) (Handle, error) {
	const op = "new_tensor"

	dt, err := dtype.ToRuntime(tag)
	if err != nil {
		return InvalidHandle, fail(op, KindMapping, InvalidHandle, err, "")
	}
	shape, err := toShape(dims)
	if err != nil {
		return InvalidHandle, fail(op, KindInvalidInput, InvalidHandle, err, "")
	}
	t, err := tensor.FromBlob(data, shape, dt)
	if err != nil {
		return InvalidHandle, fail(op, KindConstruction, InvalidHandle, err, "")
	}

	h, err := r.insertTensor(t)
	if err != nil {
		t.Release()
		return InvalidHandle, fail(op, KindOwnership, InvalidHandle, err, "")
	}
	r.log.Debug("tensor wrapped", zap.Stringer("handle", h), zap.Stringer("dtype", tag), zap.Int64s("dims", dims))
	return h, nil
}

// NewTensorCopy creates a tensor that owns a copy of data.
func (r *Runtime) NewTensorCopy(data []byte, dims []int64, tag Tag) (Handle, error) {
	const op = "new_tensor_copy"

	dt, err := dtype.ToRuntime(tag)
	if err != nil {
		return InvalidHandle, fail(op, KindMapping, InvalidHandle, err, "")
	}
	shape, err := toShape(dims)
	if err != nil {
		return InvalidHandle, fail(op, KindInvalidInput, InvalidHandle, err, "")
	}
	t, err := tensor.FromBytes(data, shape, dt)
	if err != nil {
		return InvalidHandle, fail(op, KindConstruction, InvalidHandle, err, "")
	}

	h, err := r.insertTensor(t)
	if err != nil {
		t.Release()
		return InvalidHandle, fail(op, KindOwnership, InvalidHandle, err, "")
	}
	return h, nil
}

// TensorValue returns the address of the tensor's first element, or nil
// for an empty tensor.
func (r *Runtime) TensorValue(h Handle) (unsafe.Pointer, error) {
	e, err := r.tensorEntry(h)
	if err != nil {
		return nil, fail("tensor_value", KindOwnership, h, err, "")
	}
	return e.t.DataPtr(), nil
}

// TensorBytes returns the tensor's storage. The slice aliases the tensor
// and is valid until the handle is released.
func (r *Runtime) TensorBytes(h Handle) ([]byte, error) {
	e, err := r.tensorEntry(h)
	if err != nil {
		return nil, fail("tensor_bytes", KindOwnership, h, err, "")
	}
	return e.t.Data(), nil
}

// TensorDType returns the tensor's scalar type tag. Runtime types with no
// tag, such as bool, report Unknown.
func (r *Runtime) TensorDType(h Handle) (Tag, error) {
	e, err := r.tensorEntry(h)
	if err != nil {
		return Unknown, fail("tensor_dtype", KindOwnership, h, err, "")
	}
	return dtype.FromRuntime(e.t.DType()), nil
}

// TensorShape returns the tensor's dimensions. The slice is owned by the
// handle: do not modify it, and do not use it after release.
func (r *Runtime) TensorShape(h Handle) ([]int64, error) {
	e, err := r.tensorEntry(h)
	if err != nil {
		return nil, fail("tensor_shape", KindOwnership, h, err, "")
	}
	return e.dims, nil
}

// ReleaseTensor releases a tensor handle. A second release fails with
// ErrInvalidHandle.
func (r *Runtime) ReleaseTensor(h Handle) error {
	if _, err := r.table.Remove(h, handle.KindTensor); err != nil {
		return fail("release_tensor", KindOwnership, h, err, "")
	}
	return nil
}

// PrintAll writes every tensor to w, each in the layout libtorch uses for
// operator<<.
func (r *Runtime) PrintAll(w io.Writer, hs ...Handle) error {
	for _, h := range hs {
		e, err := r.tensorEntry(h)
		if err != nil {
			return fail("print_tensors", KindOwnership, h, err, "")
		}
		if err := e.t.Print(w); err != nil {
			return fail("print_tensors", KindInvalidInput, h, err, "write failed")
		}
	}
	return nil
}

// PrintTensors writes every tensor to standard output.
func (r *Runtime) PrintTensors(hs ...Handle) error {
	return r.PrintAll(os.Stdout, hs...)
}
