package main

// #include <stdlib.h>
// #include "torch.h"
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"fortio.org/safecast"

	"github.com/born-ml/gotorch/capi"
)

var errNilPointer = errors.New("nil pointer argument")

//export Torch_NewTensor
func Torch_NewTensor(data unsafe.Pointer, dimensions *C.int64_t, nDim C.int, dtype C.Torch_DataType, cErr *C.Torch_Error) C.Torch_TensorContext {
	n, err := safecast.Conv[int](nDim)
	if err != nil {
		setError(cErr, fmt.Errorf("rank %d: %w", nDim, err))
		return 0
	}
	if n > 0 && dimensions == nil {
		setError(cErr, fmt.Errorf("dimensions: %w", errNilPointer))
		return 0
	}

	dims := make([]int64, n)
	if n > 0 {
		copy(dims, unsafe.Slice((*int64)(unsafe.Pointer(dimensions)), n))
	}

	h, err := rt.NewTensor(data, dims, capi.Tag(dtype))
	if err != nil {
		setError(cErr, err)
		return 0
	}
	return C.Torch_TensorContext(h)
}

// Torch_TensorValue returns the tensor's data. The pointer stays valid
// until the handle is deleted.
//
//export Torch_TensorValue
func Torch_TensorValue(ctx C.Torch_TensorContext, cErr *C.Torch_Error) unsafe.Pointer {
	h := capi.Handle(ctx)
	p, err := rt.TensorValue(h)
	if err != nil {
		setError(cErr, err)
		return nil
	}
	pins.pin(h, p)
	return p
}

//export Torch_TensorType
func Torch_TensorType(ctx C.Torch_TensorContext, cErr *C.Torch_Error) C.Torch_DataType {
	tag, err := rt.TensorDType(capi.Handle(ctx))
	if err != nil {
		setError(cErr, err)
		return C.Torch_Unknown
	}
	return C.Torch_DataType(tag)
}

// Torch_TensorShape returns the tensor's dimensions and stores their count
// in dims. The array is owned by the handle.
//
//export Torch_TensorShape
func Torch_TensorShape(ctx C.Torch_TensorContext, dims *C.size_t, cErr *C.Torch_Error) *C.int64_t {
	if dims == nil {
		setError(cErr, fmt.Errorf("dims: %w", errNilPointer))
		return nil
	}
	*dims = 0

	h := capi.Handle(ctx)
	shape, err := rt.TensorShape(h)
	if err != nil {
		setError(cErr, err)
		return nil
	}
	*dims = C.size_t(len(shape))
	if len(shape) == 0 {
		return nil
	}
	p := unsafe.Pointer(&shape[0])
	pins.pin(h, p)
	return (*C.int64_t)(p)
}

//export Torch_DeleteTensor
func Torch_DeleteTensor(ctx C.Torch_TensorContext, cErr *C.Torch_Error) {
	if err := releaseTensor(capi.Handle(ctx)); err != nil {
		setError(cErr, err)
	}
}

//export Torch_PrintTensors
func Torch_PrintTensors(tensors *C.Torch_TensorContext, size C.size_t, cErr *C.Torch_Error) {
	n, err := safecast.Conv[int](size)
	if err != nil {
		setError(cErr, err)
		return
	}
	if n > 0 && tensors == nil {
		setError(cErr, fmt.Errorf("tensors: %w", errNilPointer))
		return
	}

	hs := make([]capi.Handle, n)
	if n > 0 {
		for i, ctx := range unsafe.Slice(tensors, n) {
			hs[i] = capi.Handle(ctx)
		}
	}
	if err := rt.PrintTensors(hs...); err != nil {
		setError(cErr, err)
	}
}
