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
	"github.com/born-ml/gotorch/internal/boundary"
)

var errOutOfMemory = errors.New("out of memory")

// ivalues views a C array of n values.
func ivalues(p *C.Torch_IValue, size C.size_t) ([]C.Torch_IValue, error) {
	n, err := safecast.Conv[int](size)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if p == nil {
		return nil, errNilPointer
	}
	return unsafe.Slice(p, n), nil
}

// fromIValue reads a caller-built value tree. Tensor handles are borrowed,
// not released.
func fromIValue(v *C.Torch_IValue, depth int) (boundary.Value, error) {
	if depth >= rt.MaxDepth() {
		return boundary.Value{}, capi.ErrTooDeep
	}

	switch v.itype {
	case C.Torch_IValueTypeTensor:
		return boundary.TensorValue(capi.Handle(v.tensor)), nil
	case C.Torch_IValueTypeTuple:
		if v.tuple == nil {
			return boundary.Value{}, fmt.Errorf("tuple: %w", errNilPointer)
		}
		items, err := ivalues(v.tuple.values, v.tuple.length)
		if err != nil {
			return boundary.Value{}, fmt.Errorf("tuple: %w", err)
		}
		elems := make([]boundary.Value, len(items))
		for i := range items {
			if elems[i], err = fromIValue(&items[i], depth+1); err != nil {
				return boundary.Value{}, err
			}
		}
		return boundary.TupleValue(elems...), nil
	default:
		return boundary.Value{}, fmt.Errorf("%w: %d", capi.ErrInvalidTag, v.itype)
	}
}

// toIValue writes v into out, allocating tuple storage with calloc.
// On failure out holds whatever was built so far and can be freed.
func toIValue(out *C.Torch_IValue, v boundary.Value) error {
	out.itype = C.Torch_IValueTypeNone
	out.tensor = 0
	out.tuple = nil

	switch v.Tag {
	case boundary.TagTensor:
		out.itype = C.Torch_IValueTypeTensor
		out.tensor = C.Torch_TensorContext(v.Tensor)
		return nil
	case boundary.TagTuple:
		t := (*C.struct_Torch_IValueTuple)(C.calloc(1, C.size_t(unsafe.Sizeof(C.struct_Torch_IValueTuple{}))))
		if t == nil {
			return errOutOfMemory
		}
		out.itype = C.Torch_IValueTypeTuple
		out.tuple = t
		if v.Len() == 0 {
			return nil
		}

		t.values = (*C.Torch_IValue)(C.calloc(C.size_t(v.Len()), C.size_t(unsafe.Sizeof(C.Torch_IValue{}))))
		if t.values == nil {
			return errOutOfMemory
		}
		t.length = C.size_t(v.Len())
		items := unsafe.Slice(t.values, v.Len())
		for i, elem := range v.Elements {
			if err := toIValue(&items[i], elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", capi.ErrInvalidTag, v.Tag)
	}
}

// freeIValue frees tuple storage below v and, if asked, releases its
// tensor handles. It keeps going past failures.
func freeIValue(v *C.Torch_IValue, releaseTensors bool) error {
	var errs []error
	switch v.itype {
	case C.Torch_IValueTypeTensor:
		if releaseTensors {
			errs = append(errs, releaseTensor(capi.Handle(v.tensor)))
		}
	case C.Torch_IValueTypeTuple:
		if t := v.tuple; t != nil {
			if t.values != nil {
				items := unsafe.Slice(t.values, int(t.length))
				for i := range items {
					errs = append(errs, freeIValue(&items[i], releaseTensors))
				}
				C.free(unsafe.Pointer(t.values))
			}
			C.free(unsafe.Pointer(t))
		}
	}
	v.itype = C.Torch_IValueTypeNone
	v.tensor = 0
	v.tuple = nil
	return errors.Join(errs...)
}

// Torch_FreeIValue frees the tuple storage of a value returned by
// Torch_JITModuleMethodRun. With release_tensors set it also deletes every
// tensor in the tree. The Torch_IValue itself belongs to the caller.
//
//export Torch_FreeIValue
func Torch_FreeIValue(value *C.Torch_IValue, releaseTensors C.int) {
	if value == nil {
		return
	}
	_ = freeIValue(value, releaseTensors != 0)
}
