// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"runtime"

	"fortio.org/safecast"

	"github.com/born-ml/gotorch/capi"
)

// Tensor is a tensor owned by the default runtime.
type Tensor struct {
	rt      *capi.Runtime
	h       capi.Handle
	cleanup runtime.Cleanup
}

// handleRef is what a cleanup needs to release a handle. It must not point
// back to the wrapper.
type handleRef struct {
	rt *capi.Runtime
	h  capi.Handle
}

func releaseTensor(ref handleRef) { _ = ref.rt.ReleaseTensor(ref.h) }

func tensorWithHandle(rt *capi.Runtime, h capi.Handle) *Tensor {
	t := &Tensor{rt: rt, h: h}
	t.cleanup = runtime.AddCleanup(t, releaseTensor, handleRef{rt, h})
	return t
}

// NewTensor creates a tensor from a Go value. The value may be a scalar
// or nested slices or arrays of a supported element type; the shape is
// taken from the nesting.
func NewTensor(value any) (*Tensor, error) {
	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return nil, errors.New("torch: nil tensor value")
	}
	shape, dt, err := shapeAndDTypeOf(val)
	if err != nil {
		return nil, err
	}
	return NewTensorWithShape(value, shape, dt)
}

// NewTensorWithShape creates a tensor of the given shape and type from a
// Go value. The value's elements are copied into runtime-owned memory.
func NewTensorWithShape(value any, shape []int64, dt DType) (*Tensor, error) {
	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return nil, errors.New("torch: nil tensor value")
	}
	elem, ok := typeOf(dt, 0)
	if !ok {
		return nil, fmt.Errorf("torch: %w: %s", ErrUnmappedTag, dt)
	}
	n, err := numElements(shape)
	if err != nil {
		return nil, fmt.Errorf("torch: shape %v: %w", shape, err)
	}
	if n > math.MaxInt/int(elem.Size()) {
		return nil, fmt.Errorf("torch: shape %v: %w", shape, errShapeOverflow)
	}

	var buf bytes.Buffer
	buf.Grow(int(elem.Size()) * n)
	if err := encodeTensor(&buf, val, shape); err != nil {
		return nil, fmt.Errorf("torch: %w", err)
	}

	rt := capi.Default()
	h, err := rt.NewTensorCopy(buf.Bytes(), shape, dt)
	if err != nil {
		return nil, err
	}
	return tensorWithHandle(rt, h), nil
}

// DType returns the tensor's scalar type, or Unknown once released.
func (t *Tensor) DType() DType {
	dt, err := t.rt.TensorDType(t.h)
	if err != nil {
		return capi.Unknown
	}
	return dt
}

// Shape returns the tensor's dimensions, or nil once released.
func (t *Tensor) Shape() []int64 {
	dims, err := t.rt.TensorShape(t.h)
	if err != nil {
		return nil
	}
	out := make([]int64, len(dims))
	copy(out, dims)
	return out
}

// Value copies the tensor into a Go value: nested slices matching the
// shape, or a bare element for a 0-d tensor. It returns nil once released
// or for element types without a Go mapping.
func (t *Tensor) Value() any {
	dims, err := t.rt.TensorShape(t.h)
	if err != nil {
		return nil
	}
	raw, err := t.rt.TensorBytes(t.h)
	if err != nil {
		return nil
	}
	typ, ok := typeOf(t.DType(), len(dims))
	if !ok {
		return nil
	}

	val := reflect.New(typ)
	if err := decodeTensor(bytes.NewReader(raw), dims, typ, val); err != nil {
		panic(fmt.Sprintf("unable to decode tensor of type %v and shape %v: %v", t.DType(), dims, err))
	}
	runtime.KeepAlive(t)
	return reflect.Indirect(val).Interface()
}

// Handle returns the tensor's boundary handle.
func (t *Tensor) Handle() capi.Handle {
	return t.h
}

// Release frees the tensor. Further calls return ErrInvalidHandle.
func (t *Tensor) Release() error {
	t.cleanup.Stop()
	return t.rt.ReleaseTensor(t.h)
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(%s, %v)", t.DType(), t.Shape())
}

// PrintTensors writes tensors to standard output the way libtorch prints them.
func PrintTensors(inputs ...*Tensor) error {
	if len(inputs) == 0 {
		return nil
	}
	hs := make([]capi.Handle, len(inputs))
	for i, t := range inputs {
		hs[i] = t.h
	}
	err := inputs[0].rt.PrintAll(os.Stdout, hs...)
	runtime.KeepAlive(inputs)
	return err
}

func shapeAndDTypeOf(val reflect.Value) ([]int64, DType, error) {
	shape := []int64{}
	typ := val.Type()
	for typ.Kind() == reflect.Array || typ.Kind() == reflect.Slice {
		shape = append(shape, int64(val.Len()))
		if val.Len() > 0 {
			val = val.Index(0)
		}
		typ = typ.Elem()
	}
	dt, ok := dtypeOf(typ)
	if !ok {
		return nil, capi.Unknown, fmt.Errorf("torch: unsupported element type %v", typ)
	}
	return shape, dt, nil
}

var errShapeOverflow = errors.New("element count overflows int")

// numElements multiplies the dims, rejecting negative dims and overflow.
func numElements(shape []int64) (int, error) {
	n := 1
	for i, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d at index %d", d, i)
		}
		di, err := safecast.Conv[int](d)
		if err != nil {
			return 0, err
		}
		if di != 0 && n > math.MaxInt/di {
			return 0, errShapeOverflow
		}
		n *= di
	}
	return n, nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func encodeTensor(w *bytes.Buffer, v reflect.Value, shape []int64) error {
	switch {
	case !v.IsValid():
		return errors.New("nil element")

	case v.Kind() == reflect.Interface:
		return encodeTensor(w, v.Elem(), shape)

	case isNumeric(v.Kind()):
		if len(shape) != 0 {
			return fmt.Errorf("expected %d more dimensions, found scalar %v", len(shape), v.Type())
		}
		return binary.Write(w, binary.NativeEndian, v.Interface())

	case v.Kind() == reflect.Array || v.Kind() == reflect.Slice:
		if len(shape) == 0 {
			return fmt.Errorf("value has more dimensions than the shape")
		}
		if int64(v.Len()) != shape[0] {
			return fmt.Errorf("mismatched slice lengths: %d and %d", v.Len(), shape[0])
		}
		if len(shape) == 1 && v.Kind() == reflect.Slice && v.Len() > 0 && isNumeric(v.Index(0).Kind()) {
			return binary.Write(w, binary.NativeEndian, v.Interface())
		}
		for i := 0; i < v.Len(); i++ {
			if err := encodeTensor(w, v.Index(i), shape[1:]); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported type %v", v.Type())
	}
}

func decodeTensor(r *bytes.Reader, shape []int64, typ reflect.Type, ptr reflect.Value) error {
	switch {
	case isNumeric(typ.Kind()):
		return binary.Read(r, binary.NativeEndian, ptr.Interface())

	case typ.Kind() == reflect.Slice:
		val := reflect.Indirect(ptr)
		val.Set(reflect.MakeSlice(typ, int(shape[0]), int(shape[0])))
		if len(shape) == 1 && val.Len() > 0 {
			return binary.Read(r, binary.NativeEndian, val.Interface())
		}
		for i := 0; i < val.Len(); i++ {
			if err := decodeTensor(r, shape[1:], typ.Elem(), val.Index(i).Addr()); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported type %v", typ)
	}
}
