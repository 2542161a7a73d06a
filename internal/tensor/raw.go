package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// tensorBuffer is a reference-counted shared buffer.
// A borrowed buffer aliases memory owned by someone else (see FromBlob)
// and is never reallocated or cleared by the runtime.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
	borrowed bool
	mu       sync.Mutex // For safe deallocation
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and drops the memory if it reaches 0.
func (tb *tensorBuffer) release() {
	if tb.refCount.Add(-1) == 0 {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		tb.data = nil
	}
}

// isUnique returns true if this buffer has only one reference.
func (tb *tensorBuffer) isUnique() bool {
	return tb.refCount.Load() == 1
}

// RawTensor is the low-level tensor representation.
// It uses reference-counted shared buffers; every RawTensor is contiguous
// in row-major order.
type RawTensor struct {
	buffer *tensorBuffer // Shared reference-counted buffer
	shape  Shape         // Tensor dimensions
	stride []int         // Memory strides (row-major)
	dtype  DataType      // Runtime type information
	device Device        // Compute device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zeroed.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid data type %d", int(dtype))
	}

	byteSize := shape.NumElements() * dtype.Size()

	return &RawTensor{
		buffer: newTensorBuffer(byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// FromBlob wraps caller-owned memory as a tensor without copying it.
// The memory must stay valid, and must not move, for as long as the
// returned tensor or any clone of it is in use.
func FromBlob(ptr unsafe.Pointer, shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid data type %d", int(dtype))
	}

	byteSize := shape.NumElements() * dtype.Size()
	if ptr == nil && byteSize > 0 {
		return nil, fmt.Errorf("nil data pointer for %d bytes", byteSize)
	}

	buf := &tensorBuffer{borrowed: true}
	if byteSize > 0 {
		//nolint:gosec // caller guarantees ptr addresses byteSize bytes
		buf.data = unsafe.Slice((*byte)(ptr), byteSize)
	}
	buf.refCount.Store(1)

	return &RawTensor{
		buffer: buf,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: CPU,
	}, nil
}

// FromBytes creates a tensor that owns a copy of data.
func FromBytes(data []byte, shape Shape, dtype DataType) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	if len(data) != t.ByteSize() {
		return nil, fmt.Errorf("shape %v of %s requires %d bytes, got %d", shape, dtype, t.ByteSize(), len(data))
	}
	copy(t.buffer.data, data)
	return t, nil
}

// FromSlice creates a tensor that owns a copy of values.
func FromSlice[T Element](values []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(values))
	}
	t, err := NewRaw(shape, DataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	copy(Elems[T](t), values)
	return t, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data
}

// DataPtr returns the address of the first element, or nil for an empty tensor.
func (r *RawTensor) DataPtr() unsafe.Pointer {
	if len(r.buffer.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&r.buffer.data[0])
}

// Borrowed reports whether the tensor aliases caller-owned memory.
func (r *RawTensor) Borrowed() bool {
	return r.buffer.borrowed
}

// Elems interprets the tensor data as []T.
// Panics if T does not match the tensor's dtype.
func Elems[T Element](r *RawTensor) []T {
	if dt := DataTypeOf[T](); dt != r.dtype {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
	data := r.buffer.data
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Clone creates a shallow copy of the RawTensor (shares buffer with reference counting).
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// Copy creates a deep copy that owns its memory.
func (r *RawTensor) Copy() *RawTensor {
	out := &RawTensor{
		buffer: newTensorBuffer(r.ByteSize()),
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
	copy(out.buffer.data, r.buffer.data)
	return out
}

// View returns a tensor sharing r's buffer with a different shape.
// The number of elements must not change.
func (r *RawTensor) View(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("shape %v is invalid for input of size %d", shape, r.NumElements())
	}
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
	}, nil
}

// Release decrements the reference count and deallocates if it reaches 0.
// Borrowed memory is only forgotten, never freed.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// IsUnique returns true if this tensor is the only reference to the buffer.
func (r *RawTensor) IsUnique() bool {
	return r.buffer.isUnique()
}

// Released reports whether the underlying buffer has been dropped.
func (r *RawTensor) Released() bool {
	return r.buffer.refCount.Load() <= 0
}
