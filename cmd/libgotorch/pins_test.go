package main

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gotorch/capi"
)

func TestPinSet(t *testing.T) {
	s := &pinSet{m: make(map[capi.Handle]*runtime.Pinner)}
	a, b := new(int64), new(int64)

	s.pin(1, nil)
	assert.Equal(t, 0, s.len())

	s.pin(1, unsafe.Pointer(a))
	s.pin(1, unsafe.Pointer(a))
	s.pin(2, unsafe.Pointer(b))
	assert.Equal(t, 2, s.len())

	s.release(1)
	s.release(1)
	assert.Equal(t, 1, s.len())
	s.release(2)
	assert.Equal(t, 0, s.len())
}

func TestReleaseTensorUnpins(t *testing.T) {
	data := []float32{1, 2, 3}
	h, err := rt.NewTensorCopy(unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), 12), []int64{3}, capi.Float)
	require.NoError(t, err)

	p, err := rt.TensorValue(h)
	require.NoError(t, err)
	pins.pin(h, p)
	dims, err := rt.TensorShape(h)
	require.NoError(t, err)
	pins.pin(h, unsafe.Pointer(&dims[0]))
	assert.Equal(t, 1, pins.len())

	require.NoError(t, releaseTensor(h))
	assert.Equal(t, 0, pins.len())
	assert.ErrorIs(t, releaseTensor(h), capi.ErrInvalidHandle)
}
