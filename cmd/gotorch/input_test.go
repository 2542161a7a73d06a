package main

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
)

func float32s(t *testing.T, rt *capi.Runtime, h capi.Handle) []float32 {
	t.Helper()
	data, err := rt.TensorBytes(h)
	require.NoError(t, err)
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(data[i*4:]))
	}
	return out
}

func TestParseInputTensor(t *testing.T) {
	rt := capi.New(capi.Config{})

	v, err := parseInput(rt, "[[1, 2], [3, 4.5]]", capi.Float)
	require.NoError(t, err)
	require.Equal(t, boundary.TagTensor, v.Tag)

	dims, err := rt.TensorShape(v.Tensor)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 2}, dims)
	assert.Equal(t, []float32{1, 2, 3, 4.5}, float32s(t, rt, v.Tensor))

	require.NoError(t, rt.FreeValue(v))
	assert.Zero(t, rt.Stats().Total())
}

func TestParseInputScalarTypes(t *testing.T) {
	rt := capi.New(capi.Config{})

	v, err := parseInput(rt, "7", capi.Long)
	require.NoError(t, err)
	dims, err := rt.TensorShape(v.Tensor)
	require.NoError(t, err)
	assert.Empty(t, dims)
	data, err := rt.TensorBytes(v.Tensor)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), binary.NativeEndian.Uint64(data))

	h, err := parseInput(rt, "[1.5]", capi.Half)
	require.NoError(t, err)
	data, err = rt.TensorBytes(h.Tensor)
	require.NoError(t, err)
	assert.Equal(t, float16.Fromfloat32(1.5).Bits(), binary.NativeEndian.Uint16(data))

	b, err := parseInput(rt, "[0, 255]", capi.Byte)
	require.NoError(t, err)
	data, err = rt.TensorBytes(b.Tensor)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255}, data)

	empty, err := parseInput(rt, "[]", capi.Float)
	require.NoError(t, err)
	dims, err = rt.TensorShape(empty.Tensor)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, dims)
}

func TestParseInputTuple(t *testing.T) {
	rt := capi.New(capi.Config{})

	v, err := parseInput(rt, `{"tuple": [[1], {"tuple": [[2, 3]]}]}`, capi.Float)
	require.NoError(t, err)
	require.Equal(t, boundary.TagTuple, v.Tag)
	require.Equal(t, 2, v.Len())
	assert.Equal(t, []float32{1}, float32s(t, rt, v.At(0).Tensor))
	require.Equal(t, 1, v.At(1).Len())
	assert.Equal(t, []float32{2, 3}, float32s(t, rt, v.At(1).At(0).Tensor))

	require.NoError(t, rt.FreeValue(v))
	assert.Zero(t, rt.Stats().Total())
}

func TestParseInputErrors(t *testing.T) {
	rt := capi.New(capi.Config{})

	tests := []struct {
		name  string
		input string
		tag   capi.Tag
	}{
		{"ragged", "[[1, 2], [3]]", capi.Float},
		{"fraction", "[1.5]", capi.Long},
		{"overflow", "[300]", capi.Byte},
		{"string", `[1, "x"]`, capi.Float},
		{"null", "[null]", capi.Float},
		{"object", `{"list": [1]}`, capi.Float},
		{"trailing", "[1] [2]", capi.Float},
		{"syntax", "nope", capi.Float},
		{"bad tuple element", `{"tuple": [[1], [1, [2]]]}`, capi.Float},
		{"unmapped", "[1]", capi.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInput(rt, tt.input, tt.tag)
			require.Error(t, err)
			assert.Zero(t, rt.Stats().Total())
		})
	}
}

func TestParseInputDepth(t *testing.T) {
	rt := capi.New(capi.Config{MaxDepth: 2})

	_, err := parseInput(rt, `{"tuple": [[0], {"tuple": [[1]]}]}`, capi.Float)
	require.ErrorIs(t, err, capi.ErrTooDeep)
	assert.Zero(t, rt.Stats().Total())

	v, err := parseInput(rt, `{"tuple": [[0], [1]]}`, capi.Float)
	require.NoError(t, err)
	require.NoError(t, rt.FreeValue(v))
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "net", moduleName("/tmp/models/net.py"))
	assert.Equal(t, "Net_2", moduleName("Net_2.txt"))
	assert.Equal(t, "Module", moduleName("my-net.py"))
	assert.Equal(t, "Module", moduleName("2net"))
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(short, []byte("BO"), 0o600))
	ok, err := isArchive(short)
	require.NoError(t, err)
	assert.False(t, ok)

	magic := filepath.Join(dir, "magic")
	require.NoError(t, os.WriteFile(magic, []byte("BORN...."), 0o600))
	ok, err = isArchive(magic)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = isArchive(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
