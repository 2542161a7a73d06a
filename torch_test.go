// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

const sumScript = `
def sum(a, b):
    return a + b
`

func TestNewTensor(t *testing.T) {
	tensor, err := NewTensor([]float32{1, 2})
	require.NoError(t, err)
	defer tensor.Release()

	assert.Equal(t, Float, tensor.DType())
	assert.Equal(t, []int64{2}, tensor.Shape())
	assert.Equal(t, []float32{1, 2}, tensor.Value())
}

func TestNewTensorTypes(t *testing.T) {
	tests := []struct {
		value any
		dtype DType
		shape []int64
	}{
		{[]uint8{1, 2}, Byte, []int64{2}},
		{[]int8{-1}, Char, []int64{1}},
		{[][]int16{{1, 2, 3}}, Short, []int64{1, 3}},
		{[]int32{7}, Int, []int64{1}},
		{[][]int64{{1}, {2}}, Long, []int64{2, 1}},
		{[]float16.Float16{float16.Fromfloat32(1.5)}, Half, []int64{1}},
		{[2][2]float64{{1, 2}, {3, 4}}, Double, []int64{2, 2}},
		{float32(3), Float, []int64{}},
		{[]float32{}, Float, []int64{0}},
	}

	for _, tt := range tests {
		tensor, err := NewTensor(tt.value)
		require.NoError(t, err, "%T", tt.value)

		assert.Equal(t, tt.dtype, tensor.DType(), "%T", tt.value)
		assert.Equal(t, tt.shape, tensor.Shape(), "%T", tt.value)
		require.NoError(t, tensor.Release())
	}
}

func TestTensorValueRoundTrip(t *testing.T) {
	in := [][]int64{{1, 2, 3}, {4, 5, 6}}
	tensor, err := NewTensor(in)
	require.NoError(t, err)
	defer tensor.Release()

	assert.Equal(t, in, tensor.Value())

	half, err := NewTensor([]float16.Float16{float16.Fromfloat32(0.5)})
	require.NoError(t, err)
	assert.Equal(t, []float16.Float16{float16.Fromfloat32(0.5)}, half.Value())

	scalar, err := NewTensor(float64(2.5))
	require.NoError(t, err)
	assert.Equal(t, 2.5, scalar.Value())
}

func TestNewTensorErrors(t *testing.T) {
	_, err := NewTensor([]bool{true})
	assert.Error(t, err)

	_, err = NewTensor([]string{"a"})
	assert.Error(t, err)

	_, err = NewTensor(nil)
	assert.Error(t, err)

	_, err = NewTensor([][]float32{{1, 2}, {3}})
	assert.Error(t, err, "ragged slices")

	_, err = NewTensorWithShape([]float32{1}, []int64{1}, DType(0))
	assert.ErrorIs(t, err, ErrUnmappedTag)

	_, err = NewTensorWithShape([]float32{}, []int64{-1}, Float)
	assert.ErrorContains(t, err, "negative dimension")

	_, err = NewTensorWithShape(nil, []int64{}, Float)
	assert.ErrorContains(t, err, "nil tensor value")

	_, err = NewTensorWithShape([]float32{}, []int64{math.MaxInt64, 4}, Float)
	assert.ErrorIs(t, err, errShapeOverflow)

	_, err = NewTensorWithShape([]any{nil}, []int64{1}, Float)
	assert.ErrorContains(t, err, "nil element")
}

func TestTensorRelease(t *testing.T) {
	tensor, err := NewTensor([]float32{1})
	require.NoError(t, err)

	require.NoError(t, tensor.Release())
	assert.ErrorIs(t, tensor.Release(), ErrInvalidHandle)
	assert.Nil(t, tensor.Value())
	assert.Nil(t, tensor.Shape())
}

func TestCompileTorchScript(t *testing.T) {
	module, err := CompileTorchScript(sumScript)
	require.NoError(t, err)
	defer module.Release()

	method, err := module.GetMethod("sum")
	require.NoError(t, err)
	defer method.Release()

	a, _ := NewTensor([]float32{1, 2})
	b, _ := NewTensor([]float32{1, 2})

	res, err := method.Run(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4}, res.(*Tensor).Value())

	assert.Equal(t, []string{"sum"}, module.GetMethodNames())
	assert.Equal(t, []JITModuleMethodArgument{{Name: "a", Type: "Tensor"}, {Name: "b", Type: "Tensor"}}, method.Arguments())
	assert.Equal(t, []JITModuleMethodArgument{{Name: "", Type: "Tensor"}}, method.Returns())
}

func TestRunTuples(t *testing.T) {
	module, err := CompileTorchScript(`
def split(p: Tuple[Tensor, Tensor]):
    a, b = p
    return b, a + b
`)
	require.NoError(t, err)

	a, _ := NewTensor([]float32{1})
	b, _ := NewTensor([]float32{2})

	res, err := module.RunMethod("split", Tuple{a, b})
	require.NoError(t, err)

	tuple, ok := res.(Tuple)
	require.True(t, ok)
	require.Len(t, tuple, 2)
	assert.Equal(t, []float32{2}, tuple.Get(0).(*Tensor).Value())
	assert.Equal(t, []float32{3}, tuple.Get(1).(*Tensor).Value())
	assert.Nil(t, tuple.Get(2))
	assert.Nil(t, tuple.Get(-1))
}

func TestRunErrors(t *testing.T) {
	module, err := CompileTorchScript(sumScript)
	require.NoError(t, err)

	a, _ := NewTensor([]float32{1})

	_, err = module.RunMethod("sum", a)
	assert.ErrorIs(t, err, ErrArgument)

	_, err = module.RunMethod("sum", a, 2)
	assert.Error(t, err)

	_, err = module.RunMethod("missing", a, a)
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = module.Forward(a)
	assert.ErrorIs(t, err, ErrMethodNotFound)

	cyclic := Tuple{nil}
	cyclic[0] = cyclic
	_, err = module.RunMethod("sum", cyclic, a)
	assert.ErrorIs(t, err, ErrTooDeep)

	_, err = CompileTorchScript("def f(x):\n    if x:\n        return x\n")
	assert.Error(t, err)
}

func TestUnsupportedResult(t *testing.T) {
	module, err := CompileTorchScript("def count(x):\n    return 3\n")
	require.NoError(t, err)

	a, _ := NewTensor([]float32{1})
	_, err = module.RunMethod("count", a)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestSaveAndLoad(t *testing.T) {
	module, err := CompileTorchScript(`
def forward(self, x):
    self.seen = x
    return x + 1
`)
	require.NoError(t, err)

	x, _ := NewTensor([]float32{1, 2})
	_, err = module.Forward(x)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, module.Save(path))

	loaded, err := LoadJITModule(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"forward"}, loaded.GetMethodNames())

	res, err := loaded.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, res.(*Tensor).Value())

	_, err = LoadJITModule(filepath.Join(t.TempDir(), "missing.born"))
	assert.Error(t, err)
}

func TestModuleReleaseKeepsMethods(t *testing.T) {
	module, err := CompileTorchScript(sumScript)
	require.NoError(t, err)
	method, err := module.GetMethod("sum")
	require.NoError(t, err)

	require.NoError(t, module.Release())
	assert.ErrorIs(t, module.Release(), ErrInvalidHandle)
	assert.Nil(t, module.GetMethodNames())

	a, _ := NewTensor([]float32{1})
	res, err := method.Run(a, a)
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, res.(*Tensor).Value())
	require.NoError(t, method.Release())
}
