package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gotorch/internal/tensor"
)

func mustFloat32(t *testing.T, values []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(values, tensor.Shape(shape))
	require.NoError(t, err)
	return raw
}

func mustInt64(t *testing.T, values []int64, shape ...int) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(values, tensor.Shape(shape))
	require.NoError(t, err)
	return raw
}

func TestAddBroadcast(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := mustFloat32(t, []float32{10, 20, 30}, 3)

	out := b.Add(x, y)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, tensor.Elems[float32](out))

	// Inputs are never written to.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Elems[float32](x))
}

func TestBinaryPromotion(t *testing.T) {
	b := New()
	x := mustInt64(t, []int64{1, 2}, 2)
	y := mustFloat32(t, []float32{0.5, 0.5}, 2)

	out := b.Mul(x, y)
	assert.Equal(t, tensor.Float32, out.DType())
	assert.Equal(t, []float32{0.5, 1}, tensor.Elems[float32](out))

	sum := b.Add(x, x)
	assert.Equal(t, tensor.Int64, sum.DType())
	assert.Equal(t, []int64{2, 4}, tensor.Elems[int64](sum))
}

func TestDivIntegersIsTrueDivision(t *testing.T) {
	b := New()
	out := b.Div(mustInt64(t, []int64{1, 3}, 2), mustInt64(t, []int64{2, 2}, 2))
	assert.Equal(t, tensor.Float32, out.DType())
	assert.Equal(t, []float32{0.5, 1.5}, tensor.Elems[float32](out))
}

func TestBroadcastMismatchPanics(t *testing.T) {
	b := New()
	assert.Panics(t, func() {
		b.Add(mustFloat32(t, []float32{1, 2, 3}, 3), mustFloat32(t, []float32{1, 2}, 2))
	})
}

func TestPromoteTypes(t *testing.T) {
	tests := []struct {
		a, b, want tensor.DataType
	}{
		{tensor.Float32, tensor.Float32, tensor.Float32},
		{tensor.Int64, tensor.Float32, tensor.Float32},
		{tensor.Float16, tensor.Float64, tensor.Float64},
		{tensor.Int8, tensor.Float16, tensor.Float16},
		{tensor.Int32, tensor.Int64, tensor.Int64},
		{tensor.Uint8, tensor.Int8, tensor.Int16},
		{tensor.Uint8, tensor.Int16, tensor.Int16},
		{tensor.Bool, tensor.Int32, tensor.Int32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PromoteTypes(tt.a, tt.b), "%s + %s", tt.a, tt.b)
		assert.Equal(t, tt.want, PromoteTypes(tt.b, tt.a), "%s + %s", tt.b, tt.a)
	}
}

func TestMatMul(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := mustFloat32(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	out := b.MatMul(x, y)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, tensor.Elems[float32](out))

	assert.Panics(t, func() { b.MatMul(x, x) })
}

func TestCast(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1.7, -2.5, 0}, 3)

	assert.Same(t, x, b.Cast(x, tensor.Float32))

	ints := b.Cast(x, tensor.Int32)
	assert.Equal(t, []int32{1, -2, 0}, tensor.Elems[int32](ints))

	bools := b.Cast(x, tensor.Bool)
	assert.Equal(t, []bool{true, true, false}, tensor.Elems[bool](bools))

	wide := b.Cast(mustInt64(t, []int64{1 << 40}, 1), tensor.Int64)
	assert.Equal(t, []int64{1 << 40}, tensor.Elems[int64](wide))
}

func TestUnaryOps(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{-1, 0, 4}, 3)

	assert.Equal(t, []float32{1, 0, -4}, tensor.Elems[float32](b.Neg(x)))
	assert.Equal(t, []float32{1, 0, 4}, tensor.Elems[float32](b.Abs(x)))
	assert.Equal(t, []float32{0, 0, 4}, tensor.Elems[float32](b.ReLU(x)))

	sig := tensor.Elems[float32](b.Sigmoid(x))
	assert.InDelta(t, 0.5, sig[1], 1e-6)

	sqrt := b.Sqrt(mustInt64(t, []int64{4, 9}, 2))
	assert.Equal(t, tensor.Float32, sqrt.DType())
	assert.Equal(t, []float32{2, 3}, tensor.Elems[float32](sqrt))

	neg := b.Neg(mustInt64(t, []int64{3}, 1))
	assert.Equal(t, []int64{-3}, tensor.Elems[int64](neg))
}

func TestReshape(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	out := b.Reshape(x, tensor.Shape{3, -1})
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, tensor.Elems[float32](x), tensor.Elems[float32](out))

	assert.Panics(t, func() { b.Reshape(x, tensor.Shape{4, -1}) })
	assert.Panics(t, func() { b.Reshape(x, tensor.Shape{-1, -1}) })
}

func TestTranspose(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	out := b.Transpose(x, 0, 1)
	assert.Equal(t, tensor.Shape{3, 2}, out.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tensor.Elems[float32](out))

	same := b.Transpose(x, -1, -2)
	assert.Equal(t, tensor.Elems[float32](out), tensor.Elems[float32](same))

	vec := mustFloat32(t, []float32{1, 2}, 2)
	assert.Same(t, vec, b.Transpose(vec, 0, 1))
}

func TestCat(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1, 2, 3, 4}, 2, 2)
	y := mustFloat32(t, []float32{5, 6}, 1, 2)

	rows := b.Cat([]*tensor.RawTensor{x, y}, 0)
	assert.Equal(t, tensor.Shape{3, 2}, rows.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Elems[float32](rows))

	z := mustFloat32(t, []float32{7, 8}, 2, 1)
	cols := b.Cat([]*tensor.RawTensor{x, z}, 1)
	assert.Equal(t, tensor.Shape{2, 3}, cols.Shape())
	assert.Equal(t, []float32{1, 2, 7, 3, 4, 8}, tensor.Elems[float32](cols))

	assert.Panics(t, func() { b.Cat([]*tensor.RawTensor{x, y}, 1) })
	assert.Panics(t, func() { b.Cat(nil, 0) })
}

func TestReductions(t *testing.T) {
	b := New()
	x := mustFloat32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	sum := b.Sum(x)
	assert.Empty(t, sum.Shape())
	assert.InDelta(t, 21.0, sum.Float64At(0), 1e-6)

	mean := b.Mean(x)
	assert.InDelta(t, 3.5, mean.Float64At(0), 1e-6)

	cols := b.SumDim(x, 0, false)
	assert.Equal(t, tensor.Shape{3}, cols.Shape())
	assert.Equal(t, []float32{5, 7, 9}, tensor.Elems[float32](cols))

	rows := b.SumDim(x, -1, true)
	assert.Equal(t, tensor.Shape{2, 1}, rows.Shape())
	assert.Equal(t, []float32{6, 15}, tensor.Elems[float32](rows))

	isum := b.Sum(mustInt64(t, []int64{1, 2, 3}, 3))
	assert.Equal(t, tensor.Int64, isum.DType())
	assert.Equal(t, []int64{6}, tensor.Elems[int64](isum))

	assert.Panics(t, func() { b.Mean(mustInt64(t, []int64{1}, 1)) })
}
