package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/born-ml/gotorch/internal/tensor"
)

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func arith[T tensor.Numeric](op binaryOp) func(x, y T) T {
	switch op {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	case opMul:
		return func(x, y T) T { return x * y }
	default:
		return func(x, y T) T { return x / y }
	}
}

// binary promotes both operands to a common dtype, broadcasts and applies op.
func (cpu *CPUBackend) binary(name string, op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	dtype := PromoteTypes(a.DType(), b.DType())
	if dtype == tensor.Bool {
		dtype = tensor.Int64
	}
	a = cpu.Cast(a, dtype)
	b = cpu.Cast(b, dtype)

	result := cpu.newResult(name, outShape, dtype)
	if result.NumElements() == 0 {
		return result
	}

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	switch dtype {
	case tensor.Float32:
		applyBinary(tensor.Elems[float32](result), tensor.Elems[float32](a), tensor.Elems[float32](b), outStrides, aStrides, bStrides, arith[float32](op))
	case tensor.Float64:
		applyBinary(tensor.Elems[float64](result), tensor.Elems[float64](a), tensor.Elems[float64](b), outStrides, aStrides, bStrides, arith[float64](op))
	case tensor.Int32:
		applyBinary(tensor.Elems[int32](result), tensor.Elems[int32](a), tensor.Elems[int32](b), outStrides, aStrides, bStrides, arith[int32](op))
	case tensor.Int64:
		applyBinary(tensor.Elems[int64](result), tensor.Elems[int64](a), tensor.Elems[int64](b), outStrides, aStrides, bStrides, arith[int64](op))
	case tensor.Int16:
		applyBinary(tensor.Elems[int16](result), tensor.Elems[int16](a), tensor.Elems[int16](b), outStrides, aStrides, bStrides, arith[int16](op))
	case tensor.Int8:
		applyBinary(tensor.Elems[int8](result), tensor.Elems[int8](a), tensor.Elems[int8](b), outStrides, aStrides, bStrides, arith[int8](op))
	case tensor.Uint8:
		applyBinary(tensor.Elems[uint8](result), tensor.Elems[uint8](a), tensor.Elems[uint8](b), outStrides, aStrides, bStrides, arith[uint8](op))
	case tensor.Float16:
		f := arith[float32](op)
		applyBinary(tensor.Elems[float16.Float16](result), tensor.Elems[float16.Float16](a), tensor.Elems[float16.Float16](b), outStrides, aStrides, bStrides,
			func(x, y float16.Float16) float16.Float16 {
				return float16.Fromfloat32(f(x.Float32(), y.Float32()))
			})
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, dtype))
	}

	return result
}

// applyBinary walks the output in row-major order and reads each input
// through its broadcast strides.
func applyBinary[T tensor.Element](dst, a, b []T, outStrides, aStrides, bStrides []int, f func(x, y T) T) {
	for i := range dst {
		dst[i] = f(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

// broadcastStrides computes strides for reading inShape as if it had outShape.
// Dimensions of size 1 and left padding get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		if inIdx >= 0 && inShape[inIdx] != 1 {
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps a flat output index to the flat index of a broadcast input.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i, s := range outStrides {
		if s == 0 {
			continue
		}
		coord := outIdx / s
		outIdx %= s
		flat += coord * inStrides[i]
	}
	return flat
}

// PromoteTypes returns the dtype two operands are computed in.
// Floats win over integers, wider types win over narrower ones, and
// uint8 combined with a signed 8-bit type widens to int16.
func PromoteTypes(a, b tensor.DataType) tensor.DataType {
	if a == b {
		return a
	}
	if a.IsFloat() || b.IsFloat() {
		switch {
		case a == tensor.Float64 || b == tensor.Float64:
			return tensor.Float64
		case a == tensor.Float32 || b == tensor.Float32:
			return tensor.Float32
		default:
			return tensor.Float16
		}
	}
	if a == tensor.Bool {
		return b
	}
	if b == tensor.Bool {
		return a
	}
	if (a == tensor.Uint8 && b == tensor.Int8) || (a == tensor.Int8 && b == tensor.Uint8) {
		return tensor.Int16
	}
	if a.Size() >= b.Size() && a != tensor.Uint8 {
		return a
	}
	if b.Size() >= a.Size() && b != tensor.Uint8 {
		return b
	}
	if a.Size() > b.Size() {
		return a
	}
	return b
}
