package cpu

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N).
// Uses the naive O(n³) loop; accumulation happens in the operand dtype.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]

	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	dtype := PromoteTypes(a.DType(), b.DType())
	if dtype == tensor.Float16 || dtype == tensor.Bool {
		// Compute in float32 and narrow the result.
		out := cpu.MatMul(cpu.Cast(a, tensor.Float32), cpu.Cast(b, tensor.Float32))
		return cpu.Cast(out, dtype)
	}
	a = cpu.Cast(a, dtype)
	b = cpu.Cast(b, dtype)

	result := cpu.newResult("matmul", tensor.Shape{m, n}, dtype)

	switch dtype {
	case tensor.Float32:
		matmulTyped(tensor.Elems[float32](result), tensor.Elems[float32](a), tensor.Elems[float32](b), m, k, n)
	case tensor.Float64:
		matmulTyped(tensor.Elems[float64](result), tensor.Elems[float64](a), tensor.Elems[float64](b), m, k, n)
	case tensor.Int32:
		matmulTyped(tensor.Elems[int32](result), tensor.Elems[int32](a), tensor.Elems[int32](b), m, k, n)
	case tensor.Int64:
		matmulTyped(tensor.Elems[int64](result), tensor.Elems[int64](a), tensor.Elems[int64](b), m, k, n)
	case tensor.Int16:
		matmulTyped(tensor.Elems[int16](result), tensor.Elems[int16](a), tensor.Elems[int16](b), m, k, n)
	case tensor.Int8:
		matmulTyped(tensor.Elems[int8](result), tensor.Elems[int8](a), tensor.Elems[int8](b), m, k, n)
	case tensor.Uint8:
		matmulTyped(tensor.Elems[uint8](result), tensor.Elems[uint8](a), tensor.Elems[uint8](b), m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", dtype))
	}

	return result
}

// matmulTyped computes C[i,j] = sum_k A[i,k] * B[k,j] with i-k-j loop order.
func matmulTyped[T tensor.Numeric](c, a, b []T, m, k, n int) {
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			aik := a[i*k+p]
			for j := 0; j < n; j++ {
				c[i*n+j] += aik * b[p*n+j]
			}
		}
	}
}
