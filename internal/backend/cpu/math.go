package cpu

import (
	"math"

	"github.com/born-ml/gotorch/internal/tensor"
)

// floatType returns the dtype a floating point op computes in for x.
func floatType(dt tensor.DataType) tensor.DataType {
	if dt.IsFloat() {
		return dt
	}
	return tensor.Float32
}

// mapFloat applies f element-wise in float64 precision and stores the
// result in dtype.
func (cpu *CPUBackend) mapFloat(op string, x *tensor.RawTensor, dtype tensor.DataType, f func(float64) float64) *tensor.RawTensor {
	result := cpu.newResult(op, x.Shape(), dtype)
	for i := 0; i < x.NumElements(); i++ {
		result.SetFloat64At(i, f(x.Float64At(i)))
	}
	return result
}

// Neg negates every element.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	dt := x.DType()
	if dt == tensor.Bool {
		panic("neg: negation is not supported for bool tensors")
	}
	if dt == tensor.Int64 {
		result := cpu.newResult("neg", x.Shape(), dt)
		dst := tensor.Elems[int64](result)
		for i, v := range tensor.Elems[int64](x) {
			dst[i] = -v
		}
		return result
	}
	return cpu.mapFloat("neg", x, dt, func(v float64) float64 { return -v })
}

// Abs computes the absolute value of every element.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("abs", x, x.DType(), math.Abs)
}

// ReLU computes max(x, 0) element-wise, keeping the input dtype.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("relu", x, x.DType(), func(v float64) float64 { return math.Max(v, 0) })
}

// Sigmoid computes 1 / (1 + exp(-x)).
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("sigmoid", x, floatType(x.DType()), func(v float64) float64 {
		return 1 / (1 + math.Exp(-v))
	})
}

// Tanh computes the hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("tanh", x, floatType(x.DType()), math.Tanh)
}

// Exp computes e^x.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("exp", x, floatType(x.DType()), math.Exp)
}

// Log computes the natural logarithm.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("log", x, floatType(x.DType()), math.Log)
}

// Sqrt computes the square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.mapFloat("sqrt", x, floatType(x.DType()), math.Sqrt)
}
