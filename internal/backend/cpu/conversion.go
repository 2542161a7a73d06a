package cpu

import (
	"github.com/born-ml/gotorch/internal/tensor"
)

// Cast converts the tensor to a different data type.
// It returns x itself when no conversion is needed.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result := cpu.newResult("cast", x.Shape(), dtype)

	// Integer to integer goes through int64 so large values survive.
	if !x.DType().IsFloat() && !dtype.IsFloat() && dtype != tensor.Bool {
		castInts(result, x)
		return result
	}

	for i := 0; i < x.NumElements(); i++ {
		result.SetFloat64At(i, x.Float64At(i))
	}
	return result
}

func castInts(result, x *tensor.RawTensor) {
	src := make([]int64, x.NumElements())
	switch x.DType() {
	case tensor.Int64:
		copy(src, tensor.Elems[int64](x))
	case tensor.Int32:
		widen(src, tensor.Elems[int32](x))
	case tensor.Int16:
		widen(src, tensor.Elems[int16](x))
	case tensor.Int8:
		widen(src, tensor.Elems[int8](x))
	case tensor.Uint8:
		widen(src, tensor.Elems[uint8](x))
	case tensor.Bool:
		for i, v := range tensor.Elems[bool](x) {
			if v {
				src[i] = 1
			}
		}
	}

	switch result.DType() {
	case tensor.Int64:
		copy(tensor.Elems[int64](result), src)
	case tensor.Int32:
		narrow(tensor.Elems[int32](result), src)
	case tensor.Int16:
		narrow(tensor.Elems[int16](result), src)
	case tensor.Int8:
		narrow(tensor.Elems[int8](result), src)
	case tensor.Uint8:
		narrow(tensor.Elems[uint8](result), src)
	}
}

func widen[T tensor.Numeric](dst []int64, src []T) {
	for i, v := range src {
		dst[i] = int64(v)
	}
}

func narrow[T tensor.Numeric](dst []T, src []int64) {
	for i, v := range src {
		dst[i] = T(v)
	}
}
