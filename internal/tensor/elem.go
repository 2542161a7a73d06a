package tensor

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// Float64At returns element i (flat, row-major) converted to float64.
//
//nolint:gocyclo,cyclop // one case per dtype
func (r *RawTensor) Float64At(i int) float64 {
	switch r.dtype {
	case Float32:
		return float64(Elems[float32](r)[i])
	case Float64:
		return Elems[float64](r)[i]
	case Int32:
		return float64(Elems[int32](r)[i])
	case Int64:
		return float64(Elems[int64](r)[i])
	case Uint8:
		return float64(Elems[uint8](r)[i])
	case Int8:
		return float64(Elems[int8](r)[i])
	case Int16:
		return float64(Elems[int16](r)[i])
	case Float16:
		return float64(Elems[float16.Float16](r)[i].Float32())
	case Bool:
		if Elems[bool](r)[i] {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("unsupported dtype %s", r.dtype))
	}
}

// SetFloat64At stores v into element i, converting to the tensor's dtype.
// Integer types truncate toward zero.
//
//nolint:gocyclo,cyclop // one case per dtype
func (r *RawTensor) SetFloat64At(i int, v float64) {
	switch r.dtype {
	case Float32:
		Elems[float32](r)[i] = float32(v)
	case Float64:
		Elems[float64](r)[i] = v
	case Int32:
		Elems[int32](r)[i] = int32(math.Trunc(v))
	case Int64:
		Elems[int64](r)[i] = int64(math.Trunc(v))
	case Uint8:
		Elems[uint8](r)[i] = uint8(int64(math.Trunc(v))) //nolint:gosec // wraps like the C cast
	case Int8:
		Elems[int8](r)[i] = int8(int64(math.Trunc(v))) //nolint:gosec // wraps like the C cast
	case Int16:
		Elems[int16](r)[i] = int16(int64(math.Trunc(v))) //nolint:gosec // wraps like the C cast
	case Float16:
		Elems[float16.Float16](r)[i] = float16.Fromfloat32(float32(v))
	case Bool:
		Elems[bool](r)[i] = v != 0
	default:
		panic(fmt.Sprintf("unsupported dtype %s", r.dtype))
	}
}

// Full creates a tensor of the given shape with every element set to value.
func Full(shape Shape, dtype DataType, value float64) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		return nil, err
	}
	if value != 0 {
		for i := 0; i < t.NumElements(); i++ {
			t.SetFloat64At(i, value)
		}
	}
	return t, nil
}

// Scalar creates a 0-d tensor holding value.
func Scalar(value float64, dtype DataType) *RawTensor {
	t, err := Full(Shape{}, dtype, value)
	if err != nil {
		panic(err)
	}
	return t
}
