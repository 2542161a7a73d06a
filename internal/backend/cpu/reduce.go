package cpu

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// sumType is the accumulation dtype: integers and bool sum into int64.
func sumType(dt tensor.DataType) tensor.DataType {
	if dt.IsFloat() {
		return dt
	}
	return tensor.Int64
}

// Sum reduces all elements to a 0-d tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	dtype := sumType(x.DType())
	result := cpu.newResult("sum", tensor.Shape{}, dtype)

	if dtype == tensor.Int64 {
		var acc int64
		for _, v := range tensor.Elems[int64](cpu.Cast(x, tensor.Int64)) {
			acc += v
		}
		tensor.Elems[int64](result)[0] = acc
		return result
	}

	var acc float64
	for i := 0; i < x.NumElements(); i++ {
		acc += x.Float64At(i)
	}
	result.SetFloat64At(0, acc)
	return result
}

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1; if false, remove it
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	d, err := tensor.NormalizeDim(dim, ndim)
	if err != nil {
		panic(fmt.Sprintf("sumdim: %v", err))
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[d] = 1
	} else {
		outShape = make(tensor.Shape, 0, ndim-1)
		for i := 0; i < ndim; i++ {
			if i != d {
				outShape = append(outShape, shape[i])
			}
		}
	}

	result := cpu.newResult("sumdim", outShape, sumType(x.DType()))

	outer := 1
	for _, s := range shape[:d] {
		outer *= s
	}
	inner := 1
	for _, s := range shape[d+1:] {
		inner *= s
	}

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var acc float64
			for k := 0; k < shape[d]; k++ {
				acc += x.Float64At((o*shape[d]+k)*inner + in)
			}
			result.SetFloat64At(o*inner+in, acc)
		}
	}
	return result
}

// Mean reduces all elements to their arithmetic mean.
// Only floating point tensors are accepted.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("mean: could not infer output dtype, input dtype must be floating point, got %s", x.DType()))
	}
	n := x.NumElements()
	sum := cpu.Sum(x)
	if n == 0 {
		sum.SetFloat64At(0, 0)
		return sum
	}
	sum.SetFloat64At(0, sum.Float64At(0)/float64(n))
	return sum
}
