package jit

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// registerReductions adds sum and mean.
func (r *Registry) registerReductions() {
	r.Register(Operator{
		Name: "sum", MinArgs: 1, MaxArgs: 3,
		Infer:   tensorResult("sum", tensorOnly, intOnly, boolOnly),
		Handler: handleSum,
	})
	r.Register(Operator{
		Name: "mean", MinArgs: 1, MaxArgs: 3,
		Infer:   tensorResult("mean", tensorOnly, intOnly, boolOnly),
		Handler: handleMean,
	})
}

// reduceArgs extracts (x, dim, keepdim, hasDim) from sum/mean inputs.
func reduceArgs(name string, inputs []Value) (*tensor.RawTensor, int, bool, bool, error) {
	if len(inputs) < 1 || len(inputs) > 3 {
		return nil, 0, false, false, fmt.Errorf("%s requires 1 to 3 inputs, got %d", name, len(inputs))
	}
	x, err := tensorArg(name, inputs, 0)
	if err != nil {
		return nil, 0, false, false, err
	}
	if len(inputs) == 1 {
		return x, 0, false, false, nil
	}
	keepDim := len(inputs) == 3 && inputs[2].Bool()
	return x, int(inputs[1].Int()), keepDim, true, nil
}

func handleSum(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	x, dim, keepDim, hasDim, err := reduceArgs("sum", inputs)
	if err != nil {
		return nil, err
	}
	if !hasDim {
		return single(TensorValue(ctx.Backend.Sum(x))), nil
	}
	return single(TensorValue(ctx.Backend.SumDim(x, dim, keepDim))), nil
}

func handleMean(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	x, dim, keepDim, hasDim, err := reduceArgs("mean", inputs)
	if err != nil {
		return nil, err
	}
	if !hasDim {
		return single(TensorValue(ctx.Backend.Mean(x))), nil
	}
	if !x.DType().IsFloat() {
		return nil, fmt.Errorf("mean: input dtype must be floating point, got %s", x.DType())
	}

	d, err := tensor.NormalizeDim(dim, len(x.Shape()))
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	sum := ctx.Backend.SumDim(x, d, keepDim)
	n := tensor.Scalar(float64(x.Shape()[d]), x.DType())
	return single(TensorValue(ctx.Backend.Div(sum, n))), nil
}
