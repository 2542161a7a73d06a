package jit

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// registerActivations adds elementwise unary tensor operators.
func (r *Registry) registerActivations() {
	r.Register(unaryOp("relu", tensor.Backend.ReLU))
	r.Register(unaryOp("sigmoid", tensor.Backend.Sigmoid))
	r.Register(unaryOp("tanh", tensor.Backend.Tanh))
	r.Register(unaryOp("exp", tensor.Backend.Exp))
	r.Register(unaryOp("log", tensor.Backend.Log))
	r.Register(unaryOp("sqrt", tensor.Backend.Sqrt))
	r.Register(unaryOp("abs", tensor.Backend.Abs))
}

func unaryOp(name string, kernel func(tensor.Backend, *tensor.RawTensor) *tensor.RawTensor) Operator {
	return Operator{
		Name: name, MinArgs: 1, MaxArgs: 1,
		Infer: tensorResult(name, tensorOnly),
		Handler: func(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
			if len(inputs) != 1 {
				return nil, fmt.Errorf("%s requires 1 input, got %d", name, len(inputs))
			}
			x, err := tensorArg(name, inputs, 0)
			if err != nil {
				return nil, err
			}
			return single(TensorValue(kernel(ctx.Backend, x))), nil
		},
	}
}
