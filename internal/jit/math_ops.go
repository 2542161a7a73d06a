package jit

import (
	"errors"
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

var errZeroDivision = errors.New("ZeroDivisionError: division by zero")

// registerMathOps adds arithmetic operators to the registry.
func (r *Registry) registerMathOps() {
	r.Register(binaryOp("add", tensor.Backend.Add, func(x, y float64) float64 { return x + y }, func(x, y int64) int64 { return x + y }))
	r.Register(binaryOp("sub", tensor.Backend.Sub, func(x, y float64) float64 { return x - y }, func(x, y int64) int64 { return x - y }))
	r.Register(binaryOp("mul", tensor.Backend.Mul, func(x, y float64) float64 { return x * y }, func(x, y int64) int64 { return x * y }))
	r.Register(binaryOp("div", tensor.Backend.Div, func(x, y float64) float64 { return x / y }, nil))

	r.Register(Operator{
		Name: "matmul", MinArgs: 2, MaxArgs: 2,
		Infer:   tensorResult("matmul", tensorOnly, tensorOnly),
		Handler: handleMatMul,
	})
	r.Register(Operator{
		Name: "neg", MinArgs: 1, MaxArgs: 1,
		Infer: func(args []Type) (Type, error) {
			if err := expectTypes("neg", args, []Kind{KindTensor, KindInt, KindFloat}); err != nil {
				return Type{}, err
			}
			return args[0], nil
		},
		Handler: handleNeg,
	})
}

// binaryOp builds an elementwise operator that also accepts Python-style
// scalars on either side. intOp is nil for ops whose scalar result is
// always float.
func binaryOp(
	name string,
	kernel func(tensor.Backend, *tensor.RawTensor, *tensor.RawTensor) *tensor.RawTensor,
	floatOp func(x, y float64) float64,
	intOp func(x, y int64) int64,
) Operator {
	infer := func(args []Type) (Type, error) {
		if err := expectTypes(name, args, numeric, numeric); err != nil {
			return Type{}, err
		}
		switch {
		case args[0].Kind == KindTensor || args[1].Kind == KindTensor:
			return TensorType, nil
		case intOp == nil || args[0].Kind == KindFloat || args[1].Kind == KindFloat:
			return FloatType, nil
		default:
			return IntType, nil
		}
	}

	handler := func(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
		if len(inputs) != 2 {
			return nil, fmt.Errorf("%s requires 2 inputs, got %d", name, len(inputs))
		}
		x, y := inputs[0], inputs[1]

		if x.Kind() != KindTensor && y.Kind() != KindTensor {
			if intOp != nil && x.Kind() != KindFloat && y.Kind() != KindFloat {
				return single(IntValue(intOp(x.Int(), y.Int()))), nil
			}
			if intOp == nil && y.Float() == 0 {
				return nil, errZeroDivision
			}
			return single(FloatValue(floatOp(x.Float(), y.Float()))), nil
		}

		a, err := operand(name, x, y)
		if err != nil {
			return nil, err
		}
		b, err := operand(name, y, x)
		if err != nil {
			return nil, err
		}
		return single(TensorValue(kernel(ctx.Backend, a, b))), nil
	}

	return Operator{Name: name, MinArgs: 2, MaxArgs: 2, Infer: infer, Handler: handler}
}

// operand converts v to a tensor. Scalars become 0-d tensors whose dtype
// follows the tensor on the other side, so a float32 tensor plus 1.5 stays
// float32 and an int64 tensor plus 1.5 becomes float32.
func operand(name string, v, other Value) (*tensor.RawTensor, error) {
	switch v.Kind() {
	case KindTensor:
		return v.Tensor(), nil
	case KindInt, KindBool, KindFloat:
	default:
		return nil, fmt.Errorf("%s: unsupported operand type %s", name, v.Type())
	}

	dt := other.Tensor().DType()
	switch {
	case v.Kind() == KindFloat && !dt.IsFloat():
		dt = tensor.Float32
	case dt == tensor.Bool && v.Kind() == KindInt:
		dt = tensor.Int64
	}

	if dt == tensor.Int64 {
		return tensor.FromSlice([]int64{v.Int()}, tensor.Shape{})
	}
	return tensor.Scalar(v.Float(), dt), nil
}

// handleMatMul follows torch.matmul for 1-D and 2-D operands: a 1-D
// operand is promoted to a matrix and the added dimension removed again.
func handleMatMul(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	if len(inputs) != 2 {
		return nil, fmt.Errorf("matmul requires 2 inputs, got %d", len(inputs))
	}
	a, err := tensorArg("matmul", inputs, 0)
	if err != nil {
		return nil, err
	}
	b, err := tensorArg("matmul", inputs, 1)
	if err != nil {
		return nil, err
	}

	be := ctx.Backend
	aVec, bVec := len(a.Shape()) == 1, len(b.Shape()) == 1
	if aVec {
		a = be.Reshape(a, tensor.Shape{1, a.Shape()[0]})
	}
	if bVec {
		b = be.Reshape(b, tensor.Shape{b.Shape()[0], 1})
	}

	out := be.MatMul(a, b)
	switch {
	case aVec && bVec:
		out = be.Reshape(out, tensor.Shape{})
	case aVec:
		out = be.Reshape(out, tensor.Shape{out.Shape()[1]})
	case bVec:
		out = be.Reshape(out, tensor.Shape{out.Shape()[0]})
	}
	return single(TensorValue(out)), nil
}

func handleNeg(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("neg requires 1 input, got %d", len(inputs))
	}
	switch x := inputs[0]; x.Kind() {
	case KindTensor:
		return single(TensorValue(ctx.Backend.Neg(x.Tensor()))), nil
	case KindInt:
		return single(IntValue(-x.Int())), nil
	case KindFloat:
		return single(FloatValue(-x.Float())), nil
	default:
		return nil, fmt.Errorf("neg: unsupported operand type %s", x.Type())
	}
}
