package jit

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// registerShapeOps adds layout and creation operators.
func (r *Registry) registerShapeOps() {
	r.Register(Operator{
		Name: "t", MinArgs: 1, MaxArgs: 1,
		Infer:   tensorResult("t", tensorOnly),
		Handler: handleT,
	})
	r.Register(Operator{
		Name: "transpose", MinArgs: 3, MaxArgs: 3,
		Infer:   tensorResult("transpose", tensorOnly, intOnly, intOnly),
		Handler: handleTranspose,
	})
	r.Register(Operator{
		Name: "reshape", MinArgs: 2, MaxArgs: -1,
		Infer:   inferReshape,
		Handler: handleReshape,
	})
	r.Register(Operator{
		Name: "cat", MinArgs: 1, MaxArgs: 2,
		Infer:   inferCat,
		Handler: handleCat,
	})
	r.Register(Operator{
		Name: "clone", MinArgs: 1, MaxArgs: 1,
		Infer: tensorResult("clone", tensorOnly),
		Handler: func(_ *Context, _ *Node, inputs []Value) ([]Value, error) {
			x, err := tensorArg("clone", inputs, 0)
			if err != nil {
				return nil, err
			}
			return single(TensorValue(x.Copy())), nil
		},
	})
	r.Register(fillLike("zeros_like", 0))
	r.Register(fillLike("ones_like", 1))
}

func handleT(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	x, err := tensorArg("t", inputs, 0)
	if err != nil {
		return nil, err
	}
	if rank := len(x.Shape()); rank > 2 {
		return nil, fmt.Errorf("t() expects a tensor with <= 2 dimensions, but self is %dD", rank)
	}
	return single(TensorValue(ctx.Backend.Transpose(x, 0, 1))), nil
}

func handleTranspose(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	if len(inputs) != 3 {
		return nil, fmt.Errorf("transpose requires 3 inputs, got %d", len(inputs))
	}
	x, err := tensorArg("transpose", inputs, 0)
	if err != nil {
		return nil, err
	}
	return single(TensorValue(ctx.Backend.Transpose(x, int(inputs[1].Int()), int(inputs[2].Int())))), nil
}

// inferReshape accepts reshape(x, (d0, d1, ...)) and reshape(x, d0, d1, ...).
func inferReshape(args []Type) (Type, error) {
	if err := expectTypes("reshape", args[:1], tensorOnly); err != nil {
		return Type{}, err
	}
	dims := args[1:]
	if len(dims) == 1 && dims[0].Kind == KindTuple {
		dims = dims[0].Elems
	}
	for _, d := range dims {
		if d.Kind != KindInt {
			return Type{}, fmt.Errorf("reshape(): shape must be a sequence of ints, found %s", d)
		}
	}
	return TensorType, nil
}

func handleReshape(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	x, err := tensorArg("reshape", inputs, 0)
	if err != nil {
		return nil, err
	}
	dims := inputs[1:]
	if len(dims) == 1 && dims[0].Kind() == KindTuple {
		dims = dims[0].Elements()
	}
	shape := make(tensor.Shape, len(dims))
	for i, d := range dims {
		shape[i] = int(d.Int())
	}
	return single(TensorValue(ctx.Backend.Reshape(x, shape))), nil
}

func inferCat(args []Type) (Type, error) {
	if args[0].Kind != KindTuple {
		return Type{}, fmt.Errorf("cat(): argument 1 must be a tuple of tensors, found %s", args[0])
	}
	for _, e := range args[0].Elems {
		if e.Kind != KindTensor {
			return Type{}, fmt.Errorf("cat(): argument 1 must be a tuple of tensors, found %s", args[0])
		}
	}
	if err := expectTypes("cat", args, []Kind{KindTuple}, intOnly); err != nil {
		return Type{}, err
	}
	return TensorType, nil
}

func handleCat(ctx *Context, _ *Node, inputs []Value) ([]Value, error) {
	elems := inputs[0].Elements()
	ts := make([]*tensor.RawTensor, len(elems))
	for i, e := range elems {
		if ts[i] = e.Tensor(); ts[i] == nil {
			return nil, fmt.Errorf("cat: element %d must be Tensor, found %s", i, e.Type())
		}
	}
	dim := 0
	if len(inputs) > 1 {
		dim = int(inputs[1].Int())
	}
	return single(TensorValue(ctx.Backend.Cat(ts, dim))), nil
}

func fillLike(name string, value float64) Operator {
	return Operator{
		Name: name, MinArgs: 1, MaxArgs: 1,
		Infer: tensorResult(name, tensorOnly),
		Handler: func(_ *Context, _ *Node, inputs []Value) ([]Value, error) {
			x, err := tensorArg(name, inputs, 0)
			if err != nil {
				return nil, err
			}
			out, err := tensor.Full(x.Shape(), x.DType(), value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return single(TensorValue(out)), nil
		},
	}
}
