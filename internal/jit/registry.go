package jit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/gotorch/internal/tensor"
)

// OpHandler executes an operator node and returns its outputs.
type OpHandler func(ctx *Context, node *Node, inputs []Value) ([]Value, error)

// InferFunc computes an operator's result type from its argument types.
type InferFunc func(args []Type) (Type, error)

// Context provides the backend operators execute on.
type Context struct {
	Backend tensor.Backend
}

// Operator describes a callable aten operator.
type Operator struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means variadic
	Infer   InferFunc
	Handler OpHandler
}

// Registry maps operator names to their definitions.
type Registry struct {
	ops map[string]Operator
}

// NewRegistry creates a registry with all built-in operators.
func NewRegistry() *Registry {
	r := &Registry{
		ops: make(map[string]Operator),
	}

	r.registerMathOps()
	r.registerActivations()
	r.registerReductions()
	r.registerShapeOps()

	return r
}

// Register adds or replaces an operator.
func (r *Registry) Register(op Operator) {
	r.ops[op.Name] = op
}

// Lookup returns the operator with the given name.
func (r *Registry) Lookup(name string) (Operator, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Execute runs an aten node with the given inputs.
func (r *Registry) Execute(ctx *Context, node *Node, inputs []Value) ([]Value, error) {
	op, ok := r.ops[node.Op()]
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", node.Kind)
	}
	return op.Handler(ctx, node, inputs)
}

// SupportedOps returns the sorted list of operator names.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.ops))
	for name := range r.ops {
		ops = append(ops, name)
	}
	sort.Strings(ops)
	return ops
}

// checkArgs validates arity and argument kinds before inference.
func (op Operator) checkArgs(args []Type) error {
	if len(args) < op.MinArgs || (op.MaxArgs >= 0 && len(args) > op.MaxArgs) {
		return fmt.Errorf("%s() expects %s, got %d", op.Name, arity(op.MinArgs, op.MaxArgs), len(args))
	}
	return nil
}

func arity(lo, hi int) string {
	switch {
	case lo == hi:
		return plural(lo, "argument")
	case hi < 0:
		return "at least " + plural(lo, "argument")
	default:
		return fmt.Sprintf("%d to %d arguments", lo, hi)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// expectTypes checks each argument against the allowed kinds at its position.
func expectTypes(name string, args []Type, kinds ...[]Kind) error {
	for i, arg := range args {
		if i >= len(kinds) {
			break
		}
		ok := false
		for _, k := range kinds[i] {
			if arg.Kind == k || (k == KindFloat && arg.Kind == KindInt) {
				ok = true
				break
			}
		}
		if !ok {
			names := make([]string, len(kinds[i]))
			for j, k := range kinds[i] {
				names[j] = k.String()
			}
			return fmt.Errorf("%s(): argument %d must be %s, found %s", name, i+1, strings.Join(names, " or "), arg)
		}
	}
	return nil
}

var (
	tensorOnly = []Kind{KindTensor}
	intOnly    = []Kind{KindInt}
	boolOnly   = []Kind{KindBool}
	numeric    = []Kind{KindTensor, KindFloat, KindBool}
)

func tensorResult(name string, kinds ...[]Kind) InferFunc {
	return func(args []Type) (Type, error) {
		if err := expectTypes(name, args, kinds...); err != nil {
			return Type{}, err
		}
		return TensorType, nil
	}
}

// tensorArg extracts a tensor input, reporting the operator name on mismatch.
func tensorArg(name string, inputs []Value, i int) (*tensor.RawTensor, error) {
	t := inputs[i].Tensor()
	if t == nil {
		return nil, fmt.Errorf("%s: argument %d must be Tensor, found %s", name, i+1, inputs[i].Type())
	}
	return t, nil
}

func single(v Value) []Value {
	return []Value{v}
}
