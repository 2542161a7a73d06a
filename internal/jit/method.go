package jit

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Argument describes one schema slot.
type Argument struct {
	Name string
	Type Type
}

// Schema is the signature of a method.
type Schema struct {
	Name      string
	Arguments []Argument
	Returns   []Argument
}

// String renders the schema, e.g. "sum(Tensor a, Tensor b) -> Tensor".
func (s Schema) String() string {
	args := make([]string, len(s.Arguments))
	for i, a := range s.Arguments {
		args[i] = a.Type.String() + " " + a.Name
	}
	rets := make([]string, len(s.Returns))
	for i, r := range s.Returns {
		rets[i] = r.Type.String()
	}
	ret := strings.Join(rets, ", ")
	if len(rets) != 1 {
		ret = "(" + ret + ")"
	}
	return fmt.Sprintf("%s(%s) -> %s", s.Name, strings.Join(args, ", "), ret)
}

// Method is a compiled function bound to its module. Holding a Method
// keeps the module alive.
type Method struct {
	module  *Module
	name    string
	args    []Argument
	hasSelf bool
	ret     Type
	graph   *Graph
}

// Name returns the method name.
func (m *Method) Name() string {
	return m.name
}

// Module returns the module the method belongs to.
func (m *Method) Module() *Module {
	return m.module
}

// Graph returns the method's IR.
func (m *Method) Graph() *Graph {
	return m.graph
}

// HasSelf reports whether the method takes the module as its first argument.
func (m *Method) HasSelf() bool {
	return m.hasSelf
}

// Arguments returns a fresh copy of the schema arguments, including self.
func (m *Method) Arguments() []Argument {
	out := make([]Argument, len(m.args))
	for i, a := range m.args {
		out[i] = Argument{Name: a.Name, Type: a.Type.clone()}
	}
	return out
}

// Returns returns a fresh copy of the schema returns. The single return
// slot is unnamed.
func (m *Method) Returns() []Argument {
	return []Argument{{Type: m.ret.clone()}}
}

// Schema returns the method signature.
func (m *Method) Schema() Schema {
	return Schema{Name: m.name, Arguments: m.Arguments(), Returns: m.Returns()}
}

// params returns the arguments callers pass explicitly.
func (m *Method) params() []Argument {
	if m.hasSelf {
		return m.args[1:]
	}
	return m.args
}

// Run invokes the method with positional arguments. The module is passed
// implicitly to methods that take self.
func (m *Method) Run(args ...Value) (Value, error) {
	params := m.params()
	if len(args) != len(params) {
		return Value{}, fmt.Errorf("%w: %s() expects %s, got %d",
			ErrArgument, m.name, plural(len(params), "argument"), len(args))
	}
	for i, arg := range args {
		if !params[i].Type.accepts(arg) {
			return Value{}, fmt.Errorf("%w: %s() expected a value of type %s for argument '%s' but found %s",
				ErrArgument, m.name, params[i].Type, params[i].Name, arg.Type())
		}
	}

	inputs := args
	if m.hasSelf {
		inputs = append([]Value{objectValue(m.module)}, args...)
	}

	Logger().Debug("running method",
		zap.String("module", m.module.name),
		zap.String("method", m.name),
		zap.Int("args", len(args)))
	return m.module.interpret(m, inputs)
}

func (t Type) clone() Type {
	if t.Elems == nil {
		return t
	}
	elems := make([]Type, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = e.clone()
	}
	t.Elems = elems
	return t
}
