package jit

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// interpret executes fn's graph node by node. Kernel panics, which is how
// the backend reports shape and dtype errors, are returned as errors.
func (m *Module) interpret(fn *Method, inputs []Value) (Value, error) {
	g := fn.graph
	env := make([]Value, g.NumVars())
	for i, in := range g.Inputs {
		env[in.ID] = inputs[i]
	}

	ctx := &Context{Backend: m.backend}
	for _, node := range g.Nodes {
		if err := m.execNode(ctx, node, env); err != nil {
			return Value{}, fmt.Errorf("%s (line %d): %s: %w", fn.name, node.Pos.Line, node.Kind, err)
		}
	}
	return env[g.Return.ID], nil
}

func (m *Module) execNode(ctx *Context, node *Node, env []Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	inputs := make([]Value, len(node.Inputs))
	for i, in := range node.Inputs {
		inputs[i] = env[in.ID]
	}

	var outputs []Value
	switch node.Kind {
	case NodeConstant:
		outputs = single(node.Const)

	case NodeTupleConstruct:
		outputs = single(TupleValue(inputs...))

	case NodeTupleIndex:
		tuple := inputs[0]
		if node.Index >= tuple.Len() {
			return fmt.Errorf("tuple index %d out of range for %s", node.Index, tuple.Type())
		}
		outputs = single(tuple.At(node.Index))

	case NodeTupleUnpack:
		tuple := inputs[0]
		if tuple.Len() != len(node.Outputs) {
			return fmt.Errorf("expected %d values to unpack, found %s", len(node.Outputs), tuple.Type())
		}
		outputs = tuple.Elements()

	case NodeGetAttr:
		obj := inputs[0].Object()
		t, ok := obj.Buffer(node.Name)
		if !ok {
			return fmt.Errorf("%w: module '%s' has no attribute '%s'", ErrAttribute, obj.QualifiedName(), node.Name)
		}
		outputs = single(TensorValue(t))

	case NodeSetAttr:
		inputs[0].Object().setBuffer(node.Name, retain(inputs[1].Tensor()))

	case NodeCallMethod:
		callee, err := m.Method(node.Name)
		if err != nil {
			return err
		}
		res, err := m.interpret(callee, inputs)
		if err != nil {
			return err
		}
		outputs = single(res)

	default:
		if outputs, err = m.registry.Execute(ctx, node, inputs); err != nil {
			return err
		}
	}

	if len(outputs) != len(node.Outputs) {
		return fmt.Errorf("produced %d outputs, expected %d", len(outputs), len(node.Outputs))
	}
	for i, out := range node.Outputs {
		env[out.ID] = outputs[i]
	}
	return nil
}

// retain returns a reference to t that outlives the caller's handle on it.
// Borrowed memory is copied since its owner may free it at any time.
func retain(t *tensor.RawTensor) *tensor.RawTensor {
	if t.Borrowed() {
		return t.Copy()
	}
	return t.Clone()
}
