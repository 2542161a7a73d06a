// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package capi

import "github.com/born-ml/gotorch/internal/jit"

// Argument describes one schema slot. Type uses TorchScript spelling:
// "Tensor", "int", "float", "bool", "None", "Tuple[Tensor, int]", and
// "__torch__.<Module>" for self.
type Argument struct {
	Name string
	Type string
}

func toArguments(in []jit.Argument) []Argument {
	out := make([]Argument, len(in))
	for i, a := range in {
		out[i] = Argument{Name: a.Name, Type: a.Type.String()}
	}
	return out
}

// MethodArguments returns a fresh copy of the method's arguments. A
// leading self argument is listed but is supplied by RunMethod itself.
func (r *Runtime) MethodArguments(h Handle) ([]Argument, error) {
	m, err := r.method(h)
	if err != nil {
		return nil, fail("method_arguments", KindOwnership, h, err, "")
	}
	return toArguments(m.Arguments()), nil
}

// MethodReturns returns a fresh copy of the method's single, unnamed
// return slot.
func (r *Runtime) MethodReturns(h Handle) ([]Argument, error) {
	m, err := r.method(h)
	if err != nil {
		return nil, fail("method_returns", KindOwnership, h, err, "")
	}
	return toArguments(m.Returns()), nil
}

// MethodSchema renders the signature, e.g. "sum(Tensor a, Tensor b) -> Tensor".
func (r *Runtime) MethodSchema(h Handle) (string, error) {
	m, err := r.method(h)
	if err != nil {
		return "", fail("method_schema", KindOwnership, h, err, "")
	}
	return m.Schema().String(), nil
}

// MethodGraph renders the method's IR.
func (r *Runtime) MethodGraph(h Handle) (string, error) {
	m, err := r.method(h)
	if err != nil {
		return "", fail("method_graph", KindOwnership, h, err, "")
	}
	return m.Graph().String(), nil
}
