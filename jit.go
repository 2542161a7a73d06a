// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch

import (
	"fmt"
	"runtime"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
)

// JITModule is a compiled script module.
type JITModule struct {
	rt      *capi.Runtime
	h       capi.Handle
	cleanup runtime.Cleanup
}

func releaseModule(ref handleRef) { _ = ref.rt.ReleaseModule(ref.h) }

func releaseMethod(ref handleRef) { _ = ref.rt.ReleaseMethod(ref.h) }

func moduleWithHandle(rt *capi.Runtime, h capi.Handle) *JITModule {
	m := &JITModule{rt: rt, h: h}
	m.cleanup = runtime.AddCleanup(m, releaseModule, handleRef{rt, h})
	return m
}

// CompileTorchScript compiles script source into a module.
func CompileTorchScript(torchScript string) (*JITModule, error) {
	rt := capi.Default()
	h, err := rt.CompileModule(torchScript)
	if err != nil {
		return nil, err
	}
	return moduleWithHandle(rt, h), nil
}

// LoadJITModule loads a module saved with Save.
func LoadJITModule(path string) (*JITModule, error) {
	rt := capi.Default()
	h, err := rt.LoadModule(path)
	if err != nil {
		return nil, err
	}
	return moduleWithHandle(rt, h), nil
}

// Save writes the module, including its buffers, to path.
func (m *JITModule) Save(path string) error {
	err := m.rt.ExportModule(m.h, path)
	runtime.KeepAlive(m)
	return err
}

// GetMethod returns the named method.
func (m *JITModule) GetMethod(method string) (*JITModuleMethod, error) {
	h, err := m.rt.GetMethod(m.h, method)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, err
	}

	met := &JITModuleMethod{rt: m.rt, h: h, module: m}
	met.cleanup = runtime.AddCleanup(met, releaseMethod, handleRef{m.rt, h})
	return met, nil
}

// RunMethod runs the named method with the given inputs.
func (m *JITModule) RunMethod(method string, inputs ...any) (any, error) {
	met, err := m.GetMethod(method)
	if err != nil {
		return nil, err
	}
	defer func() { _ = met.Release() }()

	return met.Run(inputs...)
}

// Forward runs the module's forward method.
func (m *JITModule) Forward(inputs ...any) (any, error) {
	return m.RunMethod("forward", inputs...)
}

// GetMethodNames returns the module's method names in declaration order,
// or nil once released.
func (m *JITModule) GetMethodNames() []string {
	names, err := m.rt.MethodNames(m.h)
	runtime.KeepAlive(m)
	if err != nil {
		return nil
	}
	return names
}

// Release frees the module. Methods obtained from it remain usable.
func (m *JITModule) Release() error {
	m.cleanup.Stop()
	return m.rt.ReleaseModule(m.h)
}

// JITModuleMethodArgument describes one schema slot.
type JITModuleMethodArgument = capi.Argument

// JITModuleMethod is a method bound to its module.
type JITModuleMethod struct {
	rt      *capi.Runtime
	h       capi.Handle
	module  *JITModule
	cleanup runtime.Cleanup
}

// Run invokes the method. Inputs must be *Tensor or Tuple values in
// declaration order; a self argument is supplied automatically. The
// result is a *Tensor or a Tuple.
func (m *JITModuleMethod) Run(inputs ...any) (any, error) {
	maxDepth := m.rt.MaxDepth()
	values := make([]boundary.Value, len(inputs))
	for i, in := range inputs {
		v, err := toBoundary(in, 1, maxDepth)
		if err != nil {
			return nil, fmt.Errorf("torch: input %d: %w", i, err)
		}
		values[i] = v
	}

	out, err := m.rt.RunMethod(m.h, values)
	runtime.KeepAlive(inputs)
	runtime.KeepAlive(m)
	if err != nil {
		return nil, err
	}
	return fromBoundary(m.rt, out), nil
}

// Arguments returns the method's arguments, including self when present.
func (m *JITModuleMethod) Arguments() []JITModuleMethodArgument {
	args, err := m.rt.MethodArguments(m.h)
	runtime.KeepAlive(m)
	if err != nil {
		return nil
	}
	return args
}

// Returns returns the method's single, unnamed return slot.
func (m *JITModuleMethod) Returns() []JITModuleMethodArgument {
	rets, err := m.rt.MethodReturns(m.h)
	runtime.KeepAlive(m)
	if err != nil {
		return nil
	}
	return rets
}

// Release frees the method.
func (m *JITModuleMethod) Release() error {
	m.cleanup.Stop()
	return m.rt.ReleaseMethod(m.h)
}

// toBoundary borrows the handles of a Go input tree. Nothing is allocated,
// so there is nothing to free afterwards.
func toBoundary(val any, depth, maxDepth int) (boundary.Value, error) {
	if depth > maxDepth {
		return boundary.Value{}, fmt.Errorf("%w: depth %d > %d", ErrTooDeep, depth, maxDepth)
	}

	switch v := val.(type) {
	case *Tensor:
		if v == nil {
			return boundary.Value{}, fmt.Errorf("nil *Tensor")
		}
		return boundary.TensorValue(v.h), nil
	case Tuple:
		elems := make([]boundary.Value, len(v))
		for i, e := range v {
			ev, err := toBoundary(e, depth+1, maxDepth)
			if err != nil {
				return boundary.Value{}, err
			}
			elems[i] = ev
		}
		return boundary.TupleValue(elems...), nil
	default:
		return boundary.Value{}, fmt.Errorf("invalid input type for run %T", val)
	}
}

// fromBoundary hands every tensor handle in v to a *Tensor wrapper.
func fromBoundary(rt *capi.Runtime, v boundary.Value) any {
	if v.Tag == boundary.TagTensor {
		return tensorWithHandle(rt, v.Tensor)
	}
	tuple := make(Tuple, len(v.Elements))
	for i, e := range v.Elements {
		tuple[i] = fromBoundary(rt, e)
	}
	return tuple
}
