// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package capi

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/born-ml/gotorch/internal/archive"
	"github.com/born-ml/gotorch/internal/boundary"
	"github.com/born-ml/gotorch/internal/handle"
	"github.com/born-ml/gotorch/internal/jit"
)

// CompileModule compiles script source into a module named "Module".
func (r *Runtime) CompileModule(source string) (Handle, error) {
	return r.CompileNamedModule(jit.DefaultModuleName, source)
}

// CompileNamedModule compiles script source into a module with the given
// name. The name appears in the type of self arguments.
func (r *Runtime) CompileNamedModule(name, source string) (Handle, error) {
	const op = "compile_module"

	m, err := jit.Compile(source, jit.WithName(name))
	if err != nil {
		return InvalidHandle, fail(op, KindConstruction, InvalidHandle, err, "")
	}
	return r.insertModule(op, m)
}

func (r *Runtime) insertModule(op string, m *jit.Module) (Handle, error) {
	h, err := r.table.Insert(handle.KindModule, &moduleEntry{m: m})
	if err != nil {
		return InvalidHandle, fail(op, KindOwnership, InvalidHandle, err, "")
	}
	r.log.Debug("module created",
		zap.Stringer("handle", h),
		zap.String("name", m.Name()),
		zap.Strings("methods", m.MethodNames()))
	return h, nil
}

// LoadModule reads a module archive written by ExportModule, recompiles
// its source and restores its buffers.
func (r *Runtime) LoadModule(path string) (Handle, error) {
	const op = "load_module"

	a, err := archive.Load(path)
	if err != nil {
		return InvalidHandle, fail(op, KindConstruction, InvalidHandle, err, path)
	}

	m, err := jit.Compile(a.Source, jit.WithName(a.Name))
	if err != nil {
		a.Release()
		return InvalidHandle, fail(op, KindConstruction, InvalidHandle, err, path)
	}
	if err := restoreBuffers(m, a.Buffers); err != nil {
		return InvalidHandle, &Error{Op: op, Kind: KindConstruction, Detail: path, Cause: err}
	}

	return r.insertModule(op, m)
}

// restoreBuffers moves bufs into m. On failure every buffer is released,
// including those already moved, since m is discarded.
func restoreBuffers(m *jit.Module, bufs []archive.Buffer) error {
	for _, b := range bufs {
		if err := m.SetBuffer(b.Name, b.Tensor); err != nil {
			for _, all := range bufs {
				if all.Tensor != nil {
					all.Tensor.Release()
				}
			}
			return err
		}
	}
	return nil
}

// ExportModule writes the module's source and buffers to path.
func (r *Runtime) ExportModule(h Handle, path string) error {
	const op = "export_module"

	m, err := r.module(h)
	if err != nil {
		return fail(op, KindOwnership, h, err, "")
	}

	a := &archive.Archive{Name: m.Name(), Source: m.Source()}
	for _, name := range m.BufferNames() {
		t, _ := m.Buffer(name)
		a.Buffers = append(a.Buffers, archive.Buffer{Name: name, Tensor: t})
	}
	if err := archive.Save(path, a); err != nil {
		return fail(op, KindConstruction, h, err, path)
	}

	r.log.Debug("module exported", zap.Stringer("handle", h), zap.String("path", path))
	return nil
}

// ModuleName returns the module's name.
func (r *Runtime) ModuleName(h Handle) (string, error) {
	m, err := r.module(h)
	if err != nil {
		return "", fail("module_name", KindOwnership, h, err, "")
	}
	return m.Name(), nil
}

// MethodNames returns the module's method names in declaration order.
func (r *Runtime) MethodNames(h Handle) ([]string, error) {
	m, err := r.module(h)
	if err != nil {
		return nil, fail("method_names", KindOwnership, h, err, "")
	}
	return m.MethodNames(), nil
}

// GetMethod binds the named method. The method handle keeps the module
// alive, so the module handle may be released first.
func (r *Runtime) GetMethod(h Handle, name string) (Handle, error) {
	const op = "get_method"

	m, err := r.module(h)
	if err != nil {
		return InvalidHandle, fail(op, KindOwnership, h, err, "")
	}
	method, err := m.Method(name)
	if err != nil {
		return InvalidHandle, fail(op, KindConstruction, h, err, name)
	}

	mh, err := r.table.Insert(handle.KindMethod, &methodEntry{m: method})
	if err != nil {
		return InvalidHandle, fail(op, KindOwnership, h, err, "")
	}
	return mh, nil
}

// RunMethod decodes inputs, invokes the method positionally and encodes
// its result. The returned tree owns fresh tensor handles; inputs are
// left untouched. A result that is neither a tensor nor a tuple of
// tensors fails with ErrUnsupportedKind and allocates nothing.
func (r *Runtime) RunMethod(h Handle, inputs []boundary.Value) (boundary.Value, error) {
	const op = "run_method"

	m, err := r.method(h)
	if err != nil {
		return boundary.Value{}, fail(op, KindOwnership, h, err, "")
	}

	s := store{r}
	args := make([]jit.Value, len(inputs))
	for i, in := range inputs {
		v, err := r.codec.Decode(in, s)
		if err != nil {
			return boundary.Value{}, fail(op, KindConversion, h, err, fmt.Sprintf("input %d", i))
		}
		args[i] = v
	}

	out, err := m.Run(args...)
	if err != nil {
		return boundary.Value{}, fail(op, KindInvalidInput, h, err, m.Name())
	}

	result, err := r.codec.Encode(out, s)
	if err != nil {
		return boundary.Value{}, fail(op, KindConversion, h, err, fmt.Sprintf("result of %s", m.Name()))
	}
	return result, nil
}

// FreeValue releases every tensor handle in v. It keeps going past
// failures and reports them together.
func (r *Runtime) FreeValue(v boundary.Value) error {
	if err := r.codec.Free(v, store{r}); err != nil {
		return fail("free_value", KindOwnership, InvalidHandle, err, "")
	}
	return nil
}

// ReleaseMethod releases a method handle.
func (r *Runtime) ReleaseMethod(h Handle) error {
	if _, err := r.table.Remove(h, handle.KindMethod); err != nil {
		return fail("release_method", KindOwnership, h, err, "")
	}
	return nil
}

// ReleaseModule releases a module handle. Method handles bound from it
// stay usable.
func (r *Runtime) ReleaseModule(h Handle) error {
	if _, err := r.table.Remove(h, handle.KindModule); err != nil {
		return fail("release_module", KindOwnership, h, err, "")
	}
	return nil
}

// SetBuffer stores a copy of the tensor behind th as the module buffer name.
func (r *Runtime) SetBuffer(h Handle, name string, th Handle) error {
	const op = "set_buffer"

	m, err := r.module(h)
	if err != nil {
		return fail(op, KindOwnership, h, err, "")
	}
	e, err := r.tensorEntry(th)
	if err != nil {
		return fail(op, KindOwnership, th, err, "")
	}

	t := e.t.Copy()
	if err := m.SetBuffer(name, t); err != nil {
		t.Release()
		return fail(op, KindInvalidInput, h, err, "")
	}
	return nil
}

// Buffer returns a new tensor handle over the module buffer name.
func (r *Runtime) Buffer(h Handle, name string) (Handle, error) {
	const op = "buffer"

	m, err := r.module(h)
	if err != nil {
		return InvalidHandle, fail(op, KindOwnership, h, err, "")
	}
	t, ok := m.Buffer(name)
	if !ok {
		return InvalidHandle, fail(op, KindInvalidInput, h, fmt.Errorf("%w: %q", jit.ErrAttribute, name), "")
	}

	clone := t.Clone()
	th, err := r.insertTensor(clone)
	if err != nil {
		clone.Release()
		return InvalidHandle, fail(op, KindOwnership, h, err, "")
	}
	return th, nil
}

// BufferNames returns the module's buffer names in insertion order.
func (r *Runtime) BufferNames(h Handle) ([]string, error) {
	m, err := r.module(h)
	if err != nil {
		return nil, fail("buffer_names", KindOwnership, h, err, "")
	}
	return m.BufferNames(), nil
}
