// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package capi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/born-ml/gotorch/internal/boundary"
	"github.com/born-ml/gotorch/internal/dtype"
	"github.com/born-ml/gotorch/internal/handle"
	"github.com/born-ml/gotorch/internal/jit"
	"github.com/born-ml/gotorch/internal/tensor"
)

// Handle is an opaque reference to a tensor, module or method.
// The zero Handle is never valid.
type Handle = handle.Handle

// InvalidHandle is the zero handle.
const InvalidHandle = handle.Invalid

// Tag is the scalar type tag used at the boundary.
type Tag = dtype.Tag

// Scalar type tags.
const (
	Unknown = dtype.Unknown
	Byte    = dtype.Byte
	Char    = dtype.Char
	Short   = dtype.Short
	Int     = dtype.Int
	Long    = dtype.Long
	Half    = dtype.Half
	Float   = dtype.Float
	Double  = dtype.Double
)

// Config configures a Runtime.
type Config struct {
	// MaxDepth bounds tuple nesting in value trees crossing the boundary.
	// Zero selects boundary.DefaultMaxDepth.
	MaxDepth int `toml:"max_depth"`

	// Logger receives debug events. Nil selects the package logger.
	Logger *zap.Logger `toml:"-"`
}

// Stats counts the live handles of a Runtime.
type Stats struct {
	Tensors int
	Modules int
	Methods int
}

// Total returns the number of live handles of every kind.
func (s Stats) Total() int {
	return s.Tensors + s.Modules + s.Methods
}

// Runtime owns a handle table and the objects its handles refer to.
type Runtime struct {
	table *handle.Table
	codec boundary.Codec
	log   *zap.Logger
}

// New creates a Runtime with its own handle table.
func New(cfg Config) *Runtime {
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	return &Runtime{
		table: handle.NewTable(log),
		codec: boundary.Codec{MaxDepth: cfg.MaxDepth},
		log:   log,
	}
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Default returns the process-wide Runtime. It is created on first use
// with the package logger.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = New(Config{})
	})
	return defaultRuntime
}

// MaxDepth returns the effective value tree depth limit.
func (r *Runtime) MaxDepth() int {
	if r.codec.MaxDepth <= 0 {
		return boundary.DefaultMaxDepth
	}
	return r.codec.MaxDepth
}

// Stats reports the live handles.
func (r *Runtime) Stats() Stats {
	return Stats{
		Tensors: r.table.Count(handle.KindTensor),
		Modules: r.table.Count(handle.KindModule),
		Methods: r.table.Count(handle.KindMethod),
	}
}

// Close releases every live handle. Later calls fail with ErrOwnership.
func (r *Runtime) Close() error {
	if err := r.table.Close(); err != nil {
		return fail("close", KindOwnership, InvalidHandle, err, "")
	}
	return nil
}

// tensorEntry is the table value behind a tensor handle.
type tensorEntry struct {
	t    *tensor.RawTensor
	dims []int64
}

func newTensorEntry(t *tensor.RawTensor) *tensorEntry {
	shape := t.Shape()
	dims := make([]int64, len(shape))
	for i, d := range shape {
		dims[i] = int64(d)
	}
	return &tensorEntry{t: t, dims: dims}
}

func (e *tensorEntry) Drop() { e.t.Release() }

type moduleEntry struct {
	m *jit.Module
}

type methodEntry struct {
	m *jit.Method
}

func (r *Runtime) insertTensor(t *tensor.RawTensor) (Handle, error) {
	return r.table.Insert(handle.KindTensor, newTensorEntry(t))
}

func (r *Runtime) tensorEntry(h Handle) (*tensorEntry, error) {
	return handle.Get[*tensorEntry](r.table, h, handle.KindTensor)
}

func (r *Runtime) module(h Handle) (*jit.Module, error) {
	e, err := handle.Get[*moduleEntry](r.table, h, handle.KindModule)
	if err != nil {
		return nil, err
	}
	return e.m, nil
}

func (r *Runtime) method(h Handle) (*jit.Method, error) {
	e, err := handle.Get[*methodEntry](r.table, h, handle.KindMethod)
	if err != nil {
		return nil, err
	}
	return e.m, nil
}

// store adapts the tensor side of the table to the boundary codec.
type store struct {
	r *Runtime
}

func (s store) AllocTensor(t *tensor.RawTensor) (Handle, error) {
	return s.r.insertTensor(t)
}

func (s store) ResolveTensor(h Handle) (*tensor.RawTensor, error) {
	e, err := s.r.tensorEntry(h)
	if err != nil {
		return nil, err
	}
	return e.t, nil
}

func (s store) ReleaseTensor(h Handle) error {
	_, err := s.r.table.Remove(h, handle.KindTensor)
	return err
}
