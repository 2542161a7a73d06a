package jit

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/born-ml/gotorch/internal/backend/cpu"
	"github.com/born-ml/gotorch/internal/tensor"
)

// DefaultModuleName names modules compiled without WithName.
const DefaultModuleName = "Module"

// Module is a compiled unit of script functions plus its tensor buffers.
// Methods may run concurrently; buffer updates are serialized.
type Module struct {
	name     string
	source   string
	methods  []*Method
	byName   map[string]*Method
	registry *Registry
	backend  tensor.Backend

	mu          sync.RWMutex
	buffers     map[string]*tensor.RawTensor
	bufferNames []string
}

// Option configures Compile.
type Option func(*Module)

// WithName sets the module name used in the self type, e.g. __torch__.Net.
func WithName(name string) Option {
	return func(m *Module) {
		m.name = name
	}
}

// WithBackend sets the backend operators run on.
func WithBackend(b tensor.Backend) Option {
	return func(m *Module) {
		m.backend = b
	}
}

// WithRegistry sets the operator registry used for compilation and execution.
func WithRegistry(r *Registry) Option {
	return func(m *Module) {
		m.registry = r
	}
}

// Compile parses and lowers script source into a Module.
func Compile(source string, opts ...Option) (*Module, error) {
	m := &Module{
		name:    DefaultModuleName,
		source:  source,
		byName:  make(map[string]*Method),
		buffers: make(map[string]*tensor.RawTensor),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	if m.backend == nil {
		m.backend = cpu.New()
	}
	if !isIdentifier(m.name) {
		return nil, fmt.Errorf("invalid module name %q", m.name)
	}

	file, err := Parse(source)
	if err != nil {
		return nil, err
	}
	methods, err := newCompiler(m).compile(file)
	if err != nil {
		return nil, err
	}
	m.methods = methods
	for _, meth := range methods {
		m.byName[meth.name] = meth
	}

	Logger().Debug("module compiled",
		zap.String("module", m.name),
		zap.Strings("methods", m.MethodNames()))
	return m, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// QualifiedName returns the type name of the module's self argument.
func (m *Module) QualifiedName() string {
	return "__torch__." + m.name
}

// Source returns the script the module was compiled from.
func (m *Module) Source() string {
	return m.source
}

// Method returns the method called name.
func (m *Module) Method(name string) (*Method, error) {
	meth, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMethodNotFound, name)
	}
	return meth, nil
}

// Methods returns the methods in declaration order.
func (m *Module) Methods() []*Method {
	return slices.Clone(m.methods)
}

// MethodNames returns the method names in declaration order.
func (m *Module) MethodNames() []string {
	names := make([]string, len(m.methods))
	for i, meth := range m.methods {
		names[i] = meth.name
	}
	return names
}

// Run invokes the named method.
func (m *Module) Run(name string, args ...Value) (Value, error) {
	meth, err := m.Method(name)
	if err != nil {
		return Value{}, err
	}
	return meth.Run(args...)
}

// SetBuffer stores a tensor attribute readable from methods as self.name.
func (m *Module) SetBuffer(name string, t *tensor.RawTensor) error {
	if !isIdentifier(name) {
		return fmt.Errorf("%w: invalid buffer name %q", ErrArgument, name)
	}
	if _, isMethod := m.byName[name]; isMethod {
		return fmt.Errorf("%w: %q is a method", ErrArgument, name)
	}
	if t == nil {
		return fmt.Errorf("%w: buffer %q is nil", ErrArgument, name)
	}
	m.setBuffer(name, t)
	return nil
}

func (m *Module) setBuffer(name string, t *tensor.RawTensor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.buffers[name]; !exists {
		m.bufferNames = append(m.bufferNames, name)
	}
	m.buffers[name] = t
}

// Buffer returns the tensor stored under name.
func (m *Module) Buffer(name string) (*tensor.RawTensor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.buffers[name]
	return t, ok
}

// BufferNames returns buffer names in the order they were first set.
func (m *Module) BufferNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.bufferNames)
}

func isIdentifier(s string) bool {
	if s == "" || isReserved(s) || isDigit(s[0]) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) && !isDigit(s[i]) {
			return false
		}
	}
	return true
}
