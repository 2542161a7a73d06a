package boundary

import (
	"errors"
	"fmt"

	"github.com/born-ml/gotorch/internal/handle"
	"github.com/born-ml/gotorch/internal/jit"
	"github.com/born-ml/gotorch/internal/tensor"
)

// DefaultMaxDepth bounds tuple nesting when no explicit limit is set.
const DefaultMaxDepth = 1024

// Allocator turns a runtime tensor into a tensor handle. On success the
// handle owns t; on failure the caller keeps ownership. ReleaseTensor
// undoes a successful allocation.
type Allocator interface {
	AllocTensor(t *tensor.RawTensor) (handle.Handle, error)
	Releaser
}

// Resolver looks up the runtime tensor behind a tensor handle.
type Resolver interface {
	ResolveTensor(h handle.Handle) (*tensor.RawTensor, error)
}

// Releaser releases a tensor handle.
type Releaser interface {
	ReleaseTensor(h handle.Handle) error
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(h handle.Handle) (*tensor.RawTensor, error)

func (f ResolverFunc) ResolveTensor(h handle.Handle) (*tensor.RawTensor, error) { return f(h) }

// ReleaserFunc adapts a function to Releaser.
type ReleaserFunc func(h handle.Handle) error

func (f ReleaserFunc) ReleaseTensor(h handle.Handle) error { return f(h) }

// Codec converts between runtime values and boundary trees.
// The zero Codec uses DefaultMaxDepth.
type Codec struct {
	MaxDepth int
}

func depthLimit(n int) int {
	if n <= 0 {
		return DefaultMaxDepth
	}
	return n
}

func (c Codec) tooDeep(depth int) error {
	return fmt.Errorf("%w: depth %d > %d", ErrTooDeep, depth, depthLimit(c.MaxDepth))
}

// Encode converts a runtime value into a boundary tree. Each tensor leaf
// receives a fresh handle over a clone of the runtime tensor. Tuples keep
// their length and element order. Any other kind fails with
// ErrUnsupportedKind, and every handle allocated before the failure is
// released again.
func Encode(v jit.Value, alloc Allocator) (Value, error) {
	return Codec{}.Encode(v, alloc)
}

// Decode converts a boundary tree into a runtime value.
func Decode(v Value, lookup Resolver) (jit.Value, error) {
	return Codec{}.Decode(v, lookup)
}

// Free releases every tensor handle in v.
func Free(v Value, release Releaser) error {
	return Codec{}.Free(v, release)
}

// Encode is the depth-bounded form of the package-level Encode.
func (c Codec) Encode(v jit.Value, alloc Allocator) (Value, error) {
	if alloc == nil {
		return Value{}, errors.New("boundary: nil allocator")
	}
	maxDepth := depthLimit(c.MaxDepth)

	type frame struct {
		src   jit.Value
		dst   *Value
		depth int
	}

	var (
		root      Value
		allocated []handle.Handle
	)
	fail := func(err error) (Value, error) {
		for i := len(allocated) - 1; i >= 0; i-- {
			_ = alloc.ReleaseTensor(allocated[i])
		}
		return Value{}, err
	}

	stack := []frame{{src: v, dst: &root, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > maxDepth {
			return fail(c.tooDeep(f.depth))
		}

		switch f.src.Kind() {
		case jit.KindTensor:
			t := f.src.Tensor()
			if t == nil {
				return fail(fmt.Errorf("%w: nil tensor", ErrUnsupportedKind))
			}
			clone := t.Clone()
			h, err := alloc.AllocTensor(clone)
			if err != nil {
				clone.Release()
				return fail(fmt.Errorf("allocate tensor handle: %w", err))
			}
			allocated = append(allocated, h)
			*f.dst = TensorValue(h)

		case jit.KindTuple:
			elems := f.src.Elements()
			*f.dst = Value{Tag: TagTuple, Elements: make([]Value, len(elems))}
			for i := len(elems) - 1; i >= 0; i-- {
				stack = append(stack, frame{src: elems[i], dst: &f.dst.Elements[i], depth: f.depth + 1})
			}

		default:
			return fail(fmt.Errorf("%w: %s", ErrUnsupportedKind, f.src.Kind()))
		}
	}

	return root, nil
}

// decodeFrame is a tuple whose elements are being decoded.
type decodeFrame struct {
	src   Value
	elems []jit.Value
	depth int
}

// containsStorage reports whether node shares element storage with a
// tuple on the decode stack.
func containsStorage(stack []*decodeFrame, node Value) bool {
	if len(node.Elements) == 0 {
		return false
	}
	first := &node.Elements[0]
	for _, f := range stack {
		if len(f.src.Elements) > 0 && &f.src.Elements[0] == first {
			return true
		}
	}
	return false
}

// Decode is the depth-bounded form of the package-level Decode.
// Tensor leaves decode to the tensor the handle refers to, without copying.
func (c Codec) Decode(v Value, lookup Resolver) (jit.Value, error) {
	if lookup == nil {
		return jit.Value{}, errors.New("boundary: nil resolver")
	}
	maxDepth := depthLimit(c.MaxDepth)

	var result jit.Value
	stack := []*decodeFrame{{src: v, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.depth > maxDepth {
			return jit.Value{}, c.tooDeep(f.depth)
		}

		var done jit.Value
		switch f.src.Tag {
		case TagTensor:
			t, err := lookup.ResolveTensor(f.src.Tensor)
			if err != nil {
				return jit.Value{}, fmt.Errorf("resolve %s: %w", f.src.Tensor, err)
			}
			done = jit.TensorValue(t)

		case TagTuple:
			if f.elems == nil {
				f.elems = make([]jit.Value, 0, len(f.src.Elements))
			}
			if n := len(f.elems); n < len(f.src.Elements) {
				child := f.src.Elements[n]
				if child.Tag == TagTuple && containsStorage(stack, child) {
					return jit.Value{}, fmt.Errorf("%w: tuple contains itself at depth %d", ErrTooDeep, f.depth+1)
				}
				stack = append(stack, &decodeFrame{src: child, depth: f.depth + 1})
				continue
			}
			done = jit.TupleValue(f.elems...)

		default:
			return jit.Value{}, fmt.Errorf("%w: %s", ErrInvalidTag, f.src.Tag)
		}

		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			result = done
		} else {
			parent := stack[len(stack)-1]
			parent.elems = append(parent.elems, done)
		}
	}

	return result, nil
}

// Free is the depth-bounded form of the package-level Free. It visits the
// whole tree, continues past individual failures and returns them joined.
// Subtrees beyond the depth limit are reported and left untouched.
func (c Codec) Free(v Value, release Releaser) error {
	if release == nil {
		return errors.New("boundary: nil releaser")
	}
	return walk(v, depthLimit(c.MaxDepth), func(node Value, _ int) error {
		switch node.Tag {
		case TagTensor:
			if err := release.ReleaseTensor(node.Tensor); err != nil {
				return fmt.Errorf("release %s: %w", node.Tensor, err)
			}
		case TagTuple:
		default:
			return fmt.Errorf("%w: %s", ErrInvalidTag, node.Tag)
		}
		return nil
	}, false)
}
