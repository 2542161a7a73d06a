// Package boundary converts runtime values to and from the tagged trees
// that cross the handle boundary.
//
// A boundary Value is either a tensor leaf, holding a tensor handle, or a
// tuple node whose Elements are themselves Values. Everything else the
// runtime can produce (ints, floats, bools, None, objects) has no boundary
// representation and is rejected with ErrUnsupportedKind.
package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/gotorch/internal/handle"
)

var (
	ErrUnsupportedKind = errors.New("value kind cannot cross the boundary")
	ErrInvalidTag      = errors.New("invalid boundary value tag")
	ErrTooDeep         = errors.New("value tree exceeds maximum depth")
)

// Tag discriminates boundary values.
type Tag int32

const (
	TagNone Tag = iota
	TagTensor
	TagTuple
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagTensor:
		return "tensor"
	case TagTuple:
		return "tuple"
	default:
		return fmt.Sprintf("tag(%d)", int32(t))
	}
}

// Value is a node of a boundary value tree.
// Tensor is meaningful only for TagTensor, Elements only for TagTuple.
type Value struct {
	Tag      Tag
	Tensor   handle.Handle
	Elements []Value
}

// TensorValue returns a tensor leaf.
func TensorValue(h handle.Handle) Value {
	return Value{Tag: TagTensor, Tensor: h}
}

// TupleValue returns a tuple node holding elems in order.
func TupleValue(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Tag: TagTuple, Elements: elems}
}

// Len returns the number of tuple elements, or 0 for a leaf.
func (v Value) Len() int {
	if v.Tag != TagTuple {
		return 0
	}
	return len(v.Elements)
}

// At returns tuple element i. It panics when v is not a tuple or i is out of range.
func (v Value) At(i int) Value {
	if v.Tag != TagTuple {
		panic(fmt.Sprintf("boundary: At on %s value", v.Tag))
	}
	return v.Elements[i]
}

// Walk visits v and its descendants in pre-order, stopping early when fn
// returns false. Depth is 1 for v itself. A maxDepth <= 0 selects
// DefaultMaxDepth. Nodes deeper than maxDepth, and tuples that contain
// themselves, are not visited and make Walk return ErrTooDeep.
func (v Value) Walk(maxDepth int, fn func(node Value, depth int) bool) error {
	var stopped bool
	err := walk(v, depthLimit(maxDepth), func(node Value, depth int) error {
		if !fn(node, depth) {
			stopped = true
			return errStop
		}
		return nil
	}, true)
	if stopped {
		return nil
	}
	return err
}

var errStop = errors.New("stop")

// pathFrame is one tuple on the path from the root to the current node.
type pathFrame struct {
	node Value
	next int
}

// walk drives a pre-order traversal with an explicit path stack. A visit
// error ends the walk when stopOnError is set and is collected otherwise.
// The returned error joins everything collected.
func walk(root Value, maxDepth int, visit func(node Value, depth int) error, stopOnError bool) error {
	var errs []error
	enter := func(node Value, path []pathFrame) ([]pathFrame, bool) {
		depth := len(path) + 1
		if depth > maxDepth {
			errs = append(errs, fmt.Errorf("%w: depth %d > %d", ErrTooDeep, depth, maxDepth))
			return path, !stopOnError
		}
		if node.Tag == TagTuple && onPath(path, node) {
			errs = append(errs, fmt.Errorf("%w: tuple contains itself at depth %d", ErrTooDeep, depth))
			return path, !stopOnError
		}
		if err := visit(node, depth); err != nil {
			errs = append(errs, err)
			if stopOnError {
				return path, false
			}
		}
		if node.Tag == TagTuple {
			path = append(path, pathFrame{node: node})
		}
		return path, true
	}

	path, ok := enter(root, nil)
	for ok && len(path) > 0 {
		top := &path[len(path)-1]
		if top.next == len(top.node.Elements) {
			path = path[:len(path)-1]
			continue
		}
		child := top.node.Elements[top.next]
		top.next++
		path, ok = enter(child, path)
	}

	return errors.Join(errs...)
}

// onPath reports whether node shares its element storage with a tuple on path.
func onPath(path []pathFrame, node Value) bool {
	if len(node.Elements) == 0 {
		return false
	}
	for i := range path {
		if len(path[i].node.Elements) > 0 && &path[i].node.Elements[0] == &node.Elements[0] {
			return true
		}
	}
	return false
}

// Handles returns every tensor handle in v in left-to-right order.
func (v Value) Handles() ([]handle.Handle, error) {
	var hs []handle.Handle
	err := v.Walk(0, func(node Value, _ int) bool {
		if node.Tag == TagTensor {
			hs = append(hs, node.Tensor)
		}
		return true
	})
	return hs, err
}

func (v Value) String() string {
	var b strings.Builder
	v.format(&b, nil)
	return b.String()
}

// format writes v. path holds the element storage of enclosing tuples so
// that a tuple containing itself, or one nested DefaultMaxDepth deep,
// prints as "...".
func (v Value) format(b *strings.Builder, path []*Value) {
	switch v.Tag {
	case TagTensor:
		b.WriteString(v.Tensor.String())
	case TagTuple:
		if len(v.Elements) > 0 {
			if len(path) >= DefaultMaxDepth {
				b.WriteString("...")
				return
			}
			first := &v.Elements[0]
			for _, p := range path {
				if p == first {
					b.WriteString("...")
					return
				}
			}
			path = append(path, first)
		}
		b.WriteByte('(')
		for i, e := range v.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			e.format(b, path)
		}
		if len(v.Elements) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	default:
		b.WriteString(v.Tag.String())
	}
}
