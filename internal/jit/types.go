package jit

import "strings"

// Type is the static type of a graph value or schema argument.
type Type struct {
	Kind  Kind
	Elems []Type // tuple element types
	Name  string // qualified class name for KindObject
}

var (
	TensorType = Type{Kind: KindTensor}
	IntType    = Type{Kind: KindInt}
	FloatType  = Type{Kind: KindFloat}
	BoolType   = Type{Kind: KindBool}
	NoneType   = Type{Kind: KindNone}
)

// TupleType returns the type of a tuple with the given element types.
func TupleType(elems ...Type) Type {
	if elems == nil {
		elems = []Type{}
	}
	return Type{Kind: KindTuple, Elems: elems}
}

// ClassType returns the type of a module object.
func ClassType(name string) Type {
	return Type{Kind: KindObject, Name: name}
}

// String renders the type as it appears in schemas and IR,
// e.g. "Tensor" or "Tuple[Tensor, int]".
func (t Type) String() string {
	switch t.Kind {
	case KindTuple:
		if len(t.Elems) == 0 {
			return "Tuple[()]"
		}
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "Tuple[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// Equal reports whether t and o describe the same type.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Name != o.Name || len(t.Elems) != len(o.Elems) {
		return false
	}
	for i := range t.Elems {
		if !t.Elems[i].Equal(o.Elems[i]) {
			return false
		}
	}
	return true
}

// IsScalar reports whether t is int, float or bool.
func (t Type) IsScalar() bool {
	return t.Kind == KindInt || t.Kind == KindFloat || t.Kind == KindBool
}

// assignableFrom reports whether a value of type from may be used where t
// is expected. Ints widen to floats.
func (t Type) assignableFrom(from Type) bool {
	if t.Kind == KindFloat && from.Kind == KindInt {
		return true
	}
	if t.Kind == KindTuple && from.Kind == KindTuple {
		if len(t.Elems) != len(from.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].assignableFrom(from.Elems[i]) {
				return false
			}
		}
		return true
	}
	return t.Equal(from)
}

// accepts reports whether the runtime value v matches t.
func (t Type) accepts(v Value) bool {
	switch t.Kind {
	case KindFloat:
		return v.kind == KindFloat || v.kind == KindInt
	case KindTuple:
		if v.kind != KindTuple || len(v.elems) != len(t.Elems) {
			return false
		}
		for i, e := range t.Elems {
			if !e.accepts(v.elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.kind == KindObject && v.obj.QualifiedName() == t.Name
	default:
		return v.kind == t.Kind
	}
}
