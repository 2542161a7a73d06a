package jit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/gotorch/internal/tensor"
)

// Kind classifies runtime values and static types.
type Kind uint8

const (
	KindNone Kind = iota
	KindTensor
	KindTuple
	KindInt
	KindFloat
	KindBool
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTensor:
		return "Tensor"
	case KindTuple:
		return "Tuple"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindObject:
		return "Object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a runtime value flowing through a graph. The zero Value is None.
// Values are immutable; tensors are shared, never written in place.
type Value struct {
	kind  Kind
	t     *tensor.RawTensor
	elems []Value
	i     int64
	f     float64
	obj   *Module
}

// TensorValue wraps a tensor.
func TensorValue(t *tensor.RawTensor) Value {
	return Value{kind: KindTensor, t: t}
}

// TupleValue builds a tuple from elems. The slice is not copied.
func TupleValue(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindTuple, elems: elems}
}

// IntValue wraps an integer scalar.
func IntValue(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// FloatValue wraps a floating point scalar.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// BoolValue wraps a boolean scalar.
func BoolValue(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// NoneValue returns None.
func NoneValue() Value {
	return Value{}
}

func objectValue(m *Module) Value {
	return Value{kind: KindObject, obj: m}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is None.
func (v Value) IsNone() bool { return v.kind == KindNone }

// Tensor returns the wrapped tensor, or nil if v is not a tensor.
func (v Value) Tensor() *tensor.RawTensor {
	if v.kind != KindTensor {
		return nil
	}
	return v.t
}

// Elements returns the tuple elements, or nil if v is not a tuple.
func (v Value) Elements() []Value {
	if v.kind != KindTuple {
		return nil
	}
	return v.elems
}

// Len returns the tuple length, or 0 if v is not a tuple.
func (v Value) Len() int {
	return len(v.Elements())
}

// At returns tuple element i.
func (v Value) At(i int) Value {
	return v.Elements()[i]
}

// Int returns the integer value of an int or bool.
func (v Value) Int() int64 {
	if v.kind == KindFloat {
		return int64(v.f)
	}
	return v.i
}

// Float returns the numeric value of an int, bool or float.
func (v Value) Float() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return float64(v.i)
}

// Bool returns the truth value of a bool or number.
func (v Value) Bool() bool {
	if v.kind == KindFloat {
		return v.f != 0
	}
	return v.i != 0
}

// Object returns the module an object value refers to.
func (v Value) Object() *Module {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Type returns the static type describing v.
func (v Value) Type() Type {
	switch v.kind {
	case KindTuple:
		elems := make([]Type, len(v.elems))
		for i, e := range v.elems {
			elems[i] = e.Type()
		}
		return TupleType(elems...)
	case KindObject:
		return ClassType(v.obj.QualifiedName())
	default:
		return Type{Kind: v.kind}
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "None"
	case KindTensor:
		return v.t.String()
	case KindTuple:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.i != 0 {
			return "True"
		}
		return "False"
	case KindObject:
		return "<" + v.obj.QualifiedName() + " object>"
	default:
		return v.kind.String()
	}
}

// formatFloat prints floats the way the IR does: 2. rather than 2.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += "."
	}
	return s
}
