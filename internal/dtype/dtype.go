// Package dtype maps the boundary's scalar-type tags to runtime data types.
package dtype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/gotorch/internal/tensor"
)

// ErrUnmappedTag is returned when a tag has no runtime data type.
var ErrUnmappedTag = errors.New("unmapped scalar type tag")

// Tag is the scalar-type tag used at the boundary. Its numeric values are
// part of the ABI and must not change.
type Tag int32

const (
	Unknown Tag = iota
	Byte
	Char
	Short
	Int
	Long
	Half
	Float
	Double
)

var toRuntime = [...]tensor.DataType{
	Byte:   tensor.Uint8,
	Char:   tensor.Int8,
	Short:  tensor.Int16,
	Int:    tensor.Int32,
	Long:   tensor.Int64,
	Half:   tensor.Float16,
	Float:  tensor.Float32,
	Double: tensor.Float64,
}

var names = [...]string{
	Unknown: "unknown",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Half:    "half",
	Float:   "float",
	Double:  "double",
}

// Valid reports whether t maps to a runtime data type.
func (t Tag) Valid() bool {
	return t > Unknown && t <= Double
}

func (t Tag) String() string {
	if t < Unknown || t > Double {
		return fmt.Sprintf("tag(%d)", int32(t))
	}
	return names[t]
}

// Parse returns the tag named s (case-insensitive), e.g. "float" or "long".
func Parse(s string) (Tag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t := Byte; t <= Double; t++ {
		if names[t] == s {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnmappedTag, s)
}

// ToRuntime maps a boundary tag to the runtime data type.
func ToRuntime(t Tag) (tensor.DataType, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnmappedTag, t)
	}
	return toRuntime[t], nil
}

// FromRuntime maps a runtime data type back to its tag.
// Types with no tag, such as bool, map to Unknown.
func FromRuntime(dt tensor.DataType) Tag {
	for t := Byte; t <= Double; t++ {
		if toRuntime[t] == dt {
			return t
		}
	}
	return Unknown
}
