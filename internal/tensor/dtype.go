// Package tensor provides the native tensor runtime used behind the gotorch boundary.
package tensor

import "github.com/x448/float16"

// Element is a constraint for the Go element types a tensor can be viewed as.
// Float16 tensors are viewed as float16.Float16.
type Element interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~bool | float16.Float16
}

// Numeric is the subset of Element that kernels compute on directly.
type Numeric interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
	Int8
	Int16
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Int16, Float16:
		return 2
	case Uint8, Int8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt >= Float32 && dt <= Float16
}

// IsFloat reports whether dt is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64 || dt == Float16
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, bool) {
	for dt := Float32; dt <= Float16; dt++ {
		if dt.String() == s {
			return dt, true
		}
	}
	return 0, false
}

// typeName returns the libtorch-style scalar type name used when printing.
func (dt DataType) typeName() string {
	switch dt {
	case Float32:
		return "Float"
	case Float64:
		return "Double"
	case Int32:
		return "Int"
	case Int64:
		return "Long"
	case Uint8:
		return "Byte"
	case Bool:
		return "Bool"
	case Int8:
		return "Char"
	case Int16:
		return "Short"
	case Float16:
		return "Half"
	default:
		return "Undefined"
	}
}

// DataTypeOf infers the DataType of a Go element type.
func DataTypeOf[T Element]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	case int8:
		return Int8
	case int16:
		return Int16
	case float16.Float16:
		return Float16
	default:
		panic("unsupported type")
	}
}
