// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package torch

import (
	"reflect"

	"github.com/x448/float16"

	"github.com/born-ml/gotorch/capi"
)

// DType is the scalar type of a tensor.
type DType = capi.Tag

// Scalar types.
const (
	Byte   DType = capi.Byte
	Char   DType = capi.Char
	Short  DType = capi.Short
	Int    DType = capi.Int
	Long   DType = capi.Long
	Half   DType = capi.Half
	Float  DType = capi.Float
	Double DType = capi.Double
)

var types = []struct {
	typ   reflect.Type
	dtype DType
}{
	{reflect.TypeOf(uint8(0)), Byte},
	{reflect.TypeOf(int8(0)), Char},
	{reflect.TypeOf(int16(0)), Short},
	{reflect.TypeOf(int32(0)), Int},
	{reflect.TypeOf(int64(0)), Long},
	{reflect.TypeOf(float16.Float16(0)), Half},
	{reflect.TypeOf(float32(0)), Float},
	{reflect.TypeOf(float64(0)), Double},
}

// dtypeOf maps a Go element type to a DType. Named types match on their
// underlying kind, except that only float16.Float16 itself maps to Half.
func dtypeOf(typ reflect.Type) (DType, bool) {
	for _, t := range types {
		if typ == t.typ {
			return t.dtype, true
		}
	}
	for _, t := range types {
		if t.dtype != Half && typ.Kind() == t.typ.Kind() {
			return t.dtype, true
		}
	}
	return capi.Unknown, false
}

// typeOf returns the Go type holding a tensor of dt with the given rank.
func typeOf(dt DType, rank int) (reflect.Type, bool) {
	var ret reflect.Type
	for _, t := range types {
		if dt == t.dtype {
			ret = t.typ
			break
		}
	}
	if ret == nil {
		return nil, false
	}
	for i := 0; i < rank; i++ {
		ret = reflect.SliceOf(ret)
	}
	return ret, true
}
