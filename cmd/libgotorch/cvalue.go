package main

// #include <stdlib.h>
// #include "torch.h"
import "C"

import (
	"unsafe"

	"github.com/born-ml/gotorch/capi"
)

// Go names for the ABI types, for code in this package that cannot use
// cgo directly, such as its tests.
type (
	cIValue = C.Torch_IValue
	cError  = C.Torch_Error
	cSize   = C.size_t
	cTensor = C.Torch_TensorContext
	cModule = C.Torch_JITModuleContext
	cMethod = C.Torch_JITModuleMethodContext
)

const (
	itypeNone   = C.Torch_IValueTypeNone
	itypeTensor = C.Torch_IValueTypeTensor
	itypeTuple  = C.Torch_IValueTypeTuple
)

func cString(s string) *C.char { return C.CString(s) }

func freeCString(p *C.char) { C.free(unsafe.Pointer(p)) }

// errorMessage returns the message held by cErr and frees it.
func errorMessage(cErr *C.Torch_Error) string {
	if cErr.message == nil {
		return ""
	}
	msg := C.GoString(cErr.message)
	Torch_FreeError(cErr)
	return msg
}

// goStrings copies an array returned by Torch_JITModuleGetMethodNames.
func goStrings(p **C.char, size C.size_t) []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, s := range unsafe.Slice(p, int(size)) {
		out = append(out, C.GoString(s))
	}
	return out
}

// goArguments copies an array returned by Torch_JITModuleMethodArguments
// or Torch_JITModuleMethodReturns.
func goArguments(p *C.Torch_JITModuleMethodArgument, size C.size_t) []capi.Argument {
	if p == nil {
		return nil
	}
	var out []capi.Argument
	for _, a := range unsafe.Slice(p, int(size)) {
		out = append(out, capi.Argument{Name: C.GoString(a.name), Type: C.GoString(a.typ)})
	}
	return out
}

// tupleItems views the elements of a tuple value. It returns nil for any
// other kind.
func tupleItems(v *C.Torch_IValue) []C.Torch_IValue {
	if v.itype != C.Torch_IValueTypeTuple || v.tuple == nil || v.tuple.values == nil {
		return nil
	}
	return unsafe.Slice(v.tuple.values, int(v.tuple.length))
}

// nilTuple returns a tuple value whose storage pointer is missing.
func nilTuple() C.Torch_IValue {
	return C.Torch_IValue{itype: C.Torch_IValueTypeTuple}
}

// withIType returns a value carrying an arbitrary type tag.
func withIType(tag int) C.Torch_IValue {
	return C.Torch_IValue{itype: C.Torch_IValueType(tag)}
}
