package main

// #include <stdlib.h>
// #include "torch.h"
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/boundary"
)

//export Torch_CompileTorchScript
func Torch_CompileTorchScript(script *C.char, cErr *C.Torch_Error) C.Torch_JITModuleContext {
	if script == nil {
		setError(cErr, fmt.Errorf("script: %w", errNilPointer))
		return 0
	}
	h, err := rt.CompileModule(C.GoString(script))
	if err != nil {
		setError(cErr, err)
		return 0
	}
	return C.Torch_JITModuleContext(h)
}

//export Torch_LoadJITModule
func Torch_LoadJITModule(path *C.char, cErr *C.Torch_Error) C.Torch_JITModuleContext {
	if path == nil {
		setError(cErr, fmt.Errorf("path: %w", errNilPointer))
		return 0
	}
	h, err := rt.LoadModule(C.GoString(path))
	if err != nil {
		setError(cErr, err)
		return 0
	}
	return C.Torch_JITModuleContext(h)
}

//export Torch_ExportJITModule
func Torch_ExportJITModule(ctx C.Torch_JITModuleContext, path *C.char, cErr *C.Torch_Error) {
	if path == nil {
		setError(cErr, fmt.Errorf("path: %w", errNilPointer))
		return
	}
	if err := rt.ExportModule(capi.Handle(ctx), C.GoString(path)); err != nil {
		setError(cErr, err)
	}
}

//export Torch_JITModuleGetMethod
func Torch_JITModuleGetMethod(ctx C.Torch_JITModuleContext, method *C.char, cErr *C.Torch_Error) C.Torch_JITModuleMethodContext {
	if method == nil {
		setError(cErr, fmt.Errorf("method: %w", errNilPointer))
		return 0
	}
	h, err := rt.GetMethod(capi.Handle(ctx), C.GoString(method))
	if err != nil {
		setError(cErr, err)
		return 0
	}
	return C.Torch_JITModuleMethodContext(h)
}

// Torch_JITModuleGetMethodNames returns the method names in declaration
// order. Release the array with Torch_FreeStrings.
//
//export Torch_JITModuleGetMethodNames
func Torch_JITModuleGetMethodNames(ctx C.Torch_JITModuleContext, size *C.size_t, cErr *C.Torch_Error) **C.char {
	if size == nil {
		setError(cErr, fmt.Errorf("size: %w", errNilPointer))
		return nil
	}
	*size = 0

	names, err := rt.MethodNames(capi.Handle(ctx))
	if err != nil {
		setError(cErr, err)
		return nil
	}
	out, err := cStrings(names)
	if err != nil {
		setError(cErr, err)
		return nil
	}
	*size = C.size_t(len(names))
	return out
}

// Torch_JITModuleMethodRun runs the method and stores the result tree in
// output. Input handles stay owned by the caller. Result tensors are new
// handles; release the tree with Torch_FreeIValue.
//
//export Torch_JITModuleMethodRun
func Torch_JITModuleMethodRun(ctx C.Torch_JITModuleMethodContext, inputs *C.Torch_IValue, size C.size_t, output *C.Torch_IValue, cErr *C.Torch_Error) {
	if output == nil {
		setError(cErr, fmt.Errorf("output: %w", errNilPointer))
		return
	}
	output.itype = C.Torch_IValueTypeNone

	items, err := ivalues(inputs, size)
	if err != nil {
		setError(cErr, fmt.Errorf("inputs: %w", err))
		return
	}
	values := make([]boundary.Value, len(items))
	for i := range items {
		if values[i], err = fromIValue(&items[i], 0); err != nil {
			setError(cErr, fmt.Errorf("input %d: %w", i, err))
			return
		}
	}

	res, err := rt.RunMethod(capi.Handle(ctx), values)
	if err != nil {
		setError(cErr, err)
		return
	}
	if err := toIValue(output, res); err != nil {
		_ = freeIValue(output, false)
		_ = rt.FreeValue(res)
		setError(cErr, err)
	}
}

// Torch_JITModuleMethodArguments describes the method's arguments. Release
// the array with Torch_FreeArguments.
//
//export Torch_JITModuleMethodArguments
func Torch_JITModuleMethodArguments(ctx C.Torch_JITModuleMethodContext, size *C.size_t, cErr *C.Torch_Error) *C.Torch_JITModuleMethodArgument {
	return describe(rt.MethodArguments, ctx, size, cErr)
}

//export Torch_JITModuleMethodReturns
func Torch_JITModuleMethodReturns(ctx C.Torch_JITModuleMethodContext, size *C.size_t, cErr *C.Torch_Error) *C.Torch_JITModuleMethodArgument {
	return describe(rt.MethodReturns, ctx, size, cErr)
}

func describe(fn func(capi.Handle) ([]capi.Argument, error), ctx C.Torch_JITModuleMethodContext, size *C.size_t, cErr *C.Torch_Error) *C.Torch_JITModuleMethodArgument {
	if size == nil {
		setError(cErr, fmt.Errorf("size: %w", errNilPointer))
		return nil
	}
	*size = 0

	args, err := fn(capi.Handle(ctx))
	if err != nil {
		setError(cErr, err)
		return nil
	}
	out, err := cArguments(args)
	if err != nil {
		setError(cErr, err)
		return nil
	}
	*size = C.size_t(len(args))
	return out
}

//export Torch_DeleteJITModule
func Torch_DeleteJITModule(ctx C.Torch_JITModuleContext, cErr *C.Torch_Error) {
	if err := rt.ReleaseModule(capi.Handle(ctx)); err != nil {
		setError(cErr, err)
	}
}

//export Torch_DeleteJITModuleMethod
func Torch_DeleteJITModuleMethod(ctx C.Torch_JITModuleMethodContext, cErr *C.Torch_Error) {
	if err := rt.ReleaseMethod(capi.Handle(ctx)); err != nil {
		setError(cErr, err)
	}
}

// cStrings copies ss into a calloc'd array of C strings.
func cStrings(ss []string) (**C.char, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	p := (**C.char)(C.calloc(C.size_t(len(ss)), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	if p == nil {
		return nil, errOutOfMemory
	}
	out := unsafe.Slice(p, len(ss))
	for i, s := range ss {
		out[i] = C.CString(s)
	}
	return p, nil
}

// cArguments copies args into a calloc'd descriptor array.
func cArguments(args []capi.Argument) (*C.Torch_JITModuleMethodArgument, error) {
	if len(args) == 0 {
		return nil, nil
	}
	p := (*C.Torch_JITModuleMethodArgument)(C.calloc(C.size_t(len(args)), C.size_t(unsafe.Sizeof(C.Torch_JITModuleMethodArgument{}))))
	if p == nil {
		return nil, errOutOfMemory
	}
	out := unsafe.Slice(p, len(args))
	for i, a := range args {
		out[i].name = C.CString(a.Name)
		out[i].typ = C.CString(a.Type)
	}
	return p, nil
}

//export Torch_FreeStrings
func Torch_FreeStrings(strings **C.char, size C.size_t) {
	if strings == nil {
		return
	}
	for _, s := range unsafe.Slice(strings, int(size)) {
		C.free(unsafe.Pointer(s))
	}
	C.free(unsafe.Pointer(strings))
}

//export Torch_FreeArguments
func Torch_FreeArguments(args *C.Torch_JITModuleMethodArgument, size C.size_t) {
	if args == nil {
		return
	}
	for _, a := range unsafe.Slice(args, int(size)) {
		C.free(unsafe.Pointer(a.name))
		C.free(unsafe.Pointer(a.typ))
	}
	C.free(unsafe.Pointer(args))
}
