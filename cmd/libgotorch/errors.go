package main

// #include <stdlib.h>
// #include "torch.h"
import "C"

import "unsafe"

// setError stores err in cErr, replacing an earlier message. A nil cErr
// drops the error.
func setError(cErr *C.Torch_Error, err error) {
	if cErr == nil || err == nil {
		return
	}
	if cErr.message != nil {
		C.free(unsafe.Pointer(cErr.message))
	}
	cErr.message = C.CString(err.Error())
}

//export Torch_FreeError
func Torch_FreeError(cErr *C.Torch_Error) {
	if cErr == nil || cErr.message == nil {
		return
	}
	C.free(unsafe.Pointer(cErr.message))
	cErr.message = nil
}
