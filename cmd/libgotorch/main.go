// Package main builds libgotorch, a C shared library exposing the gotorch
// boundary as Torch_* functions declared in torch.h.
//
//	go build -buildmode=c-shared -o libgotorch.so ./cmd/libgotorch
//
// Every handle is a uint64 token owned by the caller until the matching
// Torch_Delete* call. Errors are reported through a caller-provided
// Torch_Error whose message must be released with Torch_FreeError. Arrays,
// strings and tuples returned by the library are released only through
// the paired Torch_Free* functions.
//
// Set GOTORCH_LOG to a zap level (debug, info, ...) to log to stderr.
package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/jit"
)

var rt *capi.Runtime

func init() {
	if level := os.Getenv("GOTORCH_LOG"); level != "" {
		if log, err := newLogger(level); err == nil {
			capi.SetLogger(log)
			jit.SetLogger(log)
		}
	}
	rt = capi.Default()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {}
