package archive

import (
	"time"

	"github.com/born-ml/gotorch/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "BORN"
	FormatVersion   = 2    // v2: fixed header with SHA-256 checksum
	HeaderAlignment = 64   // Tensor data starts on a 64 byte boundary
	FixedHeaderSize = 64   // Size of the fixed binary header (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// ModelType is the only model type this package reads or writes.
const ModelType = "ScriptModule"

// DefaultProducer is recorded in archives that do not name their producer.
const DefaultProducer = "gotorch"

// Flags for the fixed header.
const (
	FlagHasBuffers  uint32 = 1 << 0 // bit 0: at least one tensor buffer
	FlagHasMetadata uint32 = 1 << 2 // bit 2: custom metadata included
)

// Header is the msgpack encoded header that follows the fixed header.
type Header struct {
	FormatVersion int               `msgpack:"format_version"`
	Producer      string            `msgpack:"producer"`
	ModelType     string            `msgpack:"model_type"`
	Name          string            `msgpack:"name"`
	Source        string            `msgpack:"source"`
	CreatedAt     time.Time         `msgpack:"created_at"`
	Tensors       []TensorMeta      `msgpack:"tensors"`
	Metadata      map[string]string `msgpack:"metadata"`
}

// TensorMeta describes one buffer in the data section.
type TensorMeta struct {
	Name   string `msgpack:"name"`   // Buffer name (a script identifier)
	DType  string `msgpack:"dtype"`  // tensor.DataType.String()
	Shape  []int  `msgpack:"shape"`  // Tensor shape
	Offset int64  `msgpack:"offset"` // Offset from the start of the data section
	Size   int64  `msgpack:"size"`   // Size in bytes
}

// Archive is the in-memory form of a module archive.
type Archive struct {
	Name      string
	Source    string
	Producer  string
	CreatedAt time.Time
	Buffers   []Buffer
	Metadata  map[string]string
}

// Buffer is a named tensor owned by the archive.
type Buffer struct {
	Name   string
	Tensor *tensor.RawTensor
}

// Release drops every buffer tensor held by a.
func (a *Archive) Release() {
	for _, b := range a.Buffers {
		if b.Tensor != nil {
			b.Tensor.Release()
		}
	}
	a.Buffers = nil
}

// alignUp rounds n up to the next multiple of HeaderAlignment.
func alignUp(n int64) int64 {
	return (n + HeaderAlignment - 1) / HeaderAlignment * HeaderAlignment
}
