package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	"github.com/x448/float16"

	"github.com/born-ml/gotorch/capi"
	"github.com/born-ml/gotorch/internal/archive"
	"github.com/born-ml/gotorch/internal/boundary"
	"github.com/born-ml/gotorch/internal/jit"
)

// openModule loads an archive, or compiles a script named after its file.
func openModule(rt *capi.Runtime, path string) (capi.Handle, error) {
	ok, err := isArchive(path)
	if err != nil {
		return capi.InvalidHandle, err
	}
	if ok {
		return rt.LoadModule(path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return capi.InvalidHandle, err
	}
	return rt.CompileNamedModule(moduleName(path), string(src))
}

// isArchive reports whether the file starts with the archive magic.
func isArchive(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	magic := make([]byte, len(archive.MagicBytes))
	if _, err := io.ReadFull(f, magic); err != nil {
		return false, nil
	}
	return string(magic) == archive.MagicBytes, nil
}

// moduleName derives a module name from a script path, e.g. "net.py" -> "net".
func moduleName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !isIdent(name) {
		return jit.DefaultModuleName
	}
	return name
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// parseInput builds a boundary value from JSON. Nested number arrays become
// a tensor of the given type; {"tuple": [...]} becomes a tuple. The handles
// in the returned tree belong to the caller.
func parseInput(rt *capi.Runtime, s string, tag capi.Tag) (boundary.Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return boundary.Value{}, fmt.Errorf("invalid input %q: %w", s, err)
	}
	if dec.More() {
		return boundary.Value{}, fmt.Errorf("invalid input %q: trailing data", s)
	}
	return buildValue(rt, v, tag, 0)
}

func buildValue(rt *capi.Runtime, v any, tag capi.Tag, depth int) (boundary.Value, error) {
	if depth >= rt.MaxDepth() {
		return boundary.Value{}, capi.ErrTooDeep
	}

	obj, ok := v.(map[string]any)
	if !ok {
		h, err := newTensor(rt, v, tag)
		if err != nil {
			return boundary.Value{}, err
		}
		return boundary.TensorValue(h), nil
	}

	items, ok := obj["tuple"].([]any)
	if !ok || len(obj) != 1 {
		return boundary.Value{}, errors.New(`tuple inputs are written {"tuple": [...]}`)
	}
	elems := make([]boundary.Value, 0, len(items))
	for _, item := range items {
		e, err := buildValue(rt, item, tag, depth+1)
		if err != nil {
			_ = rt.FreeValue(boundary.TupleValue(elems...))
			return boundary.Value{}, err
		}
		elems = append(elems, e)
	}
	return boundary.TupleValue(elems...), nil
}

// newTensor copies a JSON number or rectangular number array into a tensor.
func newTensor(rt *capi.Runtime, v any, tag capi.Tag) (capi.Handle, error) {
	dims := jsonShape(v)
	nums, err := collect(v, dims, nil)
	if err != nil {
		return capi.InvalidHandle, err
	}
	data, err := encodeNumbers(nums, tag)
	if err != nil {
		return capi.InvalidHandle, err
	}
	return rt.NewTensorCopy(data, dims, tag)
}

// jsonShape follows the first element of each nested array.
func jsonShape(v any) []int64 {
	dims := []int64{}
	for {
		arr, ok := v.([]any)
		if !ok {
			return dims
		}
		dims = append(dims, int64(len(arr)))
		if len(arr) == 0 {
			return dims
		}
		v = arr[0]
	}
}

func collect(v any, dims []int64, out []json.Number) ([]json.Number, error) {
	if len(dims) == 0 {
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", jsonKind(v))
		}
		return append(out, n), nil
	}

	arr, ok := v.([]any)
	if !ok || int64(len(arr)) != dims[0] {
		return nil, fmt.Errorf("ragged input: expected an array of %d elements, got %s", dims[0], jsonKind(v))
	}
	var err error
	for _, e := range arr {
		if out, err = collect(e, dims[1:], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func jsonKind(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("array of %d", len(v))
	case map[string]any:
		return "object"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// encodeNumbers lays nums out in native byte order as elements of tag.
// Integer types reject fractions and out-of-range values.
func encodeNumbers(nums []json.Number, tag capi.Tag) ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range nums {
		if err := encodeNumber(&buf, n, tag); err != nil {
			return nil, fmt.Errorf("element %s: %w", n, err)
		}
	}
	return buf.Bytes(), nil
}

func encodeNumber(buf *bytes.Buffer, n json.Number, tag capi.Tag) error {
	e := binary.NativeEndian
	switch tag {
	case capi.Float, capi.Double, capi.Half:
		f, err := n.Float64()
		if err != nil {
			return err
		}
		switch tag {
		case capi.Float:
			buf.Write(e.AppendUint32(nil, math.Float32bits(float32(f))))
		case capi.Double:
			buf.Write(e.AppendUint64(nil, math.Float64bits(f)))
		default:
			buf.Write(e.AppendUint16(nil, float16.Fromfloat32(float32(f)).Bits()))
		}
		return nil
	}

	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("not a %s: %w", tag, err)
	}
	switch tag {
	case capi.Byte:
		v, err := safecast.Conv[uint8](i)
		if err != nil {
			return err
		}
		buf.WriteByte(v)
	case capi.Char:
		v, err := safecast.Conv[int8](i)
		if err != nil {
			return err
		}
		buf.WriteByte(byte(v))
	case capi.Short:
		v, err := safecast.Conv[int16](i)
		if err != nil {
			return err
		}
		buf.Write(e.AppendUint16(nil, uint16(v)))
	case capi.Int:
		v, err := safecast.Conv[int32](i)
		if err != nil {
			return err
		}
		buf.Write(e.AppendUint32(nil, uint32(v)))
	case capi.Long:
		buf.Write(e.AppendUint64(nil, uint64(i)))
	default:
		return fmt.Errorf("%w: %s", capi.ErrUnmappedTag, tag)
	}
	return nil
}
