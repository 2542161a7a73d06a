package tensor

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/x448/float16"
)

// RawTensor Tests

func TestRawTensorElemsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	data := Elems[int64](raw)

	if len(data) != 6 {
		t.Errorf("Elems length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if Elems[int64](raw)[0] != 42 {
		t.Error("Elems should return zero-copy slice")
	}
}

func TestRawTensorElemsWrongType(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32, CPU)

	defer func() {
		if recover() == nil {
			t.Error("Elems[int32] on a float32 tensor should panic")
		}
	}()
	_ = Elems[int32](raw)
}

func TestFromBlobAliasesMemory(t *testing.T) {
	data := []float32{1, 2, 3}
	raw, err := FromBlob(unsafe.Pointer(&data[0]), Shape{1, 3}, Float32)
	if err != nil {
		t.Fatalf("FromBlob failed: %v", err)
	}

	if !raw.Borrowed() {
		t.Error("FromBlob tensor should be borrowed")
	}
	if raw.DataPtr() != unsafe.Pointer(&data[0]) {
		t.Error("FromBlob should not copy the data")
	}

	data[1] = 20
	if got := Elems[float32](raw)[1]; got != 20 {
		t.Errorf("view sees %v after caller write, want 20", got)
	}
}

func TestFromBlobRejectsNilData(t *testing.T) {
	if _, err := FromBlob(nil, Shape{2}, Float32); err == nil {
		t.Error("expected error for nil data with non-zero size")
	}

	empty, err := FromBlob(nil, Shape{0}, Float32)
	if err != nil {
		t.Fatalf("empty tensor from nil data: %v", err)
	}
	if empty.DataPtr() != nil {
		t.Error("empty tensor should have nil data pointer")
	}
}

func TestFromBytesCopies(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	raw, err := FromBytes(src, Shape{4}, Uint8)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	src[0] = 9
	if Elems[uint8](raw)[0] != 1 {
		t.Error("FromBytes should copy its input")
	}

	if _, err := FromBytes(src, Shape{2}, Int32); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestRawTensorCloneRelease(t *testing.T) {
	raw, _ := FromSlice([]int32{1, 2}, Shape{2})

	clone := raw.Clone()
	if raw.IsUnique() {
		t.Error("IsUnique() = true after Clone(), want false")
	}

	clone.Release()
	if !raw.IsUnique() {
		t.Error("IsUnique() = false after clone.Release(), want true")
	}

	raw.Release()
	if !raw.Released() {
		t.Error("buffer should be released after the last reference is dropped")
	}
}

func TestRawTensorCopyIsIndependent(t *testing.T) {
	raw, _ := FromSlice([]float64{1, 2}, Shape{2})
	cp := raw.Copy()
	Elems[float64](cp)[0] = 7

	if Elems[float64](raw)[0] != 1 {
		t.Error("Copy should not share memory")
	}
}

func TestRawTensorView(t *testing.T) {
	raw, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	v, err := raw.View(Shape{3, 2})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if !v.Shape().Equal(Shape{3, 2}) {
		t.Errorf("View shape = %v", v.Shape())
	}
	if v.Strides()[0] != 2 {
		t.Errorf("View strides = %v", v.Strides())
	}

	if _, err := raw.View(Shape{4}); err == nil {
		t.Error("expected element count mismatch")
	}
}

func TestFloat16Elems(t *testing.T) {
	raw, err := FromSlice([]float16.Float16{float16.Fromfloat32(1.5)}, Shape{1})
	if err != nil {
		t.Fatal(err)
	}
	if raw.DType() != Float16 || raw.ByteSize() != 2 {
		t.Errorf("dtype %s size %d", raw.DType(), raw.ByteSize())
	}
	if raw.Float64At(0) != 1.5 {
		t.Errorf("Float64At = %v, want 1.5", raw.Float64At(0))
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		name  string
		raw   func() *RawTensor
		want  []string
		trail string
	}{
		{
			name:  "vector",
			raw:   func() *RawTensor { r, _ := FromSlice([]float32{1, 2, 3}, Shape{3}); return r },
			want:  []string{" 1.0000", " 2.0000", " 3.0000"},
			trail: "[ CPUFloatType{3} ]",
		},
		{
			name:  "matrix",
			raw:   func() *RawTensor { r, _ := FromSlice([]int64{1, 2, 3, 4}, Shape{2, 2}); return r },
			want:  []string{" 1 2", " 3 4"},
			trail: "[ CPULongType{2,2} ]",
		},
		{
			name:  "scalar",
			raw:   func() *RawTensor { r, _ := FromSlice([]int8{-3}, Shape{}); return r },
			want:  []string{"-3"},
			trail: "[ CPUCharType{} ]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.raw().Print(&buf); err != nil {
				t.Fatal(err)
			}
			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			if lines[len(lines)-1] != tt.trail {
				t.Errorf("trailer = %q, want %q", lines[len(lines)-1], tt.trail)
			}
			for i, w := range tt.want {
				if lines[i] != w {
					t.Errorf("line %d = %q, want %q", i, lines[i], w)
				}
			}
		})
	}
}
