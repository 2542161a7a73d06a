package archive

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantErr  error
	}{
		{
			name: "adjacent regions",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 100, Size: 100},
			},
			dataSize: 200,
		},
		{
			name: "unsorted but disjoint",
			tensors: []TensorMeta{
				{Name: "b", Offset: 300, Size: 150},
				{Name: "a", Offset: 0, Size: 100},
			},
			dataSize: 450,
		},
		{
			name: "overlap by one byte",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			wantErr:  ErrOffsetOverlap,
		},
		{
			name:     "past end of data",
			tensors:  []TensorMeta{{Name: "a", Offset: 150, Size: 100}},
			dataSize: 200,
			wantErr:  ErrOutOfBounds,
		},
		{
			name:     "offset overflow",
			tensors:  []TensorMeta{{Name: "a", Offset: 1, Size: 1<<63 - 1}},
			dataSize: 200,
			wantErr:  ErrOutOfBounds,
		},
		{
			name:     "negative offset",
			tensors:  []TensorMeta{{Name: "a", Offset: -1, Size: 10}},
			dataSize: 200,
			wantErr:  ErrNegativeOffset,
		},
		{
			name:     "negative size",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: -10}},
			dataSize: 200,
			wantErr:  ErrNegativeOffset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateTensorOffsets_TooManyTensors(t *testing.T) {
	tensors := make([]TensorMeta, MaxTensorCount+1)
	if err := ValidateTensorOffsets(tensors, 0); !errors.Is(err, ErrTooManyTensors) {
		t.Fatalf("expected ErrTooManyTensors, got %v", err)
	}
}

func TestValidateTensorName(t *testing.T) {
	valid := []string{"weight", "total", "layer_0", "x.bias"}
	for _, name := range valid {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("%q: unexpected error %v", name, err)
		}
	}

	invalid := []string{"", "../etc/passwd", "a/b", `a\b`, "nul\x00byte"}
	for _, name := range invalid {
		if err := ValidateTensorName(name); !errors.Is(err, ErrInvalidTensorName) {
			t.Errorf("%q: expected ErrInvalidTensorName, got %v", name, err)
		}
	}

	long := strings.Repeat("x", MaxTensorNameLen+1)
	if err := ValidateTensorName(long); !errors.Is(err, ErrTensorNameTooLong) {
		t.Errorf("expected ErrTensorNameTooLong, got %v", err)
	}
}

func TestValidateHeader(t *testing.T) {
	base := func() Header {
		return Header{
			FormatVersion: FormatVersion,
			ModelType:     ModelType,
			Tensors: []TensorMeta{
				{Name: "w", DType: "float32", Shape: []int{2, 2}, Offset: 0, Size: 16},
			},
		}
	}

	h := base()
	if err := ValidateHeader(&h, 16); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(h *Header)
		wantErr error
	}{
		{"version", func(h *Header) { h.FormatVersion = 1 }, ErrUnsupportedVersion},
		{"model type", func(h *Header) { h.ModelType = "Sequential" }, ErrModelType},
		{"dtype", func(h *Header) { h.Tensors[0].DType = "complex64" }, ErrInvalidDType},
		{"shape", func(h *Header) { h.Tensors[0].Shape = []int{-2, -2} }, ErrInvalidShape},
		{"size mismatch", func(h *Header) { h.Tensors[0].Size = 12 }, ErrOutOfBounds},
		{"duplicate", func(h *Header) {
			h.Tensors = append(h.Tensors, TensorMeta{Name: "w", DType: "float32", Shape: []int{}, Size: 4})
		}, ErrDuplicateTensor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := base()
			tt.mutate(&h)
			if err := ValidateHeader(&h, 16); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
