package cpu

import (
	"fmt"

	"github.com/born-ml/gotorch/internal/tensor"
)

// Reshape returns a view of t with newShape. One dimension may be -1,
// in which case it is inferred from the element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	shape := newShape.Clone()
	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1 && infer >= 0:
			panic("reshape: only one dimension can be inferred")
		case d == -1:
			infer = i
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || t.NumElements()%known != 0 {
			panic(fmt.Sprintf("reshape: shape %v is invalid for input of size %d", newShape, t.NumElements()))
		}
		shape[infer] = t.NumElements() / known
	}

	view, err := t.View(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return view
}

// Transpose swaps dimensions dim0 and dim1, producing a contiguous copy.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, dim0, dim1 int) *tensor.RawTensor {
	shape := t.Shape()
	rank := len(shape)
	if rank < 2 {
		// 0-d and 1-d tensors are their own transpose.
		return t
	}

	d0, err := tensor.NormalizeDim(dim0, rank)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}
	d1, err := tensor.NormalizeDim(dim1, rank)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	outShape := shape.Clone()
	outShape[d0], outShape[d1] = outShape[d1], outShape[d0]
	result := cpu.newResult("transpose", outShape, t.DType())

	inStrides := t.Strides()
	// Reading output dimension i means stepping along input dimension perm[i].
	readStrides := append([]int(nil), inStrides...)
	readStrides[d0], readStrides[d1] = inStrides[d1], inStrides[d0]

	outStrides := outShape.ComputeStrides()
	size := t.DType().Size()
	src, dst := t.Data(), result.Data()
	for i := 0; i < result.NumElements(); i++ {
		j := flatIndex(i, outStrides, readStrides)
		copy(dst[i*size:(i+1)*size], src[j*size:(j+1)*size])
	}
	return result
}

// Cat concatenates tensors along dim. All tensors must share dtype and
// every dimension except dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: expected a non-empty list of tensors")
	}

	first := tensors[0]
	rank := len(first.Shape())
	if rank == 0 {
		panic("cat: zero-dimensional tensor cannot be concatenated")
	}
	d, err := tensor.NormalizeDim(dim, rank)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	outShape := first.Shape().Clone()
	outShape[d] = 0
	for i, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), first.DType()))
		}
		s := t.Shape()
		if len(s) != rank {
			panic(fmt.Sprintf("cat: tensor %d has rank %d, expected %d", i, len(s), rank))
		}
		for j := range s {
			if j != d && s[j] != first.Shape()[j] {
				panic(fmt.Sprintf("cat: sizes of tensors must match except in dimension %d, got %v and %v", d, first.Shape(), s))
			}
		}
		outShape[d] += s[d]
	}

	result := cpu.newResult("cat", outShape, first.DType())

	outer := 1
	for _, s := range outShape[:d] {
		outer *= s
	}
	dst := result.Data()
	pos := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			block := t.ByteSize() / outer
			copy(dst[pos:pos+block], t.Data()[o*block:(o+1)*block])
			pos += block
		}
	}
	return result
}
