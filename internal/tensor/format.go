package tensor

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TypeString returns the libtorch-style type tag, e.g. "CPUFloatType{2,3}".
func (r *RawTensor) TypeString() string {
	dims := make([]string, len(r.shape))
	for i, d := range r.shape {
		dims[i] = strconv.Itoa(d)
	}
	return fmt.Sprintf("%s%sType{%s}", r.device, r.dtype.typeName(), strings.Join(dims, ","))
}

// String returns a short human-readable description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", r.dtype, r.shape, r.device)
}

// formatElem renders element i for printing.
func (r *RawTensor) formatElem(i int) string {
	v := r.Float64At(i)
	if r.dtype.IsFloat() {
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
	return strconv.FormatInt(int64(v), 10)
}

// Print writes the tensor in the layout libtorch uses for operator<<:
// the values followed by a "[ CPUFloatType{...} ]" trailer.
func (r *RawTensor) Print(w io.Writer) error {
	var b strings.Builder

	n := r.NumElements()
	cells := make([]string, n)
	width := 0
	for i := 0; i < n; i++ {
		cells[i] = r.formatElem(i)
		width = max(width, len(cells[i]))
	}
	pad := func(s string) string {
		return strings.Repeat(" ", width-len(s)+1) + s
	}

	switch rank := len(r.shape); {
	case rank == 0:
		b.WriteString(cells[0])
		b.WriteByte('\n')
	case n == 0:
		b.WriteString("[ Tensor (empty) ]\n")
	case rank == 1:
		for _, c := range cells {
			b.WriteString(pad(c))
			b.WriteByte('\n')
		}
	default:
		rows, cols := r.shape[rank-2], r.shape[rank-1]
		plane := rows * cols
		for p := 0; p < n/plane; p++ {
			if rank > 2 {
				b.WriteString("(")
				b.WriteString(planeIndex(r.shape[:rank-2], p))
				b.WriteString(",.,.) = \n")
			}
			for row := 0; row < rows; row++ {
				for col := 0; col < cols; col++ {
					b.WriteString(pad(cells[p*plane+row*cols+col]))
				}
				b.WriteByte('\n')
			}
			if rank > 2 {
				b.WriteByte('\n')
			}
		}
	}

	b.WriteString("[ ")
	b.WriteString(r.TypeString())
	b.WriteString(" ]\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// planeIndex renders the leading indices of plane p for shape outer.
func planeIndex(outer Shape, p int) string {
	idx := make([]string, len(outer))
	for i := len(outer) - 1; i >= 0; i-- {
		idx[i] = strconv.Itoa(p%outer[i] + 1)
		p /= outer[i]
	}
	return strings.Join(idx, ",")
}
