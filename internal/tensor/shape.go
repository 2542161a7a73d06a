package tensor

import (
	"errors"
	"fmt"
	"slices"
)

// ErrShape reports an invalid shape or an out-of-range dimension index.
var ErrShape = errors.New("invalid shape")

// Shape holds tensor dimensions, outermost first. An empty Shape is a 0-d
// tensor holding one element.
type Shape []int

// NumElements is the product of the dimensions. A zero dimension gives 0.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate rejects negative dimensions. Zero is allowed.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(d int) bool { return d < 0 }); i >= 0 {
		return fmt.Errorf("%w: dim %d is %d", ErrShape, i, s[i])
	}
	return nil
}

func (s Shape) Equal(other Shape) bool { return slices.Equal(s, other) }

// Clone returns a copy that never aliases s, even when s is empty.
func (s Shape) Clone() Shape {
	return append(make(Shape, 0, len(s)), s...)
}

// Int64s converts to the dimension form used by handles and archives.
func (s Shape) Int64s() []int64 {
	dims := make([]int64, len(s))
	for i, d := range s {
		dims[i] = int64(d)
	}
	return dims
}

// ComputeStrides returns contiguous row-major strides in elements.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// NormalizeDim maps dim into [0, rank), counting negative values from the
// end.
func NormalizeDim(dim, rank int) (int, error) {
	d := dim
	if d < 0 {
		d += rank
	}
	if d < 0 || d >= rank {
		return 0, fmt.Errorf("%w: dim %d outside [%d, %d]", ErrShape, dim, -rank, rank-1)
	}
	return d, nil
}

// BroadcastShapes aligns a and b on their trailing dimensions; a missing
// or size-1 dimension stretches to match the other. The flag reports
// whether either operand needs expanding.
//
//	(3, 1) and (3, 5) give (3, 5), true
//	(3, 5) and (3, 5) give (3, 5), false
//	(3, 4) and (3, 5) fail
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	expand := len(a) != len(b)

	for i := 1; i <= rank; i++ {
		da, db := dimFromEnd(a, i), dimFromEnd(b, i)
		switch {
		case da == db:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
			expand = true
		case db == 1:
			out[rank-i] = da
			expand = true
		default:
			return nil, false, fmt.Errorf("%w: cannot broadcast %v with %v at dim %d (%d vs %d)",
				ErrShape, a, b, rank-i, da, db)
		}
	}
	return out, expand, nil
}

// dimFromEnd returns the i-th dimension from the right, 1-based, or 1 past
// the leading edge.
func dimFromEnd(s Shape, i int) int {
	if i > len(s) {
		return 1
	}
	return s[len(s)-i]
}
