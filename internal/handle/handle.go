// Package handle implements the generation-checked table behind every
// opaque handle crossing the boundary.
//
// A Handle packs the slot index (plus one) in its low 32 bits and the slot
// generation in its high 32 bits. Handle 0 is never issued. Removing an
// entry bumps the slot generation, so a released or stale handle fails
// lookup with ErrInvalidHandle instead of aliasing whatever reuses the slot.
package handle

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHandle = errors.New("invalid or released handle")
	ErrHandleKind    = errors.New("handle refers to a different kind of object")
	ErrClosed        = errors.New("handle table closed")
	ErrTableFull     = errors.New("handle table full")
)

// Handle is an opaque reference to an entry in a Table.
type Handle uint64

// Invalid is the zero handle. It is never issued.
const Invalid Handle = 0

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

// slot returns the slot index and generation encoded in h.
// ok is false for the zero handle.
func (h Handle) slot() (index, gen uint32, ok bool) {
	low := uint32(h & 0xffffffff) //nolint:gosec // masked
	if low == 0 {
		return 0, 0, false
	}
	return low - 1, uint32(h >> 32), true
}

func (h Handle) String() string {
	index, gen, ok := h.slot()
	if !ok {
		return "handle(invalid)"
	}
	return fmt.Sprintf("handle(%d@%d)", index, gen)
}

// Kind identifies what a handle refers to.
type Kind uint8

const (
	KindNone Kind = iota
	KindTensor
	KindModule
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindTensor:
		return "tensor"
	case KindModule:
		return "module"
	case KindMethod:
		return "method"
	default:
		return "none"
	}
}

// Dropper is optionally implemented by values that need cleanup when their
// handle is removed from the table.
type Dropper interface {
	Drop()
}
