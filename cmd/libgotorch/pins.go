package main

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/born-ml/gotorch/capi"
)

// pinSet keeps Go memory handed out to C pinned until the owning handle
// is released.
type pinSet struct {
	mu sync.Mutex
	m  map[capi.Handle]*runtime.Pinner
}

var pins = &pinSet{m: make(map[capi.Handle]*runtime.Pinner)}

// pin pins ptr on behalf of h. Nil and non-Go pointers are accepted.
func (s *pinSet) pin(h capi.Handle, ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.m[h]
	if !ok {
		p = new(runtime.Pinner)
		s.m[h] = p
	}
	p.Pin(ptr)
}

// release unpins everything pinned for h.
func (s *pinSet) release(h capi.Handle) {
	s.mu.Lock()
	p, ok := s.m[h]
	delete(s.m, h)
	s.mu.Unlock()

	if ok {
		p.Unpin()
	}
}

func (s *pinSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// releaseTensor unpins and releases a tensor handle.
func releaseTensor(h capi.Handle) error {
	pins.release(h)
	return rt.ReleaseTensor(h)
}
