package handle

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
	"go.uber.org/zap"
)

// Table stores handle-addressed values.
// Distinct handles may be used from different goroutines; ordering of
// operations on the same handle is the caller's responsibility.
type Table struct {
	mu       sync.Mutex
	entries  []entry
	freeList []uint32
	live     int
	closed   bool
	log      *zap.Logger
}

type entry struct {
	value any
	gen   uint32
	kind  Kind
	valid bool
}

// NewTable creates an empty table. A nil logger disables logging.
func NewTable(log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
		log:      log,
	}
}

// Insert stores value under a fresh handle of the given kind.
func (t *Table) Insert(kind Kind, value any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return Invalid, ErrClosed
	}

	var index uint32
	if n := len(t.freeList); n > 0 {
		index = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		next, err := safecast.Conv[uint32](len(t.entries))
		if err != nil || next == ^uint32(0) {
			return Invalid, ErrTableFull
		}
		t.entries = append(t.entries, entry{})
		index = next
	}

	e := &t.entries[index]
	e.value = value
	e.kind = kind
	e.valid = true
	t.live++

	h := makeHandle(index, e.gen)
	t.log.Debug("handle created", zap.Stringer("handle", h), zap.Stringer("kind", kind))
	return h, nil
}

// lookup returns the live entry for h. Callers must hold t.mu.
func (t *Table) lookup(h Handle, kind Kind) (*entry, error) {
	index, gen, ok := h.slot()
	if !ok || int(index) >= len(t.entries) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	e := &t.entries[index]
	if !e.valid || e.gen != gen {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	if kind != KindNone && e.kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s, expected %s", ErrHandleKind, h, e.kind, kind)
	}
	return e, nil
}

// Get returns the value stored under h. KindNone accepts any kind.
func (t *Table) Get(h Handle, kind Kind) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// KindOf reports the kind of a live handle.
func (t *Table) KindOf(h Handle) (Kind, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.lookup(h, KindNone)
	if err != nil {
		return KindNone, err
	}
	return e.kind, nil
}

// Remove invalidates h and returns the value it referred to.
// If the value implements Dropper, Drop is called after the table lock is
// released. A second Remove of the same handle fails with ErrInvalidHandle.
func (t *Table) Remove(h Handle, kind Kind) (any, error) {
	t.mu.Lock()
	e, err := t.lookup(h, kind)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}

	value := e.value
	index, _, _ := h.slot()
	e.value = nil
	e.valid = false
	e.gen++
	t.live--
	t.freeList = append(t.freeList, index)
	t.mu.Unlock()

	t.log.Debug("handle released", zap.Stringer("handle", h), zap.Stringer("kind", kind))

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	return value, nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// Count returns the number of live handles of the given kind.
func (t *Table) Count(kind Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.valid && e.kind == kind {
			n++
		}
	}
	return n
}

// Each calls fn for every live handle until fn returns false.
// fn must not call back into the table.
func (t *Table) Each(fn func(Handle, Kind, any) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if !e.valid {
			continue
		}
		if !fn(makeHandle(uint32(i), e.gen), e.kind, e.value) { //nolint:gosec // bounded by Insert
			return
		}
	}
}

// Close drops every live entry. Later inserts fail with ErrClosed.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	var droppers []Dropper
	for i := range t.entries {
		e := &t.entries[i]
		if !e.valid {
			continue
		}
		if d, ok := e.value.(Dropper); ok {
			droppers = append(droppers, d)
		}
		e.value = nil
		e.valid = false
		e.gen++
	}
	if t.live > 0 {
		t.log.Debug("handle table closed with live handles", zap.Int("live", t.live))
	}
	t.live = 0
	t.freeList = nil
	t.mu.Unlock()

	for _, d := range droppers {
		d.Drop()
	}
	return nil
}

// Get is the typed form of Table.Get.
func Get[T any](t *Table, h Handle, kind Kind) (T, error) {
	var zero T
	v, err := t.Get(h, kind)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrHandleKind, h, v)
	}
	return typed, nil
}
