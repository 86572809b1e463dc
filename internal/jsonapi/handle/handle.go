// Package handle implements generation-checked opaque handles.
//
// An ID packs a kind tag, a generation counter and a slot index into a
// uint64:
//
//	bits 63..56  kind
//	bits 55..32  generation
//	bits 31..0   slot index
//
// The zero ID is never issued and means "no handle". Removing a value bumps
// its slot's generation, so an ID kept after removal no longer resolves
// even when the slot is reused.
package handle

import (
	"fmt"
	"sync"
)

// ID is an opaque handle. Callers must not interpret its bits.
type ID uint64

// Kind distinguishes handle tables so an ID from one table is never
// accepted by another.
type Kind uint8

const (
	kindShift = 56
	genShift  = 32
	genMask   = 1<<24 - 1
	idxMask   = 1<<32 - 1
)

// Null is the absent handle.
const Null ID = 0

// Make assembles an ID. Exposed for tests.
func Make(kind Kind, gen uint32, index uint32) ID {
	return ID(uint64(kind)<<kindShift | uint64(gen&genMask)<<genShift | uint64(index))
}

// Kind returns the kind tag.
func (id ID) Kind() Kind { return Kind(id >> kindShift) }

// Generation returns the generation counter.
func (id ID) Generation() uint32 { return uint32(id>>genShift) & genMask }

// Index returns the slot index.
func (id ID) Index() uint32 { return uint32(id & idxMask) }

// IsNull reports whether id is the absent handle.
func (id ID) IsNull() bool { return id == Null }

// String renders the ID for logs.
func (id ID) String() string {
	if id == Null {
		return "null"
	}
	return fmt.Sprintf("%d:%d@%d", id.Kind(), id.Index(), id.Generation())
}

type slot[T any] struct {
	gen  uint32
	used bool
	val  T
}

// Table stores values addressed by IDs of a single kind.
// It is safe for concurrent use.
type Table[T any] struct {
	mu    sync.Mutex
	kind  Kind
	slots []slot[T]
	free  []uint32
	live  int
}

// New creates a table issuing IDs of the given kind. Kind 0 is reserved.
func New[T any](kind Kind) *Table[T] {
	if kind == 0 {
		panic("handle: kind 0 is reserved")
	}
	return &Table[T]{kind: kind}
}

// Kind returns the kind of IDs this table issues.
func (t *Table[T]) Kind() Kind { return t.kind }

// Insert stores v and returns its ID.
func (t *Table[T]) Insert(v T) ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{gen: 1})
	}
	s := &t.slots[idx]
	s.used = true
	s.val = v
	t.live++
	return Make(t.kind, s.gen, idx)
}

// lookup returns the slot for id, or nil when id is null, of another kind,
// out of range or stale. Caller holds t.mu.
func (t *Table[T]) lookup(id ID) *slot[T] {
	if id == Null || id.Kind() != t.kind {
		return nil
	}
	idx := id.Index()
	if int(idx) >= len(t.slots) {
		return nil
	}
	s := &t.slots[idx]
	if !s.used || s.gen != id.Generation() {
		return nil
	}
	return s
}

// Get returns the value for id.
func (t *Table[T]) Get(id ID) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookup(id)
	if s == nil {
		var zero T
		return zero, false
	}
	return s.val, true
}

// Valid reports whether id currently resolves.
func (t *Table[T]) Valid(id ID) bool {
	_, ok := t.Get(id)
	return ok
}

// Remove deletes the value for id and returns it. The ID and every copy of
// it become stale.
func (t *Table[T]) Remove(id ID) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	s := t.lookup(id)
	if s == nil {
		return zero, false
	}
	v := s.val
	s.val = zero
	s.used = false
	t.live--

	// A slot whose generation would wrap is retired instead of reused.
	if s.gen == genMask {
		return v, true
	}
	s.gen++
	t.free = append(t.free, id.Index())
	return v, true
}

// Len returns the number of live values.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}
