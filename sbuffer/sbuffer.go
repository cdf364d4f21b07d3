// Package sbuffer implements a reference-counted byte window shared
// between blocks and their queues.
//
// An SBuffer never owns memory outright: it holds a pointer to a shared
// Backing plus a current offset/length window into it. Copies made via
// Clone share the same Backing and bump its refcount; Release drops the
// caller's share. When the last share is released, the Backing's deleter
// (usually an Allocator returning memory to its pool) runs exactly once.
//
// Go has no destructors, so callers own the Clone/Release discipline
// explicitly — every queue in this module takes ownership of the share
// passed to Push and Releases the shares it drops (a drained front, a
// flush) so that "unique" reflects true single ownership.
package sbuffer

import "sync/atomic"

// Backing is the shared memory region behind one or more SBuffer views.
type Backing struct {
	mem     []byte
	refs    int32
	release func([]byte)
}

// NewBacking wraps mem with a starting refcount of 1. release, if
// non-nil, is invoked with mem once the last reference is dropped.
func NewBacking(mem []byte, release func([]byte)) *Backing {
	return &Backing{mem: mem, refs: 1, release: release}
}

func (b *Backing) retain() {
	atomic.AddInt32(&b.refs, 1)
}

func (b *Backing) drop() {
	if atomic.AddInt32(&b.refs, -1) == 0 && b.release != nil {
		b.release(b.mem)
	}
}

// SBuffer is a shared-ownership window [offset, offset+length) over a
// Backing's memory.
type SBuffer struct {
	backing *Backing
	Offset  int
	Length  int
}

// New creates the first (unique) share of a Backing spanning its whole
// length.
func New(backing *Backing) SBuffer {
	return SBuffer{backing: backing, Offset: 0, Length: len(backing.mem)}
}

// NewView creates a share of backing with an explicit offset/length
// window, rather than the whole-buffer window New produces. Used by
// callers that recycle a Backing as scratch space and need to hand out
// an empty [offset, offset) window to be grown by writes.
func NewView(backing *Backing, offset, length int) SBuffer {
	return SBuffer{backing: backing, Offset: offset, Length: length}
}

// Raw returns the full backing memory, ignoring this view's window. Used
// by pools that recycle the underlying []byte directly instead of going
// through the refcount deleter.
func (s SBuffer) Raw() []byte {
	if s.backing == nil {
		return nil
	}
	return s.backing.mem
}

// IsZero reports whether this SBuffer holds no backing memory at all.
func (s SBuffer) IsZero() bool { return s.backing == nil }

// Unique reports whether this share is the sole reference to its
// Backing — the fast path for in-place, zero-copy work.
func (s SBuffer) Unique() bool {
	return s.backing != nil && atomic.LoadInt32(&s.backing.refs) == 1
}

// Clone returns a new share of the same Backing with the current
// offset/length, incrementing the refcount. The caller must Release it
// independently of the original.
func (s SBuffer) Clone() SBuffer {
	if s.backing != nil {
		s.backing.retain()
	}
	return s
}

// Release drops this share. Once the last share is released the
// Backing's deleter runs.
func (s SBuffer) Release() {
	if s.backing != nil {
		s.backing.drop()
	}
}

// ActualLength returns the full capacity of the backing memory,
// independent of this view's window.
func (s SBuffer) ActualLength() int {
	if s.backing == nil {
		return 0
	}
	return len(s.backing.mem)
}

// Bytes returns the live [Offset, Offset+Length) window.
func (s SBuffer) Bytes() []byte {
	if s.backing == nil {
		return nil
	}
	return s.backing.mem[s.Offset : s.Offset+s.Length]
}

// Get returns a slice starting i bytes into the live window, running to
// the end of the backing memory (used by callers writing past Length).
func (s SBuffer) Get(i int) []byte {
	if s.backing == nil {
		return nil
	}
	return s.backing.mem[s.Offset+i:]
}

// Allocator supplies fresh backing memory. Implementations live outside
// this package — typically a pool-backed buffer-queue allocator that
// returns memory to itself via the release callback passed to
// NewBacking.
type Allocator interface {
	// Allocate returns a unique SBuffer of at least n bytes, or an error
	// if the request cannot be satisfied (e.g. out of memory).
	Allocate(n int) (SBuffer, error)
}
