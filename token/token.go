// Package token implements the shared-handle interest protocol used to
// decide when a block's neighbors (or the executor) still care about it.
//
// A Token carries no payload. Its only purpose is an atomically shared
// refcount: cloning a Token and handing the clone to a peer records that
// the peer is interested; the peer drops its clone (via Release) when it
// stops caring. Interest is inferred purely from UseCount, never from a
// back-pointer into the block itself — this sidesteps the cyclic
// reference risk that an owning pointer would create.
package token

import (
	"sync"
	"sync/atomic"
)

// Token is a distributed-refcount handle. The zero value is not usable;
// construct one with New.
type Token struct {
	ref *int32
}

// New creates a Token with an initial use count of 1.
func New() Token {
	v := int32(1)
	return Token{ref: &v}
}

// Clone returns a new share of the same handle, incrementing UseCount.
func (t Token) Clone() Token {
	if t.ref != nil {
		atomic.AddInt32(t.ref, 1)
	}
	return t
}

// Release drops this share, decrementing UseCount.
func (t Token) Release() {
	if t.ref != nil {
		atomic.AddInt32(t.ref, -1)
	}
}

// UseCount returns the number of live shares of this handle.
func (t Token) UseCount() int32 {
	if t.ref == nil {
		return 0
	}
	return atomic.LoadInt32(t.ref)
}

// Valid reports whether this Token was produced by New (as opposed to
// the zero value).
func (t Token) Valid() bool { return t.ref != nil }

// Pool is the set of tokens one block holds — one per upstream
// interest, one per downstream interest, and an executor token.
// Clearing the pool is how a block announces it is done: it drops its
// own share of every token it was holding, so peers who still hold
// their own clone see UseCount fall by exactly one.
type Pool struct {
	mu     sync.Mutex
	tokens []Token
}

// Add registers a token as owned by this pool.
func (p *Pool) Add(t Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, t)
}

// Clear releases every token this pool holds and empties it. Safe to
// call repeatedly; a second call is a no-op.
func (p *Pool) Clear() {
	p.mu.Lock()
	tokens := p.tokens
	p.tokens = nil
	p.mu.Unlock()

	for _, t := range tokens {
		t.Release()
	}
}

// Len reports how many tokens this pool currently owns.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokens)
}
