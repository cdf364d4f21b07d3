// Package outputqueue implements the per-output-port buffer queue: the
// downstream-loaned buffers a block writes into before flushing them
// out. Unlike inputqueue, there is no history or multiple accounting —
// a port is simply ready once it holds a buffer, and the whole of that
// buffer's actual length is available to write.
package outputqueue

import "github.com/e7canasta/blockflow/sbuffer"

type port struct {
	deque []sbuffer.SBuffer
}

// Queues holds one buffer deque per output port.
type Queues struct {
	ports []port
}

// Resize grows or shrinks the port count, releasing any buffers held by
// ports that no longer exist.
func (q *Queues) Resize(size int) {
	for i := size; i < len(q.ports); i++ {
		q.flushPort(i)
	}
	if size <= len(q.ports) {
		q.ports = q.ports[:size]
		return
	}
	grown := make([]port, size)
	copy(grown, q.ports)
	q.ports = grown
}

// Size reports the current port count.
func (q *Queues) Size() int { return len(q.ports) }

// Push appends buffer to port i's queue, taking ownership of the share.
func (q *Queues) Push(i int, buffer sbuffer.SBuffer) {
	p := &q.ports[i]
	p.deque = append(p.deque, buffer)
}

// Front returns the current front buffer of port i without removing
// it. Callers must not Release it; use Pop to relinquish ownership.
func (q *Queues) Front(i int) sbuffer.SBuffer {
	return q.ports[i].deque[0]
}

// Pop removes and returns port i's front buffer. The caller now owns
// the returned share and is responsible for Releasing it once flushed
// downstream.
func (q *Queues) Pop(i int) sbuffer.SBuffer {
	p := &q.ports[i]
	b := p.deque[0]
	p.deque = p.deque[1:]
	return b
}

// Ready reports whether port i holds at least one buffer to write into.
func (q *Queues) Ready(i int) bool {
	return len(q.ports[i].deque) > 0
}

// AllReady reports whether every port holds at least one buffer.
func (q *Queues) AllReady() bool {
	for i := range q.ports {
		if len(q.ports[i].deque) == 0 {
			return false
		}
	}
	return true
}

// Flush drops and releases every buffer queued on port i.
func (q *Queues) Flush(i int) {
	q.flushPort(i)
}

func (q *Queues) flushPort(i int) {
	p := &q.ports[i]
	for _, b := range p.deque {
		b.Release()
	}
	p.deque = nil
}

// FlushAll flushes every port.
func (q *Queues) FlushAll() {
	for i := range q.ports {
		q.flushPort(i)
	}
}
