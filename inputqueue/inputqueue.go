// Package inputqueue implements the per-input-port buffer queues that
// feed a block's work invocation: reserve/history/multiple accounting,
// in-place merging of adjacent pushes, and the mini history-staging
// buffers used when a queue's own front buffer can't be grown in place.
package inputqueue

import (
	"fmt"

	"github.com/e7canasta/blockflow/internal/assert"
	"github.com/e7canasta/blockflow/sbuffer"
)

// auxBufferSize is the fixed capacity of the two scratch buffers each
// port keeps for merges that can't grow the current front in place.
const auxBufferSize = 1 << 17

// auxPool is a two-slot free list of raw memory recycled via the
// SBuffer release callback, so merges never call back into the external
// Allocator after Init.
type auxPool struct {
	free [][]byte
}

func (p *auxPool) seed(mem []byte) {
	p.free = append(p.free, mem)
}

// take hands out an empty [0, 0) view over a recycled (or freshly
// grown, if the pool is momentarily exhausted) buffer.
func (p *auxPool) take() sbuffer.SBuffer {
	var mem []byte
	if n := len(p.free); n > 0 {
		mem = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		mem = make([]byte, auxBufferSize)
	}
	backing := sbuffer.NewBacking(mem, func(m []byte) { p.free = append(p.free, m) })
	return sbuffer.NewView(backing, 0, 0)
}

// PortByteAccounting derives the history/multiple/reserve byte counts
// for one port from its item-domain signature, without needing a live
// Queues instance: reserve is the smallest multiple of multipleBytes
// large enough to also cover historyBytes, so a merged front can always
// be trimmed down to a whole number of multiple-sized items after its
// history prefix is removed. cmd/blockctl uses it to preview a
// signature's footprint before any buffers are allocated.
func PortByteAccounting(historyItems, multipleItems, itemSize int) (historyBytes, multipleBytes, reserveBytes int) {
	historyBytes = itemSize * historyItems
	multipleBytes = itemSize * multipleItems
	if multipleBytes < 1 {
		multipleBytes = 1
	}
	reserveBytes = multipleBytes
	for reserveBytes < historyBytes+multipleBytes {
		reserveBytes += multipleBytes
	}
	assert.That(reserveBytes >= historyBytes+multipleBytes,
		"inputqueue: reserve_bytes %d < history_bytes %d + multiple_bytes %d", reserveBytes, historyBytes, multipleBytes)
	return historyBytes, multipleBytes, reserveBytes
}

type port struct {
	historyBytes  int
	multipleBytes int
	reserveBytes  int
	enqueuedBytes int
	deque         []sbuffer.SBuffer
	aux           auxPool
	ready         bool
}

// Queues holds one buffer deque per input port.
type Queues struct {
	ports []port
}

// Resize grows or shrinks the port count, flushing and releasing any
// buffers held by ports that no longer exist.
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

// Init configures every port's history/multiple/reserve byte counts
// from item-domain inputs, resizing to len(historyItems) first, and
// seeds a zero-filled history buffer on any port that requires one.
//
// allocator supplies the two 128 KiB scratch buffers each port keeps;
// after Init returns, those buffers are recycled internally and the
// allocator is never called again.
func (q *Queues) Init(allocator sbuffer.Allocator, historyItems, multipleItems, itemSizes []int) error {
	n := len(historyItems)
	if len(multipleItems) != n || len(itemSizes) != n {
		return fmt.Errorf("inputqueue: mismatched signature slice lengths (%d, %d, %d)", n, len(multipleItems), len(itemSizes))
	}
	q.Resize(n)
	if n == 0 {
		return nil
	}

	for i := 0; i < n; i++ {
		p := &q.ports[i]
		if multipleItems[i] <= 0 {
			return fmt.Errorf("inputqueue: port %d multiple items must be > 0, got %d", i, multipleItems[i])
		}

		p.historyBytes, p.multipleBytes, p.reserveBytes = PortByteAccounting(historyItems[i], multipleItems[i], itemSizes[i])

		for j := 0; j < 2; j++ {
			buf, err := allocator.Allocate(auxBufferSize)
			if err != nil {
				return fmt.Errorf("inputqueue: allocate scratch buffer for port %d: %w", i, err)
			}
			p.aux.seed(buf.Raw())
		}

		if p.historyBytes != 0 && p.enqueuedBytes < p.historyBytes {
			buf := p.aux.take()
			mem := buf.Raw()
			for k := 0; k < p.historyBytes; k++ {
				mem[k] = 0
			}
			buf.Offset = 0
			buf.Length = p.historyBytes
			q.Push(i, buf)
		}
	}
	return nil
}

// Push appends buffer to port i's queue. Push takes ownership of the
// passed share; callers that need to keep their own reference must
// Clone before calling.
func (q *Queues) Push(i int, buffer sbuffer.SBuffer) {
	p := &q.ports[i]
	p.deque = append(p.deque, buffer)
	p.enqueuedBytes += buffer.Length
	q.update(i)
}

// Front prepares port i (merging queued buffers until its front meets
// the reserve requirement) and returns a fresh, history-and-multiple
// trimmed share of that front for work to read.
//
// potentialInline reports whether the returned view is safe to also use
// as an in-place output buffer: it is the queue's sole reference, the
// port carries no history, and trimming didn't shrink the window.
//
// The caller must Release the returned SBuffer once done with it.
func (q *Queues) Front(i int) (view sbuffer.SBuffer, potentialInline bool) {
	p := &q.ports[i]
	q.prepare(i)

	front := p.deque[0]
	assert.That(front.Length >= p.historyBytes, "inputqueue: port %d front length %d < history bytes %d", i, front.Length, p.historyBytes)
	unique := front.Unique()

	view = front.Clone()
	view.Length -= p.historyBytes
	view.Length -= view.Length % p.multipleBytes

	potentialInline = unique && p.historyBytes == 0 && view.Length == front.Length
	return view, potentialInline
}

// prepare merges queued buffers into port i's front until it holds at
// least reserveBytes, growing the front in place when it is the queue's
// sole reference and has room, and falling back to a scratch buffer
// otherwise.
func (q *Queues) prepare(i int) {
	p := &q.ports[i]
	assert.That(p.deque[0].Length >= p.historyBytes, "inputqueue: port %d front length %d < history bytes %d before merge", i, p.deque[0].Length, p.historyBytes)
	for p.deque[0].Length < p.reserveBytes {
		front := p.deque[0]

		var dst sbuffer.SBuffer
		enoughSpace := front.ActualLength() >= p.reserveBytes+front.Offset
		if enoughSpace && front.Unique() {
			dst = front
			p.deque = p.deque[1:]
		} else {
			dst = p.aux.take()
		}

		src := p.deque[0]
		p.deque = p.deque[1:]

		dstTail := dst.ActualLength() - (dst.Offset + dst.Length)
		n := dstTail
		if src.Length < n {
			n = src.Length
		}
		copy(dst.Get(dst.Length)[:n], src.Bytes()[:n])

		dst.Length += n
		src.Offset += n
		src.Length -= n

		if src.Length > 0 {
			p.deque = append([]sbuffer.SBuffer{src}, p.deque...)
		} else {
			src.Release()
		}
		p.deque = append([]sbuffer.SBuffer{dst}, p.deque...)
	}
}

// Consume advances port i's front buffer past bytesConsumed, popping
// and releasing it once fully drained (unless the port carries history,
// in which case the drained tail is retained as the seed for the next
// merge). Returns true if the caller may go on to flush its outputs.
func (q *Queues) Consume(i int, bytesConsumed int) bool {
	p := &q.ports[i]
	front := &p.deque[0]
	assert.That(front.Length >= bytesConsumed, "inputqueue: port %d consumed %d bytes past front length %d", i, bytesConsumed, front.Length)
	front.Offset += bytesConsumed
	front.Length -= bytesConsumed

	if front.Length == 0 && p.historyBytes == 0 {
		b := p.deque[0]
		p.deque = p.deque[1:]
		b.Release()
	}

	p.enqueuedBytes -= bytesConsumed
	q.update(i)
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
	p.enqueuedBytes = 0
	p.ready = false
}

// FlushAll flushes every port.
func (q *Queues) FlushAll() {
	for i := range q.ports {
		q.flushPort(i)
	}
}

func (q *Queues) update(i int) {
	p := &q.ports[i]
	p.ready = p.enqueuedBytes >= p.reserveBytes
}

// Ready reports whether port i currently holds enough bytes to satisfy
// its reserve requirement.
func (q *Queues) Ready(i int) bool { return q.ports[i].ready }

// Empty is the complement of Ready.
func (q *Queues) Empty(i int) bool { return !q.ports[i].ready }

// AllReady reports whether every port is ready.
func (q *Queues) AllReady() bool {
	for i := range q.ports {
		if !q.ports[i].ready {
			return false
		}
	}
	return true
}
