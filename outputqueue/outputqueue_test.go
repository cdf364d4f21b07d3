package outputqueue_test

import (
	"testing"

	"github.com/e7canasta/blockflow/outputqueue"
	"github.com/e7canasta/blockflow/sbuffer"
)

func TestReadyReflectsQueueOccupancy(t *testing.T) {
	var q outputqueue.Queues
	q.Resize(1)

	if q.Ready(0) {
		t.Fatalf("empty port should not be ready")
	}

	buf := sbuffer.New(sbuffer.NewBacking(make([]byte, 64), nil))
	q.Push(0, buf)
	if !q.Ready(0) {
		t.Fatalf("port should be ready once a buffer is pushed")
	}
	if q.Front(0).ActualLength() != 64 {
		t.Fatalf("Front().ActualLength() = %d, want 64", q.Front(0).ActualLength())
	}

	popped := q.Pop(0)
	if popped.ActualLength() != 64 {
		t.Fatalf("Pop().ActualLength() = %d, want 64", popped.ActualLength())
	}
	popped.Release()
	if q.Ready(0) {
		t.Fatalf("port should not be ready after popping its only buffer")
	}
}

func TestAllReadyRequiresEveryPort(t *testing.T) {
	var q outputqueue.Queues
	q.Resize(2)
	q.Push(0, sbuffer.New(sbuffer.NewBacking(make([]byte, 4), nil)))
	if q.AllReady() {
		t.Fatalf("AllReady should be false while port 1 is empty")
	}
	q.Push(1, sbuffer.New(sbuffer.NewBacking(make([]byte, 4), nil)))
	if !q.AllReady() {
		t.Fatalf("AllReady should be true once every port has a buffer")
	}
}

func TestFlushAllReleasesQueuedBuffers(t *testing.T) {
	var q outputqueue.Queues
	q.Resize(1)
	released := false
	buf := sbuffer.New(sbuffer.NewBacking(make([]byte, 4), func([]byte) { released = true }))
	q.Push(0, buf)

	q.FlushAll()
	if !released {
		t.Fatalf("FlushAll should release queued buffers")
	}
	if q.Ready(0) {
		t.Fatalf("port should be empty after FlushAll")
	}
}
