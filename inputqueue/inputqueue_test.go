package inputqueue_test

import (
	"testing"

	"github.com/e7canasta/blockflow/inputqueue"
	"github.com/e7canasta/blockflow/sbuffer"
)

type fakeAllocator struct{}

func (fakeAllocator) Allocate(n int) (sbuffer.SBuffer, error) {
	return sbuffer.New(sbuffer.NewBacking(make([]byte, n), nil)), nil
}

func TestHistorySeedAndMerge(t *testing.T) {
	var q inputqueue.Queues
	if err := q.Init(fakeAllocator{}, []int{3}, []int{1}, []int{4}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	push := make([]byte, 100)
	for i := range push {
		push[i] = byte(i)
	}
	buf := sbuffer.New(sbuffer.NewBacking(push, nil))
	q.Push(0, buf)

	if !q.Ready(0) {
		t.Fatalf("port should be ready after pushing past reserve_bytes")
	}

	view, potentialInline := q.Front(0)
	if view.Length != 100 {
		t.Fatalf("Front length = %d, want 100", view.Length)
	}
	if potentialInline {
		t.Fatalf("potential_inline must be false when history_bytes != 0")
	}
	got := view.Bytes()
	for i := range got {
		if got[i] != byte(i) {
			t.Fatalf("Front()[%d] = %d, want %d", i, got[i], byte(i))
		}
	}
	view.Release()

	if !q.Consume(0, 100) {
		t.Fatalf("Consume should report true (in_hist_buff always false)")
	}
	if q.Ready(0) {
		t.Fatalf("port should not be ready once fully consumed")
	}
}

func TestNoHistoryPassThroughIsPotentiallyInline(t *testing.T) {
	var q inputqueue.Queues
	if err := q.Init(fakeAllocator{}, []int{0}, []int{1}, []int{1}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	buf := sbuffer.New(sbuffer.NewBacking([]byte("hello world"), nil))
	q.Push(0, buf)

	view, potentialInline := q.Front(0)
	if !potentialInline {
		t.Fatalf("expected potential_inline for a unique, history-free, untrimmed front")
	}
	if string(view.Bytes()) != "hello world" {
		t.Fatalf("Front bytes = %q", view.Bytes())
	}
	view.Release()

	if !q.Consume(0, len("hello world")) {
		t.Fatalf("Consume should return true")
	}
	if q.Ready(0) {
		t.Fatalf("port should be empty after full consume with no history")
	}
}

func TestFlushAllReleasesEveryPort(t *testing.T) {
	var q inputqueue.Queues
	if err := q.Init(fakeAllocator{}, []int{0, 0}, []int{1, 1}, []int{1, 1}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	q.Push(0, sbuffer.New(sbuffer.NewBacking([]byte("a"), nil)))
	q.Push(1, sbuffer.New(sbuffer.NewBacking([]byte("b"), nil)))

	q.FlushAll()
	if q.Ready(0) || q.Ready(1) {
		t.Fatalf("ports should not be ready after FlushAll")
	}
}

func TestInitRejectsZeroMultiple(t *testing.T) {
	var q inputqueue.Queues
	if err := q.Init(fakeAllocator{}, []int{0}, []int{0}, []int{4}); err == nil {
		t.Fatalf("expected error for multiple_items == 0")
	}
}

func TestPortByteAccounting(t *testing.T) {
	history, multiple, reserve := inputqueue.PortByteAccounting(3, 1, 4)
	if history != 12 || multiple != 4 || reserve != 16 {
		t.Fatalf("got history=%d multiple=%d reserve=%d, want 12, 4, 16", history, multiple, reserve)
	}

	// reserve rounds up to the next multiple-sized chunk once history
	// no longer fits in a single one.
	history, multiple, reserve = inputqueue.PortByteAccounting(5, 1, 4)
	if history != 20 || multiple != 4 || reserve != 24 {
		t.Fatalf("got history=%d multiple=%d reserve=%d, want 20, 4, 24", history, multiple, reserve)
	}
}
