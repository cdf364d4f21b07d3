// Package block implements the per-block task engine: the readiness
// gate, work invocation, consumption/production accounting, tag
// propagation, and idempotent termination protocol that drives one node
// of a dataflow graph on each dispatcher event.
package block

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/e7canasta/blockflow/inputqueue"
	"github.com/e7canasta/blockflow/outputqueue"
	"github.com/e7canasta/blockflow/sbuffer"
	"github.com/e7canasta/blockflow/tag"
	"github.com/e7canasta/blockflow/token"
)

// Sentinel return values from Worker.Work. Any other negative value is
// a contract violation.
const (
	WorkDone          = -1
	WorkCalledProduce = -2
)

// unsetConsume marks a per-port ConsumeItems slot that user work has
// not written this invocation, distinguishing "didn't set it" from a
// legitimate "consumed zero items" when fixed-rate consumption is
// disabled.
const unsetConsume = -1

// Input is one port's view of available data for a work invocation.
type Input struct {
	Bytes []byte
	Items int
	// PotentialInline reports whether Bytes' backing memory is this
	// port's sole reference, carries no history, and was handed over
	// untrimmed — safe, in principle, to also use as an output buffer.
	PotentialInline bool
}

// Output is one port's available write space for a work invocation.
type Output struct {
	Bytes []byte
	Items int
}

// IO is the mailbox a Worker reads inputs from and writes its
// consumption/production/tag decisions into.
type IO struct {
	Inputs  []Input
	Outputs []Output

	consumeItems []int
	produceItems []int
	inputTags    []tag.List
	outputTags   [][]tag.Tag
}

// SetConsumed records how many items of input port i this invocation
// consumed. Required on every call when fixed-rate consumption is
// disabled; ignored otherwise.
func (io *IO) SetConsumed(i, items int) { io.consumeItems[i] = items }

// SetProduced records how many items output port i produced. Only
// consulted when Work returns WorkCalledProduce.
func (io *IO) SetProduced(i, items int) { io.produceItems[i] = items }

// InputTags returns the current, offset-sorted tag sequence for input
// port i. The returned slice must not be mutated.
func (io *IO) InputTags(i int) []tag.Tag { return io.inputTags[i].Tags() }

// AddOutputTag queues t to be posted downstream on port i after this
// invocation's output buffer is published.
func (io *IO) AddOutputTag(i int, t tag.Tag) {
	io.outputTags[i] = append(io.outputTags[i], t)
}

// Worker is the block author's contract: read Inputs, write to
// Outputs, and report the outcome of one work invocation.
type Worker interface {
	Work(io *IO) int
}

// CheckTokensMessage asks a peer to re-evaluate its own disinterest
// gate after this block dropped one of its tokens.
type CheckTokensMessage struct{}

// TaskInterface is the dispatcher-facing surface a Handler uses to
// learn its topology and fan messages out to neighbors.
type TaskInterface interface {
	NumInputs() int
	NumOutputs() int
	PostUpstream(i int, msg any)
	PostDownstream(i int, msg any)
}

// Violation reports a fatal contract breach by user work: an unknown
// negative return, unset required accounting, or over-consumption /
// over-production relative to the buffers on hand.
type Violation struct {
	BlockID uuid.UUID
	Port    int
	Reason  string
}

func (v Violation) Error() string {
	return fmt.Sprintf("block %s: contract violation on port %d: %s", v.BlockID, v.Port, v.Reason)
}

// Handler is the per-block task engine (BlockTaskHandler). A dispatcher
// drives it through HandleTask and MarkDone, and delivers per-event
// buffers and tags through PushInput, PushOutput and AddInputTag; all
// other state is configured once before the block starts receiving
// events.
type Handler struct {
	ID     uuid.UUID
	Logger *slog.Logger

	worker Worker

	active bool
	done   bool

	relativeRate    float64
	enableFixedRate bool
	tagPropPolicy   tag.Policy

	tokenPool          token.Pool
	outputBufferTokens token.Pool
	inputTokens        []token.Token
	outputTokens       []token.Token

	inputQueues  inputqueue.Queues
	outputQueues outputqueue.Queues

	numInputs, numOutputs int

	inputTags  []tag.List
	outputTags [][]tag.Tag

	itemsConsumed []int
	itemsProduced []int

	inputItemSizes  []int
	outputItemSizes []int

	consumeItems []int
	produceItems []int
}

// New constructs an inactive Handler for worker, wired to log via
// logger (slog.Default() if nil).
func New(worker Worker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ID: uuid.New(), Logger: logger, worker: worker}
}

// SetFixedRate toggles fixed-rate consumption: when true, every port's
// consumption is derived from noutput_items/RelativeRate rather than
// the per-call ConsumeItems mailbox.
func (h *Handler) SetFixedRate(enabled bool) { h.enableFixedRate = enabled }

// SetRelativeRate sets output items produced per input item consumed.
// Must be positive; used for fixed-rate consumption and for scaling
// propagated tag offsets.
func (h *Handler) SetRelativeRate(rate float64) { h.relativeRate = rate }

// SetTagPropagationPolicy controls how trimmed input tags are relayed
// to output ports.
func (h *Handler) SetTagPropagationPolicy(p tag.Policy) { h.tagPropPolicy = p }

// SetActive marks the block eligible to run HandleTask. A freshly
// constructed Handler starts inactive.
func (h *Handler) SetActive(active bool) { h.active = active }

// Done reports whether MarkDone has run.
func (h *Handler) Done() bool { return h.done }

// InitTokens installs this block's per-port interest tokens and
// registers them (plus the executor token) with the owning pool.
func (h *Handler) InitTokens(inputTokens, outputTokens []token.Token, executor token.Token) {
	h.inputTokens = inputTokens
	h.outputTokens = outputTokens
	for _, t := range inputTokens {
		h.tokenPool.Add(t)
	}
	for _, t := range outputTokens {
		h.tokenPool.Add(t)
	}
	h.tokenPool.Add(executor)
}

// AddOutputBufferToken registers a token tied to allocator-owned output
// buffers, released alongside the interest tokens when MarkDone runs.
func (h *Handler) AddOutputBufferToken(t token.Token) {
	h.outputBufferTokens.Add(t)
}

// SetInputSignature configures port count, per-port history/multiple
// item counts, and item sizes for the input side, allocating aux
// staging buffers through allocator.
func (h *Handler) SetInputSignature(allocator sbuffer.Allocator, historyItems, multipleItems, itemSizes []int) error {
	n := len(historyItems)
	if err := h.inputQueues.Init(allocator, historyItems, multipleItems, itemSizes); err != nil {
		return fmt.Errorf("block %s: input signature: %w", h.ID, err)
	}
	h.numInputs = n
	h.inputItemSizes = append([]int(nil), itemSizes...)
	h.inputTags = make([]tag.List, n)
	h.itemsConsumed = make([]int, n)
	h.consumeItems = make([]int, n)
	h.resetConsumeItems()
	return nil
}

// SetOutputSignature configures port count and per-port item sizes for
// the output side.
func (h *Handler) SetOutputSignature(itemSizes []int) {
	n := len(itemSizes)
	h.outputQueues.Resize(n)
	h.numOutputs = n
	h.outputItemSizes = append([]int(nil), itemSizes...)
	h.outputTags = make([][]tag.Tag, n)
	h.itemsProduced = make([]int, n)
	h.produceItems = make([]int, n)
}

// PushInput enqueues buffer on input port i.
func (h *Handler) PushInput(i int, buffer sbuffer.SBuffer) {
	h.inputQueues.Push(i, buffer)
}

// PushOutput enqueues a downstream-loaned buffer on output port i.
func (h *Handler) PushOutput(i int, buffer sbuffer.SBuffer) {
	h.outputQueues.Push(i, buffer)
}

// AddInputTag records an incoming tag on input port i.
func (h *Handler) AddInputTag(i int, t tag.Tag) {
	h.inputTags[i].Add(t)
}

func (h *Handler) resetConsumeItems() {
	for i := range h.consumeItems {
		h.consumeItems[i] = unsetConsume
	}
}

// ItemsConsumed reports the running total consumed on input port i.
func (h *Handler) ItemsConsumed(i int) int { return h.itemsConsumed[i] }

// ItemsProduced reports the running total produced on output port i.
func (h *Handler) ItemsProduced(i int) int { return h.itemsProduced[i] }
