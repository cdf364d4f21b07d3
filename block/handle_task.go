package block

import "github.com/e7canasta/blockflow/tag"

// HandleTask runs at most one work invocation. It returns immediately,
// without side effects, if the block is inactive or any input/output
// port is not yet ready.
func (h *Handler) HandleTask(iface TaskInterface) {
	if h.done {
		return
	}
	allInputsReady := h.inputQueues.AllReady()
	allOutputsReady := h.outputQueues.AllReady()
	if !(h.active && allInputsReady && allOutputsReady) {
		return
	}

	numInputs := h.numInputs
	numOutputs := h.numOutputs

	for i := 0; i < numInputs; i++ {
		h.inputTags[i].SortIfChanged()
	}

	inputs := make([]Input, numInputs)
	inputTokensCount := 0
	for i := 0; i < numInputs; i++ {
		inputTokensCount += int(h.inputTokens[i].UseCount())

		view, potentialInline := h.inputQueues.Front(i)
		bytes := view.Bytes()
		items := view.Length / h.inputItemSizes[i]
		view.Release()

		inputs[i] = Input{Bytes: bytes, Items: items, PotentialInline: potentialInline}
	}

	outputs := make([]Output, numOutputs)
	numOutputItems := -1
	outputTokensCount := 0
	for i := 0; i < numOutputs; i++ {
		outputTokensCount += int(h.outputTokens[i].UseCount())

		front := h.outputQueues.Front(i)
		bytes := front.Bytes()
		items := front.Length / h.outputItemSizes[i]

		outputs[i] = Output{Bytes: bytes, Items: items}
		if numOutputItems == -1 || items < numOutputItems {
			numOutputItems = items
		}
	}
	if numOutputItems == -1 {
		numOutputItems = 0
	}

	if (numInputs != 0 && inputTokensCount == numInputs) ||
		(numOutputs != 0 && outputTokensCount == numOutputs) {
		h.MarkDone(iface)
		return
	}

	h.resetConsumeItems()
	for i := range h.produceItems {
		h.produceItems[i] = 0
	}

	io := &IO{
		Inputs:       inputs,
		Outputs:      outputs,
		consumeItems: h.consumeItems,
		produceItems: h.produceItems,
		inputTags:    h.inputTags,
		outputTags:   h.outputTags,
	}

	ret := h.worker.Work(io)

	if ret == WorkDone {
		h.MarkDone(iface)
		return
	}
	if ret != WorkCalledProduce && ret < 0 {
		h.fatal(iface, -1, "work returned unknown negative sentinel")
		return
	}

	noutputItems := 0
	if ret >= 0 {
		noutputItems = ret
	}

	for i := 0; i < numInputs; i++ {
		var items int
		if h.enableFixedRate {
			items = int(tag.RoundRate(float64(noutputItems) / h.relativeRate))
		} else {
			if h.consumeItems[i] == unsetConsume {
				h.fatal(iface, i, "fixed rate disabled and work did not call SetConsumed")
				return
			}
			items = h.consumeItems[i]
		}

		if items > inputs[i].Items {
			h.fatal(iface, i, "work consumed more items than were available")
			return
		}

		h.itemsConsumed[i] += items
		bytesConsumed := items * h.inputItemSizes[i]
		h.inputQueues.Consume(i, bytesConsumed)
	}

	for i := 0; i < numOutputs; i++ {
		items := noutputItems
		if ret == WorkCalledProduce {
			items = h.produceItems[i]
		}

		if items > outputs[i].Items {
			h.fatal(iface, i, "work produced more items than the output buffer holds")
			return
		}

		h.itemsProduced[i] += items
		bytesProduced := items * h.outputItemSizes[i]

		buf := h.outputQueues.Pop(i)
		buf.Length = bytesProduced
		iface.PostDownstream(i, buf)
	}

	for i := 0; i < numInputs; i++ {
		itemsConsumedI := uint64(h.itemsConsumed[i])
		trimmed := h.inputTags[i].TrimBefore(itemsConsumedI)
		if len(trimmed) == 0 {
			continue
		}

		switch h.tagPropPolicy {
		case tag.DontPropagate:
			// dropped
		case tag.AllToAll:
			for outI := 0; outI < numOutputs; outI++ {
				for _, t := range trimmed {
					iface.PostDownstream(outI, tag.Scaled(t, h.relativeRate))
				}
			}
		case tag.OneToOne:
			if i < numOutputs {
				for _, t := range trimmed {
					iface.PostDownstream(i, tag.Scaled(t, h.relativeRate))
				}
			}
		}
	}

	for i := 0; i < numOutputs; i++ {
		for _, t := range h.outputTags[i] {
			iface.PostDownstream(i, t)
		}
		h.outputTags[i] = nil
	}
}

// fatal reports a contract violation and terminates the block. port is
// advisory context for the log line; -1 means "not port-specific".
func (h *Handler) fatal(iface TaskInterface, port int, reason string) {
	v := Violation{BlockID: h.ID, Port: port, Reason: reason}
	h.Logger.Error("block contract violation", "block_id", h.ID, "port", port, "reason", reason, "error", v.Error())
	h.MarkDone(iface)
}

// MarkDone is idempotent termination: it clears every token and buffer
// queue exactly once and notifies every neighbor to re-check its own
// interest. A second call is a no-op.
func (h *Handler) MarkDone(iface TaskInterface) {
	if h.done {
		return
	}
	h.active = false
	h.done = true

	h.tokenPool.Clear()
	h.outputBufferTokens.Clear()

	h.inputQueues.FlushAll()
	h.outputQueues.FlushAll()

	for i := 0; i < iface.NumInputs(); i++ {
		iface.PostUpstream(i, CheckTokensMessage{})
	}
	for i := 0; i < iface.NumOutputs(); i++ {
		iface.PostDownstream(i, CheckTokensMessage{})
	}

	h.Logger.Info("block done", "block_id", h.ID)
}
