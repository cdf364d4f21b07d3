// Package blockflow is a thin facade over the engine's leaf packages —
// sbuffer, token, tag, inputqueue, outputqueue, and block — so a graph
// author who only needs the common entry points can depend on a single
// import.
//
// The engine drives one block at a time on a dispatcher event: the
// dispatcher calls Handler.HandleTask whenever an upstream buffer
// arrives, a downstream output buffer is returned, or a token check
// message fires. HandleTask checks readiness, invokes the block's
// Worker, accounts for consumption/production, propagates tags, and
// publishes results — or calls MarkDone if the block signaled
// completion or every peer lost interest.
//
// Anything not re-exported here (the merge/prepare internals of
// inputqueue, the aux buffer pool, the tag list's sort bookkeeping) is
// implementation detail reachable directly from its own package when a
// caller needs it.
package blockflow

import (
	"github.com/e7canasta/blockflow/block"
	"github.com/e7canasta/blockflow/sbuffer"
	"github.com/e7canasta/blockflow/tag"
	"github.com/e7canasta/blockflow/token"
)

// Handler is the per-block task engine. See block.Handler.
type Handler = block.Handler

// Worker is the block author's contract. See block.Worker.
type Worker = block.Worker

// IO is the mailbox a Worker reads inputs from and writes decisions
// into. See block.IO.
type IO = block.IO

// Input and Output describe one port's data for a work invocation.
type Input = block.Input
type Output = block.Output

// TaskInterface is the dispatcher-facing surface a Handler uses. See
// block.TaskInterface.
type TaskInterface = block.TaskInterface

// CheckTokensMessage asks a peer to re-evaluate its disinterest gate.
type CheckTokensMessage = block.CheckTokensMessage

// Violation reports a fatal contract breach by user work.
type Violation = block.Violation

// GeneralWorker adapts a legacy fixed-arity work callback to Worker.
type GeneralWorker = block.GeneralWorker

// GeneralWork is the legacy fixed-arity work callback signature.
type GeneralWork = block.GeneralWork

// Sentinel Worker.Work return values.
const (
	WorkDone          = block.WorkDone
	WorkCalledProduce = block.WorkCalledProduce
)

// New constructs an inactive Handler for worker, logging via logger
// (slog.Default() if nil). See block.New.
var New = block.New

// SBuffer is a reference-counted byte window. See sbuffer.SBuffer.
type SBuffer = sbuffer.SBuffer

// Allocator supplies fresh backing memory for SBuffers.
type Allocator = sbuffer.Allocator

// Token is a distributed-refcount interest handle. See token.Token.
type Token = token.Token

// Tag annotates a sample position within a port's item stream.
type Tag = tag.Tag

// TagPolicy controls how trimmed input tags propagate to outputs.
type TagPolicy = tag.Policy

// Tag propagation policies.
const (
	DontPropagate = tag.DontPropagate
	AllToAll      = tag.AllToAll
	OneToOne      = tag.OneToOne
)
