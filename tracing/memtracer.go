package tracing

import (
	"log"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/pagesim/sim/hooking"
)

// MemEventTable is the table that MemTracer writes into.
const MemEventTable = "mem_event"

// MemEvent is one row of the memory event table. Page fields are zero for
// region events and region fields are zero for page events.
type MemEvent struct {
	ID         string
	Seq        uint64
	Domain     string
	Kind       string
	Page       uint64
	Frame      uint64
	SwapType   int
	SwapOffset uint64
	AllocID    int
	SegID      int
	RegionLo   uint64
	RegionHi   uint64
}

// MemTracer is a hook that stores page and region events in a Recorder.
type MemTracer struct {
	mu       sync.Mutex
	recorder Recorder
	seq      uint64
}

// NewMemTracer creates the event table and returns a tracer that writes
// into it.
func NewMemTracer(recorder Recorder) *MemTracer {
	recorder.CreateTable(MemEventTable, MemEvent{})

	return &MemTracer{recorder: recorder}
}

// Func records the event carried by ctx.
func (t *MemTracer) Func(ctx hooking.HookCtx) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	e := MemEvent{
		ID:     xid.New().String(),
		Seq:    t.seq,
		Domain: ctx.Domain.Name(),
		Kind:   ctx.Pos.Name,
	}

	switch item := ctx.Item.(type) {
	case hooking.PageEvent:
		e.Page = item.Page
		e.Frame = item.Frame
		e.SwapType = item.SwapType
		e.SwapOffset = item.SwapOffset
	case hooking.RegionEvent:
		e.AllocID = item.ID
		e.SegID = item.SegID
		e.RegionLo = item.Start
		e.RegionHi = item.End
	default:
		log.Panicf("cannot trace item of type %T", ctx.Item)
	}

	t.recorder.InsertData(MemEventTable, e)
}

// Trace attaches the tracer to every given domain.
func (t *MemTracer) Trace(domains ...hooking.Hookable) {
	for _, d := range domains {
		d.AcceptHook(t)
	}
}
