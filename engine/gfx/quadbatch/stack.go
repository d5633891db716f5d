// Package quadbatch keeps the stack of pending quad batches for the 2D
// renderer.
//
// Only the batch on top of the stack accepts geometry. When render state
// changes, or a nested pass (render target, clip region, effect) begins or
// ends, the caller finalizes the top with FinishQuadBatch: the batch is
// handed to the Sink and a fresh slot becomes the top. Slots are kept
// across frames and reset lazily, so a steady-state frame allocates nothing.
//
// A Stack is driven from the render thread only; it does no locking.
package quadbatch

import (
	"errors"
	"fmt"

	"github.com/hubastard/quadstack/engine/core"
)

var (
	// ErrSlotLimit is returned when the stack would grow past Options.MaxSlots.
	ErrSlotLimit = errors.New("quadbatch: batch slot limit reached")
	// ErrStaleView is the panic value for a View used after the stack
	// mutated (quaddebug builds only).
	ErrStaleView = errors.New("quadbatch: stale top view")
)

// Sink receives each finalized, non-empty batch together with the
// projection it must be drawn with. The batch is only valid for the
// duration of the call.
type Sink interface {
	SubmitBatch(b *Batch, projection [16]float32) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(b *Batch, projection [16]float32) error

func (f SinkFunc) SubmitBatch(b *Batch, projection [16]float32) error { return f(b, projection) }

// Options configures a Stack. Finishing a batch needs a free slot to become
// the new top, so a frame can finish at most MaxSlots-1 batches. A MaxSlots
// of 1 would never submit anything and is raised to 2.
type Options struct {
	InitialSlots int // slots allocated by New and PurgeBuffers (default 1)
	MinRetained  int // slots TrimQuadBatches always keeps (default 1)
	MaxSlots     int // growth limit, 0 = unbounded; see below
	QuadCapacity int // quads reserved per new slot (default 64)
}

func (o Options) withDefaults() Options {
	if o.InitialSlots <= 0 {
		o.InitialSlots = 1
	}
	if o.MaxSlots == 1 {
		o.MaxSlots = 2
	}
	if o.MaxSlots > 0 && o.InitialSlots > o.MaxSlots {
		o.InitialSlots = o.MaxSlots
	}
	if o.MinRetained <= 0 {
		o.MinRetained = 1
	}
	if o.QuadCapacity <= 0 {
		o.QuadCapacity = 64
	}
	return o
}

// Stats counts the work of one frame.
type Stats struct {
	DrawCalls int // batches handed to the sink
	Quads     int // quads in those batches
	Depth     int // highest stack pointer reached + 1
}

type Stack struct {
	sink  Sink
	opts  Options
	slots []*Batch
	top   int

	gen   uint64 // bumped by every mutating call, invalidates views
	frame uint64 // bumped by PrepForNextFrame, drives lazy slot reset

	stats     Stats
	lastStats Stats
}

// New creates a stack with opts.InitialSlots empty slots and the pointer at
// the bottom. It panics if sink is nil.
func New(sink Sink, opts Options) *Stack {
	if sink == nil {
		panic("quadbatch: nil sink")
	}
	s := &Stack{sink: sink, opts: opts.withDefaults()}
	s.init()
	return s
}

func (s *Stack) init() {
	s.slots = make([]*Batch, s.opts.InitialSlots)
	s.frame = 1
	for i := range s.slots {
		s.slots[i] = s.newSlot()
	}
	s.top = 0
	s.stats = Stats{Depth: 1}
	s.lastStats = Stats{}
}

func (s *Stack) newSlot() *Batch {
	b := newBatch(s.opts.QuadCapacity)
	b.frame = s.frame
	return b
}

// Top returns a view of the writable slot. The view is invalidated by the
// next call to FinishQuadBatch, PrepForNextFrame, TrimQuadBatches or
// PurgeBuffers; fetch a new one after any of them.
func (s *Stack) Top() View {
	return View{s: s, b: s.current(), gen: s.gen, depth: s.top}
}

// current returns the top slot, clearing it first if its contents belong
// to an earlier frame.
func (s *Stack) current() *Batch {
	b := s.slots[s.top]
	if b.frame != s.frame {
		b.reset()
		b.frame = s.frame
	}
	return b
}

// FinishQuadBatch closes the top batch: it is submitted to the sink with
// projection and the next slot becomes the top. An empty top is left in
// place and nothing is submitted.
//
// If the stack cannot grow, an error wrapping ErrSlotLimit is returned
// before anything is submitted. If the sink fails its error is returned and
// the top keeps its geometry.
func (s *Stack) FinishQuadBatch(projection [16]float32) error {
	s.gen++
	b := s.current()
	if b.Empty() {
		return nil
	}

	next := s.top + 1
	if next == len(s.slots) {
		if s.opts.MaxSlots > 0 && next >= s.opts.MaxSlots {
			return fmt.Errorf("quadbatch: grow to %d slots: %w", next+1, ErrSlotLimit)
		}
		s.slots = append(s.slots, s.newSlot())
		core.Logger().Debug("quadbatch: stack grew", "slots", len(s.slots))
	}

	if err := s.sink.SubmitBatch(b, projection); err != nil {
		return fmt.Errorf("quadbatch: submit batch %d: %w", s.top, err)
	}
	s.stats.DrawCalls++
	s.stats.Quads += b.QuadCount()

	s.top = next
	nb := s.slots[s.top]
	nb.reset()
	nb.frame = s.frame
	if s.top+1 > s.stats.Depth {
		s.stats.Depth = s.top + 1
	}
	return nil
}

// PrepForNextFrame moves the pointer back to the bottom slot. Slots keep
// their stale contents until they become the top again.
func (s *Stack) PrepForNextFrame() {
	s.gen++
	s.frame++
	s.top = 0
	s.lastStats = s.stats
	s.stats = Stats{Depth: 1}
}

// TrimQuadBatches releases slots beyond what recent frames needed. It keeps
// max(MinRetained, last frame depth, current frame depth) slots, which is
// never fewer than Pointer()+1.
func (s *Stack) TrimQuadBatches() {
	s.gen++
	keep := max(s.opts.MinRetained, s.lastStats.Depth, s.stats.Depth, s.top+1)
	if keep >= len(s.slots) {
		return
	}
	released := len(s.slots) - keep
	clear(s.slots[keep:])
	s.slots = s.slots[:keep:keep]
	core.Logger().Debug("quadbatch: trimmed", "released", released, "slots", keep)
}

// PurgeBuffers drops every slot and returns the stack to the state New left
// it in.
func (s *Stack) PurgeBuffers() {
	s.gen++
	released := len(s.slots)
	s.init()
	core.Logger().Debug("quadbatch: purged", "released", released, "slots", len(s.slots))
}

// Pointer is the index of the writable slot.
func (s *Stack) Pointer() int { return s.top }

// Len is the number of allocated slots.
func (s *Stack) Len() int { return len(s.slots) }

// Stats reports the frame in progress.
func (s *Stack) Stats() Stats { return s.stats }

// LastFrameStats reports the frame closed by the last PrepForNextFrame.
func (s *Stack) LastFrameStats() Stats { return s.lastStats }

// HighWater is the number of slots the previous frame needed.
func (s *Stack) HighWater() int { return s.lastStats.Depth }
