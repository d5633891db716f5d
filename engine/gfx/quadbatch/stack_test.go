package quadbatch

import (
	"errors"
	"testing"

	"github.com/hubastard/quadstack/engine/colors"
)

type submission struct {
	quads int
	verts []float32
	proj  [16]float32
	state State
	depth int
}

// recordSink copies what it receives, since batches are recycled.
type recordSink struct {
	s    *Stack
	subs []submission
	err  error
}

func (r *recordSink) SubmitBatch(b *Batch, proj [16]float32) error {
	if r.err != nil {
		return r.err
	}
	depth := -1
	if r.s != nil {
		depth = r.s.Pointer()
	}
	r.subs = append(r.subs, submission{
		quads: b.QuadCount(),
		verts: append([]float32(nil), b.Vertices()...),
		proj:  proj,
		state: b.State(),
		depth: depth,
	})
	return nil
}

func newTestStack(t *testing.T, opts Options) (*Stack, *recordSink) {
	t.Helper()
	sink := &recordSink{}
	s := New(sink, opts)
	sink.s = s
	return s, sink
}

func identity() [16]float32 {
	return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func quadAt(x, y float32) Quad {
	return Quad{X: x, Y: y, W: 2, H: 2, Color: colors.White, U1: 1, V1: 1}
}

func TestNewStack(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if s.Pointer() != 0 {
		t.Errorf("Pointer() = %d, want 0", s.Pointer())
	}
	if len(sink.subs) != 0 {
		t.Errorf("New submitted %d batches, want 0", len(sink.subs))
	}
	if !s.Top().Empty() {
		t.Error("new top is not empty")
	}
}

func TestNewStackInitialSlots(t *testing.T) {
	s, _ := newTestStack(t, Options{InitialSlots: 4})
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	s, _ = newTestStack(t, Options{InitialSlots: 8, MaxSlots: 3})
	if s.Len() != 3 {
		t.Errorf("Len() with MaxSlots 3 = %d, want 3", s.Len())
	}
}

func TestNewNilSinkPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil) did not panic")
		}
	}()
	New(nil, Options{})
}

// Scenario A
func TestFinishSubmitsAndAdvances(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	proj := identity()
	proj[12] = 7

	s.Top().AddQuad(quadAt(10, 20), 0)
	if err := s.FinishQuadBatch(proj); err != nil {
		t.Fatalf("FinishQuadBatch() error = %v", err)
	}

	if len(sink.subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(sink.subs))
	}
	sub := sink.subs[0]
	if sub.quads != 1 {
		t.Errorf("submitted quads = %d, want 1", sub.quads)
	}
	if sub.proj != proj {
		t.Errorf("submitted projection = %v, want %v", sub.proj, proj)
	}
	if sub.depth != 0 {
		t.Errorf("submitted from depth %d, want 0", sub.depth)
	}
	if s.Pointer() != 1 {
		t.Errorf("Pointer() = %d, want 1", s.Pointer())
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !s.Top().Empty() {
		t.Error("top after finish is not empty")
	}
}

// Scenario B, P2
func TestFinishEmptyIsNoop(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	for i := 0; i < 3; i++ {
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatalf("FinishQuadBatch() error = %v", err)
		}
	}
	if len(sink.subs) != 0 {
		t.Errorf("submissions = %d, want 0", len(sink.subs))
	}
	if s.Pointer() != 0 {
		t.Errorf("Pointer() = %d, want 0", s.Pointer())
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

// P1
func TestPointerNeverDecreasesWithinFrame(t *testing.T) {
	s, _ := newTestStack(t, Options{})
	prev := s.Pointer()
	for i := 0; i < 20; i++ {
		if i%3 != 0 {
			s.Top().AddQuad(quadAt(float32(i), 0), 0)
		}
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatalf("FinishQuadBatch() error = %v", err)
		}
		if s.Pointer() < prev {
			t.Fatalf("pointer went from %d to %d", prev, s.Pointer())
		}
		prev = s.Pointer()
	}
	s.PrepForNextFrame()
	if s.Pointer() != 0 {
		t.Errorf("Pointer() after PrepForNextFrame = %d, want 0", s.Pointer())
	}
}

// P3
func TestSlotReuseIsEmpty(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	for i := 0; i < 3; i++ {
		v := s.Top()
		v.AddQuad(quadAt(1, 1), 0)
		v.AddQuad(quadAt(2, 2), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
	}
	// leave geometry on the top slot; it must not leak into the next frame
	s.Top().AddQuad(quadAt(3, 3), 0)

	s.PrepForNextFrame()
	if !s.Top().Empty() {
		t.Fatal("bottom slot not empty after PrepForNextFrame")
	}
	for s.Pointer() < 3 {
		s.Top().AddQuad(quadAt(4, 4), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
		if v := s.Top(); !v.Empty() || v.TextureCount() != 0 || v.State() != (State{}) {
			t.Fatalf("reused slot %d not reset: quads=%d textures=%d", s.Pointer(), v.QuadCount(), v.TextureCount())
		}
	}
	for i, sub := range sink.subs[3:] {
		if sub.quads != 1 {
			t.Errorf("frame 2 submission %d has %d quads, want 1", i, sub.quads)
		}
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (slots reused, not reallocated)", s.Len())
	}
}

func TestPrepForNextFrameDoesNotSubmitStaleTop(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	s.Top().AddQuad(quadAt(1, 1), 0)
	s.PrepForNextFrame()
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	if len(sink.subs) != 0 {
		t.Errorf("stale geometry submitted: %d submissions", len(sink.subs))
	}
}

// P4, Scenario D
func TestPurgeRestoresFreshState(t *testing.T) {
	s, _ := newTestStack(t, Options{InitialSlots: 2})
	fresh, _ := newTestStack(t, Options{InitialSlots: 2})

	s.Top().AddQuad(quadAt(1, 1), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	s.Top().AddQuad(quadAt(2, 2), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	if s.Pointer() != 2 {
		t.Fatalf("Pointer() = %d, want 2", s.Pointer())
	}

	s.PurgeBuffers()
	if s.Len() != fresh.Len() {
		t.Errorf("Len() after purge = %d, want %d", s.Len(), fresh.Len())
	}
	if s.Pointer() != fresh.Pointer() {
		t.Errorf("Pointer() after purge = %d, want %d", s.Pointer(), fresh.Pointer())
	}
	if s.Stats() != fresh.Stats() {
		t.Errorf("Stats() after purge = %+v, want %+v", s.Stats(), fresh.Stats())
	}
	if !s.Top().Empty() {
		t.Error("top after purge is not empty")
	}
}

// Scenario C
func TestTrimToLastFrameHighWater(t *testing.T) {
	s, _ := newTestStack(t, Options{})
	// spike: one frame with many state changes
	for i := 0; i < 10; i++ {
		s.Top().AddQuad(quadAt(1, 1), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
	}
	s.PrepForNextFrame()
	for i := 0; i < 3; i++ {
		s.Top().AddQuad(quadAt(1, 1), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
	}
	if s.Pointer() != 3 {
		t.Fatalf("Pointer() = %d, want 3", s.Pointer())
	}
	s.PrepForNextFrame()
	if got := s.HighWater(); got != 4 {
		t.Errorf("HighWater() = %d, want 4", got)
	}
	s.TrimQuadBatches()

	if s.Len() != 4 {
		t.Errorf("Len() after trim = %d, want 4 (last frame depth)", s.Len())
	}
	if s.Pointer() != 0 {
		t.Errorf("Pointer() = %d, want 0", s.Pointer())
	}
}

// P5
func TestTrimNeverBelowPointer(t *testing.T) {
	s, _ := newTestStack(t, Options{})
	for i := 0; i < 5; i++ {
		s.Top().AddQuad(quadAt(1, 1), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
		s.TrimQuadBatches()
		if s.Len() < s.Pointer()+1 {
			t.Fatalf("Len() = %d below Pointer()+1 = %d", s.Len(), s.Pointer()+1)
		}
	}
	// quiet frames shrink the stack, but only down to MinRetained
	s.PrepForNextFrame()
	s.PrepForNextFrame()
	s.TrimQuadBatches()
	if s.Len() != 1 {
		t.Errorf("Len() after quiet frames = %d, want 1", s.Len())
	}
}

func TestTrimKeepsMinRetained(t *testing.T) {
	s, _ := newTestStack(t, Options{MinRetained: 3})
	for i := 0; i < 6; i++ {
		s.Top().AddQuad(quadAt(1, 1), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
	}
	s.PrepForNextFrame()
	s.PrepForNextFrame()
	s.TrimQuadBatches()
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestTrimmedStackGrowsAgain(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	for i := 0; i < 4; i++ {
		s.Top().AddQuad(quadAt(1, 1), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
	}
	s.PrepForNextFrame()
	s.PrepForNextFrame()
	s.TrimQuadBatches()
	for i := 0; i < 4; i++ {
		s.Top().AddQuad(quadAt(1, 1), 0)
		if err := s.FinishQuadBatch(identity()); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
	if len(sink.subs) != 8 {
		t.Errorf("submissions = %d, want 8", len(sink.subs))
	}
}

func TestSlotLimit(t *testing.T) {
	s, sink := newTestStack(t, Options{MaxSlots: 2})
	s.Top().AddQuad(quadAt(1, 1), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatalf("first FinishQuadBatch() error = %v", err)
	}
	s.Top().AddQuad(quadAt(2, 2), 0)
	err := s.FinishQuadBatch(identity())
	if !errors.Is(err, ErrSlotLimit) {
		t.Fatalf("FinishQuadBatch() error = %v, want ErrSlotLimit", err)
	}
	// nothing dispatched, nothing lost
	if len(sink.subs) != 1 {
		t.Errorf("submissions = %d, want 1", len(sink.subs))
	}
	if s.Pointer() != 1 || s.Len() != 2 {
		t.Errorf("Pointer(), Len() = %d, %d, want 1, 2", s.Pointer(), s.Len())
	}
	if s.Top().QuadCount() != 1 {
		t.Errorf("top QuadCount() = %d, want 1", s.Top().QuadCount())
	}
}

func TestSingleSlotLimitRaised(t *testing.T) {
	s, sink := newTestStack(t, Options{MaxSlots: 1})
	s.Top().AddQuad(quadAt(1, 1), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatalf("FinishQuadBatch() error = %v, want nil", err)
	}
	if len(sink.subs) != 1 {
		t.Errorf("submissions = %d, want 1", len(sink.subs))
	}
	s.Top().AddQuad(quadAt(2, 2), 0)
	if err := s.FinishQuadBatch(identity()); !errors.Is(err, ErrSlotLimit) {
		t.Errorf("second FinishQuadBatch() error = %v, want ErrSlotLimit", err)
	}
}

func TestSinkErrorKeepsTop(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	boom := errors.New("device lost")
	sink.err = boom

	s.Top().AddQuad(quadAt(1, 1), 0)
	err := s.FinishQuadBatch(identity())
	if !errors.Is(err, boom) {
		t.Fatalf("FinishQuadBatch() error = %v, want %v", err, boom)
	}
	if s.Pointer() != 0 {
		t.Errorf("Pointer() = %d, want 0", s.Pointer())
	}
	if s.Top().QuadCount() != 1 {
		t.Errorf("top lost its geometry: QuadCount() = %d", s.Top().QuadCount())
	}

	sink.err = nil
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if len(sink.subs) != 1 || s.Pointer() != 1 {
		t.Errorf("retry: submissions = %d, pointer = %d, want 1, 1", len(sink.subs), s.Pointer())
	}
}

func TestStatePassedToSink(t *testing.T) {
	s, sink := newTestStack(t, Options{})
	v := s.Top()
	v.SetState(State{Scissor: true})
	v.AddQuad(quadAt(1, 1), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	if !sink.subs[0].state.Scissor {
		t.Error("sink did not receive the batch state")
	}
	if s.Top().State().Scissor {
		t.Error("new top inherited the previous state")
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestStack(t, Options{})
	v := s.Top()
	v.AddQuad(quadAt(1, 1), 0)
	v.AddQuad(quadAt(2, 2), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	s.Top().AddQuad(quadAt(3, 3), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	want := Stats{DrawCalls: 2, Quads: 3, Depth: 3}
	if got := s.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
	s.PrepForNextFrame()
	if got := s.LastFrameStats(); got != want {
		t.Errorf("LastFrameStats() = %+v, want %+v", got, want)
	}
	if got := s.Stats(); got != (Stats{Depth: 1}) {
		t.Errorf("Stats() after prep = %+v, want {Depth:1}", got)
	}
}

func TestSinkFunc(t *testing.T) {
	calls := 0
	s := New(SinkFunc(func(b *Batch, _ [16]float32) error {
		calls += b.QuadCount()
		return nil
	}), Options{})
	s.Top().AddQuad(quadAt(1, 1), 0)
	if err := s.FinishQuadBatch(identity()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("SinkFunc saw %d quads, want 1", calls)
	}
}

func BenchmarkSteadyStateFrame(b *testing.B) {
	s := New(SinkFunc(func(*Batch, [16]float32) error { return nil }), Options{QuadCapacity: 256})
	proj := identity()
	q := quadAt(1, 1)
	b.ReportAllocs()
	for b.Loop() {
		s.PrepForNextFrame()
		for batch := 0; batch < 8; batch++ {
			v := s.Top()
			for i := 0; i < 128; i++ {
				v.AddQuad(q, 0)
			}
			_ = s.FinishQuadBatch(proj)
		}
	}
}
