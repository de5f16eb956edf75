package videoplayer

import (
	"testing"
	"time"

	"zenplay/internal/clock"
	"zenplay/internal/media"
	"zenplay/internal/render"
	"zenplay/internal/state"
)

type fakeRenderer struct {
	rendered []*media.Frame
	presents int
}

func (f *fakeRenderer) Init(uintptr, int, int) error { return nil }
func (f *fakeRenderer) RenderFrame(frame *media.Frame) error {
	f.rendered = append(f.rendered, frame)
	return nil
}
func (f *fakeRenderer) Present() error         { f.presents++; return nil }
func (f *fakeRenderer) OnResize(int, int) error { return nil }
func (f *fakeRenderer) Clear() error           { return nil }
func (f *fakeRenderer) Cleanup() error         { return nil }

type fakeSurface struct{ released int }

func (s *fakeSurface) Release()          { s.released++ }
func (s *fakeSurface) SampleHandle() any { return nil }

func newTestPlayer(t *testing.T) (*Player, *fakeRenderer) {
	t.Helper()
	inner := &fakeRenderer{}
	proxy := render.NewProxy(inner)
	go proxy.Run()

	syncCtl := clock.New()
	syncCtl.Start(time.Now())
	mgr := state.New()
	mgr.TransitionToOpening()
	mgr.TransitionToStopped()
	mgr.TransitionToPlaying()

	return New(syncCtl, mgr, proxy), inner
}

func TestPushFrameBlockingAcceptsUnderWatermark(t *testing.T) {
	p, _ := newTestPlayer(t)
	for i := 0; i < DefaultHighWatermark; i++ {
		if !p.PushFrameBlocking(&media.Frame{Kind: media.StreamVideo, PresentationMS: float64(i)}) {
			t.Fatalf("push %d unexpectedly failed below the watermark", i)
		}
	}
}

func TestPushFrameBlockingBlocksAtWatermarkUntilDrained(t *testing.T) {
	p, _ := newTestPlayer(t)
	for i := 0; i < DefaultHighWatermark; i++ {
		p.PushFrameBlocking(&media.Frame{Kind: media.StreamVideo})
	}

	blocked := make(chan bool, 1)
	go func() {
		blocked <- p.PushFrameBlocking(&media.Frame{Kind: media.StreamVideo})
	}()

	select {
	case <-blocked:
		t.Fatal("push at watermark should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	p.frames.Pop(0)

	select {
	case ok := <-blocked:
		if !ok {
			t.Fatal("expected push to eventually succeed")
		}
	case <-time.After(time.Second):
		t.Fatal("push never unblocked after drain")
	}
}

func TestDisplayOrDropRendersAndReleasesFrame(t *testing.T) {
	p, inner := newTestPlayer(t)
	surface := &fakeSurface{}
	frame := &media.Frame{
		Kind:           media.StreamVideo,
		PresentationMS: 0,
		Hardware:       true,
		Surface:        surface,
	}

	p.displayOrDrop(frame)

	if surface.released != 1 {
		t.Fatalf("expected surface released exactly once, got %d", surface.released)
	}
	if len(inner.rendered) != 1 || inner.presents != 1 {
		t.Fatalf("expected one render+present, got rendered=%d presents=%d", len(inner.rendered), inner.presents)
	}
}

func TestDisplayOrDropSkipsRenderOnDrop(t *testing.T) {
	p, inner := newTestPlayer(t)
	// The first audio update only sets the normalization base; the second
	// moves the master clock ~10s past the frame, so the frame is late.
	now := time.Now()
	p.sync.UpdateAudioClock(0, now)
	p.sync.UpdateAudioClock(10_000, now)

	surface := &fakeSurface{}
	frame := &media.Frame{Hardware: true, Surface: surface, PresentationMS: 0}
	p.displayOrDrop(frame)

	if surface.released != 1 {
		t.Fatalf("expected release even when dropped, got %d", surface.released)
	}
	if len(inner.rendered) != 0 {
		t.Fatalf("expected no render call on drop, got %d", len(inner.rendered))
	}
}

func TestPreSeekDrainsAndReleasesQueuedFrames(t *testing.T) {
	p, _ := newTestPlayer(t)
	surfaces := []*fakeSurface{{}, {}, {}}
	for _, s := range surfaces {
		p.PushFrameBlocking(&media.Frame{Hardware: true, Surface: s})
	}

	p.PreSeek()

	for i, s := range surfaces {
		if s.released != 1 {
			t.Fatalf("surface %d not released during PreSeek", i)
		}
	}
	if p.frames.Len() != 0 {
		t.Fatalf("expected queue empty after PreSeek, got %d", p.frames.Len())
	}
	if !p.PushFrameBlocking(&media.Frame{}) {
		t.Fatal("expected queue reopened and accepting pushes after PreSeek")
	}
}

func TestStopHaltsRenderLoop(t *testing.T) {
	p, _ := newTestPlayer(t)
	p.Run()
	p.Stop()

	select {
	case <-p.doneCh:
	default:
		t.Fatal("expected render loop goroutine to have exited after Stop")
	}
}
