// Package videoplayer implements the video player from spec.md §4.12: a
// bounded frame queue with high-watermark backpressure, a dedicated
// render thread (never the UI thread) that applies the clock package's
// wait/display/drop scheduling policy, and pre/post-seek frame draining.
package videoplayer

import (
	"time"

	"zenplay/internal/clock"
	"zenplay/internal/media"
	"zenplay/internal/queue"
	"zenplay/internal/render"
	"zenplay/internal/state"
)

// DefaultQueueCapacity is spec.md §4.12's example video queue depth.
const DefaultQueueCapacity = 30

// DefaultHighWatermark is 75% of DefaultQueueCapacity, the backpressure
// point spec.md §4.12 names as an example.
const DefaultHighWatermark = (DefaultQueueCapacity * 3) / 4

// Player owns the video frame queue and its dedicated render thread.
// Grounded on controller_stream.go's scheduleLoop: the same wall-clock-
// aligned display-or-wait logic, generalized from a single hardcoded
// jitter threshold into the clock package's three-way wait/display/drop
// policy, and from an unbounded channel into a capacity-enforced,
// watermark-backpressured queue.
type Player struct {
	frames *queue.Queue[*media.Frame]

	sync    *clock.Controller
	state   *state.Manager
	proxy   *render.Proxy
	started bool

	highWatermark int

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Player driven by the shared sync controller, state
// manager, and renderer proxy.
func New(syncCtl *clock.Controller, stateMgr *state.Manager, proxy *render.Proxy) *Player {
	return &Player{
		frames:        queue.New[*media.Frame](DefaultQueueCapacity),
		sync:          syncCtl,
		state:         stateMgr,
		proxy:         proxy,
		highWatermark: DefaultHighWatermark,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// PushFrameBlocking blocks while the queue's occupancy is at or above the
// high-watermark, then enqueues frame — the single backpressure point for
// video, per spec.md §4.12. It does not itself retry or timed-poll; a
// blocked push here is exactly the backpressure signal the decode task is
// supposed to observe and stop on.
func (p *Player) PushFrameBlocking(frame *media.Frame) bool {
	return p.frames.PushBelowWatermark(frame, p.highWatermark, 0)
}

// Run starts the dedicated render thread. Must be called once, from a
// goroutine that is never the UI thread (proxy calls from here always
// pass isUIThread=false).
func (p *Player) Run() {
	if p.started {
		return
	}
	p.started = true
	go p.renderLoop()
}

func (p *Player) renderLoop() {
	defer close(p.doneCh)

	for {
		if p.state.ShouldStop() {
			return
		}
		if p.state.ShouldPause() {
			// must not update the video clock while paused, per spec.md §4.12
			p.state.WaitForResume(0)
			continue
		}

		frame, ok := p.frames.Pop(100 * time.Millisecond)
		if !ok {
			if p.frames.Stopped() && p.frames.Len() == 0 {
				return
			}
			continue
		}
		if frame == nil {
			continue // sentinel EOF marker from the demux task
		}

		p.displayOrDrop(frame)
	}
}

// displayOrDrop applies the §4.3 scheduling policy to one frame, releasing
// its resources exactly once regardless of the decision taken (the
// ownership-transfer contract media.Frame.Release documents).
func (p *Player) displayOrDrop(frame *media.Frame) {
	defer frame.Release()

	now := time.Now()
	offset := p.sync.CalculateVideoDelay(frame.PresentationMS, now)
	decision, wait := p.sync.Schedule(offset)
	p.sync.ReportSyncOffset(offset)

	switch decision {
	case clock.DecisionDrop:
		return
	case clock.DecisionWait:
		select {
		case <-p.stopCh:
			return
		case <-time.After(wait):
		}
		if p.state.ShouldStop() {
			return
		}
	}

	p.sync.UpdateVideoClock(frame.PresentationMS, time.Now())
	if err := p.proxy.RenderFrame(false, frame); err != nil {
		return
	}
	_ = p.proxy.Present(false)
}

// PreSeek drains and discards queued frames, releasing each one's
// hardware-surface hold, per spec.md §4.12.
func (p *Player) PreSeek() {
	p.frames.Clear(func(f *media.Frame) {
		if f != nil {
			f.Release()
		}
	})
	p.frames.Reopen()
}

// PostSeek re-enables rendering after a seek completes. There is nothing
// to restore beyond the queue already being reopened by PreSeek; this
// method exists so the controller's seek sequence has an explicit,
// named post-seek hook matching spec.md §4.12.
func (p *Player) PostSeek() {}

// Stop halts the render thread and waits for it to exit.
func (p *Player) Stop() {
	p.frames.Stop()
	close(p.stopCh)
	if p.started {
		<-p.doneCh
	}
}
