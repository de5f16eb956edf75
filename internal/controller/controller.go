// Package controller implements the Playback Controller from spec.md
// §4.13: it owns the demuxer, both decoders, the audio and video players,
// the shared sync controller and state manager, and runs the cooperating
// worker goroutines (DemuxTask, SeekTask) that move data through them.
//
// Grounded on controller_stream.go's decode/schedule goroutine pair,
// generalized from two goroutines coordinating through one channel into
// two goroutines coordinating through the player frame queues and the
// shared state manager — the same "avoid holding the mutex while blocking
// on I/O or timers" discipline the teacher's doc comment calls out.
//
// DemuxTask itself must read a packet and, in the very same step, decode
// it on the matching stream: reisen.Media.ReadPacket and
// *Stream.ReadVideoFrame/ReadAudioFrame share a single-slot per-stream
// handoff, not an independent packet queue (see
// controller_no_audio.go's internalReadVideoFrame and
// controller_yes_audio.go's internalReadAudioFrame, both of which call
// ReadPacket and the matching ReadXFrame back to back, never through a
// buffer another goroutine drains later). Buffering packet *tokens*
// ahead of decode in a separate queue serviced by other goroutines would
// let the shared reisen cursor run arbitrarily far ahead of the decode
// call meant to consume it, corrupting or skipping frames. So DemuxTask
// decodes synchronously, in its own goroutine, and hands decoded
// media.Frame values to the players' own frame queues, which already
// provide the cross-thread buffering and backpressure spec.md §4.12/§4.9
// call for downstream of decode.
package controller

import (
	"fmt"
	"sync/atomic"
	"time"

	"zenplay/internal/audiodevice"
	"zenplay/internal/audioplayer"
	"zenplay/internal/clock"
	"zenplay/internal/decode"
	"zenplay/internal/demux"
	"zenplay/internal/media"
	"zenplay/internal/render"
	"zenplay/internal/state"
	"zenplay/internal/videoplayer"
)

// seekRequest is one coalescable entry in the seek pipeline.
type seekRequest struct {
	targetMS      float64
	restoreToPlay bool // state to return to once the seek completes
}

// demuxSource is the subset of demux.Demuxer's API DemuxTask and SeekTask
// need, narrowed so tests can substitute a fake, container-less packet
// source instead of a real reisen-backed *demux.Demuxer. *demux.Demuxer
// satisfies this structurally; no change to package demux is needed.
type demuxSource interface {
	ReadPacket() (*media.Packet, bool, error)
	Seek(targetMS float64, dir demux.SeekDirection) error
	DurationMS() float64
}

// streamDecoder is the subset of decode.VideoDecoder's and
// decode.AudioDecoder's API DemuxTask needs; both satisfy it structurally.
type streamDecoder interface {
	Decode() (*media.Frame, bool, error)
	Flush()
}

// Controller wires together one open source's full pipeline.
type Controller struct {
	demuxer      demuxSource
	videoDecoder streamDecoder
	audioDecoder streamDecoder

	videoPlayer *videoplayer.Player
	audioPlayer *audioplayer.Player

	sync  *clock.Controller
	state *state.Manager

	seekRequests chan seekRequest
	stopCh       chan struct{}
	loopEnabled  int32 // atomic bool; read/written from any goroutine

	demuxDone chan struct{}
	seekDone  chan struct{}
}

// New constructs a Controller around an already-open demuxer and the
// rendering/audio output plumbing the caller negotiated. device may be nil
// if the source has no audio stream.
func New(
	d *demux.Demuxer,
	syncCtl *clock.Controller,
	stateMgr *state.Manager,
	proxy *render.Proxy,
	device audiodevice.Device,
	requestedAudioFormat audiodevice.Format,
) (*Controller, error) {
	c := &Controller{
		demuxer:      d,
		sync:         syncCtl,
		state:        stateMgr,
		seekRequests: make(chan seekRequest, 1),
		stopCh:       make(chan struct{}),
		demuxDone:    make(chan struct{}),
		seekDone:     make(chan struct{}),
	}

	if d.HasVideo() {
		c.videoDecoder = decode.NewVideoDecoder(d.VideoStream())
		c.videoPlayer = videoplayer.New(syncCtl, stateMgr, proxy)
	}
	if d.HasAudio() {
		c.audioDecoder = decode.NewAudioDecoder(d.AudioStream())
		c.audioPlayer = audioplayer.New(syncCtl, stateMgr)
		if device != nil {
			if err := c.audioPlayer.Start(device, requestedAudioFormat); err != nil {
				return nil, fmt.Errorf("controller: start audio device: %w", err)
			}
		}
	}

	return c, nil
}

// Run starts the demux/seek worker goroutines plus the video player's
// render thread. Call once, after the state manager has already
// transitioned out of Opening.
func (c *Controller) Run() {
	if c.videoPlayer != nil {
		c.videoPlayer.Run()
	}

	go c.demuxTask()
	go c.seekTask()
}

// demuxTask is DemuxTask from spec.md §4.13: it is the only goroutine that
// ever calls ReadPacket, and it decodes each packet on the matching
// stream immediately, before reading the next one, per reisen's
// single-slot packet/frame handoff (see the package doc comment). The
// decoded frame is then handed to that stream's player queue, which is
// where the cross-thread buffering and backpressure actually live. On
// end-of-stream it either loops back to the start (if enabled) or settles
// the engine into Stopped, per handleEndOfStream.
func (c *Controller) demuxTask() {
	defer close(c.demuxDone)

	for {
		if c.state.ShouldStop() {
			c.sentinelBoth()
			return
		}
		if c.state.ShouldPause() {
			c.state.WaitForResume(50 * time.Millisecond)
			continue
		}

		pkt, ok, err := c.demuxer.ReadPacket()
		if err != nil {
			c.sentinelBoth()
			return
		}
		if !ok {
			c.sentinelBoth() // end of stream
			if c.handleEndOfStream() {
				continue // looped: demuxer has been rewound to the start
			}
			return
		}
		if pkt == nil {
			continue // not one of our active streams
		}

		switch pkt.Kind {
		case media.StreamVideo:
			if c.videoDecoder == nil {
				continue
			}
			frame, found, err := c.videoDecoder.Decode()
			if err != nil || !found {
				continue
			}
			c.videoPlayer.PushFrameBlocking(frame)
		case media.StreamAudio:
			if c.audioDecoder == nil {
				continue
			}
			frame, found, err := c.audioDecoder.Decode()
			if err != nil || !found {
				continue
			}
			c.audioPlayer.PushFrame(frame)
		}
	}
}

// handleEndOfStream runs on the demux goroutine once the source is
// exhausted. It reports whether demuxTask should keep reading (true,
// after rewinding to the start) or exit (false, either because playback
// is already stopping or because looping is off and the engine should
// settle into Stopped). Reuses performSeek directly — the same seek
// machinery SeekAsync drives — rather than a second "restart" path;
// calling it synchronously here is safe since demuxTask is the only
// goroutine that ever touches the demuxer for reading.
func (c *Controller) handleEndOfStream() bool {
	if c.state.ShouldStop() || !c.state.IsPlaying() {
		return false
	}
	if !c.GetLoopEnabled() {
		c.state.TransitionToStopped()
		return false
	}
	c.performSeek(seekRequest{targetMS: 0, restoreToPlay: true})
	return true
}

// sentinelBoth pushes a nil frame to each active player's queue, the
// end-of-stream marker videoplayer.Player.renderLoop and
// audioplayer.Player's fill loop already know to treat as "nothing new"
// rather than real data.
func (c *Controller) sentinelBoth() {
	if c.videoPlayer != nil {
		c.videoPlayer.PushFrameBlocking(nil)
	}
	if c.audioPlayer != nil {
		c.audioPlayer.PushFrame(nil)
	}
}

// SeekAsync enqueues a seek request, coalescing with any not-yet-serviced
// request already pending (spec.md §4.13's "collapses rapid slider drags").
func (c *Controller) SeekAsync(targetMS float64) {
	restoreToPlay := c.state.IsPlaying() || c.state.IsSeeking()
	req := seekRequest{targetMS: targetMS, restoreToPlay: restoreToPlay}

	select {
	case <-c.seekRequests:
	default:
	}
	select {
	case c.seekRequests <- req:
	default:
	}
}

// seekTask is SeekTask: services coalesced seek requests, running the
// eight-step pre-seek/rewind/post-seek sequence spec.md §4.13 lists. It
// selects on stopCh rather than ranging over seekRequests so that Stop can
// signal shutdown without racing a concurrent SeekAsync send on the same
// channel (spec.md §5: "Seek during shutdown is a no-op").
func (c *Controller) seekTask() {
	defer close(c.seekDone)

	for {
		select {
		case <-c.stopCh:
			return
		case req := <-c.seekRequests:
			if c.state.ShouldStop() {
				return
			}
			c.performSeek(req)
		}
	}
}

func (c *Controller) performSeek(req seekRequest) {
	c.state.TransitionToSeeking()

	if c.videoPlayer != nil {
		c.videoPlayer.PreSeek()
	}
	if c.audioPlayer != nil {
		c.audioPlayer.Flush()
	}

	if err := c.demuxer.Seek(req.targetMS, demux.SeekBackward); err != nil {
		// Seeking has no edge to Error; return to the pre-seek state.
		if req.restoreToPlay {
			c.state.TransitionToPlaying()
		} else {
			c.state.TransitionToPaused()
		}
		return
	}

	if c.videoDecoder != nil {
		c.videoDecoder.Flush()
	}
	if c.audioDecoder != nil {
		c.audioDecoder.Flush()
	}

	c.sync.ResetForSeek(req.targetMS, time.Now())

	if c.videoPlayer != nil {
		c.videoPlayer.PostSeek()
	}

	if req.restoreToPlay {
		c.state.TransitionToPlaying()
	} else {
		c.state.TransitionToPaused()
	}
}

// Stop signals every worker to exit and waits for them to do so.
func (c *Controller) Stop() {
	c.state.TransitionToStopped()
	if c.videoPlayer != nil {
		c.videoPlayer.Stop()
	}
	if c.audioPlayer != nil {
		_ = c.audioPlayer.Stop()
	}
	close(c.stopCh)

	<-c.demuxDone
	<-c.seekDone
}

// SetLoopEnabled controls whether natural end-of-stream restarts playback
// from the beginning instead of transitioning to Stopped, per the looping
// convenience spec.md's config surface presupposes.
func (c *Controller) SetLoopEnabled(enabled bool) {
	v := int32(0)
	if enabled {
		v = 1
	}
	atomic.StoreInt32(&c.loopEnabled, v)
}

// GetLoopEnabled reports the current loop setting.
func (c *Controller) GetLoopEnabled() bool {
	return atomic.LoadInt32(&c.loopEnabled) != 0
}

// DurationMS exposes the demuxer's duration for the facade's GetDuration.
func (c *Controller) DurationMS() float64 {
	return c.demuxer.DurationMS()
}

// SetVolume sets the audio player's output gain. No-op on a video-only source.
func (c *Controller) SetVolume(v float64) {
	if c.audioPlayer != nil {
		c.audioPlayer.SetVolume(v)
	}
}

// GetVolume reports the audio player's output gain, or 0 on a video-only source.
func (c *Controller) GetVolume() float64 {
	if c.audioPlayer == nil {
		return 0
	}
	return c.audioPlayer.GetVolume()
}

// SetMuted mutes or unmutes the audio player. No-op on a video-only source.
func (c *Controller) SetMuted(muted bool) {
	if c.audioPlayer != nil {
		c.audioPlayer.SetMuted(muted)
	}
}

// GetMuted reports the audio player's mute state; true (muted) on a
// video-only source, matching HasAudio()-gated callers' expectations.
func (c *Controller) GetMuted() bool {
	if c.audioPlayer == nil {
		return true
	}
	return c.audioPlayer.GetMuted()
}
