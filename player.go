// Package zenplay is a desktop media playback engine: demux, decode,
// sync, and render a local file or network stream, built around
// github.com/erparts/reisen and github.com/hajimehoshi/ebiten/v2.
//
// Usage mirrors the teacher's own Player type:
//   - Create one with NewPlayer.
//   - Call Open with a source URL and a window handle.
//   - Call Play; Pause and Stop control it from there.
//   - Register a state-change callback to learn about async transitions,
//     including the completion of a SeekAsync seek.
package zenplay

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"zenplay/config"
	"zenplay/internal/audiodevice"
	"zenplay/internal/clock"
	"zenplay/internal/controller"
	"zenplay/internal/demux"
	"zenplay/internal/render"
	"zenplay/internal/state"
)

// Player is the public API facade from spec.md §4.14, wiring every
// internal package into one open-source-at-a-time session. Grounded on
// the teacher's own Player type and its NewPlayer/Play/Pause/Stop/Seek/
// Close/Position/Duration shape, rewired onto the multi-threaded demux/
// decode/sync/render pipeline instead of polling a single controller
// directly from the caller's goroutine.
type Player struct {
	mu sync.Mutex

	config config.Source
	state  *state.Manager
	sync   *clock.Controller

	demuxer     *demux.Demuxer
	controller  *controller.Controller
	renderProxy *render.Proxy
	softwareR   *render.SoftwareRenderer
}

// NewPlayer creates a Player in the Idle state. cfg may be nil, in which
// case spec.md §6's documented defaults are used.
func NewPlayer(cfg config.Source) *Player {
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Player{
		config: cfg,
		state:  state.New(),
		sync:   clock.New(),
	}
}

// RegisterStateChangeCallback re-exports the state manager's observer API,
// translating its internal PlayerState into the exported one.
func (p *Player) RegisterStateChangeCallback(fn StateChangeFunc) StateChangeHandle {
	return p.state.RegisterStateChangeCallback(func(old, new state.PlayerState) {
		fn(exportState(old), exportState(new))
	})
}

// UnregisterStateChangeCallback re-exports the state manager's observer API.
func (p *Player) UnregisterStateChangeCallback(h StateChangeHandle) {
	p.state.UnregisterStateChangeCallback(h)
}

// State returns the player's current unified state.
func (p *Player) State() PlayerState {
	return exportState(p.state.GetState())
}

// RunRenderProxy pumps the renderer proxy's cross-thread task queue. Call
// this from the goroutine that owns the native graphics thread (for an
// ebiten host, wherever ebiten.RunGame blocks) and keep it running for
// the life of the window; Close unblocks it. This is the "App/UI thread"
// role from spec.md §5's thread table.
func (p *Player) RunRenderProxy() {
	p.mu.Lock()
	proxy := p.renderProxy
	p.mu.Unlock()
	if proxy != nil {
		proxy.Run()
	}
}

// BindViewport sets the destination image the software render path draws
// into on each Present. No-op on the hardware path or before Open.
func (p *Player) BindViewport(viewport *ebiten.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.softwareR != nil {
		p.softwareR.BindViewport(viewport)
	}
}

// Open wires up the full pipeline for sourceURL: Idle -> Opening ->
// (Stopped | Error). The render path (spec.md §4.11) is chosen after the
// demuxer is open, since the choice needs the decoded stream's codec and
// dimensions.
func (p *Player) Open(sourceURL string, windowHandle uintptr, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.TransitionToOpening() {
		return Newf(AlreadyRunning, "Open called from state %s", p.state.GetState())
	}

	d, err := demux.Open(sourceURL)
	if err != nil {
		p.state.TransitionToError()
		return Wrap(IOOpenFailed, "open "+sourceURL, err)
	}

	renderer, _ := p.chooseRenderPath(d)
	if sw, ok := renderer.(*render.SoftwareRenderer); ok {
		p.softwareR = sw
	}
	proxy := render.NewProxy(renderer)
	if err := proxy.Init(true, windowHandle, width, height); err != nil {
		_ = d.Close()
		p.state.TransitionToError()
		return Wrap(HardwareDeviceUnavailable, "initialize renderer", err)
	}

	if d.HasAudio() {
		p.sync.SetMasterMode(clock.AudioMaster)
	} else {
		p.sync.SetMasterMode(clock.ExternalMaster)
	}
	p.sync.Start(time.Now())

	var device audiodevice.Device
	var format audiodevice.Format
	if d.HasAudio() {
		sampleRate := p.config.GetInt(config.KeyAudioSampleRate, 44100)
		channels := p.config.GetInt(config.KeyAudioChannels, 2)
		if err := audiodevice.EnsureContext(sampleRate); err != nil {
			_ = d.Close()
			_ = proxy.Cleanup(true)
			p.state.TransitionToError()
			return Wrap(AudioDeviceInitFailed, "create audio context", err)
		}
		device = audiodevice.NewEbitenDevice()
		format = audiodevice.Format{SampleRate: sampleRate, Channels: channels}
	}

	ctrl, err := controller.New(d, p.sync, p.state, proxy, device, format)
	if err != nil {
		_ = d.Close()
		_ = proxy.Cleanup(true)
		p.state.TransitionToError()
		return Wrap(AudioDeviceInitFailed, "build playback pipeline", err)
	}

	p.demuxer = d
	p.controller = ctrl
	p.renderProxy = proxy

	if !p.state.TransitionToStopped() {
		return Newf(Unknown, "unexpected state %s after Open", p.state.GetState())
	}
	ctrl.Run()
	return nil
}

// Play transitions Stopped|Paused -> Playing.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return New(NotInitialized, "Play called before Open")
	}
	wasStopped := p.state.GetState() == state.Stopped
	if !p.state.TransitionToPlaying() {
		return Newf(InvalidArgument, "Play invalid from state %s", p.state.GetState())
	}
	now := time.Now()
	p.sync.Resume(now)
	if wasStopped {
		p.sync.Start(now)
	}
	return nil
}

// Pause transitions Playing -> Paused. The audio device enters its pause
// mode (writes silence) and the sync clock freezes, per spec.md §4.3.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return New(NotInitialized, "Pause called before Open")
	}
	if !p.state.TransitionToPaused() {
		return Newf(InvalidArgument, "Pause invalid from state %s", p.state.GetState())
	}
	p.sync.Pause(time.Now())
	return nil
}

// Stop transitions any ready state -> Stopped and joins all workers.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller != nil {
		p.controller.Stop()
	}
	p.state.TransitionToStopped()
	return nil
}

// SeekAsync enqueues a seek request and returns immediately; the state
// transitions into Seeking asynchronously, and the caller learns of
// completion via the state-change callback, per spec.md §4.14.
func (p *Player) SeekAsync(target time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return New(NotInitialized, "SeekAsync called before Open")
	}
	p.controller.SeekAsync(float64(target.Milliseconds()))
	return nil
}

// Close tears down every component and returns to Idle. Safe to call more
// than once.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.controller != nil {
		p.controller.Stop()
	}
	if p.renderProxy != nil {
		_ = p.renderProxy.Cleanup(true)
	}
	if p.demuxer != nil {
		_ = p.demuxer.Close()
	}

	p.controller = nil
	p.renderProxy = nil
	p.softwareR = nil
	p.demuxer = nil

	if p.state.GetState() != state.Idle {
		p.state.TransitionToStopped()
		p.state.TransitionToIdle()
	}
	return nil
}

// GetCurrentTime returns the absolute media position: the master clock's
// current value plus whichever stream's normalization base anchors it —
// audio's, if the source has an audio track, video's otherwise — per
// spec.md §4.14. It is never reset to zero across a seek.
func (p *Player) GetCurrentTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	master := p.sync.GetMasterClock(now)

	var base float64
	if p.demuxer != nil && p.demuxer.HasAudio() {
		base = p.sync.AudioNormalizationBaseMS()
	} else {
		base = p.sync.VideoNormalizationBaseMS()
	}

	return time.Duration((master + base) * float64(time.Millisecond))
}

// GetDuration returns the demuxed source's total duration, or 0 before Open.
func (p *Player) GetDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.demuxer == nil {
		return 0
	}
	return time.Duration(p.demuxer.DurationMS() * float64(time.Millisecond))
}

// SetVolume sets the audio output gain in [0, 1]. No-op on a video-only
// source, per spec.md's volume/mute surface.
func (p *Player) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return New(NotInitialized, "SetVolume called before Open")
	}
	p.controller.SetVolume(v)
	return nil
}

// GetVolume reports the current output gain, or 0 before Open.
func (p *Player) GetVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return 0
	}
	return p.controller.GetVolume()
}

// SetMuted mutes or unmutes audio output without discarding the
// configured volume.
func (p *Player) SetMuted(muted bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return New(NotInitialized, "SetMuted called before Open")
	}
	p.controller.SetMuted(muted)
	return nil
}

// GetMuted reports the current mute state; true before Open.
func (p *Player) GetMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return true
	}
	return p.controller.GetMuted()
}

// SetLoopEnabled controls whether reaching end-of-stream restarts
// playback from the beginning instead of transitioning to Stopped.
func (p *Player) SetLoopEnabled(enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return New(NotInitialized, "SetLoopEnabled called before Open")
	}
	p.controller.SetLoopEnabled(enabled)
	return nil
}

// GetLoopEnabled reports the current loop setting; false before Open.
func (p *Player) GetLoopEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.controller == nil {
		return false
	}
	return p.controller.GetLoopEnabled()
}
