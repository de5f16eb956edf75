// Package audioplayer implements the audio player from spec.md §4.9: a
// bounded frame queue feeding a pull-mode output callback that resamples,
// tracks the submitted-playback PTS by sample count (never wall clock),
// and drives the sync controller's audio clock.
package audioplayer

import (
	"time"

	"zenplay/internal/audiodevice"
	"zenplay/internal/clock"
	"zenplay/internal/media"
	"zenplay/internal/queue"
	"zenplay/internal/resample"
	"zenplay/internal/state"
)

// DefaultQueueCapacity is spec.md §4.9's sizing note: a ~3s frame queue
// alongside a ~1s device buffer is stable across the targeted formats.
// At typical frame sizes (e.g. 1024 samples @ 44.1kHz ~= 23ms/frame) 150
// queued frames is roughly 3.5s, matching the "e.g. 150" example value.
const DefaultQueueCapacity = 150

// Player owns the audio frame queue and drives one audiodevice.Device's
// pull callback. Grounded on controller_yes_audio.go's Read(buffer)
// method (the same pull shape, generalized from a single hardcoded
// resample target into the device's negotiated format) plus its
// base-pts/sample-counter bookkeeping pattern for position reporting.
type Player struct {
	frames *queue.Queue[*media.Frame]

	device   audiodevice.Device
	resample *resample.Resampler
	sync     *clock.Controller
	state    *state.Manager

	format audiodevice.Format

	basePtsMS                 float64
	samplesSubmittedSinceBase int64
}

// New creates a Player bound to the shared sync controller and state
// manager. Call Start once Open has negotiated the device format.
func New(syncCtl *clock.Controller, stateMgr *state.Manager) *Player {
	return &Player{
		frames: queue.New[*media.Frame](DefaultQueueCapacity),
		sync:   syncCtl,
		state:  stateMgr,
	}
}

// Start opens the device at requestedFormat, creates the resampler
// targeting whatever format the device actually negotiated, and begins
// the pull callback.
func (p *Player) Start(device audiodevice.Device, requestedFormat audiodevice.Format) error {
	actual, err := device.Open(requestedFormat)
	if err != nil {
		return err
	}
	p.device = device
	p.format = actual
	p.resample = resample.New(resample.Format{
		SampleRate: actual.SampleRate,
		Channels:   actual.Channels,
		Float32:    true,
	})
	return device.Start(p.fill)
}

// PushFrame blocks until space is available in the frame queue or the
// player is stopped, per spec.md §4.9.
func (p *Player) PushFrame(frame *media.Frame) bool {
	return p.frames.Push(frame, 0)
}

// CurrentSubmittedPtsMS is base_pts_ms + samples_submitted_since_base /
// sample_rate * 1000, the formula spec.md §4.9 specifies verbatim.
func (p *Player) CurrentSubmittedPtsMS() float64 {
	if p.format.SampleRate == 0 {
		return p.basePtsMS
	}
	return p.basePtsMS + float64(p.samplesSubmittedSinceBase)/float64(p.format.SampleRate)*1000
}

// fill is the FillFunc passed to audiodevice.Device.Start: the platform
// audio thread asks for exactly len(buf) bytes, which this always
// populates in full (step 1 of spec.md §4.9's callback algorithm).
func (p *Player) fill(buf []byte) int {
	if p.state.ShouldPause() {
		zero(buf)
		return len(buf)
	}

	filled := 0
	hadRealData := false

	for filled < len(buf) {
		n := p.drainResidualInto(buf[filled:])
		if n > 0 {
			filled += n
			hadRealData = true
			continue
		}

		if !p.loadNextFrame() {
			// underrun: nothing more buffered or queued right now
			zero(buf[filled:])
			filled = len(buf)
			break
		}
	}

	if hadRealData {
		now := time.Now()
		p.sync.UpdateAudioClock(p.CurrentSubmittedPtsMS(), now)
	}
	return filled
}

// drainResidualInto copies already-resampled bytes into dst, advancing the
// sample-counter accounting for exactly the bytes it hands over.
func (p *Player) drainResidualInto(dst []byte) int {
	if p.resample == nil || p.resample.Pending() == 0 {
		return 0
	}
	chunk := p.resample.TakeOutput(len(dst))
	copy(dst, chunk)

	bytesPerFrame := p.format.Channels * 4 // output is always float32
	if bytesPerFrame > 0 {
		p.samplesSubmittedSinceBase += int64(len(chunk) / bytesPerFrame)
	}
	return len(chunk)
}

// loadNextFrame pops the next queued frame without blocking (the output
// callback runs on the platform audio thread and must never stall it),
// resamples it in full into the resampler's residual buffer, and rebases
// the PTS accounting to that frame's presentation timestamp — applied at
// the moment its first sample is handed to the device, per spec.md §4.9's
// base-PTS update rule.
func (p *Player) loadNextFrame() bool {
	frame, ok := p.frames.TryPop()
	if !ok || frame == nil {
		return false
	}

	p.basePtsMS = frame.PresentationMS
	p.samplesSubmittedSinceBase = 0

	srcFormat := resample.Format{
		SampleRate: frame.SampleRate,
		Channels:   frame.Channels,
		Float32:    true,
	}
	if _, err := p.resample.Convert(srcFormat, frame.Samples); err != nil {
		return false
	}
	return true
}

// Flush drops queued frames and resets the resampler, used by the
// controller's seek handling.
func (p *Player) Flush() {
	p.frames.Clear(func(*media.Frame) {})
	if p.resample != nil {
		p.resample.Reset()
	}
	p.basePtsMS = 0
	p.samplesSubmittedSinceBase = 0
}

// Stop tears down the device.
func (p *Player) Stop() error {
	p.frames.Stop()
	if p.device == nil {
		return nil
	}
	return p.device.Stop()
}

// SetVolume sets the linear output gain in [0, 1]. Kept on the audio
// player's own surface (rather than being hidden in audiodevice) because
// spec.md's "player.audio.volume" config key presupposes a volume control
// exists, matching controller_yes_audio.go's SetVolume/GetVolume pair.
func (p *Player) SetVolume(v float64) {
	if p.device != nil {
		p.device.SetVolume(v)
	}
}

// GetVolume reports the last volume set, or 0 before Start.
func (p *Player) GetVolume() float64 {
	if p.device == nil {
		return 0
	}
	return p.device.Volume()
}

// SetMuted mutes or unmutes output without discarding the configured volume.
func (p *Player) SetMuted(muted bool) {
	if p.device != nil {
		p.device.SetMuted(muted)
	}
}

// GetMuted reports the current mute state. Returns true before Start,
// matching the teacher's "no audio => muted" convention.
func (p *Player) GetMuted() bool {
	if p.device == nil {
		return true
	}
	return p.device.Muted()
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
