// Package audiodevice implements the platform audio output abstraction
// from spec.md §4.8: Open/Start/Stop/Pause/Resume/Close plus a pull
// callback the platform audio thread invokes to fill a buffer, and an
// occupancy query used to compensate the audio clock for submission-vs-
// playback latency.
package audiodevice

import (
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Format is the negotiated PCM format: float32 interleaved samples with
// Channels channels at SampleRate, the one format this engine's resampler
// ever targets.
type Format struct {
	SampleRate int
	Channels   int
}

// FillFunc is the pull callback spec.md §4.8 describes: the device asks
// for exactly len(buf) bytes of PCM, which the caller must fully
// populate (writing silence itself if there isn't enough real data —
// the device never does partial reads).
type FillFunc func(buf []byte) (n int)

// Device is the platform audio output contract. The ebiten-backed
// implementation below is the only one in this module, but the seam
// exists so a future platform backend (e.g. a native WASAPI/CoreAudio
// binding) can replace it without touching audioplayer.
type Device interface {
	Open(requested Format) (actual Format, err error)
	Start(fill FillFunc) error
	Stop() error
	Pause() error
	Resume() error
	Close() error
	// BufferedFrames reports the device's current output-buffer
	// occupancy, for the audio player's latency compensation. Returns
	// (0, false) if the backend can't report it.
	BufferedFrames() (n int, ok bool)

	// SetVolume sets the linear output gain in [0, 1]. Safe to call
	// before Start; takes effect once the device is running.
	SetVolume(v float64)
	// Volume reports the most recently set gain, independent of mute.
	Volume() float64
	// SetMuted silences output without discarding the configured volume.
	SetMuted(muted bool)
	// Muted reports the current mute state.
	Muted() bool
}

// playerBufferSize matches the teacher's own constant name and role:
// ebiten's audio.Player internal ring buffer size, which is what
// BufferedFrames reports against.
const playerBufferSize = 1 << 15 // 32 KiB, ~93ms at 44.1kHz stereo float32... sized generously for the ~10-100ms spec.md expects to observe

// ebitenDevice adapts ebiten's io.Reader-driven audio.Player to the pull
// FillFunc contract. Grounded on controller_yes_audio.go's
// noLockCreateAudioPlayer: audio.CurrentContext().NewPlayer wraps an
// io.Reader whose Read(buf) IS the platform callback — ebiten's player
// already implements exactly the shape spec.md §4.8 asks for, just named
// differently (io.Reader instead of "fill callback").
type ebitenDevice struct {
	mu     sync.Mutex
	format Format
	player *audio.Player
	fill   FillFunc
	closed bool
	volume float64
	muted  bool
}

// NewEbitenDevice constructs an unopened Device bound to ebiten's
// current audio context. audio.NewContext must already have been called
// (e.g. via audiodevice.EnsureContext) before Open.
func NewEbitenDevice() Device {
	return &ebitenDevice{volume: 1.0}
}

// EnsureContext creates ebiten's global audio context at sampleRate if one
// doesn't already exist, mirroring CreateAudioContextForMedia's
// once-per-process guard in audio_context.go.
func EnsureContext(sampleRate int) error {
	if audio.CurrentContext() != nil {
		return nil
	}
	_ = audio.NewContext(sampleRate)
	return nil
}

type readerAdapter struct {
	d *ebitenDevice
}

// Read implements io.Reader by delegating to the device's registered
// FillFunc, matching the push-from-ebiten, pull-from-us inversion the
// teacher's controller already relies on.
func (r readerAdapter) Read(buf []byte) (int, error) {
	r.d.mu.Lock()
	fill := r.d.fill
	closed := r.d.closed
	r.d.mu.Unlock()

	if closed {
		return 0, io.EOF
	}
	if fill == nil {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}
	return fill(buf), nil
}

func (d *ebitenDevice) Open(requested Format) (Format, error) {
	if err := EnsureContext(requested.SampleRate); err != nil {
		return Format{}, err
	}
	ctxRate := audio.CurrentContext().SampleRate()
	if ctxRate != requested.SampleRate {
		// The context is process-global and may already have been created
		// for a different stream; report back what's actually in effect so
		// the resampler can target it instead of hard-failing the whole Open.
		requested.SampleRate = ctxRate
	}
	d.format = requested
	return requested, nil
}

func (d *ebitenDevice) Start(fill FillFunc) error {
	d.mu.Lock()
	if d.player != nil {
		d.mu.Unlock()
		return fmt.Errorf("audiodevice: already started")
	}
	d.fill = fill
	d.mu.Unlock()

	player, err := audio.CurrentContext().NewPlayer(readerAdapter{d: d})
	if err != nil {
		return fmt.Errorf("audiodevice: new player: %w", err)
	}
	player.SetBufferSize(playerBufferSize)

	d.mu.Lock()
	d.player = player
	volume, muted := d.volume, d.muted
	d.mu.Unlock()
	if muted {
		player.SetVolume(0)
	} else {
		player.SetVolume(volume)
	}

	player.Play()
	return nil
}

func (d *ebitenDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	err := d.player.Close()
	d.player = nil
	return err
}

func (d *ebitenDevice) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	return nil
}

func (d *ebitenDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return fmt.Errorf("audiodevice: not started")
	}
	d.player.Play()
	return nil
}

func (d *ebitenDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	player := d.player
	d.player = nil
	d.mu.Unlock()

	if player == nil {
		return nil
	}
	player.Pause()
	return player.Close()
}

// SetVolume mirrors controller_yes_audio.go's audio.Player.SetVolume use,
// applied immediately if the device is already running and remembered
// for when Start creates the underlying player otherwise.
func (d *ebitenDevice) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	d.mu.Lock()
	d.volume = v
	player := d.player
	muted := d.muted
	d.mu.Unlock()
	if player != nil && !muted {
		player.SetVolume(v)
	}
}

func (d *ebitenDevice) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

func (d *ebitenDevice) SetMuted(muted bool) {
	d.mu.Lock()
	d.muted = muted
	player := d.player
	volume := d.volume
	d.mu.Unlock()
	if player == nil {
		return
	}
	if muted {
		player.SetVolume(0)
	} else {
		player.SetVolume(volume)
	}
}

func (d *ebitenDevice) Muted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.muted
}

func (d *ebitenDevice) BufferedFrames() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil || d.format.Channels == 0 {
		return 0, false
	}
	bufferedBytes := d.player.BufferedSize()
	bytesPerFrame := d.format.Channels * 4 // float32 samples
	return bufferedBytes / bytesPerFrame, true
}
