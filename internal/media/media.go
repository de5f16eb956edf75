// Package media defines the data types that flow between the demuxer,
// decoders, and players: compressed Packets and decoded Frames (software
// and hardware-backed).
package media

import "time"

// StreamKind distinguishes the two stream types this engine understands.
type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
)

func (k StreamKind) String() string {
	if k == StreamAudio {
		return "audio"
	}
	return "video"
}

// Packet is a token signaling that the demuxer has buffered a compressed
// unit for the given stream, ready for the matching decoder to pull via
// its own ReadVideoFrame/ReadAudioFrame call. reisen buffers the actual
// compressed payload internally per-stream as part of Media.ReadPacket
// (see controller_no_audio.go's internalReadVideoFrame, which calls
// media.ReadPacket() purely to learn which stream became ready, then
// immediately calls stream.ReadVideoFrame() to do the real decode), so
// there is no raw byte slice to carry here — only routing information.
type Packet struct {
	Kind        StreamKind
	StreamIndex int
}

// Frame is a decoded, presentation-ready unit. Exactly one of Pix (software
// path) or Surface (hardware path) is populated; Hardware reports which.
type Frame struct {
	Kind StreamKind

	// PresentationMS is the frame's normalized presentation timestamp in
	// milliseconds, i.e. reisen's PresentationOffset() expressed as a
	// duration-since-stream-start in float milliseconds.
	PresentationMS float64

	// Software video payload: tightly packed RGBA, width*height*4 bytes,
	// matching the *ebiten.Image.WritePixels(frame.Data()) call in
	// player.go. Nil for audio frames and for hardware-backed video frames.
	Pix           []byte
	Width, Height int

	// Software audio payload: interleaved float32 samples at SampleRate,
	// in the channel count Channels reports, matching frame.Data() as consumed
	// by controller_yes_audio.go's leftoverAudio accumulation.
	Samples    []byte
	SampleRate int
	Channels   int

	// Hardware path: Surface is a GPU-pool-owned handle. Hardware is true
	// iff this frame was produced via the hwaccel pipeline; Release must
	// be called exactly once, whether or not the frame is ever displayed,
	// to return the surface to its pool (spec's ownership-transfer rule).
	Hardware bool
	Surface  HardwareSurface
}

// HardwareSurface is a GPU-pool-owned decode target. It has no reisen
// equivalent — reisen only supports software decode — and is grounded on
// the hwaccel design's pool/fence model (see internal/hwaccel).
type HardwareSurface interface {
	// Release returns the surface to its originating pool. Safe to call
	// exactly once; calling it twice is a programmer error.
	Release()

	// SampleHandle returns an opaque platform-specific handle (e.g. a
	// D3D11 shader resource view or a VideoToolbox CVPixelBuffer) a
	// hardware-path renderer binds directly, achieving the zero-copy
	// requirement.
	SampleHandle() any
}

// Release returns a frame's resources to their pool (hardware path) or is a
// no-op (software path, left to the garbage collector). Callers must call
// Release exactly once per frame they dequeue, whether displayed or
// dropped, mirroring the ownership-transfer semantics spec's hwaccel
// section requires to avoid surface-pool exhaustion.
func (f *Frame) Release() {
	if f.Hardware && f.Surface != nil {
		f.Surface.Release()
	}
}

// PresentationDuration converts PresentationMS to a time.Duration, the unit
// the clock package and scheduling policy operate in.
func (f *Frame) PresentationDuration() time.Duration {
	return time.Duration(f.PresentationMS * float64(time.Millisecond))
}
