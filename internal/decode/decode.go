// Package decode wraps reisen's per-stream ReadVideoFrame/ReadAudioFrame
// in the ownership-transfer semantics spec.md §4.6 requires: each call
// returns a frame the caller now owns outright, with no lingering
// reference inside the decoder that could pin a hardware surface pool.
package decode

import (
	"fmt"
	"time"

	"github.com/erparts/reisen"

	"zenplay/internal/media"
)

// ptsToMS converts a reisen PresentationOffset duration to the float
// millisecond unit the clock package operates in.
func ptsToMS(d time.Duration) float64 {
	return d.Seconds() * 1000
}

// VideoDecoder drives one reisen.VideoStream. Grounded on
// controller_yes_audio.go's internalReadAudioFrame video branch
// (stream.ReadVideoFrame(), skip nil frames, accumulate) generalized into
// a standalone decoder that emits media.Frame values instead of appending
// to a controller-owned slice.
type VideoDecoder struct {
	stream *reisen.VideoStream
}

// NewVideoDecoder wraps a video stream obtained from demux.Demuxer.
func NewVideoDecoder(stream *reisen.VideoStream) *VideoDecoder {
	return &VideoDecoder{stream: stream}
}

// Decode pulls the next decoded video frame, or (nil, false, nil) if the
// stream's internal buffer has no frame ready yet (reisen's "frame skip"
// case — the caller should read another packet and retry, it is not EOF).
//
// The returned Frame owns its pixel buffer outright: reisen.VideoFrame's
// Data() is copied out here rather than referenced, so nothing in this
// decoder retains a hold on the frame once this call returns — the move
// semantics spec.md §4.6 calls for on the software path. The hardware path
// (internal/hwaccel) follows the same contract via HardwareSurface
// ownership transfer instead of a copy.
func (d *VideoDecoder) Decode() (*media.Frame, bool, error) {
	frame, found, err := d.stream.ReadVideoFrame()
	if err != nil {
		return nil, false, fmt.Errorf("decode: video: %w", err)
	}
	if !found || frame == nil {
		return nil, false, nil
	}

	presOffset, err := frame.PresentationOffset()
	if err != nil {
		return nil, false, fmt.Errorf("decode: video pts: %w", err)
	}

	src := frame.Data()
	pix := make([]byte, len(src))
	copy(pix, src)

	return &media.Frame{
		Kind:           media.StreamVideo,
		PresentationMS: ptsToMS(presOffset),
		Pix:            pix,
		Width:          d.stream.Width(),
		Height:         d.stream.Height(),
	}, true, nil
}

// Flush drops any pending internal reisen buffering. reisen has no
// explicit decoder-flush call; a post-seek Rewind on the stream already
// resets the underlying codec context, so this is a no-op kept for
// interface symmetry with the controller's generic Flush-on-seek step.
func (d *VideoDecoder) Flush() {}

// AudioDecoder drives one reisen.AudioStream.
type AudioDecoder struct {
	stream *reisen.AudioStream
}

// NewAudioDecoder wraps an audio stream obtained from demux.Demuxer.
func NewAudioDecoder(stream *reisen.AudioStream) *AudioDecoder {
	return &AudioDecoder{stream: stream}
}

// Decode pulls the next decoded audio frame. Same frame-skip contract as
// VideoDecoder.Decode.
func (d *AudioDecoder) Decode() (*media.Frame, bool, error) {
	frame, found, err := d.stream.ReadAudioFrame()
	if err != nil {
		return nil, false, fmt.Errorf("decode: audio: %w", err)
	}
	if !found || frame == nil {
		return nil, false, nil
	}

	presOffset, err := frame.PresentationOffset()
	if err != nil {
		return nil, false, fmt.Errorf("decode: audio pts: %w", err)
	}

	src := frame.Data()
	samples := make([]byte, len(src))
	copy(samples, src)

	// reisen decodes audio to a fixed stereo float32 target regardless of
	// the source channel layout, so Channels is always 2 and no source is
	// rejected for its channel count; mono sources are noted in the teacher
	// as untested.
	return &media.Frame{
		Kind:           media.StreamAudio,
		PresentationMS: ptsToMS(presOffset),
		Samples:        samples,
		SampleRate:     d.stream.SampleRate(),
		Channels:       2,
	}, true, nil
}

// Flush is a no-op; see VideoDecoder.Flush.
func (d *AudioDecoder) Flush() {}
