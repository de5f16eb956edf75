// Package resample implements the lazily-initialized audio resampler from
// spec.md §4.7: converts whatever format the decoder produces into the
// audio output device's format, buffering residual partial-frame output
// across calls.
//
// The swr_alloc_set_opts2/swr_convert/swr_free cgo shape is grounded on
// audio-player.go's Start/sendFrame/cleanup: that file resamples a fixed
// float32 source into a fixed stereo/44100 output; this package
// generalizes both sides to whatever the source stream and output device
// actually negotiate, and adds the residual-buffering contract spec.md
// requires (audio-player.go always converts one fixed-size frame at a
// time and has no carry-over to generalize from).
package resample

/*
#cgo pkg-config: libswresample libavutil

#include <stdlib.h>
#include <libavutil/channel_layout.h>
#include <libavutil/samplefmt.h>
#include <libswresample/swresample.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Format describes a PCM layout on one side of the resampler.
type Format struct {
	SampleRate int
	Channels   int
	// Float32 selects AV_SAMPLE_FMT_FLT; otherwise AV_SAMPLE_FMT_S16 is
	// assumed. media.Frame.Samples and the audio output device both carry
	// float32 in this engine.
	Float32 bool
}

func (f Format) bytesPerSample() int {
	if f.Float32 {
		return 4
	}
	return 2
}

func (f Format) avSampleFmt() C.enum_AVSampleFormat {
	if f.Float32 {
		return C.AV_SAMPLE_FMT_FLT
	}
	return C.AV_SAMPLE_FMT_S16
}

func channelLayoutFor(channels int) C.AVChannelLayout {
	var layout C.AVChannelLayout
	C.av_channel_layout_default(&layout, C.int(channels))
	return layout
}

// Resampler converts PCM between a source format (known only once the
// first frame of a stream arrives) and a fixed output format (the audio
// device's negotiated format). It is not safe for concurrent use; the
// audio player serializes all calls through its own output callback.
type Resampler struct {
	ctx *C.struct_SwrContext

	src, dst Format
	initDone bool

	residual []byte // output-format bytes already converted but not yet consumed
}

// New creates a Resampler targeting dst. Src is supplied lazily via the
// first Convert call, per spec.md §4.7's "initialized lazily... from the
// first frame" rule.
func New(dst Format) *Resampler {
	r := &Resampler{dst: dst}
	runtime.SetFinalizer(r, (*Resampler).Close)
	return r
}

// ensureInit allocates the swresample context on the first Convert call,
// or re-allocates it if the source format has changed (e.g. a stream with
// a variable sample rate, which this engine does not expect but handles
// rather than silently producing garbage).
func (r *Resampler) ensureInit(src Format) error {
	if r.initDone && r.src == src {
		return nil
	}
	r.free()

	srcLayout := channelLayoutFor(src.Channels)
	dstLayout := channelLayoutFor(r.dst.Channels)

	var ctx *C.struct_SwrContext
	ret := C.swr_alloc_set_opts2(
		&ctx,
		&dstLayout, r.dst.avSampleFmt(), C.int(r.dst.SampleRate),
		&srcLayout, src.avSampleFmt(), C.int(src.SampleRate),
		0, nil,
	)
	if ret < 0 || ctx == nil {
		return fmt.Errorf("resample: swr_alloc_set_opts2 failed: %d", int(ret))
	}
	if C.swr_init(ctx) < 0 {
		C.swr_free(&ctx)
		return fmt.Errorf("resample: swr_init failed")
	}

	r.ctx = ctx
	r.src = src
	r.initDone = true
	return nil
}

// Convert resamples a whole input frame (interleaved PCM in src's format)
// and appends the converted bytes (in the output format) to any buffered
// residual, returning everything now available. The resampler keeps
// ownership of the buffered bytes; callers take as many as they need via
// TakeOutput.
func (r *Resampler) Convert(src Format, input []byte) ([]byte, error) {
	if err := r.ensureInit(src); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return r.residual, nil
	}

	inSamples := len(input) / (src.Channels * src.bytesPerSample())
	if inSamples == 0 {
		return r.residual, nil
	}

	// worst case the output needs slightly more samples than the input due
	// to rate conversion; size generously and trust swr_convert's return.
	outCapSamples := inSamples*r.dst.SampleRate/src.SampleRate + 256
	outBuf := make([]byte, outCapSamples*r.dst.Channels*r.dst.bytesPerSample())

	inPtr := (*C.uint8_t)(unsafe.Pointer(&input[0]))
	outPtr := (*C.uint8_t)(unsafe.Pointer(&outBuf[0]))

	converted := C.swr_convert(
		r.ctx,
		&outPtr, C.int(outCapSamples),
		&inPtr, C.int(inSamples),
	)
	if converted < 0 {
		return nil, fmt.Errorf("resample: swr_convert failed: %d", int(converted))
	}

	n := int(converted) * r.dst.Channels * r.dst.bytesPerSample()
	r.residual = append(r.residual, outBuf[:n]...)
	return r.residual, nil
}

// TakeOutput removes and returns up to n bytes of previously converted
// output, leaving any remainder buffered for the next call — this is the
// "residual partial output samples are buffered" behavior spec.md §4.7
// requires so the audio player's output callback can pull exactly the
// buffer size it needs regardless of the source frame's size.
func (r *Resampler) TakeOutput(n int) []byte {
	if n >= len(r.residual) {
		out := r.residual
		r.residual = nil
		return out
	}
	out := make([]byte, n)
	copy(out, r.residual[:n])
	r.residual = r.residual[n:]
	return out
}

// Pending reports how many output-format bytes are currently buffered.
func (r *Resampler) Pending() int { return len(r.residual) }

// Reset drops buffered residual and re-initializes the underlying
// context, used on seek so stale samples never play after the jump.
func (r *Resampler) Reset() {
	r.residual = nil
	if r.ctx != nil {
		C.swr_close(r.ctx)
		r.initDone = false
	}
}

func (r *Resampler) free() {
	if r.ctx != nil {
		C.swr_free(&r.ctx)
		r.ctx = nil
	}
	r.initDone = false
}

// Close releases the underlying swresample context. Safe to call more
// than once.
func (r *Resampler) Close() {
	r.free()
	r.residual = nil
	runtime.SetFinalizer(r, nil)
}
