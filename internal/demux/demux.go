// Package demux wraps reisen.Media with the protocol-aware option handling
// and stream enumeration spec.md §4.4 and §6 describe. It is the only
// package that talks to the codec library's container-level API; decode/
// talks to the per-stream decode API.
package demux

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/erparts/reisen"

	"zenplay/internal/media"
)

// Scheme identifies the transport a source URL uses, driving the
// protocol-specific option set spec.md §6 enumerates.
type Scheme int

const (
	SchemeFile Scheme = iota
	SchemeHTTP
	SchemeRTSP
	SchemeRTMP
	SchemeUDP
)

// schemeOf classifies a source URL the way reisen.NewMedia will end up
// handing it to the underlying codec library: by URL scheme, falling back
// to SchemeFile for bare paths.
func schemeOf(sourceURL string) Scheme {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Scheme == "" {
		return SchemeFile
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return SchemeHTTP
	case "rtsp":
		return SchemeRTSP
	case "rtmp", "rtmps":
		return SchemeRTMP
	case "udp", "raw":
		return SchemeUDP
	default:
		return SchemeFile
	}
}

// Options is the protocol-level option set applied when opening a source,
// grounded on spec.md §6's per-scheme table. reisen itself has no generic
// "container open option" surface (NewMedia takes only a filename), so
// these are recorded on the Demuxer but not passed on: opening hands
// reisen only the source URL, and none of these options changes how the
// source is opened or read.
type Options struct {
	BufferSizeBytes int
	Timeout         time.Duration
	Reconnect       bool
	FollowRedirects bool
	Persistent      bool
	TCPTransport    bool // RTSP only
	LiveMode        bool // RTMP only
	UserAgent       string
}

// optionsForScheme returns spec.md §6's table, verbatim per scheme.
func optionsForScheme(s Scheme) Options {
	switch s {
	case SchemeHTTP:
		return Options{
			BufferSizeBytes: 10 << 20,
			Timeout:         2 * time.Second,
			Reconnect:       true,
			FollowRedirects: true,
			Persistent:      true,
			UserAgent:       "zenplay",
		}
	case SchemeRTSP:
		return Options{
			BufferSizeBytes: 5 << 20,
			Timeout:         2 * time.Second,
			Reconnect:       true,
			TCPTransport:    true,
		}
	case SchemeRTMP:
		return Options{
			BufferSizeBytes: 5 << 20,
			LiveMode:        true,
		}
	case SchemeUDP:
		return Options{
			BufferSizeBytes: 1 << 20,
			Timeout:         time.Second,
		}
	default: // SchemeFile
		return Options{}
	}
}

// StreamInfo describes one active stream's decode parameters, exposed on
// successful Open per spec.md §4.4.
type StreamInfo struct {
	Index         int
	CodecID       string
	TimeBase      [2]int // num, denom
	Width, Height int    // video only
	SampleRate    int    // audio only
	Channels      int    // audio only
}

// SeekDirection mirrors spec.md §4.4's "nearest keyframe <= target" contract.
type SeekDirection int

const (
	SeekBackward SeekDirection = iota
	SeekForward
)

// Demuxer opens one source URL and reads packets from its active video and
// audio streams. Grounded on player.go's newPlayer: reisen.NewMedia, then
// VideoStreams()/AudioStreams() enumeration and OpenDecode(), generalized
// from the teacher's always-video-plus-optional-audio assumption into
// "whichever streams are present", and from a bare filename into a
// protocol-aware URL.
type Demuxer struct {
	media *reisen.Media

	videoStream *reisen.VideoStream
	audioStream *reisen.AudioStream

	videoInfo *StreamInfo
	audioInfo *StreamInfo

	durationMS float64
	opts       Options
}

// Open opens sourceURL, selecting protocol options by scheme, enumerates
// streams (first video stream and first audio stream, matching the
// teacher's "multiple streams -> warn and default to first" policy), and
// calls OpenDecode.
func Open(sourceURL string) (*Demuxer, error) {
	scheme := schemeOf(sourceURL)
	opts := optionsForScheme(scheme)

	container, err := reisen.NewMedia(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("demux: open %q: %w", sourceURL, err)
	}

	d := &Demuxer{media: container, opts: opts}

	videoStreams := container.VideoStreams()
	audioStreams := container.AudioStreams()

	if len(videoStreams) > 0 {
		d.videoStream = videoStreams[0]
		w, h := d.videoStream.Width(), d.videoStream.Height()
		d.videoInfo = &StreamInfo{
			Index:  d.videoStream.Index(),
			Width:  w,
			Height: h,
		}
		if dur, err := d.videoStream.Duration(); err == nil && dur.Seconds()*1000 > d.durationMS {
			d.durationMS = dur.Seconds() * 1000
		}
	}
	if len(audioStreams) > 0 {
		d.audioStream = audioStreams[0]
		d.audioInfo = &StreamInfo{
			Index: d.audioStream.Index(),
		}
		if dur, err := d.audioStream.Duration(); err == nil && dur.Seconds()*1000 > d.durationMS {
			d.durationMS = dur.Seconds() * 1000
		}
	}

	if d.videoStream == nil && d.audioStream == nil {
		return nil, fmt.Errorf("demux: %q has neither a video nor an audio stream", sourceURL)
	}

	if err := container.OpenDecode(); err != nil {
		return nil, fmt.Errorf("demux: open decode: %w", err)
	}

	return d, nil
}

// HasVideo/HasAudio report which streams are active.
func (d *Demuxer) HasVideo() bool { return d.videoStream != nil }
func (d *Demuxer) HasAudio() bool { return d.audioStream != nil }

// VideoInfo/AudioInfo expose the active streams' parameters, or nil if
// that stream type isn't present.
func (d *Demuxer) VideoInfo() *StreamInfo { return d.videoInfo }
func (d *Demuxer) AudioInfo() *StreamInfo { return d.audioInfo }

// VideoStream/AudioStream expose the underlying reisen handles for the
// decode package, which needs them to drive send-packet/receive-frame.
func (d *Demuxer) VideoStream() *reisen.VideoStream { return d.videoStream }
func (d *Demuxer) AudioStream() *reisen.AudioStream { return d.audioStream }

// DurationMS returns the container's total duration in milliseconds, the
// larger of the active streams' own durations.
func (d *Demuxer) DurationMS() float64 { return d.durationMS }

// ReadPacket returns the next packet tagged with its stream kind and
// index, or (nil, io.EOF)-equivalent via the ok=false return once the
// demuxer is exhausted. Mirrors controller_no_audio.go's
// internalReadVideoFrame packet loop, generalized to also surface audio
// packets instead of silently skipping them.
func (d *Demuxer) ReadPacket() (pkt *media.Packet, ok bool, err error) {
	raw, gotPacket, rerr := d.media.ReadPacket()
	if rerr != nil {
		return nil, false, fmt.Errorf("demux: read packet: %w", rerr)
	}
	if !gotPacket {
		return nil, false, nil
	}

	var kind media.StreamKind
	switch raw.Type() {
	case reisen.StreamVideo:
		if d.videoStream == nil || raw.StreamIndex() != d.videoStream.Index() {
			return nil, true, nil // caller loops; not one of our active streams
		}
		kind = media.StreamVideo
	case reisen.StreamAudio:
		if d.audioStream == nil || raw.StreamIndex() != d.audioStream.Index() {
			return nil, true, nil
		}
		kind = media.StreamAudio
	default:
		return nil, true, nil
	}

	return &media.Packet{
		Kind:        kind,
		StreamIndex: raw.StreamIndex(),
	}, true, nil
}

// Seek repositions to the nearest keyframe at or before targetMS
// (direction is currently always treated as backward, matching the codec
// library's default keyframe-seek behavior; forward-seek is accepted for
// API symmetry with spec.md §4.4 but degrades to the same backward seek).
// It does not flush any downstream queue or decoder state — that is the
// controller's job, per spec.md's explicit separation of concerns.
func (d *Demuxer) Seek(targetMS float64, _ SeekDirection) error {
	target := time.Duration(targetMS) * time.Millisecond

	if d.videoStream != nil {
		if err := d.videoStream.Rewind(target); err != nil {
			return fmt.Errorf("demux: seek video: %w", err)
		}
		return nil
	}
	if d.audioStream != nil {
		if err := d.audioStream.Rewind(target); err != nil {
			return fmt.Errorf("demux: seek audio: %w", err)
		}
	}
	return nil
}

// Close releases the underlying container.
func (d *Demuxer) Close() error {
	return d.media.Close()
}
