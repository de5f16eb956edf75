// Package clock implements the AV sync controller from spec §4.3: per-source
// clocks, master-clock selection, pause/resume reference-time shifting, PTS
// normalization, and the frame scheduling policy.
//
// The pause technique is lifted directly from controller_no_audio.go's
// noLockPosition, which already tracks (referenceTime, referencePosition)
// for a single clock and freezes referenceTime while paused. This package
// generalizes that to three independently-updated clocks plus drift
// correction and a master-mode selector.
package clock

import (
	"sync"
	"time"
)

// MasterMode selects which clock other components synchronize against.
type MasterMode int

const (
	AudioMaster MasterMode = iota
	VideoMaster
	ExternalMaster
)

func (m MasterMode) String() string {
	switch m {
	case AudioMaster:
		return "AudioMaster"
	case VideoMaster:
		return "VideoMaster"
	case ExternalMaster:
		return "ExternalMaster"
	default:
		return "Unknown"
	}
}

// source holds one (pts_ms, reference_system_time, drift_ms) triple plus
// the per-stream-type normalization bookkeeping from spec's data model.
type source struct {
	ptsMS     float64
	refTime   time.Time
	driftMS   float64
	haveRef   bool

	haveBase bool
	baseMS   float64
}

// extrapolate returns pts_ms + (now - reference_system_time) + drift_ms, or
// baseMS-relative zero if no update has ever landed.
func (s *source) extrapolate(now time.Time) float64 {
	if !s.haveRef {
		return 0
	}
	elapsed := now.Sub(s.refTime).Seconds() * 1000
	return s.ptsMS + elapsed + s.driftMS
}

// SchedulingThresholds configures the video frame scheduling policy (spec
// §4.3). Defaults match the values spec.md gives as examples.
type SchedulingThresholds struct {
	RepeatMS float64 // offset above this: wait and display late-but-on-time
	DropMS   float64 // offset below -DropMS: skip the frame
}

// DefaultThresholds returns spec.md's example values (+20ms / -100ms).
func DefaultThresholds() SchedulingThresholds {
	return SchedulingThresholds{RepeatMS: 20, DropMS: 100}
}

// Decision is the outcome of the frame scheduling policy.
type Decision int

const (
	DecisionWait Decision = iota
	DecisionDisplay
	DecisionDrop
)

// Controller holds the three clocks (audio, video, external) and the
// master-mode selector. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	audio     source
	video     source
	playStart time.Time

	master MasterMode

	paused      bool
	pauseStart  time.Time

	thresholds SchedulingThresholds

	offsets ringBuffer // ReportSyncOffset history, stats-only
}

// New creates a Controller with AudioMaster selected and default scheduling
// thresholds. Call SetMasterMode(ExternalMaster) for video-only sources,
// per spec's "AudioMaster is the default when an audio stream exists;
// ExternalMaster ... is used for video-only" rule.
func New() *Controller {
	return &Controller{
		master:     AudioMaster,
		thresholds: DefaultThresholds(),
		offsets:    newRingBuffer(64),
	}
}

// SetMasterMode selects which clock GetMasterClock reads from.
func (c *Controller) SetMasterMode(m MasterMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.master = m
}

// MasterMode returns the currently selected master clock source.
func (c *Controller) MasterMode() MasterMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.master
}

// SetThresholds overrides the scheduling thresholds (config key
// player.sync.correction_threshold_ms maps onto DropMS; RepeatMS stays at
// its default unless the caller also overrides it explicitly).
func (c *Controller) SetThresholds(t SchedulingThresholds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = t
}

// Start records play_start_time for the ExternalMaster path. Call once,
// when playback first begins for an opened file (not on every resume —
// Resume() shifts it across pauses instead).
func (c *Controller) Start(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playStart = now
}

// UpdateAudioClock applies spec §4.3's update algorithm to the audio clock.
func (c *Controller) UpdateAudioClock(rawPtsMS float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateLocked(&c.audio, rawPtsMS, now)
}

// UpdateVideoClock applies spec §4.3's update algorithm to the video clock.
func (c *Controller) UpdateVideoClock(rawPtsMS float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateLocked(&c.video, rawPtsMS, now)
}

// updateLocked implements spec §4.3's UpdateAudioClock/UpdateVideoClock
// steps 1-3. Caller holds c.mu.
func (c *Controller) updateLocked(s *source, rawPtsMS float64, now time.Time) {
	if !s.haveBase {
		s.baseMS = rawPtsMS
		s.haveBase = true
	}
	normalized := rawPtsMS - s.baseMS

	if s.haveRef && !c.paused {
		expected := s.ptsMS + now.Sub(s.refTime).Seconds()*1000
		s.driftMS = 0.1 * (normalized - expected)
	}

	s.ptsMS = normalized
	s.refTime = now
	s.haveRef = true
}

// GetMasterClock returns the current estimated master-clock time in
// milliseconds, relative to the file's normalization base.
func (c *Controller) GetMasterClock(now time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masterLocked(now)
}

func (c *Controller) masterLocked(now time.Time) float64 {
	if c.paused {
		now = c.pauseStart
	}

	switch c.master {
	case AudioMaster:
		return c.audio.extrapolate(now)
	case VideoMaster:
		return c.video.extrapolate(now)
	case ExternalMaster:
		if c.playStart.IsZero() {
			return 0
		}
		return now.Sub(c.playStart).Seconds() * 1000
	default:
		return 0
	}
}

// AudioNormalizationBaseMS returns the PTS recorded on the first-ever audio
// update, for the facade's GetCurrentTime() which reports absolute media
// position (master-clock value plus this base), per spec §4.14.
func (c *Controller) AudioNormalizationBaseMS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.audio.baseMS
}

// VideoNormalizationBaseMS is the video-stream analog, used when there is
// no audio stream (VideoMaster/ExternalMaster sessions).
func (c *Controller) VideoNormalizationBaseMS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video.baseMS
}

// Pause records the pause instant under the clock lock. Subsequent
// GetMasterClock calls freeze at this instant until Resume.
func (c *Controller) Pause(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.paused = true
	c.pauseStart = now
}

// Resume shifts every clock's reference_system_time (and play_start_time)
// forward by the pause duration, so that (now - reference_system_time) is
// unchanged across the pause. This is the one-time O(#clocks) update spec's
// design notes prefer over per-query pause compensation.
func (c *Controller) Resume(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	delta := now.Sub(c.pauseStart)

	if c.audio.haveRef {
		c.audio.refTime = c.audio.refTime.Add(delta)
	}
	if c.video.haveRef {
		c.video.refTime = c.video.refTime.Add(delta)
	}
	if !c.playStart.IsZero() {
		c.playStart = c.playStart.Add(delta)
	}

	c.paused = false
	c.pauseStart = time.Time{}
}

// ResetForSeek repositions every clock to targetPtsMS (absolute, i.e.
// including whatever normalization base is already set) without touching
// the normalization bases or "first update seen" flags — those are
// per-file, not per-seek, per spec's explicit design note.
func (c *Controller) ResetForSeek(targetPtsMS float64, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resetSource := func(s *source) {
		if !s.haveBase {
			// no stream of this type has ever reported; nothing to reposition
			return
		}
		s.ptsMS = targetPtsMS - s.baseMS
		s.refTime = now
		s.driftMS = 0
		s.haveRef = true
	}
	resetSource(&c.audio)
	resetSource(&c.video)

	// ExternalMaster must also read back targetPtsMS immediately: solve
	// play_start_time from now - (target - base), using the video base,
	// which is the base the facade adds back when there is no audio.
	c.playStart = now.Add(-time.Duration((targetPtsMS - c.video.baseMS) * float64(time.Millisecond)))

	c.paused = false
	c.pauseStart = time.Time{}
}

// CalculateVideoDelay returns video_pts_ms - GetMasterClock(now), the raw
// offset the Video Player's scheduling policy consumes.
func (c *Controller) CalculateVideoDelay(videoPtsMS float64, now time.Time) float64 {
	c.mu.Lock()
	master := c.masterLocked(now)
	c.mu.Unlock()
	return videoPtsMS - master
}

// Schedule applies spec §4.3's three-way policy to an offset computed by
// CalculateVideoDelay, returning the decision and (for DecisionWait) how
// long to wait before displaying.
func (c *Controller) Schedule(offset float64) (Decision, time.Duration) {
	c.mu.Lock()
	t := c.thresholds
	c.mu.Unlock()

	switch {
	case offset > t.RepeatMS:
		return DecisionWait, time.Duration(offset) * time.Millisecond
	case offset < -t.DropMS:
		return DecisionDrop, 0
	default:
		return DecisionDisplay, 0
	}
}

// ReportSyncOffset records an observed offset into a small ring buffer for
// statistics. It never alters scheduling decisions.
func (c *Controller) ReportSyncOffset(offset float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets.push(offset)
}

// RecentSyncOffsets returns a copy of the statistics ring buffer, oldest
// first.
func (c *Controller) RecentSyncOffsets() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offsets.snapshot()
}
