package clock

import (
	"testing"
	"time"
)

func TestMasterClockExtrapolatesBetweenUpdates(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.UpdateAudioClock(1000, t0)

	got := c.GetMasterClock(t0.Add(500 * time.Millisecond))
	if got < 490 || got > 510 {
		t.Fatalf("expected ~500ms elapsed, got %v", got)
	}
}

func TestNormalizationBaseSetOnce(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.UpdateAudioClock(5000, t0)
	if c.AudioNormalizationBaseMS() != 5000 {
		t.Fatalf("expected base 5000, got %v", c.AudioNormalizationBaseMS())
	}

	c.UpdateAudioClock(5040, t0.Add(40*time.Millisecond))
	if c.AudioNormalizationBaseMS() != 5000 {
		t.Fatalf("base must not move on subsequent updates, got %v", c.AudioNormalizationBaseMS())
	}
}

func TestPauseFreezesClockThenResumeShifts(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.UpdateAudioClock(0, t0)

	pauseAt := t0.Add(time.Second)
	c.Pause(pauseAt)

	// master clock must stay frozen at ~1000ms regardless of how much later
	// "now" is while paused.
	frozen := c.GetMasterClock(pauseAt.Add(5 * time.Second))
	if frozen < 990 || frozen > 1010 {
		t.Fatalf("expected frozen ~1000ms while paused, got %v", frozen)
	}

	resumeAt := pauseAt.Add(2 * time.Second)
	c.Resume(resumeAt)

	got := c.GetMasterClock(resumeAt)
	if got < 990 || got > 1010 {
		t.Fatalf("expected ~1000ms immediately after resume, got %v", got)
	}

	later := c.GetMasterClock(resumeAt.Add(250 * time.Millisecond))
	if later < 1240 || later > 1260 {
		t.Fatalf("expected clock to keep advancing after resume, got %v", later)
	}
}

func TestResetForSeekRepositionsWithoutTouchingBase(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.UpdateAudioClock(2000, t0)
	c.UpdateVideoClock(2000, t0)

	seekAt := t0.Add(time.Second)
	c.ResetForSeek(30000, seekAt)

	// ResetForSeek takes an absolute target; the master clock reads it back
	// relative to the audio base, i.e. 30000 - 2000.
	if got := c.GetMasterClock(seekAt); got < 27990 || got > 28010 {
		t.Fatalf("expected clock repositioned to ~28000ms (30000 minus base 2000), got %v", got)
	}
	if c.AudioNormalizationBaseMS() != 2000 {
		t.Fatalf("seek must not move the normalization base, got %v", c.AudioNormalizationBaseMS())
	}
}

func TestScheduleDecisions(t *testing.T) {
	c := New()
	c.SetThresholds(SchedulingThresholds{RepeatMS: 20, DropMS: 100})

	if d, _ := c.Schedule(5); d != DecisionDisplay {
		t.Fatalf("expected display for in-range offset, got %v", d)
	}
	if d, wait := c.Schedule(50); d != DecisionWait || wait <= 0 {
		t.Fatalf("expected wait for offset above repeat threshold, got %v/%v", d, wait)
	}
	if d, _ := c.Schedule(-150); d != DecisionDrop {
		t.Fatalf("expected drop for offset below -dropMS, got %v", d)
	}
}

func TestExternalMasterAdvancesFromPlayStart(t *testing.T) {
	c := New()
	c.SetMasterMode(ExternalMaster)
	t0 := time.Now()
	c.Start(t0)

	got := c.GetMasterClock(t0.Add(300 * time.Millisecond))
	if got < 290 || got > 310 {
		t.Fatalf("expected ~300ms, got %v", got)
	}
}

func TestClockUpdatesDoNotRecordSyncOffsets(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.UpdateAudioClock(0, t0)
	// clock updates alone never add to the sync-offset history; only
	// ReportSyncOffset does.
	c.UpdateAudioClock(100, t0.Add(100*time.Millisecond))
	offsets := c.RecentSyncOffsets()
	if len(offsets) != 0 {
		t.Fatalf("ReportSyncOffset was never called, expected empty history, got %v", offsets)
	}
}

func TestReportAndRecentSyncOffsetsIsBoundedHistory(t *testing.T) {
	c := New()
	for i := 0; i < 100; i++ {
		c.ReportSyncOffset(float64(i))
	}
	offsets := c.RecentSyncOffsets()
	if len(offsets) != 64 {
		t.Fatalf("expected ring buffer capped at 64, got %d", len(offsets))
	}
	if offsets[0] != 36 {
		t.Fatalf("expected oldest retained offset to be 36, got %v", offsets[0])
	}
	if offsets[len(offsets)-1] != 99 {
		t.Fatalf("expected newest offset to be 99, got %v", offsets[len(offsets)-1])
	}
}
