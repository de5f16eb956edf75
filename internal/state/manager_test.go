package state

import (
	"sync"
	"testing"
	"time"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to PlayerState
		want     bool
	}{
		{Idle, Opening, true},
		{Idle, Playing, false},
		{Opening, Stopped, true},
		{Opening, Playing, false},
		{Stopped, Playing, true},
		{Stopped, Seeking, true},
		{Stopped, Idle, true},
		{Stopped, Paused, false},
		{Playing, Paused, true},
		{Playing, Buffering, true},
		{Playing, Opening, false},
		{Paused, Playing, true},
		{Paused, Idle, false},
		{Seeking, Stopped, true},
		{Buffering, Playing, true},
		{Buffering, Stopped, false},
		{Error, Idle, true},
		{Error, Playing, false},
	}
	for _, c := range cases {
		if got := allowed(c.from, c.to); got != c.want {
			t.Errorf("allowed(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	m := New()
	if m.TransitionToPlaying() {
		t.Fatal("Idle -> Playing should be rejected")
	}
	if m.GetState() != Idle {
		t.Fatalf("state changed despite rejected transition: %s", m.GetState())
	}
}

func TestValidSequenceAndObserver(t *testing.T) {
	m := New()
	var got []string
	m.RegisterStateChangeCallback(func(old, new PlayerState) {
		got = append(got, old.String()+"->"+new.String())
	})

	steps := []PlayerState{Opening, Stopped, Playing, Paused, Seeking, Playing, Stopped, Idle}
	for _, s := range steps {
		switch s {
		case Opening:
			m.TransitionToOpening()
		case Stopped:
			m.TransitionToStopped()
		case Playing:
			m.TransitionToPlaying()
		case Paused:
			m.TransitionToPaused()
		case Seeking:
			m.TransitionToSeeking()
		case Idle:
			m.TransitionToIdle()
		}
	}

	want := []string{
		"Idle->Opening", "Opening->Stopped", "Stopped->Playing", "Playing->Paused",
		"Paused->Seeking", "Seeking->Playing", "Playing->Stopped", "Stopped->Idle",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v transitions, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWaitForResumeUnblocksOnPlaying(t *testing.T) {
	m := New()
	m.TransitionToOpening()
	m.TransitionToStopped()
	m.TransitionToSeeking()

	var wg sync.WaitGroup
	wg.Add(1)
	unblocked := make(chan struct{})
	go func() {
		defer wg.Done()
		m.WaitForResume(5 * time.Second)
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("WaitForResume returned before Playing")
	case <-time.After(50 * time.Millisecond):
	}

	m.TransitionToPlaying()

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("WaitForResume did not unblock after TransitionToPlaying")
	}
	wg.Wait()
}

func TestWaitForResumeUnblocksOnShouldStop(t *testing.T) {
	m := New()
	m.TransitionToOpening()
	m.TransitionToStopped()
	m.TransitionToSeeking()

	done := make(chan struct{})
	go func() {
		m.WaitForResume(5 * time.Second)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	m.TransitionToStopped()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForResume did not unblock after ShouldStop became true")
	}
}

func TestWaitForResumeTimesOut(t *testing.T) {
	m := New()
	m.TransitionToOpening()
	m.TransitionToStopped()
	m.TransitionToSeeking()

	start := time.Now()
	m.WaitForResume(30 * time.Millisecond)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
}

func TestUnregisterFromWithinCallback(t *testing.T) {
	m := New()
	var h Handle
	calls := 0
	h = m.RegisterStateChangeCallback(func(old, new PlayerState) {
		calls++
		m.UnregisterStateChangeCallback(h)
	})

	m.TransitionToOpening()
	m.TransitionToStopped()

	if calls != 1 {
		t.Fatalf("expected callback to fire exactly once, got %d", calls)
	}
}

func TestConcurrentTransitions(t *testing.T) {
	m := New()
	m.TransitionToOpening()
	m.TransitionToStopped()

	var wg sync.WaitGroup
	successes := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			successes <- m.TransitionToPlaying()
		}()
	}
	wg.Wait()
	close(successes)

	okCount := 0
	for ok := range successes {
		if ok {
			okCount++
		}
	}
	if okCount != 1 {
		t.Fatalf("expected exactly one concurrent transition to win, got %d", okCount)
	}
	if m.GetState() != Playing {
		t.Fatalf("expected Playing, got %s", m.GetState())
	}
}
