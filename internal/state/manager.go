package state

import (
	"sync"
	"sync/atomic"
	"time"
)

// ChangeFunc is the observer signature: fired synchronously on the thread
// performing the transition, with (old, new). It must not block — a GUI
// host re-posts to its own event queue instead of doing work here.
type ChangeFunc func(old, new PlayerState)

// Handle identifies a registered observer for later unregistration.
type Handle uint64

// Manager is the single source of truth for playback state, shared by
// pointer with every worker that needs to poll or wait on it. It must not
// be copied after first use.
type Manager struct {
	state int32 // atomic PlayerState

	resumeMu   sync.Mutex
	resumeCond *sync.Cond

	obsMu    sync.Mutex
	obsNext  Handle
	obs      map[Handle]ChangeFunc
	inCall   map[Handle]bool // observers currently executing, for safe self-unregister
}

// New creates a Manager in the Idle state.
func New() *Manager {
	m := &Manager{
		state: int32(Idle),
		obs:   make(map[Handle]ChangeFunc),
		inCall: make(map[Handle]bool),
	}
	m.resumeCond = sync.NewCond(&m.resumeMu)
	return m
}

// GetState returns the current state.
func (m *Manager) GetState() PlayerState {
	return PlayerState(atomic.LoadInt32(&m.state))
}

// IsPlaying, IsPaused, ... are convenience predicates mirroring spec §4.2.
func (m *Manager) IsPlaying() bool  { return m.GetState() == Playing }
func (m *Manager) IsPaused() bool   { return m.GetState() == Paused }
func (m *Manager) IsStopped() bool  { return m.GetState() == Stopped }
func (m *Manager) IsSeeking() bool  { return m.GetState() == Seeking }
func (m *Manager) IsIdle() bool     { return m.GetState() == Idle }
func (m *Manager) IsError() bool    { return m.GetState() == Error }

// ShouldStop reports whether workers should exit their loops.
func (m *Manager) ShouldStop() bool {
	switch m.GetState() {
	case Idle, Stopped, Error:
		return true
	default:
		return false
	}
}

// ShouldPause reports whether workers should block on WaitForResume.
func (m *Manager) ShouldPause() bool {
	switch m.GetState() {
	case Paused, Seeking, Buffering:
		return true
	default:
		return false
	}
}

// WaitForResume blocks until the state becomes Playing or ShouldStop()
// holds, or the timeout elapses (timeout <= 0 means wait indefinitely). It
// never spins: it parks on a condition variable woken only by transitions
// into a state that satisfies wakesResume (see transitionLocked) or by its
// own timeout; other transitions, such as pause->seeking->paused, do not
// wake it.
func (m *Manager) WaitForResume(timeout time.Duration) {
	if m.IsPlaying() || m.ShouldStop() {
		return
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		// Cond.Wait has no built-in deadline; a timer broadcasting on the
		// same cond lets the waiter re-check ShouldStop/deadline without
		// spinning, same trick the condition variable already relies on
		// for every other wakeup.
		timer := time.AfterFunc(timeout, func() {
			m.resumeMu.Lock()
			m.resumeCond.Broadcast()
			m.resumeMu.Unlock()
		})
		defer timer.Stop()
	}

	m.resumeMu.Lock()
	defer m.resumeMu.Unlock()
	for !m.IsPlaying() && !m.ShouldStop() {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return
		}
		m.resumeCond.Wait()
	}
}

// transitionLocked performs the compare-and-set with retry on spurious CAS
// failure (only possible if state changes between Load and
// CompareAndSwap, which is itself only possible from this very function
// since Manager serializes all transitions through it).
func (m *Manager) transitionLocked(to PlayerState) (old PlayerState, ok bool) {
	for {
		cur := atomic.LoadInt32(&m.state)
		old = PlayerState(cur)
		if !allowed(old, to) {
			return old, false
		}
		if atomic.CompareAndSwapInt32(&m.state, cur, int32(to)) {
			return old, true
		}
	}
}

// transitionTo validates and performs old->to, notifying observers
// synchronously on success. Returns false if the edge is not in the table.
func (m *Manager) transitionTo(to PlayerState) bool {
	old, ok := m.transitionLocked(to)
	if !ok {
		return false
	}

	if wakesResume(to) {
		m.resumeMu.Lock()
		m.resumeCond.Broadcast()
		m.resumeMu.Unlock()
	}

	m.notify(old, to)
	return true
}

// TransitionToOpening, TransitionToStopped, ... are the TransitionTo*
// family named per spec §4.2. Each validates against the fixed table.
func (m *Manager) TransitionToOpening() bool   { return m.transitionTo(Opening) }
func (m *Manager) TransitionToStopped() bool   { return m.transitionTo(Stopped) }
func (m *Manager) TransitionToPlaying() bool   { return m.transitionTo(Playing) }
func (m *Manager) TransitionToPaused() bool    { return m.transitionTo(Paused) }
func (m *Manager) TransitionToSeeking() bool   { return m.transitionTo(Seeking) }
func (m *Manager) TransitionToBuffering() bool { return m.transitionTo(Buffering) }
func (m *Manager) TransitionToError() bool     { return m.transitionTo(Error) }
func (m *Manager) TransitionToIdle() bool      { return m.transitionTo(Idle) }

// notify invokes every registered observer synchronously, on the calling
// (transitioning) thread, before returning.
func (m *Manager) notify(old, new PlayerState) {
	m.obsMu.Lock()
	// snapshot under lock so Register/Unregister during iteration is safe
	callbacks := make([]struct {
		h  Handle
		fn ChangeFunc
	}, 0, len(m.obs))
	for h, fn := range m.obs {
		callbacks = append(callbacks, struct {
			h  Handle
			fn ChangeFunc
		}{h, fn})
	}
	m.obsMu.Unlock()

	for _, c := range callbacks {
		m.obsMu.Lock()
		if _, stillRegistered := m.obs[c.h]; !stillRegistered {
			m.obsMu.Unlock()
			continue
		}
		m.inCall[c.h] = true
		m.obsMu.Unlock()

		c.fn(old, new)

		m.obsMu.Lock()
		delete(m.inCall, c.h)
		m.obsMu.Unlock()
	}
}

// RegisterStateChangeCallback registers an observer and returns a handle
// for later unregistration. Safe to call from any thread, including from
// within a callback.
func (m *Manager) RegisterStateChangeCallback(fn ChangeFunc) Handle {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.obsNext++
	h := m.obsNext
	m.obs[h] = fn
	return h
}

// UnregisterStateChangeCallback removes an observer. Safe to call from
// within the callback being unregistered, from any thread: it only removes
// the map entry, it does not wait for an in-flight call to finish (that
// in-flight call already captured its own function value).
func (m *Manager) UnregisterStateChangeCallback(h Handle) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	delete(m.obs, h)
}
