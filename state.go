package zenplay

import "zenplay/internal/state"

// PlayerState is the unified playback state spec.md §4.2 defines. It
// mirrors internal/state.PlayerState's values exactly so the conversion
// at the package boundary (player.go's notify wiring) is a plain cast:
// the enum order here must track internal/state.PlayerState's order.
type PlayerState int32

const (
	Idle PlayerState = iota
	Opening
	Stopped
	Playing
	Paused
	Seeking
	Buffering
	Error
)

// String mirrors internal/state.PlayerState.String() ("Idle", "Opening",
// "Stopped", "Playing", "Paused", "Seeking", "Buffering", "Error",
// "Unknown").
func (s PlayerState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Opening:
		return "Opening"
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Seeking:
		return "Seeking"
	case Buffering:
		return "Buffering"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

func exportState(s state.PlayerState) PlayerState {
	return PlayerState(s)
}

// StateChangeFunc is the public observer signature, spec.md §6: fired
// synchronously on the transitioning thread with (old, new). Must not
// block; a GUI host re-posts to its own event queue.
type StateChangeFunc func(old, new PlayerState)

// StateChangeHandle identifies a registered observer for later
// unregistration.
type StateChangeHandle = state.Handle
