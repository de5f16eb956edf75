// Package state owns the single source of truth for playback state and the
// transition rules governing it (spec §4.2).
package state

// PlayerState is the unified state of the playback engine. It is stored as
// a single atomic value in Manager; there is never more than one "current"
// state.
type PlayerState int32

const (
	Idle PlayerState = iota
	Opening
	Stopped
	Playing
	Paused
	Seeking
	Buffering // reserved: spec.md leaves its trigger an open question
	Error
)

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

// transitions is the fixed edge table from spec §4.2. Unlisted edges are
// forbidden.
var transitions = map[PlayerState]map[PlayerState]bool{
	Idle:      {Opening: true},
	Opening:   {Stopped: true, Error: true},
	Stopped:   {Playing: true, Seeking: true, Idle: true},
	Playing:   {Paused: true, Stopped: true, Seeking: true, Buffering: true, Error: true},
	Paused:    {Playing: true, Stopped: true, Seeking: true},
	Seeking:   {Playing: true, Paused: true, Stopped: true},
	Buffering: {Playing: true, Error: true},
	Error:     {Idle: true},
}

// allowed reports whether the (from, to) edge exists in the table.
func allowed(from, to PlayerState) bool {
	edges, ok := transitions[from]
	if !ok {
		return false
	}
	return edges[to]
}

// wakesResume reports whether entering `to` must broadcast on the resume
// condition variable, per spec §4.2 ("Any transition into Playing, Stopped,
// Idle, or Error must broadcast...").
func wakesResume(to PlayerState) bool {
	switch to {
	case Playing, Stopped, Idle, Error:
		return true
	default:
		return false
	}
}
