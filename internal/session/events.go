package session

import "time"

// EventKind enumerates every input the state machine reacts to. Key events
// and timer expiries are merged into one totally ordered stream; Step is the
// only consumer, so transitions are strictly sequential.
type EventKind int

const (
	// KeyChar is a printable hint character (letter or digit).
	KeyChar EventKind = iota
	KeyBackspace
	KeyEnter
	KeyEscape
	KeyArrowUp
	KeyArrowDown
	KeyTab
	KeyBackTab
	// ModifierReleased is synthesized by the invoking keybinding when the
	// trigger modifier goes up.
	ModifierReleased
	// CycleForward and CycleBackward arrive over the control channel from
	// a second invocation relaying instead of starting its own session.
	CycleForward
	CycleBackward
	// TimerFired delivers a cooperative timer expiry. The embedded fire
	// token carries the generation it was armed with; stale fires are
	// ignored.
	TimerFired
)

// TimerKind identifies which delay a fire belongs to.
type TimerKind int

const (
	timerNone TimerKind = iota
	// TimerOverlay is the overlay_delay race armed in AwaitingRelease.
	TimerOverlay
	// TimerActivation is the activation_delay grace period armed in Full
	// when an ambiguous exact match exists.
	TimerActivation
)

// TimerFire is the cancellable handle for an armed timer. The generation
// counter makes fires from abandoned states detectable: every transition
// bumps the generation, so a late fire carries a stale token and is dropped.
type TimerFire struct {
	Kind     TimerKind
	Gen      uint64
	Deadline time.Time
}

// Event is a single entry of the merged input stream.
type Event struct {
	Kind  EventKind
	Char  byte
	Timer TimerFire
}

// Key builds a printable-character event.
func Key(c byte) Event { return Event{Kind: KeyChar, Char: c} }

// TimerEvent wraps a fire token for delivery through Step.
func TimerEvent(f TimerFire) Event { return Event{Kind: TimerFired, Timer: f} }
