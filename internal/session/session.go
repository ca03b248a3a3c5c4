// Package session implements the window switch decision engine: a
// single-goroutine state machine that consumes key events and timer expiries
// and produces exactly one terminal decision per invocation.
package session

import (
	"time"

	"github.com/hyprseek/hyprseek/internal/hints"
	"github.com/hyprseek/hyprseek/internal/util"
)

// State is the lifecycle phase of a switch session.
type State int

const (
	// AwaitingRelease races the overlay delay against the trigger
	// modifier being released.
	AwaitingRelease State = iota
	// Initial shows border-only feedback; the first key promotes the
	// session to Full.
	Initial
	// Full is the interactive overlay phase: hint typing, cursor
	// movement, and the activation grace timer.
	Full
	// Activating is terminal with a committed Activate or Launch decision.
	Activating
	// Cancelled is terminal with no focus change.
	Cancelled
)

func (s State) String() string {
	switch s {
	case AwaitingRelease:
		return "awaiting-release"
	case Initial:
		return "initial"
	case Full:
		return "full"
	case Activating:
		return "activating"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DecisionKind classifies the terminal outcome of a session.
type DecisionKind int

const (
	// DecisionNone means the session has not terminated yet.
	DecisionNone DecisionKind = iota
	// DecisionActivate focuses the window at Address.
	DecisionActivate
	// DecisionLaunch spawns the application bound to LaunchKey.
	DecisionLaunch
	// DecisionCancel leaves focus untouched.
	DecisionCancel
)

// Decision is the single outcome a session produces. At most one decision is
// ever emitted; once set it never changes.
type Decision struct {
	Kind      DecisionKind
	Address   string
	LaunchKey byte
}

// Options configures a new session.
type Options struct {
	Assignments []hints.Assignment
	// MruPrevious is the previously focused window address, or empty.
	MruPrevious string
	// Launchable reports whether a hint letter has a launch binding.
	// Unmatched input soft-rejects when the key is not launchable.
	Launchable func(c byte) bool
	// LauncherMode starts the session directly in Full with the previous
	// window preselected and no modifier-release semantics.
	LauncherMode bool

	OverlayDelay    time.Duration
	ActivationDelay time.Duration

	Logger *util.Logger
	// Now is the clock used to compute timer deadlines. Defaults to
	// time.Now; tests inject a fixed clock.
	Now func() time.Time
}

// Session is the switch decision engine. It is not safe for concurrent use;
// the owning goroutine must serialize all Step calls.
type Session struct {
	logger      *util.Logger
	assignments []hints.Assignment
	mruPrevious string
	launchable  func(byte) bool

	overlayDelay    time.Duration
	activationDelay time.Duration
	now             func() time.Time

	state  State
	buffer []byte
	cursor int
	// pending is the assignment index armed with the activation timer, or
	// -1 when no grace period is running.
	pending int

	timerGen  uint64
	timerKind TimerKind
	deadline  time.Time

	decision      Decision
	quickSwitched bool
}

// New builds a session over an assigned snapshot. A snapshot with no windows
// terminates immediately as Cancelled.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(util.LevelInfo)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	launchable := opts.Launchable
	if launchable == nil {
		launchable = func(byte) bool { return false }
	}
	s := &Session{
		logger:          logger,
		assignments:     opts.Assignments,
		mruPrevious:     opts.MruPrevious,
		launchable:      launchable,
		overlayDelay:    opts.OverlayDelay,
		activationDelay: opts.ActivationDelay,
		now:             now,
		pending:         -1,
	}
	if len(s.assignments) == 0 {
		s.logger.Debugf("session: empty snapshot, nothing to switch to")
		s.terminate(Cancelled, Decision{Kind: DecisionCancel})
		return s
	}
	if opts.LauncherMode {
		s.state = Full
		s.cursor = s.previousIndex()
		return s
	}
	s.state = AwaitingRelease
	s.arm(TimerOverlay, s.overlayDelay)
	return s
}

// State reports the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Terminal reports whether the session has produced its decision.
func (s *Session) Terminal() bool {
	return s.state == Activating || s.state == Cancelled
}

// Decision returns the terminal outcome, or Kind DecisionNone while the
// session is still live.
func (s *Session) Decision() Decision { return s.decision }

// QuickSwitched reports whether the session resolved as a release-before-
// overlay jump to the previous window.
func (s *Session) QuickSwitched() bool { return s.quickSwitched }

// Buffer returns the hint characters typed so far.
func (s *Session) Buffer() string { return string(s.buffer) }

// Cursor returns the index of the arrow-selected assignment.
func (s *Session) Cursor() int { return s.cursor }

// PendingIndex returns the assignment index awaiting the activation grace
// timer, or -1.
func (s *Session) PendingIndex() int { return s.pending }

// Assignments returns the full hint table for rendering.
func (s *Session) Assignments() []hints.Assignment { return s.assignments }

// Visible returns the assignments still matched by the typed buffer, for the
// overlay to narrow its rows as the user types.
func (s *Session) Visible() []hints.Assignment {
	if len(s.buffer) == 0 {
		return s.assignments
	}
	return hints.FilterAssignments(s.assignments, string(s.buffer))
}

// PendingTimer returns the armed timer handle, if any. The driver sleeps
// until the deadline and feeds the fire back through Step; Step discards it
// if the generation has moved on.
func (s *Session) PendingTimer() (TimerFire, bool) {
	if s.timerKind == timerNone {
		return TimerFire{}, false
	}
	return TimerFire{Kind: s.timerKind, Gen: s.timerGen, Deadline: s.deadline}, true
}

// Step consumes one event and advances the machine. Events arriving after
// termination are ignored.
func (s *Session) Step(ev Event) {
	if s.Terminal() {
		s.logger.Tracef("session: event %d after terminal state %s", ev.Kind, s.state)
		return
	}
	if ev.Kind == TimerFired {
		s.stepTimer(ev.Timer)
		return
	}
	switch s.state {
	case AwaitingRelease:
		s.stepAwaitingRelease(ev)
	case Initial:
		s.stepInitial(ev)
	case Full:
		s.stepFull(ev)
	}
}

func (s *Session) stepTimer(fire TimerFire) {
	if fire.Gen != s.timerGen || fire.Kind != s.timerKind {
		s.logger.Tracef("session: stale timer fire gen=%d kind=%d", fire.Gen, fire.Kind)
		return
	}
	s.disarm()
	switch fire.Kind {
	case TimerOverlay:
		s.enterInitial()
	case TimerActivation:
		if s.pending >= 0 {
			s.activateIndex(s.pending)
		}
	}
}

func (s *Session) stepAwaitingRelease(ev Event) {
	switch ev.Kind {
	case ModifierReleased:
		s.quickSwitch()
	case KeyChar:
		// Typing before the overlay delay means the user knows the
		// hint; skip straight to Full and keep the keystroke.
		s.enterFull()
		s.typeChar(ev.Char)
	case KeyEscape:
		s.cancel()
	case KeyArrowDown:
		s.enterFull()
		s.moveCursor(1)
	case KeyArrowUp:
		s.enterFull()
		s.moveCursor(-1)
	case KeyTab, CycleForward:
		s.enterFull()
		s.cycleCursor(1)
	case KeyBackTab, CycleBackward:
		s.enterFull()
		s.cycleCursor(-1)
	}
}

func (s *Session) stepInitial(ev Event) {
	switch ev.Kind {
	case KeyChar:
		s.enterFull()
		s.typeChar(ev.Char)
	case ModifierReleased, KeyEnter:
		s.activateIndex(s.cursor)
	case KeyEscape:
		s.cancel()
	case KeyArrowDown:
		s.enterFull()
		s.moveCursor(1)
	case KeyArrowUp:
		s.enterFull()
		s.moveCursor(-1)
	case KeyTab, CycleForward:
		s.enterFull()
		s.cycleCursor(1)
	case KeyBackTab, CycleBackward:
		s.enterFull()
		s.cycleCursor(-1)
	}
}

func (s *Session) stepFull(ev Event) {
	switch ev.Kind {
	case KeyChar:
		s.typeChar(ev.Char)
	case KeyBackspace:
		s.backspace()
	case KeyEnter:
		s.commit()
	case KeyEscape:
		s.cancel()
	case KeyArrowDown:
		s.moveCursor(1)
	case KeyArrowUp:
		s.moveCursor(-1)
	case KeyTab, CycleForward:
		s.cycleCursor(1)
	case KeyBackTab, CycleBackward:
		s.cycleCursor(-1)
	case ModifierReleased:
		if s.pending >= 0 {
			s.activateIndex(s.pending)
			return
		}
		s.activateIndex(s.cursor)
	}
}

// quickSwitch resolves the release-before-overlay race: jump to the
// previously focused window when one is known and still present, otherwise
// cancel without moving focus.
func (s *Session) quickSwitch() {
	if s.mruPrevious != "" {
		for _, a := range s.assignments {
			if a.Address == s.mruPrevious {
				s.logger.Debugf("session: quick switch to %s", a.Address)
				s.quickSwitched = true
				s.terminate(Activating, Decision{Kind: DecisionActivate, Address: a.Address})
				return
			}
		}
		s.logger.Debugf("session: quick switch target %s gone", s.mruPrevious)
	}
	s.cancel()
}

func (s *Session) enterInitial() {
	s.state = Initial
	s.cursor = s.previousIndex()
	s.logger.Tracef("session: overlay delay elapsed, showing border")
}

func (s *Session) enterFull() {
	if s.state == Full {
		return
	}
	if s.state != Initial {
		s.cursor = s.previousIndex()
	}
	s.disarm()
	s.state = Full
}

// typeChar appends a hint character and re-resolves the buffer. Dead input
// that has a launch binding becomes a Launch decision; dead input without one
// is soft-rejected so the buffer never holds an unmatched prefix.
func (s *Session) typeChar(c byte) {
	s.buffer = append(s.buffer, c)
	m := hints.Resolve(s.assignments, string(s.buffer))
	switch m.Kind {
	case hints.Exact:
		s.activateIndex(m.ExactIndex)
	case hints.Ambiguous:
		if idx, ok := m.ExactCandidate(); ok {
			s.pending = idx
			s.arm(TimerActivation, s.activationDelay)
			s.logger.Tracef("session: buffer %q armed activation for index %d", s.buffer, idx)
			return
		}
		s.pending = -1
		s.disarm()
	case hints.Dead:
		s.buffer = s.buffer[:len(s.buffer)-1]
		if len(s.buffer) == 0 && s.launchable(c) {
			s.logger.Debugf("session: no hint for %q, launching", c)
			s.terminate(Activating, Decision{Kind: DecisionLaunch, LaunchKey: c})
			return
		}
		s.logger.Tracef("session: rejected %q, buffer stays %q", c, s.buffer)
	}
}

// backspace drops the last typed character. Any armed grace timer is
// invalidated; the user is editing, so nothing re-arms until the next key.
func (s *Session) backspace() {
	if len(s.buffer) == 0 {
		return
	}
	s.buffer = s.buffer[:len(s.buffer)-1]
	s.pending = -1
	s.disarm()
}

// commit resolves Enter: the typed hint is authoritative over the cursor.
func (s *Session) commit() {
	if len(s.buffer) == 0 {
		s.activateIndex(s.cursor)
		return
	}
	m := hints.Resolve(s.assignments, string(s.buffer))
	switch m.Kind {
	case hints.Exact:
		s.activateIndex(m.ExactIndex)
	case hints.Ambiguous:
		if idx, ok := m.ExactCandidate(); ok {
			s.activateIndex(idx)
			return
		}
		s.activateIndex(m.Candidates[0])
	default:
		s.activateIndex(s.cursor)
	}
}

// cycleCursor wraps around both ends; used for Tab and relayed cycle
// commands.
func (s *Session) cycleCursor(delta int) {
	n := len(s.assignments)
	s.cursor = ((s.cursor+delta)%n + n) % n
}

// moveCursor stops at the list edges; used for the arrow keys.
func (s *Session) moveCursor(delta int) {
	next := s.cursor + delta
	if next < 0 || next >= len(s.assignments) {
		return
	}
	s.cursor = next
}

func (s *Session) activateIndex(idx int) {
	if idx < 0 || idx >= len(s.assignments) {
		s.cancel()
		return
	}
	addr := s.assignments[idx].Address
	s.logger.Debugf("session: activating %s (%s)", addr, s.assignments[idx].Hint)
	s.terminate(Activating, Decision{Kind: DecisionActivate, Address: addr})
}

func (s *Session) cancel() {
	s.terminate(Cancelled, Decision{Kind: DecisionCancel})
}

func (s *Session) terminate(st State, d Decision) {
	s.disarm()
	s.state = st
	s.decision = d
}

// previousIndex returns the assignment index of the MRU previous window, or
// 0 when it is unknown or gone.
func (s *Session) previousIndex() int {
	if s.mruPrevious == "" {
		return 0
	}
	for i, a := range s.assignments {
		if a.Address == s.mruPrevious {
			return i
		}
	}
	return 0
}

// arm starts a fresh timer generation. Any previously armed fire becomes
// stale.
func (s *Session) arm(kind TimerKind, d time.Duration) {
	s.timerGen++
	s.timerKind = kind
	s.deadline = s.now().Add(d)
}

// disarm bumps the generation so in-flight fires are dropped.
func (s *Session) disarm() {
	s.timerGen++
	s.timerKind = timerNone
}
