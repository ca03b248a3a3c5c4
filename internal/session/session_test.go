package session

import (
	"io"
	"testing"
	"time"

	"github.com/hyprseek/hyprseek/internal/hints"
	"github.com/hyprseek/hyprseek/internal/util"
)

func testAssignments() []hints.Assignment {
	return []hints.Assignment{
		{Hint: hints.NewSequence('f', 1), Address: "0xf1", Class: "firefox", Index: 0},
		{Hint: hints.NewSequence('g', 1), Address: "0xg1", Class: "com.mitchellh.ghostty", Index: 1},
		{Hint: hints.NewSequence('g', 2), Address: "0xg2", Class: "com.mitchellh.ghostty", Index: 2},
		{Hint: hints.NewSequence('g', 3), Address: "0xg3", Class: "com.mitchellh.ghostty", Index: 3},
		{Hint: hints.NewSequence('a', 1), Address: "0xa1", Class: "anki", Index: 4},
	}
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Assignments == nil {
		opts.Assignments = testAssignments()
	}
	if opts.OverlayDelay == 0 {
		opts.OverlayDelay = 720 * time.Millisecond
	}
	if opts.ActivationDelay == 0 {
		opts.ActivationDelay = 200 * time.Millisecond
	}
	opts.Logger = util.NewLoggerWithWriter(util.LevelError, io.Discard)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if opts.Now == nil {
		opts.Now = func() time.Time { return base }
	}
	return New(opts)
}

// fire returns the currently armed timer, failing the test if none is armed.
func fire(t *testing.T, s *Session) TimerFire {
	t.Helper()
	f, ok := s.PendingTimer()
	if !ok {
		t.Fatalf("no timer armed in state %s", s.State())
	}
	return f
}

func TestEmptySnapshotCancelsImmediately(t *testing.T) {
	s := newTestSession(t, Options{Assignments: []hints.Assignment{}})
	if s.State() != Cancelled {
		t.Fatalf("state = %s, want cancelled", s.State())
	}
	if d := s.Decision(); d.Kind != DecisionCancel {
		t.Fatalf("decision = %v, want cancel", d.Kind)
	}
}

func TestQuickSwitchOnEarlyRelease(t *testing.T) {
	s := newTestSession(t, Options{MruPrevious: "0xg2"})
	if s.State() != AwaitingRelease {
		t.Fatalf("state = %s, want awaiting-release", s.State())
	}
	s.Step(Event{Kind: ModifierReleased})
	if s.State() != Activating {
		t.Fatalf("state = %s, want activating", s.State())
	}
	if d := s.Decision(); d.Kind != DecisionActivate || d.Address != "0xg2" {
		t.Fatalf("decision = %+v, want activate 0xg2", d)
	}
	if !s.QuickSwitched() {
		t.Fatalf("early release not flagged as quick switch")
	}
}

func TestQuickSwitchWithoutHistoryCancels(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(Event{Kind: ModifierReleased})
	if d := s.Decision(); d.Kind != DecisionCancel {
		t.Fatalf("decision = %v, want cancel", d.Kind)
	}
}

func TestQuickSwitchTargetGoneCancels(t *testing.T) {
	s := newTestSession(t, Options{MruPrevious: "0xdead"})
	s.Step(Event{Kind: ModifierReleased})
	if d := s.Decision(); d.Kind != DecisionCancel {
		t.Fatalf("decision = %v, want cancel", d.Kind)
	}
}

func TestOverlayTimerPromotesToInitial(t *testing.T) {
	s := newTestSession(t, Options{MruPrevious: "0xg2"})
	s.Step(TimerEvent(fire(t, s)))
	if s.State() != Initial {
		t.Fatalf("state = %s, want initial", s.State())
	}
	if s.Cursor() != 2 {
		t.Fatalf("cursor = %d, want previous window preselected at 2", s.Cursor())
	}
	if _, ok := s.PendingTimer(); ok {
		t.Fatalf("timer still armed after overlay fired")
	}
}

func TestReleaseInInitialActivatesSelection(t *testing.T) {
	s := newTestSession(t, Options{MruPrevious: "0xg2"})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: ModifierReleased})
	if d := s.Decision(); d.Kind != DecisionActivate || d.Address != "0xg2" {
		t.Fatalf("decision = %+v, want activate 0xg2", d)
	}
}

func TestUniquePrefixActivatesImmediately(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('f'))
	if d := s.Decision(); d.Kind != DecisionActivate || d.Address != "0xf1" {
		t.Fatalf("decision = %+v, want activate 0xf1", d)
	}
	if s.QuickSwitched() {
		t.Fatalf("typed activation flagged as quick switch")
	}
}

func TestAmbiguousExactArmsActivationTimer(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	if s.State() != Full {
		t.Fatalf("state = %s, want full", s.State())
	}
	if s.PendingIndex() != 1 {
		t.Fatalf("pending = %d, want 1", s.PendingIndex())
	}
	f := fire(t, s)
	if f.Kind != TimerActivation {
		t.Fatalf("armed kind = %d, want activation", f.Kind)
	}
	s.Step(TimerEvent(f))
	if d := s.Decision(); d.Kind != DecisionActivate || d.Address != "0xg1" {
		t.Fatalf("decision = %+v, want activate 0xg1", d)
	}
}

func TestSecondKeystrokeSupersedesGraceTimer(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	stale := fire(t, s)
	s.Step(Key('g'))
	if s.PendingIndex() != 2 {
		t.Fatalf("pending = %d, want 2 after gg", s.PendingIndex())
	}
	// The first grace timer already expired in real time; its fire must
	// not activate the 0xg1 window now that the buffer reads "gg".
	s.Step(TimerEvent(stale))
	if s.Terminal() {
		t.Fatalf("stale timer fire terminated the session")
	}
	s.Step(TimerEvent(fire(t, s)))
	if d := s.Decision(); d.Address != "0xg2" {
		t.Fatalf("decision = %+v, want activate 0xg2", d)
	}
}

func TestTypingThreeGsResolvesExactly(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	s.Step(Key('g'))
	s.Step(Key('g'))
	if d := s.Decision(); d.Kind != DecisionActivate || d.Address != "0xg3" {
		t.Fatalf("decision = %+v, want activate 0xg3", d)
	}
}

func TestNumericShorthandActivates(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	s.Step(Key('3'))
	if d := s.Decision(); d.Kind != DecisionActivate || d.Address != "0xg3" {
		t.Fatalf("decision = %+v, want activate 0xg3", d)
	}
}

func TestDeadInputSoftRejects(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	s.Step(Key('x'))
	if s.Terminal() {
		t.Fatalf("dead input terminated the session")
	}
	if got := s.Buffer(); got != "g" {
		t.Fatalf("buffer = %q, want rejected char dropped", got)
	}
	// The retained buffer still resolves.
	s.Step(Key('g'))
	s.Step(TimerEvent(fire(t, s)))
	if d := s.Decision(); d.Address != "0xg2" {
		t.Fatalf("decision = %+v, want activate 0xg2", d)
	}
}

func TestUnmatchedLaunchableKeyLaunches(t *testing.T) {
	s := newTestSession(t, Options{
		Launchable: func(c byte) bool { return c == 'm' },
	})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('m'))
	if d := s.Decision(); d.Kind != DecisionLaunch || d.LaunchKey != 'm' {
		t.Fatalf("decision = %+v, want launch m", d)
	}
}

func TestLaunchRequiresEmptyBuffer(t *testing.T) {
	assignments := []hints.Assignment{
		{Hint: hints.NewSequence('g', 2), Address: "0xg2", Class: "ghostty", Index: 0},
		{Hint: hints.NewSequence('g', 3), Address: "0xg3", Class: "ghostty", Index: 1},
	}
	s := newTestSession(t, Options{
		Assignments: assignments,
		Launchable:  func(c byte) bool { return c == 'f' },
	})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	// "gf" is dead but arrives mid-hint, so it is rejected rather than
	// treated as a launch request.
	s.Step(Key('f'))
	if s.Terminal() {
		t.Fatalf("mid-hint launchable key terminated the session: %+v", s.Decision())
	}
	if got := s.Buffer(); got != "g" {
		t.Fatalf("buffer = %q, want g", got)
	}
}

func TestEnterPrefersTypedHintOverCursor(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: KeyArrowDown})
	s.Step(Event{Kind: KeyArrowDown})
	s.Step(Key('g'))
	s.Step(Event{Kind: KeyEnter})
	if d := s.Decision(); d.Address != "0xg1" {
		t.Fatalf("decision = %+v, want typed hint g to win", d)
	}
}

func TestEnterWithEmptyBufferUsesCursor(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: KeyArrowDown})
	s.Step(Event{Kind: KeyEnter})
	if d := s.Decision(); d.Address != "0xg1" {
		t.Fatalf("decision = %+v, want cursor selection 0xg1", d)
	}
}

func TestEnterAmbiguousWithoutExactCommitsFirstCandidate(t *testing.T) {
	assignments := []hints.Assignment{
		{Hint: hints.NewSequence('g', 2), Address: "0xg2", Class: "ghostty", Index: 0},
		{Hint: hints.NewSequence('g', 3), Address: "0xg3", Class: "ghostty", Index: 1},
		{Hint: hints.NewSequence('f', 1), Address: "0xf1", Class: "firefox", Index: 2},
	}
	s := newTestSession(t, Options{Assignments: assignments})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	if s.Terminal() {
		t.Fatalf("prefix of two hints should stay live")
	}
	s.Step(Event{Kind: KeyEnter})
	if d := s.Decision(); d.Address != "0xg2" {
		t.Fatalf("decision = %+v, want first candidate 0xg2", d)
	}
}

func TestArrowsClampAtListEdges(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: KeyArrowUp})
	if s.Cursor() != 0 {
		t.Fatalf("cursor = %d, want clamp at first", s.Cursor())
	}
	for i := 0; i < 6; i++ {
		s.Step(Event{Kind: KeyArrowDown})
	}
	if s.Cursor() != 4 {
		t.Fatalf("cursor = %d, want clamp at last", s.Cursor())
	}
}

func TestTabCyclesWithWraparound(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: KeyTab})
	s.Step(Event{Kind: KeyTab})
	if s.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", s.Cursor())
	}
	s.Step(Event{Kind: KeyBackTab})
	s.Step(Event{Kind: KeyBackTab})
	s.Step(Event{Kind: KeyBackTab})
	if s.Cursor() != 4 {
		t.Fatalf("cursor = %d, want wrap to last", s.Cursor())
	}
}

func TestControlCycleWhileAwaitingReleasePromotes(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(Event{Kind: CycleForward})
	if s.State() != Full {
		t.Fatalf("state = %s, want full", s.State())
	}
	if s.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", s.Cursor())
	}
	s.Step(Event{Kind: ModifierReleased})
	if d := s.Decision(); d.Address != "0xg1" {
		t.Fatalf("decision = %+v, want activate 0xg1", d)
	}
}

func TestBackspaceDropsCharAndDisarms(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('g'))
	stale := fire(t, s)
	s.Step(Event{Kind: KeyBackspace})
	if got := s.Buffer(); got != "" {
		t.Fatalf("buffer = %q, want empty", got)
	}
	if _, ok := s.PendingTimer(); ok {
		t.Fatalf("grace timer survived backspace")
	}
	s.Step(TimerEvent(stale))
	if s.Terminal() {
		t.Fatalf("stale timer fire after backspace terminated the session")
	}
}

func TestBackspaceOnEmptyBufferIsNoop(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: KeyBackspace})
	if s.Terminal() || s.Buffer() != "" {
		t.Fatalf("backspace on empty buffer changed session state")
	}
}

func TestEscapeCancelsFromEveryLivePhase(t *testing.T) {
	for _, setup := range []struct {
		name    string
		prepare func(*Session)
	}{
		{"awaiting-release", func(s *Session) {}},
		{"initial", func(s *Session) { s.Step(TimerEvent(fire(t, s))) }},
		{"full", func(s *Session) {
			s.Step(TimerEvent(fire(t, s)))
			s.Step(Key('g'))
		}},
	} {
		t.Run(setup.name, func(t *testing.T) {
			s := newTestSession(t, Options{})
			setup.prepare(s)
			s.Step(Event{Kind: KeyEscape})
			if d := s.Decision(); d.Kind != DecisionCancel {
				t.Fatalf("decision = %v, want cancel", d.Kind)
			}
		})
	}
}

func TestReleaseInFullPrefersPendingOverCursor(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Event{Kind: KeyArrowDown})
	s.Step(Event{Kind: KeyArrowDown})
	s.Step(Key('g'))
	s.Step(Event{Kind: ModifierReleased})
	if d := s.Decision(); d.Address != "0xg1" {
		t.Fatalf("decision = %+v, want pending exact 0xg1 over cursor", d)
	}
}

func TestLauncherModeStartsFullWithPreviousSelected(t *testing.T) {
	s := newTestSession(t, Options{LauncherMode: true, MruPrevious: "0xg3"})
	if s.State() != Full {
		t.Fatalf("state = %s, want full", s.State())
	}
	if s.Cursor() != 3 {
		t.Fatalf("cursor = %d, want 3", s.Cursor())
	}
	if _, ok := s.PendingTimer(); ok {
		t.Fatalf("launcher mode armed a timer")
	}
	s.Step(Event{Kind: KeyEnter})
	if d := s.Decision(); d.Address != "0xg3" {
		t.Fatalf("decision = %+v, want activate 0xg3", d)
	}
}

func TestEventsAfterTerminalAreIgnored(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	s.Step(Key('f'))
	want := s.Decision()
	s.Step(Key('g'))
	s.Step(Event{Kind: KeyEscape})
	s.Step(Event{Kind: ModifierReleased})
	if got := s.Decision(); got != want {
		t.Fatalf("decision changed after terminal: %+v != %+v", got, want)
	}
}

func TestVisibleNarrowsWithBuffer(t *testing.T) {
	s := newTestSession(t, Options{})
	s.Step(TimerEvent(fire(t, s)))
	if got := len(s.Visible()); got != 5 {
		t.Fatalf("visible = %d, want all 5", got)
	}
	s.Step(Key('g'))
	got := s.Visible()
	if len(got) != 3 {
		t.Fatalf("visible = %d, want 3 ghostty rows", len(got))
	}
	for _, a := range got {
		if a.Hint.Base() != 'g' {
			t.Fatalf("visible row %q does not match buffer", a.Hint)
		}
	}
}
