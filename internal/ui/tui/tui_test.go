package tui

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hyprseek/hyprseek/internal/hints"
	"github.com/hyprseek/hyprseek/internal/session"
	"github.com/hyprseek/hyprseek/internal/util"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		want  []session.EventKind
	}{
		{"letter", []byte("g"), []session.EventKind{session.KeyChar}},
		{"digit", []byte("3"), []session.EventKind{session.KeyChar}},
		{"enter", []byte{'\r'}, []session.EventKind{session.KeyEnter}},
		{"backspace", []byte{0x7f}, []session.EventKind{session.KeyBackspace}},
		{"tab", []byte{'\t'}, []session.EventKind{session.KeyTab}},
		{"bare escape", []byte{0x1b}, []session.EventKind{session.KeyEscape}},
		{"ctrl-c", []byte{0x03}, []session.EventKind{session.KeyEscape}},
		{"arrow up", []byte("\x1b[A"), []session.EventKind{session.KeyArrowUp}},
		{"arrow down", []byte("\x1b[B"), []session.EventKind{session.KeyArrowDown}},
		{"shift-tab", []byte("\x1b[Z"), []session.EventKind{session.KeyBackTab}},
		{"unknown csi swallowed", []byte("\x1b[C"), nil},
		{"burst", []byte("gg\r"), []session.EventKind{session.KeyChar, session.KeyChar, session.KeyEnter}},
		{"punctuation ignored", []byte("!"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evs := Decode(tc.input)
			var kinds []session.EventKind
			for _, ev := range evs {
				kinds = append(kinds, ev.Kind)
			}
			if diff := cmp.Diff(tc.want, kinds); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeLowercasesLetters(t *testing.T) {
	evs := Decode([]byte("G"))
	if len(evs) != 1 || evs[0].Char != 'g' {
		t.Fatalf("events = %+v, want lowercase g", evs)
	}
}

func newRenderSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(session.Options{
		Assignments: []hints.Assignment{
			{Hint: hints.NewSequence('f', 1), Address: "0xf1", Class: "firefox", Title: "docs", Index: 0},
			{Hint: hints.NewSequence('g', 1), Address: "0xg1", Class: "ghostty", Title: "shell", Index: 1},
			{Hint: hints.NewSequence('g', 2), Address: "0xg2", Class: "ghostty", Title: "logs", Index: 2},
		},
		OverlayDelay:    time.Minute,
		ActivationDelay: time.Minute,
		Logger:          util.NewLoggerWithWriter(util.LevelError, io.Discard),
	})
	f, ok := s.PendingTimer()
	if !ok {
		t.Fatalf("no overlay timer armed")
	}
	s.Step(session.TimerEvent(f))
	return s
}

func TestRenderBorderShowsSelectionOnly(t *testing.T) {
	s := newRenderSession(t)
	var buf bytes.Buffer
	NewRenderer(&buf).Render(s)
	out := buf.String()
	if !strings.Contains(out, "firefox") {
		t.Fatalf("border frame missing selection:\n%s", out)
	}
	if strings.Contains(out, "hint:") {
		t.Fatalf("border frame should not show the hint table:\n%s", out)
	}
}

func TestRenderFullShowsHintTableAndMarkers(t *testing.T) {
	s := newRenderSession(t)
	s.Step(session.Event{Kind: session.KeyArrowDown})
	var buf bytes.Buffer
	NewRenderer(&buf).Render(s)
	out := buf.String()
	for _, want := range []string{"hint:", "firefox", "ghostty", "shell", "logs"} {
		if !strings.Contains(out, want) {
			t.Fatalf("full frame missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "> g") {
		t.Fatalf("cursor marker missing:\n%s", out)
	}
}

func TestRenderFullNarrowsToBufferAndFlagsPending(t *testing.T) {
	s := newRenderSession(t)
	s.Step(session.Event{Kind: session.KeyTab})
	s.Step(session.Key('g'))
	var buf bytes.Buffer
	NewRenderer(&buf).Render(s)
	out := buf.String()
	if strings.Contains(out, "firefox") {
		t.Fatalf("filtered frame still shows firefox:\n%s", out)
	}
	if !strings.Contains(out, "g*") {
		t.Fatalf("pending marker missing:\n%s", out)
	}
	if !strings.Contains(out, "gg") {
		t.Fatalf("longer candidate missing:\n%s", out)
	}
}
