package state

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeSource struct {
	windows []Window
	active  string
	listErr error
}

func (f *fakeSource) ListWindows(ctx context.Context) ([]Window, error) {
	return f.windows, f.listErr
}

func (f *fakeSource) ActiveWindowAddress(ctx context.Context) (string, error) {
	if f.active == "" {
		return "", errors.New("no active window")
	}
	return f.active, nil
}

func TestNewSnapshotResolvesOriginFromFocusFlag(t *testing.T) {
	src := &fakeSource{windows: []Window{
		{Address: "0x1", Class: "firefox", Title: "Tab"},
		{Address: "0x2", Class: "ghostty", Title: "sh", Focused: true},
	}}
	snap, err := NewSnapshot(context.Background(), src)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	if snap.OriginAddress != "0x2" {
		t.Fatalf("origin = %q, want 0x2", snap.OriginAddress)
	}
	if origin := snap.Origin(); origin == nil || origin.Class != "ghostty" {
		t.Fatalf("unexpected origin window: %+v", origin)
	}
}

func TestNewSnapshotFallsBackToActiveWindowQuery(t *testing.T) {
	src := &fakeSource{
		windows: []Window{{Address: "0x1", Class: "firefox"}},
		active:  "0x1",
	}
	snap, err := NewSnapshot(context.Background(), src)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	if snap.OriginAddress != "0x1" {
		t.Fatalf("origin = %q, want 0x1", snap.OriginAddress)
	}
}

func TestNewSnapshotPropagatesListError(t *testing.T) {
	src := &fakeSource{listErr: errors.New("socket gone")}
	if _, err := NewSnapshot(context.Background(), src); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCloneSnapshotIsDeep(t *testing.T) {
	orig := &Snapshot{
		Windows:       []Window{{Address: "0x1", Class: "firefox"}},
		OriginAddress: "0x1",
	}
	clone := CloneSnapshot(orig)
	clone.Windows[0].Class = "changed"
	if orig.Windows[0].Class != "firefox" {
		t.Fatalf("clone aliases original windows slice")
	}
	if diff := cmp.Diff("0x1", clone.OriginAddress); diff != "" {
		t.Fatalf("origin mismatch (-want +got):\n%s", diff)
	}
}

func TestLastSegment(t *testing.T) {
	cases := map[string]string{
		"com.mitchellh.ghostty": "ghostty",
		"org.mozilla.firefox":   "firefox",
		"firefox":               "firefox",
		"":                      "",
	}
	for in, want := range cases {
		if got := LastSegment(in); got != want {
			t.Fatalf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}
