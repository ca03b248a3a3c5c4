package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyprseek/hyprseek/internal/control"
	"github.com/hyprseek/hyprseek/internal/util"
)

func startSession(t *testing.T) (string, func() []control.Command) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "control.sock")
	var mu sync.Mutex
	var got []control.Command
	logger := util.NewLoggerWithWriter(util.LevelError, io.Discard)
	srv := control.NewServerAt(path, logger, func(c control.Command) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("control socket never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return path, func() []control.Command {
		mu.Lock()
		defer mu.Unlock()
		return append([]control.Command(nil), got...)
	}
}

func TestRunCycleCommands(t *testing.T) {
	path, delivered := startSession(t)
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-socket", path, "next"}, &stdout, &stderr); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := run([]string{"-socket", path, "prev"}, &stdout, &stderr); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if err := run([]string{"-socket", path, "release"}, &stdout, &stderr); err != nil {
		t.Fatalf("release: %v", err)
	}
	got := delivered()
	want := []control.Command{control.CmdCycleForward, control.CmdCycleBackward, control.CmdRelease}
	if len(got) != len(want) {
		t.Fatalf("delivered = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivered = %v, want %v", got, want)
		}
	}
}

func TestRunPing(t *testing.T) {
	path, _ := startSession(t)
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-socket", path, "ping"}, &stdout, &stderr); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.Contains(stdout.String(), "running") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunRequiresSubcommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(nil, &stdout, &stderr); err == nil {
		t.Fatalf("expected missing subcommand error")
	}
}

func TestRunUnknownSubcommand(t *testing.T) {
	path, _ := startSession(t)
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-socket", path, "bogus"}, &stdout, &stderr); err == nil {
		t.Fatalf("expected unknown subcommand error")
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("keys:\n  f:\n    apps: [firefox]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("keys:\n  fg:\n    apps: [x]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if err := run([]string{"check", "-config", good}, &stdout, &stderr); err != nil {
		t.Fatalf("check good: %v", err)
	}
	if !strings.Contains(stdout.String(), "Configuration OK") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if err := run([]string{"check", "-config", bad}, &stdout, &stderr); err == nil {
		t.Fatalf("expected validation failure")
	}
}
