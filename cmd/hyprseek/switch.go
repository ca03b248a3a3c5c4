package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hyprseek/hyprseek/internal/config"
	"github.com/hyprseek/hyprseek/internal/control"
	"github.com/hyprseek/hyprseek/internal/control/client"
	"github.com/hyprseek/hyprseek/internal/hints"
	"github.com/hyprseek/hyprseek/internal/ipc"
	"github.com/hyprseek/hyprseek/internal/lock"
	"github.com/hyprseek/hyprseek/internal/metrics"
	"github.com/hyprseek/hyprseek/internal/mru"
	"github.com/hyprseek/hyprseek/internal/session"
	"github.com/hyprseek/hyprseek/internal/state"
	"github.com/hyprseek/hyprseek/internal/ui/tui"
	"github.com/hyprseek/hyprseek/internal/util"
)

type switchOptions struct {
	logger        *util.Logger
	cfg           *config.Config
	hypr          *ipc.SwitchClient
	launcherMode  bool
	relayBackward bool
	metrics       bool
}

// runSwitch owns one switcher invocation end to end: single-instance
// arbitration, snapshot, session loop, and the terminal decision.
func runSwitch(ctx context.Context, opts switchOptions) error {
	lockPath, err := util.LockFile()
	if err != nil {
		return err
	}
	instance, err := lock.Acquire(lockPath)
	if errors.Is(err, lock.ErrHeld) {
		return relayToRunning(ctx, opts)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := instance.Release(); err != nil {
			opts.logger.Warnf("release instance lock: %v", err)
		}
	}()

	snap, err := state.NewSnapshot(ctx, opts.hypr)
	if err != nil {
		opts.logger.Errorf("enumerate windows: %v", err)
		snap = &state.Snapshot{}
	}

	store, err := mru.NewDefaultStore(opts.logger)
	if err != nil {
		return err
	}
	record := store.Load()
	previous := record.Previous
	if previous == "" && len(snap.Windows) > 1 {
		// No history yet: the second window in focus order is the
		// natural quick switch target.
		previous = snap.Windows[1].Address
	}

	assignments := hints.Assign(snap.Windows, opts.cfg.KeyForApp)

	collector := metrics.NewCollector(opts.metrics)
	collector.RecordSession()

	sess := session.New(session.Options{
		Assignments:     assignments,
		MruPrevious:     previous,
		Launchable:      func(c byte) bool { _, ok := opts.cfg.LaunchFor(c); return ok },
		LauncherMode:    opts.launcherMode,
		OverlayDelay:    opts.cfg.Settings.OverlayDelay(),
		ActivationDelay: opts.cfg.Settings.ActivationDelay(),
		Logger:          opts.logger,
	})

	if !sess.Terminal() {
		if err := runSessionLoop(ctx, opts.logger, sess); err != nil {
			return err
		}
	}

	return settle(ctx, opts, sess, snap.OriginAddress, store, collector)
}

// runSessionLoop wires the control socket and the terminal reader into the
// session and drives it to a terminal state. The session goroutine is the
// only one that touches the state machine.
func runSessionLoop(ctx context.Context, logger *util.Logger, sess *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan session.Event, 16)

	srv, err := control.NewServer(logger, func(cmd control.Command) error {
		var ev session.Event
		switch cmd {
		case control.CmdCycleForward:
			ev = session.Event{Kind: session.CycleForward}
		case control.CmdCycleBackward:
			ev = session.Event{Kind: session.CycleBackward}
		case control.CmdRelease:
			ev = session.Event{Kind: session.ModifierReleased}
		default:
			return fmt.Errorf("unhandled command %q", byte(cmd))
		}
		select {
		case events <- ev:
			return nil
		default:
			return fmt.Errorf("session busy")
		}
	})
	if err != nil {
		return err
	}
	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.Serve(ctx) }()

	renderer := tui.NewRenderer(os.Stdout)
	renderer.HideCursor()
	defer renderer.ShowCursor()

	reader := tui.NewReader(os.Stdin, logger)
	readerDone := make(chan error, 1)
	go func() { readerDone <- reader.Run(ctx, events) }()

	drive(ctx, sess, events, func() { renderer.Render(sess) })

	cancel()
	if err := <-serverDone; err != nil {
		logger.Warnf("control server: %v", err)
	}
	// Wait for the reader so the terminal leaves raw mode before exit.
	if err := <-readerDone; err != nil {
		logger.Debugf("key reader: %v", err)
	}
	return nil
}

// drive feeds the merged event stream into the session until it terminates.
// Timer fires re-enter through the same path as key events, so ordering
// stays total.
func drive(ctx context.Context, sess *session.Session, events <-chan session.Event, render func()) {
	render()
	for !sess.Terminal() {
		if fire, ok := sess.PendingTimer(); ok {
			d := time.Until(fire.Deadline)
			if d < 0 {
				d = 0
			}
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev := <-events:
				timer.Stop()
				sess.Step(ev)
			case <-timer.C:
				sess.Step(session.TimerEvent(fire))
			}
		} else {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				sess.Step(ev)
			}
		}
		render()
	}
}

// settle carries out the session's terminal decision.
func settle(ctx context.Context, opts switchOptions, sess *session.Session, origin string, store *mru.Store, collector *metrics.Collector) error {
	decision := sess.Decision()
	switch decision.Kind {
	case session.DecisionActivate:
		outcome := metrics.OutcomeActivate
		if sess.QuickSwitched() {
			outcome = metrics.OutcomeQuickSwitch
		}
		collector.RecordOutcome(outcome)
		if err := opts.hypr.FocusWindow(ctx, decision.Address); err != nil {
			collector.RecordFocusError()
			logMetrics(opts.logger, collector)
			return fmt.Errorf("focus window: %w", err)
		}
		store.Save(decision.Address)
	case session.DecisionLaunch:
		collector.RecordOutcome(metrics.OutcomeLaunch)
		launch, ok := opts.cfg.LaunchFor(decision.LaunchKey)
		if !ok {
			return fmt.Errorf("no launch binding for %q", decision.LaunchKey)
		}
		if err := spawn(opts.logger, launch); err != nil {
			return fmt.Errorf("launch %s: %w", launch.Command, err)
		}
	case session.DecisionCancel:
		collector.RecordOutcome(metrics.OutcomeCancel)
		if origin != "" {
			// Hand focus back to the window that had it when the
			// session started.
			if err := opts.hypr.FocusWindow(ctx, origin); err != nil {
				opts.logger.Warnf("restore origin focus: %v", err)
			}
		}
		opts.logger.Debugf("session cancelled")
	default:
		opts.logger.Warnf("session ended without a decision")
	}
	logMetrics(opts.logger, collector)
	return nil
}

func logMetrics(logger *util.Logger, collector *metrics.Collector) {
	if !collector.Enabled() {
		return
	}
	snap := collector.Snapshot()
	for _, o := range snap.Outcomes {
		logger.Debugf("metrics: %s=%d", o.Outcome, o.Count)
	}
	if snap.FocusErrors > 0 {
		logger.Debugf("metrics: focus-errors=%d", snap.FocusErrors)
	}
}

// relayToRunning forwards this invocation to the session already on screen.
func relayToRunning(ctx context.Context, opts switchOptions) error {
	cli, err := client.New("")
	if err != nil {
		return err
	}
	if opts.relayBackward {
		err = cli.CycleBackward(ctx)
	} else {
		err = cli.CycleForward(ctx)
	}
	if err != nil {
		return fmt.Errorf("relay to running session: %w", err)
	}
	opts.logger.Debugf("relayed cycle to running session")
	return nil
}

// spawn starts a configured application detached from the switcher.
func spawn(logger *util.Logger, launch *config.LaunchConfig) error {
	cmd := exec.Command(launch.Command, launch.Args...)
	env := os.Environ()
	for k, v := range launch.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	logger.Debugf("launched %s (pid %d)", launch.Command, cmd.Process.Pid)
	return cmd.Process.Release()
}

// runListWindows prints the hint table the next session would use.
func runListWindows(ctx context.Context, logger *util.Logger, cfg *config.Config, source state.DataSource, w io.Writer) error {
	snap, err := state.NewSnapshot(ctx, source)
	if err != nil {
		return fmt.Errorf("enumerate windows: %w", err)
	}
	store, err := mru.NewDefaultStore(logger)
	if err != nil {
		return err
	}
	record := store.Load()
	assignments := hints.Assign(snap.Windows, cfg.KeyForApp)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HINT\tCLASS\tTITLE\tADDRESS\t")
	for _, a := range assignments {
		marker := ""
		switch a.Address {
		case snap.OriginAddress:
			marker = "current"
		case record.Previous:
			marker = "previous"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.Hint, a.Class, a.Title, a.Address, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if record.Previous != "" {
		fmt.Fprintf(w, "\nquick switch target: %s\n", record.Previous)
	}
	return nil
}
