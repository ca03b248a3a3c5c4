// Package ipc talks to the Hyprland compositor: window queries shell out to
// hyprctl, focus dispatches prefer the instance command socket.
package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/hyprseek/hyprseek/internal/state"
	"github.com/hyprseek/hyprseek/internal/util"
)

// Client wraps hyprctl shell-outs.
type Client struct {
	Binary string

	// runner overrides command execution in tests.
	runner func(ctx context.Context, binary string, args ...string) ([]byte, error)
}

// NewClient returns a hyprctl client using the binary on PATH.
func NewClient() *Client {
	return &Client{Binary: "hyprctl"}
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.runner != nil {
		return c.runner(ctx, c.Binary, args...)
	}
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("hyprctl %s: %v: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (c *Client) queryJSON(ctx context.Context, topic string) ([]byte, error) {
	return c.run(ctx, "-j", topic)
}

// ListWindows returns all mapped windows ordered by focus recency, most
// recently focused first. Hint assignment and overlay rows follow this order.
func (c *Client) ListWindows(ctx context.Context) ([]state.Window, error) {
	data, err := c.queryJSON(ctx, "clients")
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Address        string `json:"address"`
		Class          string `json:"class"`
		Title          string `json:"title"`
		Mapped         bool   `json:"mapped"`
		Hidden         bool   `json:"hidden"`
		Focused        bool   `json:"focused"`
		FocusHistoryID int    `json:"focusHistoryID"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	type entry struct {
		win  state.Window
		rank int
	}
	entries := make([]entry, 0, len(raw))
	for _, cl := range raw {
		if !cl.Mapped || cl.Hidden || cl.Address == "" {
			continue
		}
		focused := cl.Focused || cl.FocusHistoryID == 0
		entries = append(entries, entry{
			win: state.Window{
				Address: cl.Address,
				Class:   cl.Class,
				Title:   cl.Title,
				Focused: focused,
			},
			rank: cl.FocusHistoryID,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].rank < entries[j].rank
	})
	windows := make([]state.Window, 0, len(entries))
	for _, e := range entries {
		windows = append(windows, e.win)
	}
	return windows, nil
}

// ActiveWindowAddress returns the currently focused window address.
func (c *Client) ActiveWindowAddress(ctx context.Context) (string, error) {
	data, err := c.queryJSON(ctx, "activewindow")
	if err != nil {
		return "", err
	}
	var payload struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode activewindow: %w", err)
	}
	return payload.Address, nil
}

// Dispatch invokes `hyprctl dispatch`.
func (c *Client) Dispatch(ctx context.Context, args ...string) error {
	dispatchArgs := append([]string{"dispatch"}, args...)
	_, err := c.run(ctx, dispatchArgs...)
	return err
}

var _ state.DataSource = (*Client)(nil)

// Dispatcher issues dispatch commands to Hyprland.
type Dispatcher interface {
	Dispatch(ctx context.Context, args ...string) error
}

// DispatchStrategy describes how dispatch commands are issued to Hyprland.
type DispatchStrategy string

const (
	// DispatchStrategySocket uses the Hyprland command socket directly.
	DispatchStrategySocket DispatchStrategy = "socket"
	// DispatchStrategyHyprctl shells out to the hyprctl binary.
	DispatchStrategyHyprctl DispatchStrategy = "hyprctl"
)

// SwitchClient combines the hyprctl data source with the fastest available
// dispatch path for the final focus change.
type SwitchClient struct {
	*Client
	dispatcher Dispatcher
}

// FocusWindow brings the window at address to the foreground.
func (c *SwitchClient) FocusWindow(ctx context.Context, address string) error {
	if address == "" {
		return fmt.Errorf("focus window: empty address")
	}
	d := c.dispatcher
	if d == nil {
		d = c.Client
	}
	return d.Dispatch(ctx, "focuswindow", "address:"+address)
}

// NewSwitchClient returns a client using the requested strategy when
// possible, falling back to hyprctl shell-outs when the command socket is
// unavailable.
func NewSwitchClient(logger *util.Logger, requested DispatchStrategy) (*SwitchClient, DispatchStrategy, error) {
	base := NewClient()
	switch requested {
	case DispatchStrategySocket:
		disp, err := newSocketDispatcher()
		if err != nil {
			if logger != nil {
				logger.Warnf("falling back to hyprctl dispatch: %v", err)
			}
			return &SwitchClient{Client: base}, DispatchStrategyHyprctl, nil
		}
		if logger != nil {
			logger.Debugf("using socket dispatch at %s", disp.path)
		}
		return &SwitchClient{Client: base, dispatcher: disp}, DispatchStrategySocket, nil
	case DispatchStrategyHyprctl:
		return &SwitchClient{Client: base}, DispatchStrategyHyprctl, nil
	default:
		return nil, "", fmt.Errorf("unknown dispatch strategy %q", requested)
	}
}
