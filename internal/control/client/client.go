// Package client dials the control socket of a running session.
package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hyprseek/hyprseek/internal/control"
)

// defaultTimeout is used when the caller does not provide a context deadline.
const defaultTimeout = 3 * time.Second

// Client talks to a running session over its control socket.
type Client struct {
	socketPath string
}

// New creates a client for the provided socket path. When path is empty, the
// default runtime path is used.
func New(path string) (*Client, error) {
	if path == "" {
		var err error
		path, err = control.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Client{socketPath: path}, nil
}

// Ping reports whether a session is listening.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, control.CmdPing, control.RespPong)
}

// CycleForward advances the running session's selection cursor.
func (c *Client) CycleForward(ctx context.Context) error {
	return c.do(ctx, control.CmdCycleForward, control.RespOK)
}

// CycleBackward moves the running session's selection cursor back.
func (c *Client) CycleBackward(ctx context.Context) error {
	return c.do(ctx, control.CmdCycleBackward, control.RespOK)
}

// Release relays the trigger modifier going up.
func (c *Client) Release(ctx context.Context) error {
	return c.do(ctx, control.CmdRelease, control.RespOK)
}

func (c *Client) do(ctx context.Context, cmd control.Command, want control.Response) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("connect control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write([]byte{byte(cmd)}); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	switch resp := control.Response(buf[0]); resp {
	case want:
		return nil
	case control.RespError:
		return fmt.Errorf("session rejected command %q", byte(cmd))
	default:
		return fmt.Errorf("unexpected response %q", buf[0])
	}
}
