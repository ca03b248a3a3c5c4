package control

import (
	"errors"
	"os"
	"path/filepath"
)

// SocketFileName is the filename of the control socket within the runtime dir.
const SocketFileName = "control.sock"

// Command is a single-byte instruction sent to a running session. The
// protocol is one command byte per connection followed by one response byte.
type Command byte

const (
	// CmdCycleForward advances the selection cursor.
	CmdCycleForward Command = 'F'
	// CmdCycleBackward moves the selection cursor back.
	CmdCycleBackward Command = 'B'
	// CmdPing probes for a live session.
	CmdPing Command = 'P'
	// CmdRelease relays the trigger modifier going up. Compositor
	// keybindings send this, since terminals never see key releases.
	CmdRelease Command = 'R'
)

// Response is the single status byte written back for every command.
type Response byte

const (
	// RespOK acknowledges a delivered command.
	RespOK Response = 'K'
	// RespPong answers CmdPing.
	RespPong Response = 'O'
	// RespError reports an unknown or undeliverable command.
	RespError Response = 'E'
)

// DefaultSocketPath returns the expected location of the control socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv("HYPRSEEK_CONTROL_SOCKET"); env != "" {
		return env, nil
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "hyprseek", SocketFileName), nil
}
