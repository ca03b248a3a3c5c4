package tui

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/hyprseek/hyprseek/internal/session"
	"github.com/hyprseek/hyprseek/internal/util"
)

// Reader owns the terminal in raw mode and translates keystrokes into
// session events.
type Reader struct {
	in     *os.File
	logger *util.Logger
}

// NewReader wraps the given tty, usually os.Stdin.
func NewReader(in *os.File, logger *util.Logger) *Reader {
	return &Reader{in: in, logger: logger}
}

// Run switches the terminal to raw mode and forwards decoded events until the
// context is cancelled. The blocking tty read cannot be interrupted, so the
// read loop runs on its own goroutine and is abandoned on cancellation; the
// terminal state is restored before returning.
func (r *Reader) Run(ctx context.Context, events chan<- session.Event) error {
	fd := int(r.in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() {
		if err := term.Restore(fd, oldState); err != nil {
			r.logger.Warnf("restore terminal: %v", err)
		}
	}()

	decoded := make(chan []session.Event)
	go func() {
		defer close(decoded)
		buf := make([]byte, 64)
		for {
			n, err := r.in.Read(buf)
			if err != nil {
				return
			}
			evs := Decode(buf[:n])
			select {
			case decoded <- evs:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evs, ok := <-decoded:
			if !ok {
				return nil
			}
			for _, ev := range evs {
				select {
				case events <- ev:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// Decode translates one raw read into session events. Escape sequences are
// assumed to arrive whole, which holds for terminal-generated input.
func Decode(buf []byte) []session.Event {
	var events []session.Event
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b == 0x1b:
			if i+2 < len(buf) && buf[i+1] == '[' {
				switch buf[i+2] {
				case 'A':
					events = append(events, session.Event{Kind: session.KeyArrowUp})
				case 'B':
					events = append(events, session.Event{Kind: session.KeyArrowDown})
				case 'Z':
					events = append(events, session.Event{Kind: session.KeyBackTab})
				}
				// Unrecognized sequences are swallowed whole.
				i += 2
				continue
			}
			events = append(events, session.Event{Kind: session.KeyEscape})
		case b == '\r' || b == '\n':
			events = append(events, session.Event{Kind: session.KeyEnter})
		case b == 0x7f || b == 0x08:
			events = append(events, session.Event{Kind: session.KeyBackspace})
		case b == '\t':
			events = append(events, session.Event{Kind: session.KeyTab})
		case b == 0x03:
			// Ctrl+C cancels like Escape.
			events = append(events, session.Event{Kind: session.KeyEscape})
		case b >= 'a' && b <= 'z', b >= '0' && b <= '9':
			events = append(events, session.Key(b))
		case b >= 'A' && b <= 'Z':
			events = append(events, session.Key(b+('a'-'A')))
		}
	}
	return events
}
