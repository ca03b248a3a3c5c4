// Package tui renders the switcher overlay to a terminal and decodes raw key
// input into session events.
package tui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hyprseek/hyprseek/internal/session"
)

const titleWidth = 48

// Renderer draws session frames as plain ANSI text.
type Renderer struct {
	Writer io.Writer
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{Writer: w}
}

// HideCursor suppresses the terminal cursor for the overlay's lifetime.
func (r *Renderer) HideCursor() {
	fmt.Fprint(r.Writer, "\033[?25l")
}

// ShowCursor restores the terminal cursor.
func (r *Renderer) ShowCursor() {
	fmt.Fprint(r.Writer, "\033[?25h")
}

// Render draws one frame for the current session phase. Raw mode needs
// explicit carriage returns, so every line ends in \r\n.
func (r *Renderer) Render(s *session.Session) {
	var buf bytes.Buffer
	buf.WriteString("\033[H\033[2J")
	switch s.State() {
	case session.Initial:
		r.renderBorder(&buf, s)
	case session.Full:
		r.renderFull(&buf, s)
	default:
		fmt.Fprint(r.Writer, buf.String())
		return
	}
	fmt.Fprint(r.Writer, buf.String())
}

// renderBorder is the minimal pre-overlay frame: just the selection, no hint
// table yet.
func (r *Renderer) renderBorder(buf *bytes.Buffer, s *session.Session) {
	assignments := s.Assignments()
	if s.Cursor() >= len(assignments) {
		return
	}
	sel := assignments[s.Cursor()]
	fmt.Fprintf(buf, "\033[7m %s \033[0m %s\r\n", sel.Class, truncate(sel.Title, titleWidth))
}

func (r *Renderer) renderFull(buf *bytes.Buffer, s *session.Session) {
	fmt.Fprintf(buf, "hint: %s█\r\n\r\n", s.Buffer())

	visible := s.Visible()
	shown := make(map[int]bool, len(visible))
	for _, a := range visible {
		shown[a.Index] = true
	}

	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 4, 2, ' ', 0)
	for i, a := range s.Assignments() {
		if !shown[a.Index] {
			continue
		}
		marker := " "
		if i == s.Cursor() {
			marker = ">"
		}
		hint := a.Hint.String()
		if i == s.PendingIndex() {
			hint += "*"
		}
		title := a.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, hint, a.Class, truncate(title, titleWidth))
	}
	tw.Flush()
	// tabwriter emits plain \n; raw mode needs \r\n.
	buf.WriteString(strings.ReplaceAll(table.String(), "\n", "\r\n"))
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
