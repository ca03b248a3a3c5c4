package state

import "context"

// Window describes a toplevel window as reported by the compositor. The
// snapshot is immutable; the engine never mutates windows after enumeration.
type Window struct {
	Address string
	Class   string
	Title   string
	Focused bool
}

// Snapshot represents the set of windows at invocation start.
type Snapshot struct {
	Windows       []Window
	OriginAddress string
}

// DataSource abstracts the compositor queries required to build a snapshot.
type DataSource interface {
	ListWindows(ctx context.Context) ([]Window, error)
	ActiveWindowAddress(ctx context.Context) (string, error)
}

// NewSnapshot builds a snapshot using the provided data source. The origin
// window is the one focused when the switcher was invoked; it is resolved
// from the focused flag first and the active-window query as a fallback.
func NewSnapshot(ctx context.Context, src DataSource) (*Snapshot, error) {
	windows, err := src.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Windows: windows}
	for _, w := range windows {
		if w.Focused {
			snap.OriginAddress = w.Address
			break
		}
	}
	if snap.OriginAddress == "" {
		if addr, err := src.ActiveWindowAddress(ctx); err == nil {
			snap.OriginAddress = addr
		}
	}
	return snap, nil
}

// FindWindow returns the window with the given address, or nil.
func (s *Snapshot) FindWindow(address string) *Window {
	for i := range s.Windows {
		if s.Windows[i].Address == address {
			return &s.Windows[i]
		}
	}
	return nil
}

// Origin returns the window of origin if present.
func (s *Snapshot) Origin() *Window {
	if s.OriginAddress == "" {
		return nil
	}
	return s.FindWindow(s.OriginAddress)
}

// CloneSnapshot returns a deep copy of the provided snapshot.
func CloneSnapshot(src *Snapshot) *Snapshot {
	if src == nil {
		return nil
	}
	clone := *src
	if len(src.Windows) > 0 {
		clone.Windows = append([]Window(nil), src.Windows...)
	}
	return &clone
}

// LastSegment returns the last dot-separated segment of a reverse-DNS app
// class, e.g. "com.mitchellh.ghostty" yields "ghostty".
func LastSegment(class string) string {
	for i := len(class) - 1; i >= 0; i-- {
		if class[i] == '.' {
			return class[i+1:]
		}
	}
	return class
}
