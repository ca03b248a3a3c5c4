package hints

import (
	"strings"

	"github.com/hyprseek/hyprseek/internal/state"
)

// OverflowBase marks windows that could not be given a real hint because the
// alphabet ran out. They stay selectable via the cursor; typing cannot reach
// them, which is the intended soft failure.
const OverflowBase = '?'

// Sequence is a repeated-letter hint such as "g", "gg", "ggg". It is stored
// as base letter plus repetition count; the string form is derived.
type Sequence struct {
	base  byte
	count int
}

// NewSequence builds a sequence from a base letter and repetition count.
// The base is lowercased and the count clamped to at least one.
func NewSequence(base byte, count int) Sequence {
	if base >= 'A' && base <= 'Z' {
		base += 'a' - 'A'
	}
	if count < 1 {
		count = 1
	}
	return Sequence{base: base, count: count}
}

// Base returns the base letter.
func (s Sequence) Base() byte { return s.base }

// Count returns the repetition count.
func (s Sequence) Count() int { return s.count }

func (s Sequence) String() string {
	return strings.Repeat(string(s.base), s.count)
}

// hasPrefix reports whether the normalized buffer is a prefix (strict or
// full) of this sequence.
func (s Sequence) hasPrefix(normalized string) bool {
	return strings.HasPrefix(s.String(), normalized)
}

// equals reports whether the normalized buffer spells exactly this sequence.
func (s Sequence) equals(normalized string) bool {
	return s.String() == normalized
}

// Assignment associates a hint sequence with a window from the snapshot.
type Assignment struct {
	Hint    Sequence
	Address string
	Class   string
	Title   string
	Index   int
}

// KeyFunc reports the configured hint letter for an app class, if any.
type KeyFunc func(class string) (byte, bool)

// Assign maps the window list to hint assignments. Windows whose app class
// has a configured letter get that letter repeated once per same-class
// window in encounter order (f, ff, fff). Windows of unconfigured classes
// each get the next unused lowercase letter, scanning a..z and skipping
// letters consumed by configured bindings or earlier allocations. When the
// alphabet is exhausted, remaining windows share the overflow marker.
// Output order matches input order; the function has no side effects.
func Assign(windows []state.Window, keyOf KeyFunc) []Assignment {
	if keyOf == nil {
		keyOf = func(string) (byte, bool) { return 0, false }
	}

	type group struct {
		letter     byte
		configured bool
		members    int
	}
	groups := make(map[string]*group)
	order := make([]string, 0, len(windows))
	used := make(map[byte]bool)

	for _, w := range windows {
		if _, ok := groups[w.Class]; ok {
			continue
		}
		g := &group{}
		if letter, ok := keyOf(w.Class); ok {
			g.letter = lower(letter)
			g.configured = true
			used[g.letter] = true
		}
		groups[w.Class] = g
		order = append(order, w.Class)
	}

	assignments := make([]Assignment, 0, len(windows))
	for i, w := range windows {
		g := groups[w.Class]
		g.members++
		var hint Sequence
		if g.configured {
			hint = NewSequence(g.letter, g.members)
		} else {
			hint = NewSequence(nextFreeLetter(used), 1)
		}
		assignments = append(assignments, Assignment{
			Hint:    hint,
			Address: w.Address,
			Class:   w.Class,
			Title:   w.Title,
			Index:   i,
		})
	}
	return assignments
}

// nextFreeLetter scans a..z for an unused letter, marking it used. On
// exhaustion it returns the overflow marker without reserving it.
func nextFreeLetter(used map[byte]bool) byte {
	for c := byte('a'); c <= 'z'; c++ {
		if !used[c] {
			used[c] = true
			return c
		}
	}
	return OverflowBase
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}
