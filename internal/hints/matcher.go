package hints

import "strings"

// MatchKind classifies the outcome of resolving a buffer against hints.
type MatchKind int

const (
	// Dead means no hint has the buffer as a prefix.
	Dead MatchKind = iota
	// Ambiguous means more than one hint is still reachable. When the
	// buffer spells one of them exactly, ExactIndex identifies it and the
	// caller is expected to wait out the activation delay before
	// committing.
	Ambiguous
	// Exact means exactly one hint is reachable; it can fire immediately.
	Exact
)

// Match is the result of resolving an input buffer.
type Match struct {
	Kind MatchKind
	// ExactIndex is the assignment index of the exact candidate, or -1.
	ExactIndex int
	// Candidates holds the assignment indices still reachable from the
	// buffer, in assignment order. Empty for Dead.
	Candidates []int
}

// ExactCandidate reports the exact candidate index when one exists.
func (m Match) ExactCandidate() (int, bool) {
	return m.ExactIndex, m.ExactIndex >= 0
}

// Resolve matches the accumulated input buffer against the assignments.
// An empty buffer is Ambiguous over all assignments. The buffer is
// normalized first: a trailing digit run N immediately after the letters
// expands them to the base letter repeated N times ("g2" means "gg").
func Resolve(assignments []Assignment, buffer string) Match {
	if len(assignments) == 0 {
		return Match{Kind: Dead, ExactIndex: -1}
	}
	if buffer == "" {
		all := make([]int, len(assignments))
		for i := range assignments {
			all[i] = i
		}
		return Match{Kind: Ambiguous, ExactIndex: -1, Candidates: all}
	}

	normalized := Normalize(buffer)
	var candidates []int
	exact := -1
	for i, a := range assignments {
		if !a.Hint.hasPrefix(normalized) {
			continue
		}
		candidates = append(candidates, i)
		if a.Hint.equals(normalized) {
			exact = i
		}
	}

	switch len(candidates) {
	case 0:
		return Match{Kind: Dead, ExactIndex: -1}
	case 1:
		// A unique prefix cannot be disambiguated into anything else,
		// so it resolves immediately even when shorter than the hint.
		return Match{Kind: Exact, ExactIndex: candidates[0], Candidates: candidates}
	default:
		return Match{Kind: Ambiguous, ExactIndex: exact, Candidates: candidates}
	}
}

// FilterAssignments returns the assignments still reachable from the buffer,
// used by the overlay to narrow the displayed list while typing.
func FilterAssignments(assignments []Assignment, buffer string) []Assignment {
	if buffer == "" {
		return assignments
	}
	normalized := Normalize(buffer)
	var out []Assignment
	for _, a := range assignments {
		if a.Hint.hasPrefix(normalized) {
			out = append(out, a)
		}
	}
	return out
}

// maxRepeat bounds the numeric alternate form; repetition counts beyond the
// alphabet are never assigned, so larger values cannot name a hint.
const maxRepeat = 26

// Normalize lowercases the buffer and canonicalizes the numeric alternate
// form: letters followed by a digit run N become the base letter repeated N
// times, provided the letters are all the same base. A digit may only follow
// the letters it modifies; anything else passes through unchanged and will
// simply fail to match.
func Normalize(buffer string) string {
	s := strings.ToLower(buffer)
	digitStart := len(s)
	for digitStart > 0 && isDigit(s[digitStart-1]) {
		digitStart--
	}
	if digitStart == len(s) || digitStart == 0 {
		// No trailing digits, or digits with no preceding letters.
		return s
	}
	letters := s[:digitStart]
	base := letters[0]
	for i := 1; i < len(letters); i++ {
		if letters[i] != base {
			return s
		}
	}
	n := 0
	for i := digitStart; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
		if n > maxRepeat {
			return s
		}
	}
	if n == 0 {
		return s
	}
	return strings.Repeat(string(base), n)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
