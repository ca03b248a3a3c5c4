package config

import (
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Diff reports a line-oriented diff between two serialized configuration
// payloads, or "" when they are equivalent. Used by the watch mode to log
// what changed between reloads.
func Diff(previous, current []byte) string {
	return cmp.Diff(splitLines(previous), splitLines(current))
}

func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
