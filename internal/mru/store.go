// Package mru persists the previous/current window pair across invocations.
// Each run of the switcher is a new process, so quick switch only works if
// the record survives on disk. The file holds two newline-terminated lines,
// previous then current; empty or missing lines mean "none".
package mru

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/hyprseek/hyprseek/internal/util"
)

// Record is the two-slot MRU state.
type Record struct {
	Previous string
	Current  string
}

// Store reads and writes the MRU record. The file is guarded by an advisory
// flock held only for the duration of each read or read-modify-write;
// concurrent invocations cannot lose updates, though single-instance locking
// normally prevents them from racing at all.
type Store struct {
	path   string
	logger *util.Logger
}

// NewStore creates a store for the given file path.
func NewStore(path string, logger *util.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// NewDefaultStore creates a store at the standard cache location.
func NewDefaultStore(logger *util.Logger) (*Store, error) {
	path, err := util.MruFile()
	if err != nil {
		return nil, err
	}
	return NewStore(path, logger), nil
}

// Load returns the persisted record. A missing file is not an error; read
// failures are logged and yield an empty record, narrowing quick switch
// rather than aborting the session.
func (s *Store) Load() Record {
	f, err := os.Open(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warnf("mru: open for read: %v", err)
		}
		return Record{}
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		s.logger.Warnf("mru: shared lock: %v", err)
		return Record{}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Warnf("mru: read: %v", err)
		return Record{}
	}
	return parseRecord(data)
}

// Save records an activation: the old current shifts to previous and the
// activated window becomes current. Activating the window that is already
// current leaves the record untouched. All failures are logged and
// swallowed; a broken cache file must never undo a successful activation.
func (s *Store) Save(newCurrent string) {
	if newCurrent == "" {
		return
	}
	if err := s.save(newCurrent); err != nil {
		s.logger.Warnf("mru: save: %v", err)
	}
}

func (s *Store) save(newCurrent string) error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	// The exclusive lock covers the whole read-modify-write; the in-place
	// rewrite below keeps the locked inode identical for every waiter, so
	// writers queued behind us observe the updated contents.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	rec := parseRecord(data)
	if rec.Current == newCurrent {
		return nil
	}
	rec.Previous = rec.Current
	rec.Current = newCurrent

	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s\n%s\n", rec.Previous, rec.Current); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return f.Sync()
}

func parseRecord(data []byte) Record {
	lines := strings.Split(string(data), "\n")
	rec := Record{}
	if len(lines) > 0 {
		rec.Previous = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		rec.Current = strings.TrimSpace(lines[1])
	}
	return rec
}
