// Package lock guards against concurrent switcher instances with an advisory
// file lock.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrHeld reports that another instance already holds the lock.
var ErrHeld = errors.New("another instance is running")

// InstanceLock is an exclusive flock on a well-known file. The PID of the
// holder is written for diagnostics only; the flock is what arbitrates.
type InstanceLock struct {
	path string
	file *os.File
}

// Acquire takes the instance lock without blocking. ErrHeld is returned when
// a live holder exists.
func Acquire(path string) (*InstanceLock, error) {
	// No O_TRUNC: truncating before the flock would wipe the live
	// holder's PID.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("write pid: %w", err)
	}
	return &InstanceLock{path: path, file: f}, nil
}

// Release drops the lock and removes the file. Safe to call once.
func (l *InstanceLock) Release() error {
	if l.file == nil {
		return nil
	}
	// Remove while the flock is still held.
	removeErr := os.Remove(l.path)
	closeErr := l.file.Close()
	l.file = nil
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", removeErr)
	}
	return closeErr
}

// HolderPID reads the PID recorded in a lock file. Zero means the file is
// missing or unparseable.
func HolderPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(trimNewline(data)))
	if err != nil {
		return 0
	}
	return pid
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
