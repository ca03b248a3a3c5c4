package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Runtime state lives in ~/.cache/hyprseek with owner-only permissions. The
// MRU file and the instance lock are shared between racing invocations, so
// the directory must never fall back to a world-writable location.
const secureDirMode = 0o700

// CacheDir returns the hyprseek cache directory, creating it with secure
// permissions when missing and tightening permissions when they drifted.
func CacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("determine cache directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "hyprseek")
	if err := ensureSecureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// MruFile returns the path of the persisted MRU record.
func MruFile() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mru"), nil
}

// LockFile returns the path of the single-instance lock file.
func LockFile() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "instance.lock"), nil
}

// LogFile returns the path of the session debug log.
func LogFile() (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

func ensureSecureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, secureDirMode); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat cache dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", dir)
	}
	if info.Mode().Perm() != secureDirMode {
		if err := os.Chmod(dir, secureDirMode); err != nil {
			return fmt.Errorf("fix cache dir permissions: %w", err)
		}
	}
	return nil
}
