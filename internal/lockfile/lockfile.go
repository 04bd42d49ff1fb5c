// SPDX-License-Identifier: MPL-2.0

// Package lockfile provides an advisory file lock guarding the install state
// against concurrent orchestrator runs in the same workspace. The pipeline
// assumes a single writer; the lock makes a second invocation fail fast
// instead of silently racing.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrLockBusy is returned when another devduck process holds the lock.
var ErrLockBusy = errors.New("workspace lock already held by another process")

// Lock is a held advisory lock.
type Lock struct {
	path string
	f    *os.File
}

// Acquire takes a non-blocking exclusive lock on path, creating the file and
// its parent directory as needed. Returns ErrLockBusy when another process
// holds the lock.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := flockExclusive(f); err != nil {
		f.Close()
		return nil, err
	}

	// Record the holder pid for diagnostics; best effort only.
	_ = f.Truncate(0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	return &Lock{path: path, f: f}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock and closes the file.
func (l *Lock) Release() error {
	if l.f == nil {
		return nil
	}
	if err := flockUnlock(l.f); err != nil {
		l.f.Close()
		return err
	}
	err := l.f.Close()
	l.f = nil
	return err
}
