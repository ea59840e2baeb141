// Package runlock keeps two harness runs from writing into the same capture
// directory and clobbering each other's screenshots.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

const (
	lockName = "run.lock"
	pidName  = "run.pid"
)

// ErrLocked is returned when another run holds the lock.
var ErrLocked = errors.New("another run is in progress")

// HeldError reports who holds the lock when that is known.
type HeldError struct {
	Path string
	PID  int
}

func (e *HeldError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("%s held by pid %d", e.Path, e.PID)
	}
	return fmt.Sprintf("%s is held", e.Path)
}

func (e *HeldError) Unwrap() error { return ErrLocked }

// Lock is an acquired run lock.
type Lock struct {
	flock *flock.Flock
	dir   string
}

// Acquire takes the run lock in dir without blocking.
func Acquire(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, lockName)
	fl := flock.New(path)

	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !acquired {
		return nil, &HeldError{Path: path, PID: readPID(dir)}
	}

	_ = os.WriteFile(filepath.Join(dir, pidName), []byte(strconv.Itoa(os.Getpid())), 0644)
	return &Lock{flock: fl, dir: dir}, nil
}

func (l *Lock) Path() string { return l.flock.Path() }

// Release drops the lock. It is safe to call on a nil or released Lock.
func (l *Lock) Release() error {
	if l == nil || !l.flock.Locked() {
		return nil
	}
	_ = os.Remove(filepath.Join(l.dir, pidName))
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.Path(), err)
	}
	return nil
}

func readPID(dir string) int {
	data, err := os.ReadFile(filepath.Join(dir, pidName))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
