package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if l.Path() != filepath.Join(dir, "run.lock") {
		t.Errorf("Path = %s", l.Path())
	}
	if _, err := os.Stat(filepath.Join(dir, "run.pid")); err != nil {
		t.Errorf("pid file missing: %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}

	l2, err := Acquire(dir)
	if err != nil {
		t.Fatalf("re-Acquire after release: %v", err)
	}
	_ = l2.Release()
}

func TestAcquireHeld(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	_, err = Acquire(dir)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire err = %v, want ErrLocked", err)
	}
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected *HeldError, got %T", err)
	}
	if held.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", held.PID, os.Getpid())
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release: %v", err)
	}
}
