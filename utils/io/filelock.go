package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by DirLock.Lock when another process holds the lock.
var ErrLocked = errors.New("directory is locked by another process")

// DirLock is an exclusive advisory lock guarding a database directory against
// concurrent use by offline tools. The lock file is a sibling of the directory
// so that the directory itself is left untouched.
type DirLock struct {
	lock *flock.Flock
	path string
}

func NewDirLock(dir string) *DirLock {
	path := filepath.Clean(dir) + ".lock"
	return &DirLock{
		lock: flock.New(path),
		path: path,
	}
}

// Lock acquires the lock without blocking.
func (l *DirLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("could not create parent directory of lock file %s: %w", l.path, err)
	}

	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("could not acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", l.path, ErrLocked)
	}
	return nil
}

func (l *DirLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("could not release lock %s: %w", l.path, err)
	}
	return nil
}

func (l *DirLock) Path() string {
	return l.path
}
