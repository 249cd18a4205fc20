// Package lockfile guards read-modify-write cycles on files shared between
// lineup processes with an advisory lock on a sibling ".lock" file.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrLockBusy is returned by TryAcquire when another holder has the lock.
var ErrLockBusy = errors.New("lock already held by another process")

// Lock is a held exclusive lock. Release it when done.
type Lock struct {
	f *os.File
}

// Acquire blocks until it holds the exclusive lock for target.
func Acquire(target string) (*Lock, error) {
	f, err := openLockFile(target)
	if err != nil {
		return nil, err
	}
	if err := FlockExclusiveBlocking(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock %s: %w", f.Name(), err)
	}
	return &Lock{f: f}, nil
}

// TryAcquire takes the exclusive lock for target or returns ErrLockBusy.
func TryAcquire(target string) (*Lock, error) {
	f, err := openLockFile(target)
	if err != nil {
		return nil, err
	}
	if err := FlockExclusiveNonBlocking(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLockBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("lock %s: %w", f.Name(), err)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := FlockUnlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

// Path returns the path of the lock file for target.
func Path(target string) string {
	return target + ".lock"
}

func openLockFile(target string) (*os.File, error) {
	// #nosec G304 - lock path derived from a caller-owned file
	f, err := os.OpenFile(Path(target), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}
