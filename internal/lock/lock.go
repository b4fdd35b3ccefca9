// Package lock provides the exclusive directory lock that gives one
// session ownership of a store.
package lock

import (
	"fmt"
	"os"
	"syscall"

	"github.com/mesh-intelligence/engram/pkg/types"
)

// Lock is an exclusive flock on the store's sentinel file. The kernel
// releases it if the owning process dies, so a crashed session never
// leaves the store permanently locked.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive, non-blocking lock on path, creating the
// sentinel file if needed. Returns types.ErrLocked when another process
// holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, types.ErrLocked
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. Safe to call more than once.
func (l *Lock) Release() error {
	if l.f == nil {
		return nil
	}
	if err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN); err != nil {
		l.f.Close()
		l.f = nil
		return fmt.Errorf("unlocking: %w", err)
	}
	err := l.f.Close()
	l.f = nil
	return err
}
