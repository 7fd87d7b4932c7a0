package progress

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another session holds the input.
var ErrLocked = errors.New("another translation session is running on this input")

// Lock is an exclusive advisory lock on one input file.
type Lock struct {
	lock *flock.Flock
}

// LockPathFor returns the lock file used for inputFile.
func LockPathFor(inputFile string) string {
	return filepath.Join(filepath.Dir(inputFile), "."+filepath.Base(inputFile)+".lock")
}

// Acquire takes the lock for inputFile without blocking.
func Acquire(inputFile string) (*Lock, error) {
	lock := flock.New(LockPathFor(inputFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{lock: lock}, nil
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	path := l.lock.Path()
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release session lock: %w", err)
	}
	_ = os.Remove(path)
	return nil
}
