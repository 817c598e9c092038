//go:build unix

package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive, non-blocking advisory lock on the given
// directory using a lock file.
//
// On Unix systems, this uses flock(2) to place an exclusive lock on a
// file named "LOCK" inside the directory. If the lock cannot be
// acquired, the directory is in use by another store instance.
//
// The returned file handle must remain open for the duration of the lock.
func Acquire(dir string) (*os.File, error) {
	path := filepath.Join(dir, "LOCK")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrLocked
	}

	return f, nil
}

// Release drops a lock acquired via Acquire.
//
// The lock file itself is left in place: the flock, not the file's
// existence, is what other processes contend on.
func Release(f *os.File) error {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return f.Close()
}
