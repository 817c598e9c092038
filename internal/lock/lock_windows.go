//go:build windows

package lock

import (
	"os"
	"path/filepath"
)

// Acquire takes an exclusive lock on the given directory using a lock
// file.
//
// On Windows, this is implemented by atomically creating a file named
// "LOCK" inside the directory. If the file already exists, the
// directory is in use by another store instance.
//
// The returned file handle must be kept open for the duration of the lock.
func Acquire(dir string) (*os.File, error) {
	path := filepath.Join(dir, "LOCK")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, ErrLocked
	}

	return f, nil
}

// Release drops a lock acquired via Acquire.
//
// On Windows the file's existence is the lock, so it is removed from
// disk. Release should be called exactly once per successful Acquire.
func Release(f *os.File) error {
	name := f.Name()
	err := f.Close()
	os.Remove(name)
	return err
}
