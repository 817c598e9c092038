package lock

import "errors"

// ErrLocked means the directory is held by another live store process.
var ErrLocked = errors.New("lock: directory already in use")
