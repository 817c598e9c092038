package stavedb

import "errors"

// Errors returned by the store. Operational failures wrap one of these
// sentinels, so callers can match them with errors.Is.
var (
	// ErrKeyNotFound is returned by Get when no live value exists for
	// the key. It is an expected outcome, not a fault.
	ErrKeyNotFound = errors.New("stavedb: key not found")

	// ErrEmptyKey is returned when an operation is given a zero-length
	// key.
	ErrEmptyKey = errors.New("stavedb: key is empty")

	// ErrClosed is returned by any operation on a closed store.
	ErrClosed = errors.New("stavedb: store is closed")

	// ErrLocked is returned by Open when another process holds the
	// storage directory.
	ErrLocked = errors.New("stavedb: directory already in use")

	// ErrCorruptData is returned by Get when the bytes the index points
	// at no longer decode or validate against their checksum.
	ErrCorruptData = errors.New("stavedb: record fails validation")

	// ErrCorruptSegment is returned by Open when a sealed segment holds
	// a record that cannot be read. A damaged tail on the newest
	// segment is not in this class; it is truncated as an incomplete
	// write.
	ErrCorruptSegment = errors.New("stavedb: corrupt segment")

	// ErrStorageUnavailable is returned when the storage directory or a
	// segment file cannot be created or written.
	ErrStorageUnavailable = errors.New("stavedb: storage unavailable")

	// ErrInvalidConfig is returned by Open when an option carries an
	// unusable value.
	ErrInvalidConfig = errors.New("stavedb: invalid configuration")
)
