package stavedb

// keyDirEntry is the in-memory index entry for a single key.
//
// Each entry points at the value region of the latest record written
// for the key. Older records for the same key may still exist in
// sealed segments; they are unreachable because the index only ever
// holds the newest location.
type keyDirEntry struct {
	SegmentID uint32 // Segment file holding the record
	ValuePos  int64  // Byte offset of the value region within that segment
	ValueSize uint32 // Size of the value in bytes
	Timestamp int64  // Timestamp of the record
}

// keyDir is the in-memory index mapping each key to its latest on-disk
// location. A put overwrites any previous entry and a remove deletes
// the entry outright; tombstones exist only on disk, where they tell
// recovery that the key was deleted at that point in the log.
//
// The index is rebuilt by replaying the log on every Open and
// discarded on Close. Each store owns its own instance, so separate
// stores never share state.
type keyDir map[string]keyDirEntry
