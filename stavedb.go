package stavedb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stavedb/stavedb/internal/lock"
	"github.com/stavedb/stavedb/internal/record"
	"github.com/stavedb/stavedb/internal/segment"
)

// DB is a log-structured key-value store over a single directory.
//
// All methods are safe for concurrent use. Writes are serialized;
// reads run concurrently with each other and with the writer.
type DB struct {
	dir      string
	cfg      config
	log      *zap.SugaredLogger
	lockFile *os.File
	manager  *segment.Manager

	// writeMu serializes the whole append-then-index path of Put and
	// Remove. Interleaved appends would corrupt offset bookkeeping,
	// and index updates must land in append order.
	writeMu sync.Mutex

	// mu guards keydir, liveKeys and closed.
	mu       sync.RWMutex
	keydir   keyDir
	liveKeys map[uint32]int
	closed   bool
}

// Open opens the store rooted at dir, creating the directory if
// needed, and rebuilds the in-memory index by replaying every segment
// in ascending id order. The directory is exclusive to one store at a
// time until Close.
func Open(dir string, opts ...Option) (*DB, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	lockFile, err := lock.Acquire(dir)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	manager, err := segment.Open(dir, cfg.maxSegmentSize)
	if err != nil {
		lock.Release(lockFile)
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	db := &DB{
		dir:      dir,
		cfg:      cfg,
		log:      cfg.logger.Sugar(),
		lockFile: lockFile,
		manager:  manager,
		keydir:   make(keyDir),
		liveKeys: make(map[uint32]int),
	}

	if err := db.recover(); err != nil {
		manager.Close()
		lock.Release(lockFile)
		return nil, err
	}

	return db, nil
}

// recover replays every segment in ascending id order, applying each
// record to the index being built. Replaying in log order makes the
// surviving entry for a key the last record ever written for it, with
// no timestamp comparison involved.
func (db *DB) recover() error {
	files := db.manager.InOrder()
	active := files[len(files)-1]

	for _, f := range files {
		s := f.Scan()

		records := 0
		for s.Next() {
			db.apply(f.ID(), s.Record(), s.Offset())
			records++
		}

		if err := s.Err(); err != nil {
			if f != active {
				return fmt.Errorf("%w: segment %d at offset %d: %w", ErrCorruptSegment, f.ID(), s.End(), err)
			}

			// A bad frame at the end of the newest segment is an
			// append that never completed. Drop the tail before it
			// can shadow future appends.
			db.log.Warnf("truncating torn tail of segment %d: %d bytes past offset %d (%v)",
				f.ID(), f.Size()-s.End(), s.End(), err)
			if terr := f.Truncate(s.End()); terr != nil {
				return fmt.Errorf("%w: %w", ErrStorageUnavailable, terr)
			}
		}

		db.log.Infof("segment %d: replayed %d records", f.ID(), records)
	}

	db.log.Infof("recovery complete: %d segments, %d live keys", len(files), len(db.keydir))
	return nil
}

// apply folds one log record into the index and the per-segment live
// counts. Callers hold mu, except during recovery when the store is
// not yet shared.
func (db *DB) apply(segmentID uint32, rec *record.Record, offset int64) {
	key := string(rec.Key)

	if old, ok := db.keydir[key]; ok {
		db.liveKeys[old.SegmentID]--
	}

	if rec.Tombstone() {
		delete(db.keydir, key)
		return
	}

	db.keydir[key] = keyDirEntry{
		SegmentID: segmentID,
		ValuePos:  offset + record.HeaderSize + int64(rec.KeySize),
		ValueSize: rec.ValueSize,
		Timestamp: rec.Timestamp,
	}
	db.liveKeys[segmentID]++
}

// Get returns the value last put under key. A missing key returns
// ErrKeyNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	db.mu.RLock()
	if db.closed {
		db.mu.RUnlock()
		return nil, ErrClosed
	}
	entry, ok := db.keydir[string(key)]
	db.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}

	f, err := db.manager.Segment(entry.SegmentID)
	if err != nil {
		return nil, err
	}

	frameStart := entry.ValuePos - record.HeaderSize - int64(len(key))
	frameLen := record.HeaderSize + len(key) + int(entry.ValueSize)

	frame, err := f.ReadAt(frameStart, frameLen)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return nil, fmt.Errorf("read segment %d: %w", entry.SegmentID, err)
	}

	rec, err := record.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	if !bytes.Equal(rec.Key, key) {
		return nil, fmt.Errorf("%w: index points at a record for another key", ErrCorruptData)
	}

	return rec.Value, nil
}

// Put stores value under key. The record is appended and, depending on
// configuration, flushed before the index is updated, so a crash
// between the two never leaves the index claiming a write the log does
// not hold.
func (db *DB) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	rec := record.New(key, value)
	frame, err := record.Encode(&rec)
	if err != nil {
		return err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if db.isClosed() {
		return ErrClosed
	}

	f, offset, err := db.append(frame)
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.apply(f.ID(), &rec, offset)
	db.mu.Unlock()

	return nil
}

// Remove deletes key. Removing an absent key is not an error; a
// tombstone is appended either way and the key is gone afterwards.
func (db *DB) Remove(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	rec := record.NewTombstone(key)
	frame, err := record.Encode(&rec)
	if err != nil {
		return err
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if db.isClosed() {
		return ErrClosed
	}

	f, offset, err := db.append(frame)
	if err != nil {
		return err
	}

	db.mu.Lock()
	db.apply(f.ID(), &rec, offset)
	db.mu.Unlock()

	return nil
}

// append rotates if the frame would overflow the active segment, then
// writes it. Called with writeMu held.
func (db *DB) append(frame []byte) (*segment.File, int64, error) {
	f, rotated, err := db.manager.RotateIfNeeded(int64(len(frame)))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if rotated {
		db.log.Infof("rotated to segment %d", f.ID())
	}

	offset, err := f.Append(frame)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if db.cfg.syncOnWrite {
		if err := f.Sync(); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
	}

	return f, offset, nil
}

// Has reports whether key currently has a live value.
func (db *DB) Has(key []byte) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, ok := db.keydir[string(key)]
	return ok
}

// Len returns the number of live keys.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.keydir)
}

// Keys returns every live key, in no particular order.
func (db *DB) Keys() [][]byte {
	db.mu.RLock()
	defer db.mu.RUnlock()

	keys := make([][]byte, 0, len(db.keydir))
	for k := range db.keydir {
		keys = append(keys, []byte(k))
	}
	return keys
}

// Sync flushes the active segment's buffered writes to disk.
func (db *DB) Sync() error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if db.isClosed() {
		return ErrClosed
	}

	if err := db.manager.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Stats reports the store's current on-disk shape.
func (db *DB) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return Stats{}
	}

	files := db.manager.InOrder()
	stats := Stats{
		Segments: make([]SegmentStats, 0, len(files)),
		Keys:     len(db.keydir),
	}
	for _, f := range files {
		stats.Segments = append(stats.Segments, SegmentStats{
			ID:       f.ID(),
			Size:     f.Size(),
			LiveKeys: db.liveKeys[f.ID()],
		})
	}
	return stats
}

// Close flushes the active segment, releases every file handle and the
// directory lock, and discards the index. Closing twice is a no-op.
func (db *DB) Close() error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	db.keydir = nil
	db.liveKeys = nil
	db.mu.Unlock()

	err := multierr.Append(db.manager.Sync(), db.manager.Close())
	err = multierr.Append(err, lock.Release(db.lockFile))

	db.log.Infof("closed store at %s", db.dir)
	return err
}

func (db *DB) isClosed() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.closed
}
