package segment

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"go.uber.org/multierr"
)

// Manager owns the ordered set of segment files in one directory and
// the rotation policy over them. Ids are assigned in strictly
// increasing order and never reused, so ascending id order is creation
// order across restarts.
type Manager struct {
	dir     string
	maxSize int64

	mu       sync.RWMutex
	segments map[uint32]*File
	ids      []uint32
	active   *File
}

// Open enumerates dir for segment files and opens them all. The
// highest id stays writable and resumes as the active segment; every
// lower id is opened read-only. An empty directory starts at id 1.
func Open(dir string, maxSize int64) (*Manager, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []uint32
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := parseFileName(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	m := &Manager{
		dir:      dir,
		maxSize:  maxSize,
		segments: make(map[uint32]*File),
	}

	for i, id := range ids {
		f, err := open(dir, id, i == len(ids)-1)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.segments[id] = f
		m.ids = append(m.ids, id)
		m.active = f
	}

	if m.active == nil {
		f, err := create(dir, 1)
		if err != nil {
			return nil, err
		}
		m.segments[1] = f
		m.ids = []uint32{1}
		m.active = f
	}

	return m, nil
}

// Active returns the segment currently accepting appends.
func (m *Manager) Active() *File {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.active
}

// RotateIfNeeded seals the active segment and opens the next one when
// appending frameSize more bytes would push it past the size
// threshold. An empty active segment is never rotated, so a frame
// larger than the threshold still lands whole in a single segment.
func (m *Manager) RotateIfNeeded(frameSize int64) (*File, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.active.Size()
	if size == 0 || size+frameSize <= m.maxSize {
		return m.active, false, nil
	}

	if err := m.active.Sync(); err != nil {
		return nil, false, err
	}

	next := m.ids[len(m.ids)-1] + 1
	f, err := create(m.dir, next)
	if err != nil {
		return nil, false, err
	}

	m.active.Seal()
	m.segments[next] = f
	m.ids = append(m.ids, next)
	m.active = f

	return f, true, nil
}

// Segment resolves an id to its file.
func (m *Manager) Segment(id uint32) (*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.segments[id]
	if !ok {
		return nil, fmt.Errorf("segment: no file with id %d", id)
	}
	return f, nil
}

// InOrder returns every segment file in ascending id order.
func (m *Manager) InOrder() []*File {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]*File, 0, len(m.ids))
	for _, id := range m.ids {
		files = append(files, m.segments[id])
	}
	return files
}

// Sync flushes the active segment to disk.
func (m *Manager) Sync() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.active.Sync()
}

// Close releases every open file handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for _, f := range m.segments {
		err = multierr.Append(err, f.Close())
	}
	m.segments = nil
	m.ids = nil
	m.active = nil

	return err
}
