// Package segment manages the append-only log files a store is made of.
// Exactly one file accepts appends at a time; rotation seals it and
// starts the next one.
package segment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/atomic"

	"github.com/stavedb/stavedb/internal/record"
)

const fileExt = ".seg"

var ErrSealed = errors.New("segment: file is sealed")

// File is a single log file. The active file owns a write cursor and
// grows by whole frames; sealed files only serve reads.
type File struct {
	id     uint32
	path   string
	handle *os.File
	size   *atomic.Int64
	sealed bool
}

func fileName(id uint32) string {
	return fmt.Sprintf("%08d%s", id, fileExt)
}

func parseFileName(name string) (uint32, bool) {
	base, ok := strings.CutSuffix(name, fileExt)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(base, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

func create(dir string, id uint32) (*File, error) {
	path := filepath.Join(dir, fileName(id))

	handle, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	return &File{
		id:     id,
		path:   path,
		handle: handle,
		size:   atomic.NewInt64(0),
	}, nil
}

func open(dir string, id uint32, writable bool) (*File, error) {
	path := filepath.Join(dir, fileName(id))

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	handle, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}

	info, err := handle.Stat()
	if err != nil {
		handle.Close()
		return nil, err
	}

	return &File{
		id:     id,
		path:   path,
		handle: handle,
		size:   atomic.NewInt64(info.Size()),
		sealed: !writable,
	}, nil
}

func (f *File) ID() uint32 { return f.id }

func (f *File) Path() string { return f.path }

// Size returns the number of committed bytes in the file.
func (f *File) Size() int64 { return f.size.Load() }

// Append writes one encoded frame at the end of the file and returns
// the offset at which it begins. The cursor only advances on a full
// write, so a failed append is overwritten by the next one.
func (f *File) Append(frame []byte) (int64, error) {
	if f.sealed {
		return 0, ErrSealed
	}

	offset := f.size.Load()
	n, err := f.handle.WriteAt(frame, offset)
	if err != nil {
		return 0, err
	}

	f.size.Add(int64(n))
	return offset, nil
}

// ReadAt fills and returns a buffer of length bytes starting at offset.
func (f *File) ReadAt(offset int64, length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := f.handle.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// Scan reads the file's records from the beginning. Appends past the
// scanned range do not disturb it.
func (f *File) Scan() *record.Scanner {
	size := f.size.Load()
	return record.NewScanner(io.NewSectionReader(f.handle, 0, size), size)
}

// Seal marks the file read-only for appends. Reads are unaffected.
func (f *File) Seal() { f.sealed = true }

func (f *File) Sealed() bool { return f.sealed }

// Truncate discards everything at and past offset.
func (f *File) Truncate(offset int64) error {
	if err := f.handle.Truncate(offset); err != nil {
		return err
	}
	if err := f.handle.Sync(); err != nil {
		return err
	}

	f.size.Store(offset)
	return nil
}

func (f *File) Sync() error {
	return f.handle.Sync()
}

func (f *File) Close() error {
	return f.handle.Close()
}
