package record

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Scanner reads records sequentially from a segment's byte stream,
// one frame per call to Next. It stops at the first frame that cannot
// be read whole or fails validation; Err tells a clean end of segment
// apart from a stop. The scanner applies no recovery policy of its
// own, the caller decides what a stop means.
type Scanner struct {
	r      *bufio.Reader
	size   int64
	offset int64
	end    int64
	rec    *Record
	err    error
}

// NewScanner scans size bytes of r, which must be positioned at the
// start of a segment.
func NewScanner(r io.Reader, size int64) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024), size: size}
}

// Next reads the following record, returning false at the end of the
// segment or at the first unreadable frame.
func (s *Scanner) Next() bool {
	if s.err != nil || s.end >= s.size {
		return false
	}

	rec, n, err := s.read()
	if err != nil {
		s.err = err
		return false
	}

	s.offset = s.end
	s.end += n
	s.rec = rec
	return true
}

// Record returns the record read by the last successful Next.
func (s *Scanner) Record() *Record { return s.rec }

// Offset returns the position at which Record begins.
func (s *Scanner) Offset() int64 { return s.offset }

// End returns the position one past the last record read. When the scan
// stopped early this is where the offending bytes begin.
func (s *Scanner) End() int64 { return s.end }

// Err returns nil if scanning stopped exactly at the end of the segment,
// or the failure that stopped it early.
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) read() (*Record, int64, error) {
	remaining := s.size - s.end
	if remaining < HeaderSize {
		return nil, 0, io.ErrUnexpectedEOF
	}

	var header [HeaderSize]byte
	if _, err := io.ReadFull(s.r, header[:]); err != nil {
		return nil, 0, err
	}

	rec := &Record{
		Checksum:  binary.LittleEndian.Uint32(header[0:4]),
		Timestamp: int64(binary.LittleEndian.Uint64(header[4:12])),
		KeySize:   binary.LittleEndian.Uint32(header[12:16]),
		ValueSize: binary.LittleEndian.Uint32(header[16:20]),
	}

	if rec.KeySize == 0 {
		return nil, 0, ErrInvalidHeader
	}

	valueLen := int64(0)
	if !rec.Tombstone() {
		valueLen = int64(rec.ValueSize)
	}
	if int64(rec.KeySize)+valueLen > remaining-HeaderSize {
		return nil, 0, io.ErrUnexpectedEOF
	}

	rec.Key = make([]byte, rec.KeySize)
	if _, err := io.ReadFull(s.r, rec.Key); err != nil {
		return nil, 0, err
	}

	if valueLen > 0 {
		rec.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(s.r, rec.Value); err != nil {
			return nil, 0, err
		}
	}

	if !rec.Valid() {
		return nil, 0, ErrBadChecksum
	}

	return rec, HeaderSize + int64(rec.KeySize) + valueLen, nil
}
