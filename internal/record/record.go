package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// Record is a single log entry as framed on disk. Records are only ever
// appended; a deletion is expressed by a later tombstone record for the
// same key.
type Record struct {
	Checksum  uint32 // CRC32 of every field after it, header included
	Timestamp int64  // Unix Timestamp in Nanoseconds
	KeySize   uint32 // Length of Key in Bytes
	ValueSize uint32 // Length of Value in Bytes, or TombstoneSize
	Key       []byte
	Value     []byte
}

// Checksum (4) + Timestamp (8) + KeySize (4) + ValueSize (4)
const HeaderSize = 20

// TombstoneSize is the reserved ValueSize marking a deletion. A tombstone
// carries no value bytes, so a ValueSize of zero always means an empty
// value and never a deletion. Values are capped at MaxValueSize so the
// sentinel stays unambiguous.
const (
	TombstoneSize = ^uint32(0)
	MaxValueSize  = TombstoneSize - 1
)

var (
	ErrInvalidHeader = errors.New("record: invalid header")
	ErrBadChecksum   = errors.New("record: checksum mismatch")
	ErrValueTooLarge = errors.New("record: value exceeds maximum size")
)

func New(key, value []byte) Record {
	r := Record{
		Timestamp: time.Now().UnixNano(),
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Key:       key,
		Value:     value,
	}
	r.Checksum = r.Sum()

	return r
}

func NewTombstone(key []byte) Record {
	r := Record{
		Timestamp: time.Now().UnixNano(),
		KeySize:   uint32(len(key)),
		ValueSize: TombstoneSize,
		Key:       key,
		Value:     nil,
	}
	r.Checksum = r.Sum()

	return r
}

// Tombstone reports whether the record marks its key as deleted.
func (r *Record) Tombstone() bool {
	return r.ValueSize == TombstoneSize
}

// Encode lays the record out as checksum | timestamp | key size |
// value size | key bytes | value bytes, all header fields little-endian.
func Encode(r *Record) ([]byte, error) {
	if r.KeySize == 0 || int64(r.KeySize) != int64(len(r.Key)) {
		return nil, ErrInvalidHeader
	}
	if r.Tombstone() {
		if len(r.Value) != 0 {
			return nil, ErrInvalidHeader
		}
	} else {
		if int64(len(r.Value)) > int64(MaxValueSize) {
			return nil, ErrValueTooLarge
		}
		if int64(r.ValueSize) != int64(len(r.Value)) {
			return nil, ErrInvalidHeader
		}
	}

	buf := &bytes.Buffer{}

	if err := binary.Write(buf, binary.LittleEndian, r.Checksum); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, r.Timestamp); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, r.KeySize); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, r.ValueSize); err != nil {
		return nil, err
	}
	if _, err := buf.Write(r.Key); err != nil {
		return nil, err
	}
	if _, err := buf.Write(r.Value); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses one frame from the start of data and verifies its
// checksum. Bytes past the end of the frame are ignored.
func Decode(data []byte) (*Record, error) {
	var checksum uint32
	var timestamp int64
	var keySize uint32
	var valueSize uint32

	buf := bytes.NewReader(data)

	if err := binary.Read(buf, binary.LittleEndian, &checksum); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &timestamp); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &keySize); err != nil {
		return nil, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &valueSize); err != nil {
		return nil, err
	}

	if keySize == 0 {
		return nil, ErrInvalidHeader
	}

	valueLen := int64(0)
	if valueSize != TombstoneSize {
		valueLen = int64(valueSize)
	}
	if int64(keySize)+valueLen > int64(buf.Len()) {
		return nil, io.ErrUnexpectedEOF
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(buf, key); err != nil {
		return nil, err
	}

	var value []byte
	if valueLen > 0 {
		value = make([]byte, valueLen)
		if _, err := io.ReadFull(buf, value); err != nil {
			return nil, err
		}
	}

	r := &Record{
		Checksum:  checksum,
		Timestamp: timestamp,
		KeySize:   keySize,
		ValueSize: valueSize,
		Key:       key,
		Value:     value,
	}

	if !r.Valid() {
		return nil, ErrBadChecksum
	}

	return r, nil
}
