package record

import (
	"encoding/binary"
	"hash/crc32"
)

// Sum computes the CRC32 checksum (IEEE polynomial) of every frame field
// after the checksum itself: timestamp, key size, value size, key bytes,
// value bytes.
func (r *Record) Sum() uint32 {
	var header [HeaderSize - 4]byte
	binary.LittleEndian.PutUint64(header[0:8], uint64(r.Timestamp))
	binary.LittleEndian.PutUint32(header[8:12], r.KeySize)
	binary.LittleEndian.PutUint32(header[12:16], r.ValueSize)

	sum := crc32.ChecksumIEEE(header[:])
	sum = crc32.Update(sum, crc32.IEEETable, r.Key)
	return crc32.Update(sum, crc32.IEEETable, r.Value)
}

// Valid returns true if the stored checksum matches the record's contents.
func (r *Record) Valid() bool {
	return r.Checksum == r.Sum()
}
