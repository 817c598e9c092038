package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeDecodeRecord(t *testing.T) {
	key := []byte("language")
	value := []byte("go")

	original := New(key, value)

	encoded, err := Encode(&original)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	// field-by-field comparison
	if decoded.Checksum != original.Checksum {
		t.Errorf("Checksum mismatch: got %v, want %v", decoded.Checksum, original.Checksum)
	}
	if decoded.Timestamp != original.Timestamp {
		t.Errorf("Timestamp mismatch: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.KeySize != original.KeySize {
		t.Errorf("KeySize mismatch: got %v, want %v", decoded.KeySize, original.KeySize)
	}
	if decoded.ValueSize != original.ValueSize {
		t.Errorf("ValueSize mismatch: got %v, want %v", decoded.ValueSize, original.ValueSize)
	}
	if !bytes.Equal(decoded.Key, original.Key) {
		t.Errorf("Key mismatch: got %v, want %v", decoded.Key, original.Key)
	}
	if !bytes.Equal(decoded.Value, original.Value) {
		t.Errorf("Value mismatch: got %v, want %v", decoded.Value, original.Value)
	}
	if decoded.Tombstone() {
		t.Error("decoded record unexpectedly reads as a tombstone")
	}
}

func TestEncodeDecodeEmptyValue(t *testing.T) {
	original := New([]byte("k"), nil)

	encoded, err := Encode(&original)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(encoded) != HeaderSize+1 {
		t.Fatalf("frame length: got %d, want %d", len(encoded), HeaderSize+1)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.ValueSize != 0 {
		t.Errorf("ValueSize: got %v, want 0", decoded.ValueSize)
	}
	if decoded.Tombstone() {
		t.Error("empty value must not read as a tombstone")
	}
}

func TestEncodeDecodeTombstone(t *testing.T) {
	original := NewTombstone([]byte("gone"))

	encoded, err := Encode(&original)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(encoded) != HeaderSize+4 {
		t.Fatalf("frame length: got %d, want %d", len(encoded), HeaderSize+4)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !decoded.Tombstone() {
		t.Fatal("decoded record is not a tombstone")
	}
	if len(decoded.Value) != 0 {
		t.Errorf("tombstone carries value bytes: %v", decoded.Value)
	}
	if !bytes.Equal(decoded.Key, original.Key) {
		t.Errorf("Key mismatch: got %v, want %v", decoded.Key, original.Key)
	}
}

func TestDecodeErrorsOnTruncatedData(t *testing.T) {
	rec := New([]byte("abc"), []byte("xy"))

	encoded, err := Encode(&rec)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	for i := 0; i < len(encoded); i++ {
		_, err := Decode(encoded[:i])
		if err == nil {
			t.Fatalf("expected error when decoding truncated data of length %d, got nil", i)
		}
	}
}

func TestDecodeRejectsZeroKeySize(t *testing.T) {
	frame := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(frame[16:20], 5)

	_, err := Decode(frame)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("got %v, want ErrInvalidHeader", err)
	}
}

func TestDecodeDetectsCorruption(t *testing.T) {
	rec := New([]byte("durable"), []byte("payload"))

	encoded, err := Encode(&rec)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	// one flip in the value region, one in the timestamp field
	for _, pos := range []int{len(encoded) - 1, 6} {
		corrupted := bytes.Clone(encoded)
		corrupted[pos] ^= 0xFF

		_, err := Decode(corrupted)
		if !errors.Is(err, ErrBadChecksum) {
			t.Fatalf("flip at %d: got %v, want ErrBadChecksum", pos, err)
		}
	}
}

func TestEncodeValidatesSizes(t *testing.T) {
	empty := Record{KeySize: 0, ValueSize: 0}
	if _, err := Encode(&empty); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("empty key: got %v, want ErrInvalidHeader", err)
	}

	mismatched := Record{KeySize: 2, ValueSize: 9, Key: []byte("ab"), Value: []byte("x")}
	if _, err := Encode(&mismatched); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("mismatched value size: got %v, want ErrInvalidHeader", err)
	}

	loaded := Record{KeySize: 1, ValueSize: TombstoneSize, Key: []byte("k"), Value: []byte("v")}
	if _, err := Encode(&loaded); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("tombstone with payload: got %v, want ErrInvalidHeader", err)
	}
}

func TestEncodedByteLayout(t *testing.T) {
	key := []byte("a")
	value := []byte("b")

	r := &Record{
		Checksum:  1,
		Timestamp: 2,
		KeySize:   1,
		ValueSize: 1,
		Key:       key,
		Value:     value,
	}

	encoded, err := Encode(r)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	// Expected bytes structure:
	// uint32 Checksum
	// int64 Timestamp
	// uint32 KeySize
	// uint32 ValueSize
	// []byte Key
	// []byte Value
	offset := 0

	expectUint32 := func(name string, want uint32) {
		got := binary.LittleEndian.Uint32(encoded[offset : offset+4])
		if got != want {
			t.Fatalf("%s mismatch: got %v want %v", name, got, want)
		}
		offset += 4
	}

	expectInt64 := func(name string, want int64) {
		got := int64(binary.LittleEndian.Uint64(encoded[offset : offset+8]))
		if got != want {
			t.Fatalf("%s mismatch: got %v want %v", name, got, want)
		}
		offset += 8
	}

	expectUint32("Checksum", r.Checksum)
	expectInt64("Timestamp", r.Timestamp)
	expectUint32("KeySize", r.KeySize)
	expectUint32("ValueSize", r.ValueSize)

	if encoded[offset] != 'a' {
		t.Fatalf("expected key byte 'a', got %v", encoded[offset])
	}
	offset++

	if encoded[offset] != 'b' {
		t.Fatalf("expected value byte 'b', got %v", encoded[offset])
	}
}
