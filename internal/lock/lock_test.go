package lock

import (
	"errors"
	"testing"
)

func TestAcquireConflictRelease(t *testing.T) {
	dir := t.TempDir()

	f, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire: got %v, want ErrLocked", err)
	}

	if err := Release(f); err != nil {
		t.Fatalf("release: %v", err)
	}

	f2, err := Acquire(dir)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := Release(f2); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestAcquireMissingDirectory(t *testing.T) {
	if _, err := Acquire("/nonexistent/path/for/sure"); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
