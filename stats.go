package stavedb

import (
	"fmt"
	"strings"
)

// SegmentStats describes one segment file.
type SegmentStats struct {
	ID       uint32 // Segment id, ascending with creation order
	Size     int64  // Bytes on disk
	LiveKeys int    // Keys whose newest record lives in this segment
}

// Stats is a point-in-time view of the store's on-disk shape. A sealed
// segment with zero live keys holds only superseded records; the store
// never reclaims it, that is left to external compaction.
type Stats struct {
	Segments []SegmentStats
	Keys     int
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d keys across %d segments\n", s.Keys, len(s.Segments))
	for _, seg := range s.Segments {
		fmt.Fprintf(&b, "  segment %08d: %d bytes, %d live keys\n", seg.ID, seg.Size, seg.LiveKeys)
	}
	return b.String()
}
