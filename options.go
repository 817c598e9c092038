package stavedb

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxSegmentSize caps a segment file at 64 MiB before rotation.
const DefaultMaxSegmentSize int64 = 64 * 1024 * 1024

type config struct {
	maxSegmentSize int64
	syncOnWrite    bool
	logger         *zap.Logger
}

func defaultConfig() config {
	return config{
		maxSegmentSize: DefaultMaxSegmentSize,
		logger:         zap.NewNop(),
	}
}

func (c *config) validate() error {
	if c.maxSegmentSize <= 0 {
		return fmt.Errorf("%w: max segment size must be positive, got %d", ErrInvalidConfig, c.maxSegmentSize)
	}
	if c.logger == nil {
		return fmt.Errorf("%w: nil logger", ErrInvalidConfig)
	}
	return nil
}

// Option adjusts how a store is opened.
type Option func(*config)

// WithMaxSegmentSize sets the size threshold, in bytes, past which the
// active segment is sealed and a new one started. It must be positive.
// A single record larger than the threshold still occupies one
// segment; records are never split.
func WithMaxSegmentSize(n int64) Option {
	return func(c *config) {
		c.maxSegmentSize = n
	}
}

// WithSyncOnWrite forces an fsync of the active segment after every
// Put and Remove.
func WithSyncOnWrite(sync bool) Option {
	return func(c *config) {
		c.syncOnWrite = sync
	}
}

// WithLogger directs the store's diagnostics to the given logger.
// By default the store is silent.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
