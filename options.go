package sfs

import "github.com/sirupsen/logrus"

// ctxOptions accumulates the functional options passed to Initialize/Attach.
type ctxOptions struct {
	inodeCount   uint32
	clock        Clock
	logger       *logrus.Entry
	enablePathCache bool
}

// Option configures Initialize or Attach.
type Option func(*ctxOptions) error

func defaultCtxOptions() *ctxOptions {
	return &ctxOptions{
		clock:           systemClock{},
		logger:          logrus.NewEntry(logrus.StandardLogger()),
		enablePathCache: true,
	}
}

// WithInodeCount overrides the default inode-count heuristic
// (min(total_blocks/4, 65536)). Only meaningful for Initialize; ignored by
// Attach, which recomputes the layout from the stored inode_count.
func WithInodeCount(n uint32) Option {
	return func(o *ctxOptions) error {
		o.inodeCount = n
		return nil
	}
}

// WithClock injects a Clock used for atime/mtime/ctime updates, letting
// tests control time instead of depending on the wall clock.
func WithClock(c Clock) Option {
	return func(o *ctxOptions) error {
		o.clock = c
		return nil
	}
}

// WithLogger attaches a structured logger used for the rare fatal/warn
// events this package logs (attach-time magic mismatch, Debug messages at
// Initialize/Attach, and invariant violations passed to
// logInvariantViolations; CheckInvariants itself does not log). Defaults to
// logrus's standard logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *ctxOptions) error {
		o.logger = l
		return nil
	}
}

// WithPathCache enables or disables the path→inode memoization cache.
// Enabled by default.
func WithPathCache(enabled bool) Option {
	return func(o *ctxOptions) error {
		o.enablePathCache = enabled
		return nil
	}
}
