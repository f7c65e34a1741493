// File: cqueue/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cqueue

import "log/slog"

type config struct {
	backpressure bool
	high, low    int
	logger       *slog.Logger
}

// Option configures a Queue.
type Option func(*config)

// WithWatermarks overrides the thresholds: backpressure is raised once the
// queued count reaches high and cleared once it falls to low.
func WithWatermarks(high, low int) Option {
	return func(c *config) {
		c.high, c.low = high, low
	}
}

// WithBackpressure turns backpressure tracking on or off. It is on by default.
func WithBackpressure(enabled bool) Option {
	return func(c *config) { c.backpressure = enabled }
}

// WithLogger logs backpressure transitions at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}
