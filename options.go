package subsim

import (
	"fmt"
	"time"

	"github.com/pipelined/subsim/encode"
	"github.com/pipelined/subsim/log"
)

const (
	// DefaultInterval is the minimal delay between tick starts.
	DefaultInterval = 40 * time.Millisecond
	// DefaultWidth is the number of columns in raster and trace.
	DefaultWidth = 200
)

// Option provides a way to set functional parameters to loop.
type Option func(l *Loop) error

// WithLogger sets logger to Loop. If this option is not provided, silent logger is used.
func WithLogger(logger log.Logger) Option {
	return func(l *Loop) error {
		l.log = logger
		return nil
	}
}

// WithInterval sets minimal delay between tick starts.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) error {
		if d <= 0 {
			return fmt.Errorf("interval must be positive: %v", d)
		}
		l.interval = d
		return nil
	}
}

// WithWidth sets number of columns in raster and trace.
func WithWidth(w int) Option {
	return func(l *Loop) error {
		if w <= 0 {
			return fmt.Errorf("width must be positive: %d", w)
		}
		l.width = w
		return nil
	}
}

// WithDisplayGain sets gain applied to signal when raster is written.
func WithDisplayGain(g float64) Option {
	return func(l *Loop) error {
		l.displayGain = g
		return nil
	}
}

// WithTruncate sets policy used to narrow signal to bytes for both the
// signal payload and the raster.
func WithTruncate(p encode.TruncatePolicy) Option {
	return func(l *Loop) error {
		l.truncate = p
		return nil
	}
}

// WithRenderer sets renderer that receives snapshot after every tick.
func WithRenderer(r Renderer) Option {
	return func(l *Loop) error {
		l.renderer = r
		return nil
	}
}

// WithSinks adds sinks that receive every signal frame.
func WithSinks(sinks ...Sink) Option {
	return func(l *Loop) error {
		l.sinks = append(l.sinks, sinks...)
		return nil
	}
}

// WithClock sets the time source used by Run to timestamp ticks.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		l.now = now
		return nil
	}
}
