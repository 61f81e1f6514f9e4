package subsim

import (
	"github.com/pipelined/subsim/signal"
)

// Sink is an optional destination of signal frames. Each frame has one
// sample per channel.
type Sink interface {
	Sink(loopID string, sampleRate, numChannels int) (SinkFunc, error)
}

// SinkFunc consumes a single frame.
type SinkFunc func(signal.Float64) error

// Flusher defines component that must flushed in the end of execution.
type Flusher interface {
	Flush(string) error
}

// hook represents optional functions for components lyfecycle.
type hook func(string) error

// sinkRunner is a bound sink.
type sinkRunner struct {
	Sink
	fn    SinkFunc
	flush hook
}

// bindSink calls the sink allocator.
func bindSink(loopID string, sampleRate, numChannels int, s Sink) (*sinkRunner, error) {
	fn, err := s.Sink(loopID, sampleRate, numChannels)
	if err != nil {
		return nil, err
	}
	return &sinkRunner{
		Sink:  s,
		fn:    fn,
		flush: flusher(s),
	}, nil
}

// flusher checks if interface implements Flusher and if so, return it.
func flusher(i interface{}) hook {
	if v, ok := i.(Flusher); ok {
		return v.Flush
	}
	return nil
}

// call optional function with loopID argument.
func call(fn hook, loopID string) error {
	if fn == nil {
		return nil
	}
	return fn(loopID)
}
