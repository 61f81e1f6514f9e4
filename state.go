package subsim

import (
	"image"

	"gonum.org/v1/gonum/floats"

	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/raster"
	"github.com/pipelined/subsim/trace"
)

// State is the simulator state owned by a single loop. It is mutated only
// by Tick.
type State struct {
	// Cursor is the most recently written column of raster and trace.
	Cursor int
	// Ticks is the number of completed ticks.
	Ticks  uint64
	Input  input.Sample
	Signal []float64
	Raster *raster.Raster
	Trace  *trace.Trace
}

func newState(width, channels int, options ...raster.Option) *State {
	return &State{
		Raster: raster.New(width, channels, options...),
		Trace:  trace.New(width),
	}
}

// advance moves cursor to the next column, wrapping after the last one.
func (s *State) advance() int {
	s.Cursor++
	if s.Cursor >= s.Raster.Width() {
		s.Cursor = 0
	}
	return s.Cursor
}

// Range is a pair of the smallest and the largest value.
type Range struct {
	Min, Max float64
}

// rangeOf returns range of values. Empty values give zero range.
func rangeOf(values []float64) Range {
	if len(values) == 0 {
		return Range{}
	}
	return Range{Min: floats.Min(values), Max: floats.Max(values)}
}

// Snapshot is an immutable copy of the state handed to the renderer.
type Snapshot struct {
	Ticks   uint64
	Cursor  int
	Input   input.Sample
	Signal  []float64
	Raster  *image.RGBA
	Periods []trace.Point

	// SignalRange is the range of the signal of this tick.
	SignalRange Range
	// MatrixRange is the range of projection coefficients.
	MatrixRange Range
}

func (s *State) snapshot(matrix Range) Snapshot {
	signal := make([]float64, len(s.Signal))
	copy(signal, s.Signal)
	return Snapshot{
		Ticks:       s.Ticks,
		Cursor:      s.Cursor,
		Input:       s.Input,
		Signal:      signal,
		Raster:      s.Raster.Image(),
		Periods:     s.Trace.Points(),
		SignalRange: rangeOf(signal),
		MatrixRange: matrix,
	}
}
