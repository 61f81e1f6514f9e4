// Package input maps pointer positions into the 2-D control input of the
// simulator.
//
// A pointer source reports a position on a canvas that is twice as wide as
// it is tall, in canvas-square units: horizontal coordinate in [0, 2),
// vertical coordinate in [0, 1] with 0 at the top. Remap turns it into a
// Sample where both components are in [0, 1] and the vertical axis points
// up.
package input

// Point is a raw pointer position in canvas-square units.
type Point struct {
	X, Y float32
}

// Sample is the 2-D control input of a single tick.
type Sample [2]float32

// Source produces the pointer position for the current tick. The second
// return value is false when there is no pointer contact.
type Source interface {
	Pointer() (Point, bool)
}

// Remap converts a raw pointer position into a Sample.
func Remap(p Point) Sample {
	return Sample{p.X / 2, 1 - p.Y}
}

// Sampler keeps the last known sample so absent pointer contact carries
// the previous value over.
type Sampler struct {
	source Source
	last   Sample
}

// NewSampler creates a sampler that starts from zero sample.
func NewSampler(source Source) *Sampler {
	return &Sampler{source: source}
}

// Next reads the source and returns the sample of this tick.
func (s *Sampler) Next() Sample {
	if s.source == nil {
		return s.last
	}
	if p, ok := s.source.Pointer(); ok {
		s.last = Remap(p)
	}
	return s.last
}

// Last returns the most recent sample without reading the source.
func (s *Sampler) Last() Sample {
	return s.last
}

// Float64 returns the components of sample as float64 values.
func (x Sample) Float64() []float64 {
	return []float64{float64(x[0]), float64(x[1])}
}
