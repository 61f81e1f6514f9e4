// Package trace records the wall-clock period between ticks in a ring
// indexed by the loop cursor.
package trace

import "time"

// Point is a single period sample.
type Point struct {
	Index   int
	Seconds float64
}

// Trace is a fixed-length ring of elapsed seconds.
type Trace struct {
	periods []float64
	last    time.Time
}

// New returns trace of provided width with all periods set to zero.
func New(width int) *Trace {
	return &Trace{
		periods: make([]float64, width),
	}
}

// Record stores time elapsed since previous record at index c. The very
// first record has no previous timestamp, its slot keeps the initial zero.
func (t *Trace) Record(c int, now time.Time) {
	if c < 0 || c >= len(t.periods) {
		return
	}
	if !t.last.IsZero() {
		t.periods[c] = now.Sub(t.last).Seconds()
	}
	t.last = now
}

// Width returns length of the ring.
func (t *Trace) Width() int {
	return len(t.periods)
}

// Period returns elapsed seconds stored at index c.
func (t *Trace) Period(c int) float64 {
	if c < 0 || c >= len(t.periods) {
		return 0
	}
	return t.periods[c]
}

// Points returns a copy of the ring ordered by index.
func (t *Trace) Points() []Point {
	points := make([]Point, len(t.periods))
	for i, p := range t.periods {
		points[i] = Point{Index: i, Seconds: p}
	}
	return points
}
