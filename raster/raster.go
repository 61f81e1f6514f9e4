// Package raster keeps a scrolling heat strip of the signal: one column per
// tick, one row per channel. The column to write is chosen by the caller
// (the loop cursor), so old columns stay until they are overwritten after
// the cursor wraps.
package raster

import (
	"image"
	"image/color"

	"github.com/pipelined/subsim/encode"
)

// DefaultGain scales signal values into green intensity.
const DefaultGain = 10.0

// Raster is a fixed width×height RGBA buffer. Rows are channels, columns
// are ticks.
type Raster struct {
	img      *image.RGBA
	gain     float64
	truncate encode.TruncatePolicy
	writes   []int
}

// Option configures the raster.
type Option func(*Raster)

// WithGain sets display gain.
func WithGain(g float64) Option {
	return func(r *Raster) {
		r.gain = g
	}
}

// WithTruncate sets policy used to narrow intensity to a byte.
func WithTruncate(p encode.TruncatePolicy) Option {
	return func(r *Raster) {
		r.truncate = p
	}
}

// New returns black raster.
func New(width, height int, options ...Option) *Raster {
	r := &Raster{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		gain:   DefaultGain,
		writes: make([]int, width),
	}
	for i := 3; i < len(r.img.Pix); i += 4 {
		r.img.Pix[i] = 0xff
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Width returns number of columns.
func (r *Raster) Width() int {
	return r.img.Rect.Dx()
}

// Height returns number of rows.
func (r *Raster) Height() int {
	return r.img.Rect.Dy()
}

// WriteColumn sets every row of column c. Only green carries the scaled
// value, red and blue stay zero. Values beyond height are ignored, missing
// values leave rows untouched. Out of range column is a no-op.
func (r *Raster) WriteColumn(c int, z []float64) {
	if c < 0 || c >= r.Width() {
		return
	}
	for i := 0; i < r.Height() && i < len(z); i++ {
		r.img.SetRGBA(c, i, color.RGBA{G: r.truncate.Truncate(r.gain * z[i]), A: 0xff})
	}
	r.writes[c]++
}

// At returns color of column c and row i.
func (r *Raster) At(c, i int) color.RGBA {
	return r.img.RGBAAt(c, i)
}

// Writes returns how many times column c was written.
func (r *Raster) Writes(c int) int {
	if c < 0 || c >= len(r.writes) {
		return 0
	}
	return r.writes[c]
}

// Image returns a copy of the raster.
func (r *Raster) Image() *image.RGBA {
	img := &image.RGBA{
		Pix:    make([]uint8, len(r.img.Pix)),
		Stride: r.img.Stride,
		Rect:   r.img.Rect,
	}
	copy(img.Pix, r.img.Pix)
	return img
}
