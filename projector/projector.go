// Package projector maps the 2-D control input into an N-channel signal
// through a fixed random matrix with fresh noise added on every call:
//
//	z = W·x + k·e
//
// W is drawn once at construction from a uniform [0, 1) distribution and
// scaled by the spatial gain, e is drawn on every Project call from the
// same distribution and scaled by the noise gain k.
//
// Projector is not safe for concurrent use.
package projector

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/pipelined/subsim/input"
)

const (
	// DefaultSpatialGain scales the random matrix.
	DefaultSpatialGain = 20.0
	// DefaultNoiseGain scales the per-call noise vector.
	DefaultNoiseGain = 5.0
)

// NoiseFunc fills the provided slice with fresh noise values.
type NoiseFunc func(e []float64)

// Projector is a random linear map with additive noise.
type Projector struct {
	w         *mat.Dense
	noiseGain float64
	noise     NoiseFunc

	x *mat.VecDense
	e *mat.VecDense
}

// New draws a rows×cols matrix from src and returns projector that uses the
// same source for noise. Nil source is seeded from the current time.
func New(rows, cols int, spatialGain, noiseGain float64, src rand.Source) *Projector {
	if src == nil {
		src = rand.NewSource(rand.Int63())
	}
	rnd := rand.New(src)
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = spatialGain * rnd.Float64()
	}
	return FromMatrix(mat.NewDense(rows, cols, data), noiseGain, Uniform(rnd))
}

// FromMatrix returns projector with provided matrix and noise function.
// The matrix is copied. Nil noise function means no noise.
func FromMatrix(w mat.Matrix, noiseGain float64, noise NoiseFunc) *Projector {
	rows, cols := w.Dims()
	return &Projector{
		w:         mat.DenseCopyOf(w),
		noiseGain: noiseGain,
		noise:     noise,
		x:         mat.NewVecDense(cols, nil),
		e:         mat.NewVecDense(rows, nil),
	}
}

// Uniform returns noise function drawing from uniform [0, 1).
func Uniform(rnd *rand.Rand) NoiseFunc {
	return func(e []float64) {
		for i := range e {
			e[i] = rnd.Float64()
		}
	}
}

// Project returns a new signal vector for the input sample.
func (p *Projector) Project(x input.Sample) []float64 {
	rows, cols := p.w.Dims()
	for i := 0; i < cols && i < len(x); i++ {
		p.x.SetVec(i, float64(x[i]))
	}

	z := mat.NewVecDense(rows, nil)
	z.MulVec(p.w, p.x)
	if p.noise != nil && p.noiseGain != 0 {
		p.noise(p.e.RawVector().Data)
		z.AddScaledVec(z, p.noiseGain, p.e)
	}
	return z.RawVector().Data
}

// Dims returns dimensions of the matrix.
func (p *Projector) Dims() (rows, cols int) {
	return p.w.Dims()
}

// Matrix returns a copy of the projection matrix.
func (p *Projector) Matrix() *mat.Dense {
	return mat.DenseCopyOf(p.w)
}

// Min returns the smallest coefficient of the matrix.
func (p *Projector) Min() float64 {
	return mat.Min(p.w)
}

// Max returns the largest coefficient of the matrix.
func (p *Projector) Max() float64 {
	return mat.Max(p.w)
}
