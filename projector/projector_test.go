package projector_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/projector"
)

const channels = 30

func TestScenarioIdentity(t *testing.T) {
	w := mat.NewDense(channels, 2, nil)
	w.Set(0, 0, 1)
	w.Set(1, 1, 1)
	p := projector.FromMatrix(w, 0, nil)

	z := p.Project(input.Sample{0.4, 0.6})
	assert.Len(t, z, channels)
	assert.InDelta(t, 0.4, z[0], 1e-6)
	assert.InDelta(t, 0.6, z[1], 1e-6)
	for i := 2; i < channels; i++ {
		assert.Equal(t, 0.0, z[i])
	}
}

func TestSeededMatrix(t *testing.T) {
	p1 := projector.New(channels, 2, projector.DefaultSpatialGain, projector.DefaultNoiseGain, rand.NewSource(1))
	p2 := projector.New(channels, 2, projector.DefaultSpatialGain, projector.DefaultNoiseGain, rand.NewSource(1))
	assert.True(t, mat.Equal(p1.Matrix(), p2.Matrix()))

	rows, cols := p1.Dims()
	assert.Equal(t, channels, rows)
	assert.Equal(t, 2, cols)
	assert.GreaterOrEqual(t, p1.Min(), 0.0)
	assert.Less(t, p1.Max(), projector.DefaultSpatialGain)

	// same seed gives the same sequence of noisy projections
	x := input.Sample{0.5, 0.5}
	assert.Equal(t, p1.Project(x), p2.Project(x))
}

func TestFreshNoise(t *testing.T) {
	p := projector.New(channels, 2, projector.DefaultSpatialGain, projector.DefaultNoiseGain, rand.NewSource(7))
	x := input.Sample{0.25, 0.75}
	z1 := p.Project(x)
	z2 := p.Project(x)
	assert.NotEqual(t, z1, z2)

	// noise is bounded by the noise gain
	w := p.Matrix()
	for i := range z1 {
		base := w.At(i, 0)*0.25 + w.At(i, 1)*0.75
		assert.GreaterOrEqual(t, z1[i], base-1e-9)
		assert.Less(t, z1[i], base+projector.DefaultNoiseGain)
	}
}

func TestNoiseGain(t *testing.T) {
	w := mat.NewDense(3, 2, nil)
	ones := func(e []float64) {
		for i := range e {
			e[i] = 1
		}
	}
	p := projector.FromMatrix(w, 5, ones)
	assert.Equal(t, []float64{5, 5, 5}, p.Project(input.Sample{1, 1}))
}

func TestMatrixIsCopied(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	p := projector.FromMatrix(w, 0, nil)
	w.Set(0, 0, 100)
	m := p.Matrix()
	assert.Equal(t, 1.0, m.At(0, 0))
	m.Set(0, 0, 50)
	assert.Equal(t, []float64{1, 0}, p.Project(input.Sample{1, 0}))
}
