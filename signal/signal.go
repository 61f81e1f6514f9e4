// Package signal provides an API to manipulate simulator signals. It allows to:
//   - hold non-interleaved frames of channel values
//   - convert float frames to interleaved ints of a given bit depth
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for float-to-int conversion.
type BitDepth int

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// SampleRate returns the rate at which frames are produced with provided
// period. Zero period gives zero rate.
func SampleRate(period time.Duration) int {
	if period <= 0 {
		return 0
	}
	return int(math.Round(float64(time.Second) / float64(period)))
}

// Column wraps a single sample per channel into a one-sample frame.
// Values are copied.
func Column(values []float64) Float64 {
	if len(values) == 0 {
		return nil
	}
	result := make([][]float64, len(values))
	for i := range values {
		result[i] = []float64{values[i]}
	}
	return result
}

// AsInterInt converts float64 signal to interleaved int. Values are scaled
// by the multiplier of bit depth and clipped to [-1, 1] before conversion.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	var numChannels int
	if numChannels = len(floats); numChannels == 0 {
		return nil
	}

	// determine the multiplier for bit depth conversion
	multiplier := float64(bitDepth.multiplier())

	ints := make([]int, len(floats[0])*numChannels)

	for j := range floats {
		for i := range floats[j] {
			ints[i*numChannels+j] = int(clip(floats[j][i]) * multiplier)
		}
	}
	return ints
}

// Scale returns a new signal with every value multiplied by k.
func (floats Float64) Scale(k float64) Float64 {
	if floats == nil {
		return nil
	}
	result := make([][]float64, len(floats))
	for i := range floats {
		result[i] = make([]float64, len(floats[i]))
		for j := range floats[i] {
			result[i][j] = floats[i][j] * k
		}
	}
	return result
}

// NumChannels returns number of channels in this sample slice
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single block in this sample slice
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Append buffers set to existing one one
// new buffer is returned if b is nil
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make([][]float64, source.NumChannels())
		for i := range floats {
			floats[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		floats[i] = append(floats[i], source[i]...)
	}
	return floats
}

func clip(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
