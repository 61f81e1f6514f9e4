// Package encode serializes simulator frames into the wire payloads.
//
// Input payload is 8 bytes: both components of the input sample as
// big-endian IEEE-754 float32, in order. Signal payload is one byte per
// channel, each value narrowed to uint8 with a TruncatePolicy.
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pipelined/subsim/input"
)

// InputSize is the size of input payload in bytes.
const InputSize = 8

// ErrPayloadSize is returned when payload has unexpected length.
var ErrPayloadSize = errors.New("unexpected payload size")

// TruncatePolicy defines how a float value is narrowed to a byte.
type TruncatePolicy int

const (
	// Wrap discards the fractional part and keeps the low 8 bits of the
	// integer part, so 256 becomes 0 and -1 becomes 255.
	Wrap TruncatePolicy = iota
	// Saturate discards the fractional part and clamps to [0, 255].
	Saturate
)

// Truncate narrows v to a byte. NaN is always 0; infinities follow the
// saturate rules for both policies.
func (p TruncatePolicy) Truncate(v float64) uint8 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxUint8
	case math.IsInf(v, -1):
		return 0
	}
	v = math.Trunc(v)
	if p == Saturate {
		switch {
		case v < 0:
			return 0
		case v > math.MaxUint8:
			return math.MaxUint8
		}
		return uint8(v)
	}
	m := math.Mod(v, 256)
	if m < 0 {
		m += 256
	}
	return uint8(m)
}

func (p TruncatePolicy) String() string {
	switch p {
	case Wrap:
		return "wrap"
	case Saturate:
		return "saturate"
	}
	return "unknown"
}

// ParseTruncatePolicy returns the policy with provided name.
func ParseTruncatePolicy(s string) (TruncatePolicy, error) {
	switch strings.ToLower(s) {
	case "", "wrap":
		return Wrap, nil
	case "saturate":
		return Saturate, nil
	}
	return Wrap, fmt.Errorf("unknown truncate policy %q", s)
}

// Input encodes the input sample.
func Input(x input.Sample) []byte {
	b := make([]byte, InputSize)
	binary.BigEndian.PutUint32(b[0:4], math.Float32bits(x[0]))
	binary.BigEndian.PutUint32(b[4:8], math.Float32bits(x[1]))
	return b
}

// DecodeInput decodes the input payload.
func DecodeInput(b []byte) (input.Sample, error) {
	if len(b) != InputSize {
		return input.Sample{}, fmt.Errorf("input payload of %d bytes: %w", len(b), ErrPayloadSize)
	}
	return input.Sample{
		math.Float32frombits(binary.BigEndian.Uint32(b[0:4])),
		math.Float32frombits(binary.BigEndian.Uint32(b[4:8])),
	}, nil
}

// Signal encodes the signal vector, one byte per channel.
func Signal(z []float64, p TruncatePolicy) []byte {
	b := make([]byte, len(z))
	for i := range z {
		b[i] = p.Truncate(z[i])
	}
	return b
}
