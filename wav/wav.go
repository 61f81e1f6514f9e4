// Package wav records simulator signal into wav files. Every channel of the
// signal becomes a channel of the file, every tick becomes a single sample
// at the rate the loop produces frames.
package wav

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/subsim"
	"github.com/pipelined/subsim/signal"
)

// FullScale is the signal value recorded as the maximum sample value.
// It matches the range of a signal payload byte.
const FullScale = 256.0

// pcmFormat is the wav audio format code for integer PCM.
const pcmFormat = 1

type (
	// Sink saves signal to wav file.
	Sink struct {
		path     string
		bitDepth signal.BitDepth
		file     *os.File
		encoder  *wav.Encoder
	}

	// Recording is a decoded wav file.
	Recording struct {
		SampleRate  int
		NumChannels int
		BitDepth    signal.BitDepth
		Data        []int
	}
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

// NewSink creates new wav sink.
func NewSink(path string, bitDepth signal.BitDepth) (*Sink, error) {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}
	return &Sink{
		path:     path,
		bitDepth: bitDepth,
	}, nil
}

// Sink creates the file and returns function that encodes frames into it.
func (s *Sink) Sink(loopID string, sampleRate, numChannels int) (subsim.SinkFunc, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, err
	}
	s.file = f
	s.encoder = wav.NewEncoder(f, sampleRate, int(s.bitDepth), numChannels, pcmFormat)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: int(s.bitDepth),
	}

	return func(b signal.Float64) error {
		ib.Data = b.Scale(1 / FullScale).AsInterInt(s.bitDepth)
		return s.encoder.Write(ib)
	}, nil
}

// Flush finalizes wav header and closes the file.
func (s *Sink) Flush(string) error {
	if s.encoder == nil {
		return nil
	}
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Read decodes the whole wav file.
func Read(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("wav is not valid: %v", path)
	}
	b, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return &Recording{
		SampleRate:  int(d.SampleRate),
		NumChannels: int(d.NumChans),
		BitDepth:    signal.BitDepth(d.BitDepth),
		Data:        b.Data,
	}, nil
}
