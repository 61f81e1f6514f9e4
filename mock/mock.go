// Package mock provides mocks for loop collaborators and allows to execute integration tests.
package mock

import (
	"sync"

	"github.com/pipelined/subsim"
	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/mutable"
	"github.com/pipelined/subsim/signal"
)

// Pointer mocks input.Source with a script of positions. Nil entry means
// no contact. After the script ends, pointer reports no contact.
type Pointer struct {
	Script []*input.Point
	calls  int
}

// At is a helper to build scripts.
func At(x, y float32) *input.Point {
	return &input.Point{X: x, Y: y}
}

// Pointer implements input.Source.
func (m *Pointer) Pointer() (input.Point, bool) {
	defer func() { m.calls++ }()
	if m.calls >= len(m.Script) || m.Script[m.calls] == nil {
		return input.Point{}, false
	}
	return *m.Script[m.calls], true
}

// Calls returns number of Pointer calls.
func (m *Pointer) Calls() int {
	return m.calls
}

// Transport mocks subsim.Transport and records every payload and the
// destination host it was sent to.
type Transport struct {
	mutable.Context
	Host           string
	ErrorOnInput   error
	ErrorOnSignal  error
	ErrorOnConnect error

	mu      sync.Mutex
	inputs  []Payload
	signals []Payload
}

// Payload is a recorded datagram.
type Payload struct {
	Host string
	Data []byte
}

// NewTransport returns transport mock pointed to host.
func NewTransport(host string) *Transport {
	return &Transport{
		Context: mutable.Mutable(),
		Host:    host,
	}
}

// SendInput records input payload.
func (m *Transport) SendInput(p []byte) error {
	if m.ErrorOnInput != nil {
		return m.ErrorOnInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, Payload{Host: m.Host, Data: p})
	return nil
}

// SendSignal records signal payload.
func (m *Transport) SendSignal(p []byte) error {
	if m.ErrorOnSignal != nil {
		return m.ErrorOnSignal
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, Payload{Host: m.Host, Data: p})
	return nil
}

// Connect returns mutation that changes the host.
func (m *Transport) Connect(host string) (mutable.Mutation, error) {
	if m.ErrorOnConnect != nil {
		return mutable.Mutation{}, m.ErrorOnConnect
	}
	return m.Mutate(func() error {
		m.Host = host
		return nil
	}), nil
}

// Inputs returns recorded input payloads.
func (m *Transport) Inputs() []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Payload(nil), m.inputs...)
}

// Signals returns recorded signal payloads.
func (m *Transport) Signals() []Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Payload(nil), m.signals...)
}

// Renderer mocks subsim.Renderer and keeps all snapshots.
type Renderer struct {
	mu        sync.Mutex
	snapshots []subsim.Snapshot
}

// Render implements subsim.Renderer.
func (m *Renderer) Render(s subsim.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
}

// Snapshots returns received snapshots.
func (m *Renderer) Snapshots() []subsim.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]subsim.Snapshot(nil), m.snapshots...)
}

// Sink mocks subsim.Sink.
type Sink struct {
	SampleRate   int
	NumChannels  int
	ErrorOnSink  error
	ErrorOnCall  error
	Flushed      bool
	ErrorOnFlush error

	mu     sync.Mutex
	frames signal.Float64
}

// Sink implements subsim.Sink.
func (m *Sink) Sink(loopID string, sampleRate, numChannels int) (subsim.SinkFunc, error) {
	if m.ErrorOnSink != nil {
		return nil, m.ErrorOnSink
	}
	m.SampleRate = sampleRate
	m.NumChannels = numChannels
	return func(b signal.Float64) error {
		if m.ErrorOnCall != nil {
			return m.ErrorOnCall
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.frames = m.frames.Append(b)
		return nil
	}, nil
}

// Flush implements subsim.Flusher.
func (m *Sink) Flush(string) error {
	m.Flushed = true
	return m.ErrorOnFlush
}

// Frames returns all received frames as a single buffer.
func (m *Sink) Frames() signal.Float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}
