package subsim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/pipelined/subsim/encode"
	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/log"
	"github.com/pipelined/subsim/metric"
	"github.com/pipelined/subsim/mutable"
	"github.com/pipelined/subsim/raster"
	"github.com/pipelined/subsim/signal"
)

type (
	// Projector maps input sample into signal vector.
	Projector interface {
		Project(input.Sample) []float64
		Dims() (rows, cols int)
		Min() float64
		Max() float64
	}

	// Transport sends payloads of a tick.
	Transport interface {
		SendInput([]byte) error
		SendSignal([]byte) error
		Connect(host string) (mutable.Mutation, error)
	}

	// Renderer receives a snapshot after every tick. Render is called
	// from the loop goroutine and must not block.
	Renderer interface {
		Render(Snapshot)
	}
)

// Loop executes ticks.
type Loop struct {
	uid         string
	log         log.Logger
	interval    time.Duration
	width       int
	displayGain float64
	truncate    encode.TruncatePolicy
	now         func() time.Time

	sampler   *input.Sampler
	projector Projector
	transport Transport
	renderer  Renderer
	sinks     []Sink
	runners   []*sinkRunner

	state  *State
	matrix Range
	meter  metric.MeasureFunc

	mu      sync.Mutex
	pending mutable.Mutations
}

// New creates a new loop and applies provided options. Sinks are bound
// during creation.
func New(source input.Source, p Projector, t Transport, options ...Option) (*Loop, error) {
	if p == nil {
		return nil, ErrNoProjector
	}
	if t == nil {
		return nil, ErrNoTransport
	}
	l := &Loop{
		uid:         xid.New().String(),
		log:         log.Silent(),
		interval:    DefaultInterval,
		width:       DefaultWidth,
		displayGain: raster.DefaultGain,
		truncate:    encode.Wrap,
		now:         time.Now,
		sampler:     input.NewSampler(source),
		projector:   p,
		transport:   t,
	}
	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}
	channels, _ := p.Dims()
	l.matrix = Range{Min: p.Min(), Max: p.Max()}
	l.state = newState(l.width, channels,
		raster.WithGain(l.displayGain),
		raster.WithTruncate(l.truncate),
	)
	sampleRate := signal.SampleRate(l.interval)
	for _, s := range l.sinks {
		r, err := bindSink(l.uid, sampleRate, channels, s)
		if err != nil {
			return nil, fmt.Errorf("bind sink: %w", err)
		}
		l.runners = append(l.runners, r)
	}
	l.meter = metric.Meter(l)()
	return l, nil
}

// ID returns unique loop id.
func (l *Loop) ID() string {
	return l.uid
}

// State returns the loop state. It must not be modified and should only
// be read when loop is not running.
func (l *Loop) State() *State {
	return l.state
}

// Push queues mutations. They are applied at the beginning of the next
// tick.
func (l *Loop) Push(mutations ...mutable.Mutation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range mutations {
		l.pending = l.pending.Put(m)
	}
}

// Connect points both transport channels to a new host. Resolution
// errors are returned and current destinations stay active. The change
// applies at the next tick boundary.
func (l *Loop) Connect(host string) error {
	m, err := l.transport.Connect(host)
	if err != nil {
		return err
	}
	l.Push(m)
	l.log.Info(fmt.Sprintf("loop %v: connect to %v queued", l.uid, host))
	return nil
}

// Run executes ticks until context is done. Sinks are flushed on return.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info(fmt.Sprintf("loop %v: started with interval %v", l.uid, l.interval))
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			l.log.Info(fmt.Sprintf("loop %v: stopped after %d ticks", l.uid, l.state.Ticks))
			return l.flush()
		case <-timer.C:
			started := l.now()
			if err := l.Tick(started); err != nil {
				l.log.Warn(fmt.Sprintf("loop %v: tick %d: %v", l.uid, l.state.Ticks, err))
			}
			wait := l.interval - l.now().Sub(started)
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}

// Tick executes a single tick. Returned error lists failed side effects,
// the tick itself is always completed.
func (l *Loop) Tick(now time.Time) error {
	var errs tickErrors
	if err := l.applyMutations(); err != nil {
		errs = append(errs, fmt.Errorf("apply mutations: %w", err))
	}

	s := l.state
	s.Input = l.sampler.Next()
	z := l.projector.Project(s.Input)
	s.Signal = z

	if err := l.transport.SendInput(encode.Input(s.Input)); err != nil {
		errs = append(errs, err)
	}
	if err := l.transport.SendSignal(encode.Signal(z, l.truncate)); err != nil {
		errs = append(errs, err)
	}

	c := s.advance()
	s.Raster.WriteColumn(c, z)
	s.Trace.Record(c, now)
	s.Ticks++

	if len(l.runners) > 0 {
		frame := signal.Column(z)
		for _, r := range l.runners {
			if err := r.fn(frame); err != nil {
				errs = append(errs, fmt.Errorf("sink %T: %w", r.Sink, err))
			}
		}
	}

	if l.renderer != nil {
		l.renderer.Render(s.snapshot(l.matrix))
	}
	l.log.Debug(fmt.Sprintf("loop %v: tick %d cursor %d input %v", l.uid, s.Ticks, c, s.Input))

	err := errs.ret()
	l.meter(int64(len(z)), err)
	return err
}

func (l *Loop) applyMutations() error {
	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()
	return pending.ApplyAll()
}

func (l *Loop) flush() error {
	var errs tickErrors
	for _, r := range l.runners {
		if err := call(r.flush, l.uid); err != nil {
			errs = append(errs, fmt.Errorf("flush sink %T: %w", r.Sink, err))
		}
	}
	return errs.ret()
}
