package subsim_test

import (
	"context"
	"errors"
	"image/color"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/pipelined/subsim"
	"github.com/pipelined/subsim/encode"
	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/mock"
	"github.com/pipelined/subsim/projector"
)

const channels = 30

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// identity returns noiseless projector that copies input into the first
// two channels.
func identity(rows int) *projector.Projector {
	w := mat.NewDense(rows, 2, nil)
	w.Set(0, 0, 1)
	w.Set(1, 1, 1)
	return projector.FromMatrix(w, 0, nil)
}

func newLoop(t *testing.T, src input.Source, p subsim.Projector, tr subsim.Transport, options ...subsim.Option) *subsim.Loop {
	t.Helper()
	l, err := subsim.New(src, p, tr, options...)
	require.NoError(t, err)
	return l
}

func TestScenarioTruncation(t *testing.T) {
	// canvas point that remaps to (0.4, 0.6)
	src := &mock.Pointer{Script: []*input.Point{mock.At(0.8, 0.4)}}
	tr := mock.NewTransport("127.0.0.1")
	l := newLoop(t, src, identity(channels), tr)

	assert.NoError(t, l.Tick(time.Now()))

	s := l.State()
	assert.InDelta(t, 0.4, s.Input[0], 1e-6)
	assert.InDelta(t, 0.6, s.Input[1], 1e-6)
	assert.InDelta(t, 0.4, s.Signal[0], 1e-6)
	assert.InDelta(t, 0.6, s.Signal[1], 1e-6)

	inputs, signals := tr.Inputs(), tr.Signals()
	require.Len(t, inputs, 1)
	require.Len(t, signals, 1)
	decoded, err := encode.DecodeInput(inputs[0].Data)
	require.NoError(t, err)
	assert.Equal(t, s.Input, decoded)
	assert.InDelta(t, 0.4, decoded[0], 1e-6)
	assert.InDelta(t, 0.6, decoded[1], 1e-6)
	// every component truncates to zero
	assert.Equal(t, make([]byte, channels), signals[0].Data)
}

func TestScenarioWrap(t *testing.T) {
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithWidth(4))
	now := time.Now()
	for i := 0; i < 5; i++ {
		assert.NoError(t, l.Tick(now.Add(time.Duration(i)*time.Millisecond)))
	}
	s := l.State()
	assert.Equal(t, 1, s.Cursor)
	assert.Equal(t, uint64(5), s.Ticks)
	assert.Equal(t, 2, s.Raster.Writes(1))
	assert.Equal(t, 1, s.Raster.Writes(0))
	assert.Equal(t, 1, s.Raster.Writes(2))
	assert.Equal(t, 1, s.Raster.Writes(3))
}

func TestCursorWraparound(t *testing.T) {
	const width = 16
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithWidth(width))
	now := time.Now()
	for i := 1; i <= width; i++ {
		assert.NoError(t, l.Tick(now))
		if i < width {
			assert.Equal(t, i, l.State().Cursor)
			assert.Equal(t, 0, l.State().Raster.Writes(0))
		}
	}
	assert.Equal(t, 0, l.State().Cursor)
	assert.Equal(t, 1, l.State().Raster.Writes(0))
}

func TestPeriodAlignment(t *testing.T) {
	const width = 5
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithWidth(width))
	now := time.Unix(100, 0)
	for i := 0; i < 3*width; i++ {
		// every tick is a bit longer than previous one
		step := time.Duration(10+i) * time.Millisecond
		now = now.Add(step)
		assert.NoError(t, l.Tick(now))
		c := l.State().Cursor
		if i == 0 {
			// first tick has no previous timestamp
			assert.Equal(t, 0.0, l.State().Trace.Period(c))
			continue
		}
		assert.InDelta(t, step.Seconds(), l.State().Trace.Period(c), 1e-9)
	}
}

func TestFirstLapPeriodSlot(t *testing.T) {
	const width = 4
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithWidth(width))
	now := time.Unix(100, 0)
	for i := 0; i < width; i++ {
		now = now.Add(10 * time.Millisecond)
		assert.NoError(t, l.Tick(now))
	}
	tr := l.State().Trace
	// first tick writes column 1 without previous timestamp
	assert.Equal(t, 0.0, tr.Period(1))
	assert.InDelta(t, 0.01, tr.Period(0), 1e-9)
	assert.InDelta(t, 0.01, tr.Period(2), 1e-9)
	assert.InDelta(t, 0.01, tr.Period(3), 1e-9)

	// second lap overwrites the slot
	now = now.Add(20 * time.Millisecond)
	assert.NoError(t, l.Tick(now))
	assert.InDelta(t, 0.02, tr.Period(1), 1e-9)
}

func TestCarryOver(t *testing.T) {
	src := &mock.Pointer{
		Script: []*input.Point{
			mock.At(1, 0),
			nil,
			nil,
			mock.At(0, 1),
			nil,
		},
	}
	tr := mock.NewTransport("127.0.0.1")
	l := newLoop(t, src, identity(2), tr)
	expected := []input.Sample{
		{0.5, 1},
		{0.5, 1},
		{0.5, 1},
		{0, 0},
		{0, 0},
	}
	for i, e := range expected {
		assert.NoError(t, l.Tick(time.Now()))
		assert.Equal(t, e, l.State().Input, "tick %d", i)
		assert.Equal(t, encode.Input(e), tr.Inputs()[i].Data)
	}
}

func TestConnect(t *testing.T) {
	tr := mock.NewTransport("127.0.0.1")
	l := newLoop(t, nil, identity(2), tr)

	assert.NoError(t, l.Tick(time.Now()))
	assert.NoError(t, l.Connect("10.0.0.5"))
	// queued, not applied until the next tick starts
	assert.Equal(t, "127.0.0.1", tr.Host)
	assert.NoError(t, l.Tick(time.Now()))
	assert.NoError(t, l.Tick(time.Now()))

	inputs, signals := tr.Inputs(), tr.Signals()
	require.Len(t, inputs, 3)
	require.Len(t, signals, 3)
	for i := range inputs {
		// both channels of a tick always share destination
		assert.Equal(t, inputs[i].Host, signals[i].Host)
	}
	assert.Equal(t, "127.0.0.1", inputs[0].Host)
	assert.Equal(t, "10.0.0.5", inputs[1].Host)
	assert.Equal(t, "10.0.0.5", inputs[2].Host)
}

func TestConnectError(t *testing.T) {
	errConnect := errors.New("unresolvable")
	tr := mock.NewTransport("127.0.0.1")
	tr.ErrorOnConnect = errConnect
	l := newLoop(t, nil, identity(2), tr)

	err := l.Connect("bad")
	assert.True(t, errors.Is(err, errConnect))
	assert.NoError(t, l.Tick(time.Now()))
	assert.Equal(t, "127.0.0.1", tr.Signals()[0].Host)
}

func TestSendErrors(t *testing.T) {
	errSend := errors.New("network is down")
	tr := mock.NewTransport("127.0.0.1")
	tr.ErrorOnSignal = errSend
	r := &mock.Renderer{}
	l := newLoop(t, nil, identity(2), tr, subsim.WithRenderer(r))

	for i := 0; i < 3; i++ {
		err := l.Tick(time.Now())
		assert.True(t, errors.Is(err, errSend))
	}
	// input channel and the rest of the tick are not affected
	assert.Len(t, tr.Inputs(), 3)
	assert.Empty(t, tr.Signals())
	assert.Equal(t, uint64(3), l.State().Ticks)
	assert.Equal(t, 3, l.State().Cursor)
	assert.Len(t, r.Snapshots(), 3)
}

func TestSnapshots(t *testing.T) {
	src := &mock.Pointer{Script: []*input.Point{mock.At(2, 0)}}
	r := &mock.Renderer{}
	l := newLoop(t, src, identity(2), mock.NewTransport("127.0.0.1"),
		subsim.WithRenderer(r),
		subsim.WithWidth(8),
		subsim.WithDisplayGain(100),
	)
	assert.NoError(t, l.Tick(time.Now()))
	assert.NoError(t, l.Tick(time.Now()))

	snapshots := r.Snapshots()
	require.Len(t, snapshots, 2)
	first, second := snapshots[0], snapshots[1]
	assert.Equal(t, uint64(1), first.Ticks)
	assert.Equal(t, 1, first.Cursor)
	assert.Equal(t, 2, second.Cursor)
	assert.Len(t, first.Periods, 8)
	assert.Equal(t, 8, first.Raster.Bounds().Dx())
	assert.Equal(t, 2, first.Raster.Bounds().Dy())

	assert.Equal(t, subsim.Range{Min: 1, Max: 1}, second.SignalRange)
	assert.Equal(t, subsim.Range{Min: 0, Max: 1}, second.MatrixRange)
	// x = (1, 1) with gain 100 wraps to 100
	assert.Equal(t, color.RGBA{G: 100, A: 0xff}, second.Raster.RGBAAt(2, 0))
	// first snapshot does not see later writes
	assert.Equal(t, color.RGBA{A: 0xff}, first.Raster.RGBAAt(2, 0))
}

func TestTruncatePolicy(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{300, 0, 0, 0})
	tr := mock.NewTransport("127.0.0.1")
	src := &mock.Pointer{Script: []*input.Point{mock.At(2, 1)}}
	l := newLoop(t, src, projector.FromMatrix(w, 0, nil), tr, subsim.WithTruncate(encode.Saturate))
	assert.NoError(t, l.Tick(time.Now()))
	assert.Equal(t, []byte{255, 0}, tr.Signals()[0].Data)
}

func TestSinks(t *testing.T) {
	sink := &mock.Sink{}
	p := projector.New(channels, 2, projector.DefaultSpatialGain, projector.DefaultNoiseGain, rand.NewSource(3))
	l := newLoop(t, nil, p, mock.NewTransport("127.0.0.1"), subsim.WithSinks(sink))
	assert.Equal(t, 25, sink.SampleRate)
	assert.Equal(t, channels, sink.NumChannels)

	for i := 0; i < 4; i++ {
		assert.NoError(t, l.Tick(time.Now()))
	}
	frames := sink.Frames()
	assert.Equal(t, channels, frames.NumChannels())
	assert.Equal(t, 4, frames.Size())
	assert.Equal(t, l.State().Signal[5], frames[5][3])
}

func TestSinkErrors(t *testing.T) {
	errSink := errors.New("sink")
	_, err := subsim.New(nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithSinks(&mock.Sink{ErrorOnSink: errSink}))
	assert.True(t, errors.Is(err, errSink))

	sink := &mock.Sink{ErrorOnCall: errSink}
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithSinks(sink))
	assert.True(t, errors.Is(l.Tick(time.Now()), errSink))
	assert.Equal(t, uint64(1), l.State().Ticks)
}

func TestNewErrors(t *testing.T) {
	tr := mock.NewTransport("127.0.0.1")
	_, err := subsim.New(nil, nil, tr)
	assert.Equal(t, subsim.ErrNoProjector, err)
	_, err = subsim.New(nil, identity(2), nil)
	assert.Equal(t, subsim.ErrNoTransport, err)
	_, err = subsim.New(nil, identity(2), tr, subsim.WithWidth(0))
	assert.NotNil(t, err)
	_, err = subsim.New(nil, identity(2), tr, subsim.WithInterval(-time.Second))
	assert.NotNil(t, err)
	_, err = subsim.New(nil, identity(2), tr, subsim.WithClock(nil))
	assert.NotNil(t, err)
}

func TestRun(t *testing.T) {
	const interval = 5 * time.Millisecond
	sink := &mock.Sink{}
	r := &mock.Renderer{}
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"),
		subsim.WithInterval(interval),
		subsim.WithSinks(sink),
		subsim.WithRenderer(r),
		subsim.WithWidth(1000),
	)
	assert.NotEmpty(t, l.ID())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.Run(ctx))
	assert.True(t, sink.Flushed)

	s := l.State()
	assert.Greater(t, s.Ticks, uint64(2))
	// ticks never start sooner than interval after the previous one
	for c := 2; c <= s.Cursor; c++ {
		assert.GreaterOrEqual(t, s.Trace.Period(c), interval.Seconds())
	}
	assert.Len(t, r.Snapshots(), int(s.Ticks))
}

func TestRunFlushError(t *testing.T) {
	errFlush := errors.New("flush")
	sink := &mock.Sink{ErrorOnFlush: errFlush}
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"), subsim.WithSinks(sink))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, errors.Is(l.Run(ctx), errFlush))
}

func TestPushBeforeTick(t *testing.T) {
	tr := mock.NewTransport("127.0.0.1")
	l := newLoop(t, nil, identity(2), tr)
	m1, err := tr.Connect("10.0.0.1")
	require.NoError(t, err)
	m2, err := tr.Connect("10.0.0.2")
	require.NoError(t, err)
	// mutations are applied in push order
	l.Push(m1, m2)
	assert.NoError(t, l.Tick(time.Now()))
	assert.Equal(t, "10.0.0.2", tr.Inputs()[0].Host)
}

func TestRunClock(t *testing.T) {
	var ticks int
	start := time.Unix(0, 0)
	// every call of the clock moves it by a second
	clock := func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks) * time.Second)
	}
	l := newLoop(t, nil, identity(2), mock.NewTransport("127.0.0.1"),
		subsim.WithClock(clock),
		subsim.WithInterval(time.Millisecond),
		subsim.WithWidth(1000),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.Run(ctx))
	// clock is called twice per tick, at start and to compute the wait
	assert.Equal(t, 2.0, l.State().Trace.Period(2))
}
