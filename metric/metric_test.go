package metric_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/subsim/metric"
)

func TestMeter(t *testing.T) {
	pint := 1
	// test cases
	var tests = []struct {
		component          interface{}
		label              string
		routines           int
		calls              int
		size               int64
		fail               bool
		expectedMessages   string
		expectedBytes      string
		expectedErrors     string
		expectedComponents string
	}{
		{
			component:          int(1),
			label:              "input",
			routines:           2,
			calls:              10,
			size:               8,
			expectedMessages:   "20",
			expectedBytes:      "160",
			expectedErrors:     "0",
			expectedComponents: "2",
		},
		{
			component:          &pint,
			label:              "input",
			routines:           2,
			calls:              10,
			size:               8,
			expectedMessages:   "40",
			expectedBytes:      "320",
			expectedErrors:     "0",
			expectedComponents: "4",
		},
		{
			component:          int(1),
			label:              "signal",
			routines:           1,
			calls:              5,
			size:               30,
			fail:               true,
			expectedMessages:   "0",
			expectedBytes:      "0",
			expectedErrors:     "5",
			expectedComponents: "1",
		},
	}
	// function to test meter.
	testFn := func(fn metric.MeasureFunc, wg *sync.WaitGroup, calls int, size int64, fail bool) {
		var err error
		if fail {
			err = errors.New("test")
		}
		for i := 0; i < calls; i++ {
			fn(size, err)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go testFn(metric.Meter(c.component, c.label)(), wg, c.calls, c.size, c.fail)
		}
		// check if no data race.
		wg.Wait()
		values := metric.Get(c.component, c.label)
		assert.Equal(t, c.expectedMessages, values[metric.MessageCounter])
		assert.Equal(t, c.expectedBytes, values[metric.ByteCounter])
		assert.Equal(t, c.expectedErrors, values[metric.ErrorCounter])
		assert.Equal(t, c.expectedComponents, values[metric.ComponentCounter])
		assert.NotEmpty(t, values[metric.LatencyCounter])
	}

	all := metric.GetAll()
	assert.Contains(t, all, "int.input")
	assert.Contains(t, all, "int.signal")
}
