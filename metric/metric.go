package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const componentsLabel = "subsim.components"

const (
	// MessageCounter measures number of successful calls.
	MessageCounter = "Messages"
	// ByteCounter measures number of bytes handled.
	ByteCounter = "Bytes"
	// ErrorCounter measures number of failed calls.
	ErrorCounter = "Errors"
	// LatencyCounter measures latency between measure calls.
	LatencyCounter = "Latency"
	// ComponentCounter counts number of metered components.
	ComponentCounter = "Components"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		MessageCounter,
		ByteCounter,
		ErrorCounter,
		LatencyCounter,
		ComponentCounter,
	}
)

// Get metrics values for provided component type and labels.
func Get(component interface{}, labels ...string) map[string]string {
	return getCounters(name(component, labels))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentName string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentName, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when a call is done. Failed calls only
// increment the error counter.
type MeasureFunc func(size int64, err error)

// Meter creates new meter closure to capture component counters. Labels
// distinguish several instances of the same component type, e.g. channels.
func Meter(component interface{}, labels ...string) ResetFunc {
	metric := components.get(name(component, labels))
	metric.components.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(s int64, err error) {
			metric.latency.set(time.Since(calledAt))
			calledAt = time.Now()
			if err != nil {
				metric.errors.Add(1)
				return
			}
			metric.messages.Add(1)
			metric.bytes.Add(s)
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentName string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentName]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentName)
	m.m[componentName] = metric
	return metric
}

type metric struct {
	key        string
	components *expvar.Int
	messages   *expvar.Int
	bytes      *expvar.Int
	errors     *expvar.Int
	latency    *duration
}

func newMetric(componentName string) metric {
	m := metric{
		key:        componentName,
		components: expvar.NewInt(key(componentName, ComponentCounter)),
		messages:   expvar.NewInt(key(componentName, MessageCounter)),
		bytes:      expvar.NewInt(key(componentName, ByteCounter)),
		errors:     expvar.NewInt(key(componentName, ErrorCounter)),
		latency:    &duration{},
	}
	expvar.Publish(key(componentName, LatencyCounter), m.latency)
	return m
}

func key(componentName, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentName, counter)
}

func name(component interface{}, labels []string) string {
	t := getType(component)
	if len(labels) == 0 {
		return t
	}
	return t + "." + strings.Join(labels, ".")
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
