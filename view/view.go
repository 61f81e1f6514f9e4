// Package view serves the simulator state over http. It renders the raster
// as png and the period trace as svg, accepts pointer positions from a
// browser over websocket and exposes metrics.
//
// Routes:
//
//	GET  /            page with canvas, raster and trace
//	GET  /raster.png  latest raster
//	GET  /trace.svg   latest period trace
//	GET  /pointer     websocket, pointer messages from browser
//	POST /connect     rebind destinations, host in query
//	GET  /debug/vars  expvar metrics
package view

import (
	"expvar"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/pipelined/subsim"
	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/log"
	"github.com/pipelined/subsim/metric"
)

// Connector rebinds transport destinations to a new host.
type Connector interface {
	Connect(host string) error
}

// ConnectorFunc is an adapter to use functions as connectors.
type ConnectorFunc func(host string) error

// Connect calls f(host).
func (f ConnectorFunc) Connect(host string) error {
	return f(host)
}

// View is a renderer and a pointer source backed by http handlers.
type View struct {
	log       log.Logger
	connector Connector
	traceSize int

	mux      *http.ServeMux
	upgrader websocket.Upgrader
	snapshot atomic.Pointer[subsim.Snapshot]

	mu      sync.Mutex
	point   input.Point
	contact bool
	meter   metric.MeasureFunc
}

// Option configures the view.
type Option func(*View)

// WithLogger sets logger to View. If this option is not provided, silent logger is used.
func WithLogger(l log.Logger) Option {
	return func(v *View) {
		v.log = l
	}
}

// WithConnector enables connect route.
func WithConnector(c Connector) Option {
	return func(v *View) {
		v.connector = c
	}
}

// WithTraceHeight sets height of trace image in pixels.
func WithTraceHeight(h int) Option {
	return func(v *View) {
		if h > 0 {
			v.traceSize = h
		}
	}
}

// New returns view with all routes registered.
func New(options ...Option) *View {
	v := &View{
		log:       log.Silent(),
		traceSize: defaultTraceHeight,
		mux:       http.NewServeMux(),
	}
	for _, option := range options {
		option(v)
	}
	v.upgrader.Error = v.upgradeError
	v.meter = metric.Meter(v, "pointer")()
	v.mux.HandleFunc("/", v.index)
	v.mux.HandleFunc("/raster.png", v.raster)
	v.mux.HandleFunc("/trace.svg", v.trace)
	v.mux.HandleFunc("/pointer", v.pointer)
	v.mux.HandleFunc("/connect", v.connect)
	v.mux.Handle("/debug/vars", expvar.Handler())
	return v
}

// ServeHTTP implements http.Handler.
func (v *View) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v.mux.ServeHTTP(w, r)
}

// Render implements subsim.Renderer. Snapshot is stored and served on
// the following requests.
func (v *View) Render(s subsim.Snapshot) {
	v.snapshot.Store(&s)
}

// Snapshot returns the latest rendered snapshot.
func (v *View) Snapshot() (subsim.Snapshot, bool) {
	s := v.snapshot.Load()
	if s == nil {
		return subsim.Snapshot{}, false
	}
	return *s, true
}

// Pointer implements input.Source. It returns the last position received
// from browser while the pointer is pressed.
func (v *View) Pointer() (input.Point, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.point, v.contact
}

func (v *View) setPointer(p input.Point, contact bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if contact {
		v.point = p
	}
	v.contact = contact
}
