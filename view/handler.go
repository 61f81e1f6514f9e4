package view

import (
	"fmt"
	"image/png"
	"net/http"

	svg "github.com/ajstarks/svgo"

	"github.com/pipelined/subsim"
)

const (
	defaultTraceHeight = 100
	labelStyle         = "fill:white;font-size:9px;font-family:monospace"
)

func rangeLabel(name string, r subsim.Range) string {
	return fmt.Sprintf("%s.min=%.3f %s.max=%.3f", name, r.Min, name, r.Max)
}

func (v *View) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (v *View) raster(w http.ResponseWriter, r *http.Request) {
	s, ok := v.Snapshot()
	if !ok {
		http.Error(w, "no ticks yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, s.Raster); err != nil {
		v.log.Warn(fmt.Sprintf("view: encode raster: %v", err))
	}
}

// trace draws periods as a polyline scaled to the largest period. The
// most recently written column is marked with a vertical line. Ranges of
// the signal and the projection matrix are printed on top.
func (v *View) trace(w http.ResponseWriter, r *http.Request) {
	s, ok := v.Snapshot()
	if !ok {
		http.Error(w, "no ticks yet", http.StatusServiceUnavailable)
		return
	}
	width, height := len(s.Periods), v.traceSize

	var top float64
	for _, p := range s.Periods {
		if p.Seconds > top {
			top = p.Seconds
		}
	}
	xs := make([]int, len(s.Periods))
	ys := make([]int, len(s.Periods))
	for i, p := range s.Periods {
		xs[i] = p.Index
		ys[i] = height
		if top > 0 {
			ys[i] = height - int(p.Seconds/top*float64(height-1))
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(fmt.Sprintf("tick period, max %.3fs", top))
	canvas.Rect(0, 0, width, height, "fill:black")
	canvas.Polyline(xs, ys, "fill:none;stroke:lime;stroke-width:1")
	canvas.Line(s.Cursor, 0, s.Cursor, height, "stroke:red;stroke-width:1")
	canvas.Text(2, 10, rangeLabel("z", s.SignalRange), labelStyle)
	canvas.Text(2, 20, rangeLabel("W", s.MatrixRange), labelStyle)
	canvas.End()
}

func (v *View) connect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if v.connector == nil {
		http.Error(w, "connect is not supported", http.StatusNotImplemented)
		return
	}
	host := r.URL.Query().Get("host")
	if host == "" {
		http.Error(w, "missing host", http.StatusBadRequest)
		return
	}
	if err := v.connector.Connect(host); err != nil {
		v.log.Warn(fmt.Sprintf("view: connect %v: %v", host, err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v.log.Info(fmt.Sprintf("view: connect %v accepted", host))
	w.WriteHeader(http.StatusAccepted)
}
