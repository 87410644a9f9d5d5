package pod_nav

import (
	"context"
	"errors"
	"expvar"
	"log/slog"
	"net/http"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// VizConfig controls the optional expvar endpoint used for live plotting.
type VizConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// VizMetrics exposes live input/output values via expvar.
type VizMetrics struct {
	input  *expvar.Map
	output *expvar.Map
	server *http.Server
}

var (
	vizOnce   sync.Once
	vizInput  *expvar.Map
	vizOutput *expvar.Map
)

// expvar panics on duplicate names, so the maps are published once per process.
func vizMaps() (*expvar.Map, *expvar.Map) {
	vizOnce.Do(func() {
		vizInput = expvar.NewMap("input")
		vizOutput = expvar.NewMap("output")
	})
	return vizInput, vizOutput
}

// StartViz starts an HTTP server exposing /debug/vars. It returns nil when
// disabled; a nil *VizMetrics accepts updates and ignores them.
func StartViz(cfg VizConfig, log *slog.Logger) *VizMetrics {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:7070"
	}
	in, out := vizMaps()
	v := &VizMetrics{
		input:  in,
		output: out,
		server: &http.Server{Addr: cfg.Addr, Handler: expvar.Handler()},
	}
	go func() {
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("viz server", slog.Any("error", err))
		}
	}()
	return v
}

// Shutdown stops the HTTP server.
func (v *VizMetrics) Shutdown(ctx context.Context) error {
	if v == nil {
		return nil
	}
	return v.server.Shutdown(ctx)
}

// UpdateInput publishes the latest frame values.
func (v *VizMetrics) UpdateInput(st KinematicState, sensors []SensorReading) {
	if v == nil {
		return
	}
	setFloat(v.input, "x", st.X)
	setFloat(v.input, "y", st.Y)
	setFloat(v.input, "dydt", st.DYDT)
	setFloat(v.input, "dxdt", st.DXDT)
	if len(sensors) > 0 {
		setFloat(v.input, "closest_range", floats.Min(sensorRanges(sensors)))
	}
}

// UpdateOutput publishes the latest controller output values.
func (v *VizMetrics) UpdateOutput(cmd ThrusterCommand, stage Stage, hover float64) {
	if v == nil {
		return
	}
	setFloat(v.output, "up", cmd.Up)
	setFloat(v.output, "down", cmd.Down)
	setFloat(v.output, "left", cmd.Left)
	setFloat(v.output, "right", cmd.Right)
	setFloat(v.output, "stage", float64(stage))
	setFloat(v.output, "hover", hover)
}

// setFloat updates an expvar.Float stored inside a map.
func setFloat(m *expvar.Map, key string, value float64) {
	if v := m.Get(key); v != nil {
		if f, ok := v.(*expvar.Float); ok {
			f.Set(value)
			return
		}
	}
	f := new(expvar.Float)
	f.Set(value)
	m.Set(key, f)
}
