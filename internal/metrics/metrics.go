// Package metrics exports the outcome of check runs as Prometheus metrics.
// The CLI writes them in the text exposition format for a node exporter
// textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"dotgate/internal/driver"
)

const namespace = "dotgate"

// Unit status label values.
const (
	StatusPassed  = "passed"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Recorder accumulates metrics over one or more runs (watch mode keeps one
// recorder for the whole session).
type Recorder struct {
	reg         *prometheus.Registry
	runs        prometheus.Counter
	units       *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	cacheHits   prometheus.Counter
	phases      *prometheus.GaugeVec
	gate        prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of check runs.",
		}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Verified units by gate outcome.",
		}, []string{"status"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Reported diagnostics by code and severity.",
		}, []string{"code", "name", "severity"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Units restored from the result cache.",
		}),
		phases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_seconds",
			Help:      "Duration of each phase of the last run.",
		}, []string{"phase"}),
		gate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_open",
			Help:      "1 when every unit of the last run passed the gate.",
		}),
	}
	r.reg.MustRegister(r.runs, r.units, r.diagnostics, r.cacheHits, r.phases, r.gate)
	return r
}

// Registry exposes the collectors, e.g. for testutil.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe folds run into the metrics. Diagnostics past the display cap are
// not counted; the error and warning totals of the bag are.
func (r *Recorder) Observe(run *driver.Run) {
	r.runs.Inc()
	for i := range run.Units {
		u := &run.Units[i]
		switch {
		case u.Err != nil:
			r.units.WithLabelValues(StatusError).Inc()
			continue
		case u.Proceed:
			r.units.WithLabelValues(StatusPassed).Inc()
		default:
			r.units.WithLabelValues(StatusBlocked).Inc()
		}
		if u.Cached {
			r.cacheHits.Inc()
		}
		for _, d := range u.Bag.Items() {
			r.diagnostics.WithLabelValues(d.Code.ID(), d.Code.Name(), d.Severity.Label()).Inc()
		}
	}
	r.phases.Reset()
	for _, p := range run.Timing.Phases {
		r.phases.WithLabelValues(p.Name).Set(p.DurationMS / 1000)
	}
	if run.Proceed() {
		r.gate.Set(1)
	} else {
		r.gate.Set(0)
	}
}

// WriteTextfile writes the metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
