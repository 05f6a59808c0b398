// Package metrics holds the Prometheus collectors exported by a tplmgr.Manager.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultMiss  = "miss"
)

// Collector groups the manager's counters and gauges.
type Collector struct {
	Fetches  *prometheus.CounterVec
	Renders  *prometheus.CounterVec
	Compiled prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// Collectors already registered by another manager are reused, so several managers can share reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tplmgr",
			Name:      "fetch_total",
			Help:      "Template source fetches by result.",
		}, []string{"result"}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tplmgr",
			Name:      "render_total",
			Help:      "Template renders by result (miss = not cached yet).",
		}, []string{"result"}),
		Compiled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tplmgr",
			Name:      "cached_templates",
			Help:      "Compiled templates held in the cache.",
		}),
	}
	if reg == nil {
		return c, nil
	}
	var err error
	if c.Fetches, err = register(reg, c.Fetches); err != nil {
		return nil, err
	}
	if c.Renders, err = register(reg, c.Renders); err != nil {
		return nil, err
	}
	if c.Compiled, err = register(reg, c.Compiled); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// Fetch records one fetch with the given result.
func (c *Collector) Fetch(result string) {
	if c == nil {
		return
	}
	c.Fetches.WithLabelValues(result).Inc()
}

// Render records one render with the given result.
func (c *Collector) Render(result string) {
	if c == nil {
		return
	}
	c.Renders.WithLabelValues(result).Inc()
}

// CompiledInc records a new cache entry.
func (c *Collector) CompiledInc() {
	if c == nil {
		return
	}
	c.Compiled.Inc()
}
