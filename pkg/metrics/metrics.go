// Package metrics exports validation activity of form groups to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Result label values.
const (
	ResultValid      = "valid"
	ResultInvalid    = "invalid"
	ResultSuperseded = "superseded"
)

// Config configures a Collector.
type Config struct {
	// Namespace prefixes every metric name. Defaults to "formstate".
	Namespace string
	// Buckets for the duration histogram. Defaults to prometheus.DefBuckets.
	Buckets []float64
	// Registry receives the metrics. A fresh registry is created when nil.
	Registry *prometheus.Registry
}

// Collector records validation runs of observed groups.
type Collector struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    *prometheus.GaugeVec
}

// NewCollector creates and registers the validation metrics.
func NewCollector(cfg Config) (*Collector, error) {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "formstate"
	}
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of settled field validation runs",
			},
			[]string{"group", "field", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of field validation runs in seconds",
				Buckets:   buckets,
			},
			[]string{"group", "field"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "validations_in_flight",
				Help:      "Number of field validation runs currently executing",
			},
			[]string{"group"},
		),
	}

	for _, collector := range []prometheus.Collector{c.validations, c.duration, c.inFlight} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return c, nil
}

// Observe records every validation run of g and its descendants under g's
// name until cancel is called. The in-flight gauge only counts runs that
// started while observed, and cancel takes back the ones still pending.
func (c *Collector) Observe(g *form.Group) (cancel func()) {
	group := g.Name()
	gauge := c.inFlight.WithLabelValues(group)

	var mu sync.Mutex
	pending := make(map[form.FormObject]int)
	stop := g.Subscribe(func(e form.Event) {
		switch e.Kind {
		case form.EventValidating:
			mu.Lock()
			pending[e.Source]++
			mu.Unlock()
			gauge.Inc()
		case form.EventValidated:
			mu.Lock()
			started := pending[e.Source] > 0
			if started {
				pending[e.Source]--
				if pending[e.Source] == 0 {
					delete(pending, e.Source)
				}
			}
			mu.Unlock()
			if started {
				gauge.Dec()
			}
			field := e.Source.Name()
			c.validations.WithLabelValues(group, field, result(e)).Inc()
			c.duration.WithLabelValues(group, field).Observe(e.Duration.Seconds())
		}
	})
	return sync.OnceFunc(func() {
		stop()
		mu.Lock()
		outstanding := 0
		for _, n := range pending {
			outstanding += n
		}
		clear(pending)
		mu.Unlock()
		gauge.Sub(float64(outstanding))
	})
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func result(e form.Event) string {
	switch {
	case e.Superseded:
		return ResultSuperseded
	case e.Valid:
		return ResultValid
	default:
		return ResultInvalid
	}
}
