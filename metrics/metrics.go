// Package metrics records expression engine activity as Prometheus metrics.
package metrics

import (
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/ardnew/tmplexpr/lang"
)

// Namespace prefixes every metric name.
const Namespace = "tmplexpr"

// Collector implements [lang.Observer].
type Collector struct {
	compilations *prometheus.CounterVec
	evaluations  *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a Collector and registers its metrics with reg. A nil reg
// leaves the metrics unregistered.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "compilations_total",
				Help:      "Total number of expression compilations by result.",
			},
			[]string{"result"},
		),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "evaluations_total",
				Help:      "Total number of expression evaluations by result.",
			},
			[]string{"result"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "accessor_resolutions_total",
				Help:      "Total number of identifier accessors resolved by kind.",
			},
			[]string{"kind"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "duration_seconds",
				Help:      "Latency of expression compilation and evaluation.",
				Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
			},
			[]string{"phase"},
		),
	}

	if reg != nil {
		reg.MustRegister(c.compilations, c.evaluations, c.resolutions, c.latency)
	}

	return c
}

// Compiled implements [lang.Observer].
func (c *Collector) Compiled(_ string, elapsed time.Duration, err error) {
	c.compilations.WithLabelValues(Result(err)).Inc()
	c.latency.WithLabelValues("compile").Observe(elapsed.Seconds())
}

// Evaluated implements [lang.Observer].
func (c *Collector) Evaluated(_ string, elapsed time.Duration, err error) {
	c.evaluations.WithLabelValues(Result(err)).Inc()
	c.latency.WithLabelValues("evaluate").Observe(elapsed.Seconds())
}

// Resolved implements [lang.Observer].
func (c *Collector) Resolved(_ *lang.Identifier, _ reflect.Type, kind lang.AccessorKind) {
	c.resolutions.WithLabelValues(kind.String()).Inc()
}

var results = []struct {
	err   error
	label string
}{
	{lang.ErrBackreachTooDeep, "backreach_too_deep"},
	{lang.ErrSyntax, "syntax"},
	{lang.ErrFieldNotFound, "field_not_found"},
	{lang.ErrMethodNotFound, "method_not_found"},
	{lang.ErrInvalidOperands, "invalid_operands"},
	{lang.ErrHostCall, "host_call"},
	{lang.ErrBackreach, "backreach"},
	{lang.ErrCallDepth, "call_depth"},
}

// Result returns the label recorded for err: "ok", the name of the engine
// failure it wraps, or "other".
func Result(err error) string {
	if err == nil {
		return "ok"
	}

	for _, r := range results {
		if errors.Is(err, r.err) {
			return r.label
		}
	}

	return "other"
}

// WriteText writes every metric family gathered from g to w in the
// Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}
