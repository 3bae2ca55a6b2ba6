package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
)

// DefaultNamespace prefixes metric names.
const DefaultNamespace = "notifykit"

// Label names.
const (
	LabelClass   = "class"
	LabelLine    = "line"
	LabelAction  = "action"
	LabelOutcome = "outcome"
	LabelMode    = "mode"
)

// Option configures an Observer.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace replaces DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// WithBuckets sets the duration histogram buckets, in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// Observer counts delivery events and records per-line durations.
type Observer struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ delivery.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer. Collectors already registered
// under the same names are reused.
func NewObserver(reg prometheus.Registerer, opts ...Option) (*Observer, error) {
	o := options{namespace: DefaultNamespace, buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Subsystem: "delivery",
		Name:      "events_total",
		Help:      "Delivery line outcomes, plus halted and recorded dispatches.",
	}, []string{LabelClass, LabelLine, LabelAction, LabelOutcome})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Subsystem: "delivery",
		Name:      "duration_seconds",
		Help:      "Time spent in a delivery line, callbacks included.",
		Buckets:   o.buckets,
	}, []string{LabelClass, LabelLine, LabelMode})

	var err error
	if events, err = register(reg, events); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Observer{events: events, duration: duration}, nil
}

// MustNewObserver is NewObserver that panics on error.
func MustNewObserver(reg prometheus.Registerer, opts ...Option) *Observer {
	o, err := NewObserver(reg, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe implements delivery.Observer.
func (o *Observer) Observe(_ context.Context, e delivery.Event) {
	o.events.WithLabelValues(e.Class, e.Line, e.Action, string(e.Outcome)).Inc()

	if e.Line == "" || e.Outcome == delivery.OutcomeSkipped {
		return
	}
	mode := "later"
	if e.Sync {
		mode = "now"
	}
	o.duration.WithLabelValues(e.Class, e.Line, mode).Observe(e.Duration.Seconds())
}

// Handler serves the metrics gathered by g. A nil g uses
// prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
