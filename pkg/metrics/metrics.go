package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records scheduling activity in Prometheus collectors.
type Metrics struct {
	classifications *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	effectFailures  *prometheus.CounterVec
	resolveDuration prometheus.Histogram
}

// New registers the collectors on the default Prometheus registerer.
func New(namespace string) (*Metrics, error) {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. A nil registerer defaults
// to the global one. Collectors already registered under the same name are reused.
func NewWithRegistry(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	classifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Candidate classifications by availability label",
	}, []string{"label"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Applied assignment workflow events",
	}, []string{"event"})
	effectFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "effect_failures_total",
		Help:      "Side effects that failed and were skipped",
	}, []string{"effect"})
	resolveDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolve_duration_seconds",
		Help:      "Time spent evaluating candidates for a mission",
		Buckets:   prometheus.DefBuckets,
	})

	var err error
	if classifications, err = register(reg, classifications); err != nil {
		return nil, err
	}
	if transitions, err = register(reg, transitions); err != nil {
		return nil, err
	}
	if effectFailures, err = register(reg, effectFailures); err != nil {
		return nil, err
	}
	if resolveDuration, err = register(reg, resolveDuration); err != nil {
		return nil, err
	}

	return &Metrics{
		classifications: classifications,
		transitions:     transitions,
		effectFailures:  effectFailures,
		resolveDuration: resolveDuration,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) ObserveClassification(label string) {
	m.classifications.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveTransition(event string) {
	m.transitions.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveEffectFailure(effect string) {
	m.effectFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) ObserveResolve(d time.Duration) {
	m.resolveDuration.Observe(d.Seconds())
}

// Nop discards all observations.
type Nop struct{}

func (Nop) ObserveClassification(string)  {}
func (Nop) ObserveTransition(string)      {}
func (Nop) ObserveEffectFailure(string)   {}
func (Nop) ObserveResolve(time.Duration) {}
