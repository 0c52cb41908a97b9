package cache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache traffic. A nil *Metrics records nothing.
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// NewMetrics registers the counters for the cache called name with reg.
// Registering the same name twice returns the existing counters.
func NewMetrics(reg prometheus.Registerer, name string) (*Metrics, error) {
	labels := prometheus.Labels{"cache": name}
	m := &Metrics{}

	var err error
	if m.hits, err = registerCounter(reg, prometheus.CounterOpts{
		Name:        "mtcq_cache_hits_total",
		Help:        "Lookups answered from the held entry",
		ConstLabels: labels,
	}); err != nil {
		return nil, err
	}
	if m.misses, err = registerCounter(reg, prometheus.CounterOpts{
		Name:        "mtcq_cache_misses_total",
		Help:        "Lookups that had to compute a value",
		ConstLabels: labels,
	}); err != nil {
		return nil, err
	}
	if m.evictions, err = registerCounter(reg, prometheus.CounterOpts{
		Name:        "mtcq_cache_evictions_total",
		Help:        "Held entries discarded for another key or by Reset",
		ConstLabels: labels,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// WithMetrics registers counters for name with reg and attaches them.
// Registration errors other than duplicates panic.
func WithMetrics(reg prometheus.Registerer, name string) Option {
	m, err := NewMetrics(reg, name)
	if err != nil {
		panic(err)
	}
	return WithMetricsSet(m)
}

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) (prometheus.Counter, error) {
	c := prometheus.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) evict() {
	if m != nil {
		m.evictions.Inc()
	}
}
