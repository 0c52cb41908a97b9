package temporal

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records assembly cost. A nil *Metrics records nothing.
type Metrics struct {
	duration  prometheus.Histogram
	snapshots prometheus.Counter
}

// NewMetrics registers the assembly metrics with reg. Registering twice
// returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mtcq_assembly_duration_seconds",
		Help:    "Time spent assembling a temporal store",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
	snapshots := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mtcq_assembly_snapshots_total",
		Help: "Per-instant snapshots built",
	})

	m := &Metrics{}
	c, err := register(reg, duration)
	if err != nil {
		return nil, err
	}
	m.duration = c.(prometheus.Histogram)
	if c, err = register(reg, snapshots); err != nil {
		return nil, err
	}
	m.snapshots = c.(prometheus.Counter)
	return m, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) observe(elapsed time.Duration, snapshots int) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	m.snapshots.Add(float64(snapshots))
}
