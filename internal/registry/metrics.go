package registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registry's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	resident     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vpc",
			Subsystem: "registry",
			Name:      "tile_loads_total",
			Help:      "Tile index loads by result (ok, error) and source (local, remote).",
		}, []string{"result", "source"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vpc",
			Subsystem: "registry",
			Name:      "tile_load_duration_seconds",
			Help:      "Time spent loading one tile index.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"source"}),
		resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vpc",
			Subsystem: "registry",
			Name:      "resident_tiles",
			Help:      "Tile indices currently loaded.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.loads, m.loadDuration, m.resident)
	}
	return m
}

func (m *Metrics) observeLoad(source string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loads.WithLabelValues(result, source).Inc()
	m.loadDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) addResident(delta float64) {
	if m == nil {
		return
	}
	m.resident.Add(delta)
}
