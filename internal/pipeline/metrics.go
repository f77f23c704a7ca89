package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report pipeline activity.
type Metrics struct {
	generationDuration *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	assetResults       *prometheus.CounterVec
	generationsActive  prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// defaultMetrics returns the package-level metrics instance registered
// with the global Prometheus registry. The collectors are created only
// once to avoid duplicate registration panics when the pipeline is
// instantiated multiple times.
func defaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided
// registerer. Supply a fresh registry when unique metric names are
// required, for example in tests. Registration errors other than
// duplicate registration panic, mirroring promauto semantics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	generationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fable",
			Subsystem: "pipeline",
			Name:      "generation_duration_seconds",
			Help:      "Wall time of full story generations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	generationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fable",
			Subsystem: "pipeline",
			Name:      "generations_total",
			Help:      "Total story generations by outcome.",
		},
		[]string{"status"},
	)
	assetResults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fable",
			Subsystem: "pipeline",
			Name:      "asset_results_total",
			Help:      "Asset generation outcomes by kind.",
		},
		[]string{"kind", "status"},
	)
	generationsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fable",
			Subsystem: "pipeline",
			Name:      "generations_active",
			Help:      "Number of story generations currently in flight.",
		},
	)

	collectors := []prometheus.Collector{generationDuration, generationsTotal, assetResults, generationsActive}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch target := collector.(type) {
				case *prometheus.HistogramVec:
					generationDuration = already.ExistingCollector.(*prometheus.HistogramVec)
				case *prometheus.CounterVec:
					switch target { //nolint:exhaustive
					case generationsTotal:
						generationsTotal = already.ExistingCollector.(*prometheus.CounterVec)
					case assetResults:
						assetResults = already.ExistingCollector.(*prometheus.CounterVec)
					}
				case prometheus.Gauge:
					generationsActive = already.ExistingCollector.(prometheus.Gauge)
				}
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		generationDuration: generationDuration,
		generationsTotal:   generationsTotal,
		assetResults:       assetResults,
		generationsActive:  generationsActive,
	}
}

// ObserveGeneration records the outcome and duration of one generation.
func (m *Metrics) ObserveGeneration(status string, duration time.Duration) {
	if m == nil || m.generationDuration == nil {
		return
	}
	m.generationDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.generationsTotal.WithLabelValues(status).Inc()
}

// IncAssetResult counts one asset generation outcome.
func (m *Metrics) IncAssetResult(kind string, status string) {
	if m == nil || m.assetResults == nil {
		return
	}
	m.assetResults.WithLabelValues(kind, status).Inc()
}

// IncActiveGenerations marks a generation as in flight.
func (m *Metrics) IncActiveGenerations() {
	if m == nil || m.generationsActive == nil {
		return
	}
	m.generationsActive.Inc()
}

// DecActiveGenerations marks a generation as finished.
func (m *Metrics) DecActiveGenerations() {
	if m == nil || m.generationsActive == nil {
		return
	}
	m.generationsActive.Dec()
}
