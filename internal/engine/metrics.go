package engine

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/search"
)

// Metrics exposes discovery and catalog counters on a per-engine registry,
// served by the API at /metrics.
type Metrics struct {
	mu sync.Mutex

	queriesTotal  *prometheus.CounterVec
	matchesTotal  *prometheus.CounterVec
	recordsTotal  *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	warningsTotal *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec

	servicesGauge prometheus.Gauge
	channelsGauge prometheus.Gauge

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	registered bool
}

func newDiscoveryCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventscout",
			Subsystem: "discovery",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates the metric set. A nil registerer gets a fresh private
// registry, so tests and parallel engines never collide on collector names.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer
	switch {
	case registerer == nil:
		reg := prometheus.NewRegistry()
		registerer = reg
		gatherer = reg
	default:
		if g, ok := registerer.(prometheus.Gatherer); ok {
			gatherer = g
		} else {
			gatherer = prometheus.DefaultGatherer
		}
	}

	return &Metrics{
		registerer:    registerer,
		gatherer:      gatherer,
		queriesTotal:  newDiscoveryCounterVec("queries_total", "Search queries by final result", []string{"result"}),
		matchesTotal:  newDiscoveryCounterVec("matches_total", "Raw matches fetched, by detector", []string{"detector"}),
		recordsTotal:  newDiscoveryCounterVec("records_total", "Canonical records extracted, by broker", []string{"broker"}),
		droppedTotal:  newDiscoveryCounterVec("records_dropped_total", "Evidence dropped during dispatch, by reason", []string{"reason"}),
		warningsTotal: newDiscoveryCounterVec("warnings_total", "Non-fatal run problems, by kind", []string{"kind"}),
		runsTotal:     newDiscoveryCounterVec("runs_total", "Completed discovery runs, by mode and result", []string{"mode", "result"}),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "eventscout",
				Subsystem: "discovery",
				Name:      "query_duration_seconds",
				Help:      "Wall time of one search query including retries",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"detector"},
		),
		servicesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscout",
			Subsystem: "catalog",
			Name:      "services",
			Help:      "Services currently in the catalog index",
		}),
		channelsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventscout",
			Subsystem: "catalog",
			Name:      "channels",
			Help:      "Channels currently in the catalog index",
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.queriesTotal,
		m.matchesTotal,
		m.recordsTotal,
		m.droppedTotal,
		m.warningsTotal,
		m.runsTotal,
		m.queryDuration,
		m.servicesGauge,
		m.channelsGauge,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// Gatherer returns the registry backing this metric set, for the /metrics
// handler.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// ObserveQuery is the search pool observer: one call per query after its
// final attempt.
func (m *Metrics) ObserveQuery(q search.Query, attempts int, duration time.Duration, matches int, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.queriesTotal.WithLabelValues(result).Inc()
	m.matchesTotal.WithLabelValues(q.Detector).Add(float64(matches))
	m.queryDuration.WithLabelValues(q.Detector).Observe(duration.Seconds())
}

// CountDispatch absorbs one dispatch pass into the record counters.
func (m *Metrics) CountDispatch(stats core.DispatchStats) {
	for broker, n := range stats.ByBroker {
		m.recordsTotal.WithLabelValues(broker).Add(float64(n))
	}
	if stats.MatchesInvalid > 0 {
		m.droppedTotal.WithLabelValues("invalid_match").Add(float64(stats.MatchesInvalid))
	}
	if stats.RecordsDropped > 0 {
		m.droppedTotal.WithLabelValues("invalid_record").Add(float64(stats.RecordsDropped))
	}
	if stats.GenericSuppressed > 0 {
		m.droppedTotal.WithLabelValues("generic_suppressed").Add(float64(stats.GenericSuppressed))
	}
	if stats.DetectorPanics > 0 {
		m.droppedTotal.WithLabelValues("detector_panic").Add(float64(stats.DetectorPanics))
	}
}

// CountWarnings adds n warnings of one kind (query, synthesis).
func (m *Metrics) CountWarnings(kind string, n int) {
	if n > 0 {
		m.warningsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// CountRun records one completed scheduled run.
func (m *Metrics) CountRun(mode string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.runsTotal.WithLabelValues(mode, result).Inc()
}

// SetCatalogSize updates the catalog gauges after an index write or load.
func (m *Metrics) SetCatalogSize(services, channels int) {
	m.servicesGauge.Set(float64(services))
	m.channelsGauge.Set(float64(channels))
}
