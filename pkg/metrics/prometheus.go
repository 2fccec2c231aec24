// Package metrics provides Prometheus metrics for the relisten
// reconciliation engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Input volume - events handed over per source and run
	liveInputEvents       prometheus.Counter
	historicalInputEvents prometheus.Counter
	playlistInputRecords  prometheus.Counter

	// Data quality - counted, never raised
	dedupeDropped         prometheus.Counter
	excludedUnparseable   prometheus.Counter
	excludedNullTimestamp prometheus.Counter
	resolutionFailed      prometheus.Counter
	resolutionConflicts   prometheus.Counter

	// Run and snapshot health
	runsTotal        prometheus.Counter
	runsFailed       prometheus.Counter
	runDuration      prometheus.Histogram
	snapshotPublish  prometheus.Counter
	snapshotLastUnix prometheus.Gauge
	factRows         prometheus.Gauge
	sessionsTotal    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "relisten",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.liveInputEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "live_input_events_total",
		Help:      "Total play events received from the live recent-activity feed",
	})

	m.historicalInputEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "historical_input_events_total",
		Help:      "Total play events received from the historical export",
	})

	m.playlistInputRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "playlist_input_records_total",
		Help:      "Total playlist and membership records received",
	})

	m.dedupeDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dedupe_dropped_total",
		Help:      "Raw records collapsed away by latest-load-wins deduplication",
	})

	m.excludedUnparseable = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "excluded_unparseable_total",
		Help:      "Historical rows excluded because the track reference could not be parsed",
	})

	m.excludedNullTimestamp = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "excluded_null_timestamp_total",
		Help:      "Rows excluded because they carry no play timestamp",
	})

	m.resolutionFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identity_resolution_failed_total",
		Help:      "Events whose track identity resolution came back empty",
	})

	m.resolutionConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identity_resolution_conflicts_total",
		Help:      "Natural keys observed with more than one verified identifier",
	})

	m.runsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total reconciliation runs started",
	})

	m.runsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_failed_total",
		Help:      "Runs that aborted without publishing a snapshot",
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "End-to-end duration of a reconciliation run in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotPublish = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_publish_total",
		Help:      "Full output snapshots published",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_publish_unix",
		Help:      "Unix time of the most recently published snapshot",
	})

	m.factRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fact_rows",
		Help:      "Fact rows in the currently published snapshot",
	})

	m.sessionsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_total",
		Help:      "Listening sessions in the currently published snapshot",
	})
}

// Registry returns the gatherer backing the global manager, for exposition
// via promhttp.
func Registry() *prometheus.Registry { return customRegistry }

// Package-level helpers delegating to the global manager.

// RecordLiveInput adds to the live-feed input counter.
func RecordLiveInput(n int) { globalManager.liveInputEvents.Add(float64(n)) }

// RecordHistoricalInput adds to the historical-export input counter.
func RecordHistoricalInput(n int) { globalManager.historicalInputEvents.Add(float64(n)) }

// RecordPlaylistInput adds to the playlist/membership input counter.
func RecordPlaylistInput(n int) { globalManager.playlistInputRecords.Add(float64(n)) }

// RecordDedupeDropped adds to the dedupe-dropped counter.
func RecordDedupeDropped(n int) { globalManager.dedupeDropped.Add(float64(n)) }

// RecordExcludedUnparseable adds to the unparseable-reference exclusion counter.
func RecordExcludedUnparseable(n int) { globalManager.excludedUnparseable.Add(float64(n)) }

// RecordExcludedNullTimestamp adds to the null-timestamp exclusion counter.
func RecordExcludedNullTimestamp(n int) { globalManager.excludedNullTimestamp.Add(float64(n)) }

// RecordResolutionFailed adds to the failed-resolution counter.
func RecordResolutionFailed(n int) { globalManager.resolutionFailed.Add(float64(n)) }

// RecordResolutionConflicts adds to the verified-id conflict counter.
func RecordResolutionConflicts(n int) { globalManager.resolutionConflicts.Add(float64(n)) }

// RecordRunStarted increments the run counter.
func RecordRunStarted() { globalManager.runsTotal.Inc() }

// RecordRunFailed increments the failed-run counter.
func RecordRunFailed() { globalManager.runsFailed.Inc() }

// RecordRunDuration observes a run duration in seconds.
func RecordRunDuration(seconds float64) { globalManager.runDuration.Observe(seconds) }

// RecordSnapshotPublish marks a snapshot publication.
func RecordSnapshotPublish(unixTime int64) {
	globalManager.snapshotPublish.Inc()
	globalManager.snapshotLastUnix.Set(float64(unixTime))
}

// UpdateFactRows sets the published fact-row gauge.
func UpdateFactRows(n int) { globalManager.factRows.Set(float64(n)) }

// UpdateSessionsTotal sets the published session-count gauge.
func UpdateSessionsTotal(n int) { globalManager.sessionsTotal.Set(float64(n)) }
