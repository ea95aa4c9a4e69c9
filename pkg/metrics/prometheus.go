// Package metrics provides Prometheus metrics for the auction coordinator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Bidding
	bidsAccepted prometheus.Counter
	bidsRejected *prometheus.CounterVec
	clockResets  prometheus.Counter

	// Lot lifecycle
	lotsOpened          prometheus.Counter
	lotsSold            prometheus.Counter
	lotsUnsold          prometheus.Counter
	secretWindows       prometheus.Counter
	integrityViolations prometheus.Counter
	settlementLatency   prometheus.Histogram

	// Event bus
	eventsPublished prometheus.Counter
	eventsDropped   prometheus.Counter
	eventQueueSize  prometheus.Gauge

	// Transport
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	streamClients       prometheus.Gauge

	// Ledgers
	pendingLots  prometheus.Gauge
	trackedTeams prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Dedicated registry keeps the default Go collectors out of /metrics.
var registry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(registry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gavel",
		subsystem:        "auction",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.bidsAccepted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "bids_accepted_total",
		Help: "Bids that passed validation and were appended to the ledger.",
	})
	m.bidsRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "bids_rejected_total",
		Help: "Rejected bids by rejection reason.",
	}, []string{"reason"})
	m.clockResets = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "clock_resets_total",
		Help: "Countdown resets caused by accepted open bids.",
	})

	m.lotsOpened = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "lots_opened_total",
		Help: "Lots that entered the open bidding phase.",
	})
	m.lotsSold = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "lots_sold_total",
		Help: "Lots settled to a winning team.",
	})
	m.lotsUnsold = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "lots_unsold_total",
		Help: "Lots closed without a sale.",
	})
	m.secretWindows = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "secret_windows_total",
		Help: "Sealed-bid windows triggered by high open bids.",
	})
	m.integrityViolations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "integrity_violations_total",
		Help: "Budget inconsistencies detected at settlement.",
	})
	m.settlementLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "settlement_duration_ms",
		Help:    "Settlement duration in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.eventsPublished = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_published_total",
		Help: "Events accepted by the notification bus.",
	})
	m.eventsDropped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_dropped_total",
		Help: "Events dropped on bus backpressure.",
	})
	m.eventQueueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "event_queue_size",
		Help: "Events currently buffered in the notification bus.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
	m.streamClients = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "stream_clients",
		Help: "Connected websocket stream clients.",
	})

	m.pendingLots = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "pending_lots",
		Help: "Lots waiting in the registry queue.",
	})
	m.trackedTeams = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tracked_teams",
		Help: "Teams hydrated into the budget ledger.",
	})

	return m
}

// Handler returns the HTTP handler serving the custom registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Package-level recording helpers backed by the global manager.

func RecordBidAccepted()             { globalManager.bidsAccepted.Inc() }
func RecordBidRejected(reason string) { globalManager.bidsRejected.WithLabelValues(reason).Inc() }
func RecordClockReset()              { globalManager.clockResets.Inc() }

func RecordLotOpened()          { globalManager.lotsOpened.Inc() }
func RecordLotSold()            { globalManager.lotsSold.Inc() }
func RecordLotUnsold()          { globalManager.lotsUnsold.Inc() }
func RecordSecretWindow()       { globalManager.secretWindows.Inc() }
func RecordIntegrityViolation() { globalManager.integrityViolations.Inc() }

func RecordSettlementLatency(ms float64) { globalManager.settlementLatency.Observe(ms) }

func RecordEventPublished()      { globalManager.eventsPublished.Inc() }
func RecordEventDropped()        { globalManager.eventsDropped.Inc() }
func UpdateEventQueueSize(n int) { globalManager.eventQueueSize.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func UpdateStreamClients(n int) { globalManager.streamClients.Set(float64(n)) }
func UpdatePendingLots(n int)   { globalManager.pendingLots.Set(float64(n)) }
func UpdateTrackedTeams(n int)  { globalManager.trackedTeams.Set(float64(n)) }
