// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	RPCCallLatency   *prometheus.HistogramVec
	APICallLatency   *prometheus.HistogramVec
	ProviderErrors   *prometheus.CounterVec
	MetadataLookups  *prometheus.CounterVec
	HistoryPages     prometheus.Counter
	RateLimiterWaits *prometheus.HistogramVec

	// Classification metrics
	OwnersClassified *prometheus.CounterVec
	AccountsScanned  *prometheus.CounterVec
	LockedSupply     prometheus.Gauge
	CirculatingRatio prometheus.Gauge

	// Run metrics
	RunsTotal     *prometheus.CounterVec
	PhaseDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge

	registry prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg registers on a fresh private registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_holder_lab"
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	f := promauto.With(reg)

	return &Metrics{
		// Provider metrics
		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		APICallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solscan",
			Name:      "api_call_latency_seconds",
			Help:      "Metadata and transfer API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total number of absorbed provider failures",
		}, []string{"provider", "operation"}),
		MetadataLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "metadata_lookups_total",
			Help:      "Total number of account metadata lookups by source",
		}, []string{"source"}),
		HistoryPages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "history_pages_total",
			Help:      "Total number of transfer history pages fetched",
		}),
		RateLimiterWaits: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "wait_seconds",
			Help:      "Time spent waiting on rate limiters",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
		}, []string{"limiter"}),

		// Classification metrics
		OwnersClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "owners_total",
			Help:      "Total number of owners classified by wallet category",
		}, []string{"category"}),
		AccountsScanned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supply",
			Name:      "token_accounts_scanned_total",
			Help:      "Total number of token accounts enumerated by program",
		}, []string{"program"}),
		LockedSupply: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "locked_supply",
			Help:      "Locked supply of the last analyzed mint in UI units",
		}),
		CirculatingRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "circulating_ratio",
			Help:      "Circulating / total supply of the last analyzed mint",
		}),

		// Run metrics
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		PhaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "phase_duration_seconds",
			Help:      "Analysis phase duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"phase"}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),

		registry: gatherer,
	}
}

// Handler returns an HTTP handler for the /metrics endpoint serving m's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Handler returns an HTTP handler for the default /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordAPILatency records metadata/transfer API call latency.
func RecordAPILatency(endpoint string, seconds float64) {
	DefaultMetrics.APICallLatency.WithLabelValues(endpoint).Observe(seconds)
}

// RecordProviderError records a provider failure that was absorbed as "no data".
func RecordProviderError(provider, operation string) {
	DefaultMetrics.ProviderErrors.WithLabelValues(provider, operation).Inc()
}

// RecordMetadataLookup records a metadata lookup served from source ("api" or "cache").
func RecordMetadataLookup(source string) {
	DefaultMetrics.MetadataLookups.WithLabelValues(source).Inc()
}

// RecordHistoryPage increments the history pages counter.
func RecordHistoryPage() {
	DefaultMetrics.HistoryPages.Inc()
}

// RecordLimiterWait records time spent waiting on a named limiter.
func RecordLimiterWait(limiter string, seconds float64) {
	DefaultMetrics.RateLimiterWaits.WithLabelValues(limiter).Observe(seconds)
}

// RecordOwnerClassified increments the classified owners counter for category.
func RecordOwnerClassified(category string) {
	DefaultMetrics.OwnersClassified.WithLabelValues(category).Inc()
}

// RecordAccountsScanned adds n enumerated token accounts for program.
func RecordAccountsScanned(program string, n int) {
	DefaultMetrics.AccountsScanned.WithLabelValues(program).Add(float64(n))
}

// UpdateLockGauges sets the lock gauges for the last analyzed mint.
func UpdateLockGauges(locked, circulating, total float64) {
	DefaultMetrics.LockedSupply.Set(locked)
	if total > 0 {
		DefaultMetrics.CirculatingRatio.Set(circulating / total)
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRun records a finished analysis run.
func RecordRun(status string, unixSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.Set(unixSeconds)
	}
}

// RecordPhase records one phase duration.
func RecordPhase(phase string, seconds float64) {
	DefaultMetrics.PhaseDuration.WithLabelValues(phase).Observe(seconds)
}
