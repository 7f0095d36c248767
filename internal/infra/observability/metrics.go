package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/sellerstats/wb-reports/internal/domain"
)

// Metrics holds all Prometheus metrics for the report service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	retries         *prometheus.CounterVec
	pagesFetched    *prometheus.CounterVec
	taskPolls       *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	reportsTotal    *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wbreports_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_upstream_errors_total",
				Help: "Total errors from upstream services.",
			},
			[]string{"service"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_retries_total",
				Help: "Total retried upstream calls.",
			},
			[]string{"service"},
		),
		pagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_pages_fetched_total",
				Help: "Total pages fetched from paginated endpoints.",
			},
			[]string{"endpoint"},
		),
		taskPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_task_polls_total",
				Help: "Total status polls for async report tasks.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		reportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wbreports_reports_total",
				Help: "Total report generations by outcome.",
			},
			[]string{"kind", "status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrUpstreamError increments the upstream error counter.
func (m *Metrics) IncrUpstreamError(service string) {
	m.upstreamErrors.WithLabelValues(service).Inc()
}

// IncrRetry increments the retry counter for a service.
func (m *Metrics) IncrRetry(service string) {
	m.retries.WithLabelValues(service).Inc()
}

// IncrPageFetched increments the fetched-page counter for an endpoint.
func (m *Metrics) IncrPageFetched(endpoint string) {
	m.pagesFetched.WithLabelValues(endpoint).Inc()
}

// IncrTaskPoll increments the poll counter for an async task kind.
func (m *Metrics) IncrTaskPoll(kind string) {
	m.taskPolls.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrReport increments the report counter with kind and status labels.
func (m *Metrics) IncrReport(kind, status string) {
	m.reportsTotal.WithLabelValues(kind, status).Inc()
}

// GetReportSnapshot returns a snapshot of report metrics suitable for the
// GET /v1/metrics/reports endpoint.
func (m *Metrics) GetReportSnapshot() *domain.ReportMetrics {
	// Prometheus counters expose cumulative values; sum over known labels.
	var total, failed float64
	for _, kind := range []string{"details", "storage", "acceptance", "products", "finances"} {
		total += getCounterValue(m.reportsTotal, kind, "success")
		f := getCounterValue(m.reportsTotal, kind, "error")
		total += f
		failed += f
	}

	var upstream, retriesTotal, pages float64
	for _, svc := range []string{"statistics", "analytics", "content", "advert"} {
		upstream += getCounterValue(m.upstreamErrors, svc)
		retriesTotal += getCounterValue(m.retries, svc)
	}
	for _, ep := range []string{"sales_detail", "catalog"} {
		pages += getCounterValue(m.pagesFetched, ep)
	}

	hits := getCounterValue(m.cacheHits, "cost_prices") + getCounterValue(m.cacheHits, "campaigns")
	misses := getCounterValue(m.cacheMisses, "cost_prices") + getCounterValue(m.cacheMisses, "campaigns")

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.ReportMetrics{
		TotalReports:   int64(total),
		ErrorRate:      errorRate,
		UpstreamErrors: int64(upstream),
		PagesFetched:   int64(pages),
		RetriesTotal:   int64(retriesTotal),
		CacheHitRate:   cacheHitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for
// the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
