package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcpower/monash-timetabler/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and
// timetable ranking.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	rankingDuration prometheus.Histogram
	rankings        prometheus.Counter
	combinations    *prometheus.CounterVec
	excludedGroups  prometheus.Counter
	jobsProcessed   *prometheus.CounterVec
	jobWait         *prometheus.HistogramVec
	jobRun          *prometheus.HistogramVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by outcome",
	}, []string{"result"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	rankingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_ranking_duration_seconds",
		Help:    "Wall time of a full enumerate-score-sort pass",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	rankings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_rankings_total",
		Help: "Completed ranking runs",
	})

	combinations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_combinations_total",
		Help: "Enumerated combinations by outcome",
	}, []string{"result"})

	excludedGroups := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_excluded_groups_total",
		Help: "Groups dropped from catalogs because they had no options",
	})

	jobsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Background jobs handled by outcome",
	}, []string{"queue", "type", "result"})

	jobWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_wait_seconds",
		Help:    "Time jobs spent queued before a worker picked them up",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue"})

	jobRun := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_run_seconds",
		Help:    "Handler time per job",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"queue"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheLookups,
		dbQueryDuration,
		rankingDuration, rankings, combinations, excludedGroups,
		jobsProcessed, jobWait, jobRun,
		goroutines,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		dbQueryDuration: dbQueryDuration,
		rankingDuration: rankingDuration,
		rankings:        rankings,
		combinations:    combinations,
		excludedGroups:  excludedGroups,
		jobsProcessed:   jobsProcessed,
		jobWait:         jobWait,
		jobRun:          jobRun,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	m.cacheHitRatio.Set(float64(hits) / float64(total))
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveRanking records the outcome of a ranking run.
func (m *MetricsService) ObserveRanking(stats models.RankingStats) {
	if m == nil {
		return
	}
	m.rankings.Inc()
	m.rankingDuration.Observe(stats.Duration.Seconds())
	m.combinations.WithLabelValues("valid").Add(float64(stats.Valid))
	m.combinations.WithLabelValues("rejected").Add(float64(stats.Rejected))
	m.excludedGroups.Add(float64(len(stats.Excluded)))
}

// ObserveJob records a handled background job.
func (m *MetricsService) ObserveJob(queue, jobType string, err error, wait, run time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobsProcessed.WithLabelValues(queue, jobType, result).Inc()
	m.jobWait.WithLabelValues(queue).Observe(wait.Seconds())
	m.jobRun.WithLabelValues(queue).Observe(run.Seconds())
}

// RegisterQueueDepth exposes the backlog of a queue as a gauge.
func (m *MetricsService) RegisterQueueDepth(queue string, depth func() int) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "job_queue_depth",
		Help:        "Jobs accepted but not yet picked up",
		ConstLabels: prometheus.Labels{"queue": queue},
	}, func() float64 {
		return float64(depth())
	}))
}
