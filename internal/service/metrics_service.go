package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and scheduling decisions.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec
	conflicts       *prometheus.CounterVec
	eligibility     *prometheus.CounterVec
	waitlistOps     *prometheus.CounterVec
	graphRejections *prometheus.CounterVec
	droppedJobs     *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
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
		Help:    "Latency for cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflicts_total",
		Help: "Rejected slot writes by colliding resource dimension",
	}, []string{"dimension"})

	eligibility := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eligibility_decisions_total",
		Help: "Prerequisite eligibility decisions",
	}, []string{"outcome"})

	waitlistOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "waitlist_operations_total",
		Help: "Waitlist mutations by operation",
	}, []string{"operation"})

	graphRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prerequisite_rejections_total",
		Help: "Rejected prerequisite edges by reason",
	}, []string{"reason"})

	droppedJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "background_jobs_dropped_total",
		Help: "Background jobs abandoned after retries",
	}, []string{"type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups, conflicts, eligibility, waitlistOps, graphRejections, droppedJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		conflicts:       conflicts,
		eligibility:     eligibility,
		waitlistOps:     waitlistOps,
		graphRejections: graphRejections,
		droppedJobs:     droppedJobs,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordConflicts counts each dimension of a rejected slot write.
func (m *MetricsService) RecordConflicts(dimensions []models.ResourceType) {
	if m == nil {
		return
	}
	for _, d := range dimensions {
		m.conflicts.WithLabelValues(string(d)).Inc()
	}
}

// RecordEligibility counts an eligibility decision.
func (m *MetricsService) RecordEligibility(result *models.EligibilityResult) {
	if m == nil || result == nil {
		return
	}
	outcome := "eligible"
	switch {
	case len(result.MissingPrerequisites) > 0 && result.Eligible:
		outcome = "override"
	case !result.Eligible:
		outcome = "ineligible"
	}
	m.eligibility.WithLabelValues(outcome).Inc()
}

// RecordWaitlist counts a waitlist mutation.
func (m *MetricsService) RecordWaitlist(operation string) {
	if m == nil {
		return
	}
	m.waitlistOps.WithLabelValues(operation).Inc()
}

// RecordPrerequisiteRejection counts a refused edge by error code.
func (m *MetricsService) RecordPrerequisiteRejection(reason string) {
	if m == nil {
		return
	}
	m.graphRejections.WithLabelValues(reason).Inc()
}

// RecordDroppedJob counts a background job abandoned by the queue.
func (m *MetricsService) RecordDroppedJob(jobType string) {
	if m == nil {
		return
	}
	m.droppedJobs.WithLabelValues(jobType).Inc()
}
