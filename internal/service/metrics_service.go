package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Side-effect stages reported by RecordSideEffectFailure.
const (
	StageEvaluate        = "evaluate"
	StageNotifyXP        = "notify_xp"
	StageNotifyLevelUp   = "notify_level_up"
	StageNotifyBadge     = "notify_badge"
	StageCacheInvalidate = "cache_invalidate"
	StageActionGuard     = "action_guard"
)

// MetricsService owns the Prometheus registry of the service and the gamification counters.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	xpAwarded          *prometheus.CounterVec
	levelUps           prometheus.Counter
	badgesEarned       *prometheus.CounterVec
	awardsExempt       prometheus.Counter
	sideEffectFailures *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
	xpAwardedTotal uint64
	awardCount     uint64
}

// NewMetricsService registers the HTTP, cache and gamification collectors.
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
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	xpAwarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamification_xp_awarded_total",
		Help: "XP granted to users, by reason tag",
	}, []string{"reason"})

	levelUps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gamification_level_ups_total",
		Help: "Awards that moved a user to a higher level",
	})

	badgesEarned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamification_badges_earned_total",
		Help: "Badges newly earned, by badge name",
	}, []string{"badge"})

	awardsExempt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gamification_awards_exempt_total",
		Help: "Awards skipped because the target role does not accrue XP",
	})

	sideEffectFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gamification_side_effect_failures_total",
		Help: "Best-effort stages that failed after the ledger committed",
	}, []string{"stage"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		xpAwarded, levelUps, badgesEarned, awardsExempt, sideEffectFailures,
		goroutines,
	)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		xpAwarded:          xpAwarded,
		levelUps:           levelUps,
		badgesEarned:       badgesEarned,
		awardsExempt:       awardsExempt,
		sideEffectFailures: sideEffectFailures,
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordXPAwarded counts XP granted under reason.
func (m *MetricsService) RecordXPAwarded(reason string, amount int64) {
	if m == nil || amount < 0 {
		return
	}
	m.xpAwarded.WithLabelValues(reason).Add(float64(amount))
	atomic.AddUint64(&m.xpAwardedTotal, uint64(amount))
	atomic.AddUint64(&m.awardCount, 1)
}

// RecordLevelUp counts a level transition.
func (m *MetricsService) RecordLevelUp() {
	if m == nil {
		return
	}
	m.levelUps.Inc()
}

// RecordBadgeEarned counts a newly earned badge.
func (m *MetricsService) RecordBadgeEarned(badge string) {
	if m == nil {
		return
	}
	m.badgesEarned.WithLabelValues(badge).Inc()
}

// RecordExemptAward counts an award skipped for an exempt role.
func (m *MetricsService) RecordExemptAward() {
	if m == nil {
		return
	}
	m.awardsExempt.Inc()
}

// RecordSideEffectFailure counts a swallowed failure of a best-effort stage.
func (m *MetricsService) RecordSideEffectFailure(stage string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(stage).Inc()
}

// SystemStats is a lightweight view of the counters for the stats endpoint.
type SystemStats struct {
	CacheHitRatio float64   `json:"cache_hit_ratio"`
	CacheHits     uint64    `json:"cache_hits"`
	CacheMisses   uint64    `json:"cache_misses"`
	AwardsTotal   uint64    `json:"awards_total"`
	XPAwarded     uint64    `json:"xp_awarded"`
	Goroutines    int       `json:"goroutines"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Snapshot returns aggregated counters suitable for JSON consumption.
func (m *MetricsService) Snapshot() SystemStats {
	if m == nil {
		return SystemStats{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	return SystemStats{
		CacheHitRatio: ratio,
		CacheHits:     hits,
		CacheMisses:   misses,
		AwardsTotal:   atomic.LoadUint64(&m.awardCount),
		XPAwarded:     atomic.LoadUint64(&m.xpAwardedTotal),
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
}
