package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ReconcileOutcomeOK     = "ok"
	ReconcileOutcomeFailed = "failed"

	JobOutcomeOK      = "ok"
	JobOutcomeFailed  = "failed"
	JobOutcomeTimeout = "timeout"
)

// LedgerMetrics exposes reconciliation and HTTP health on /metrics.
type LedgerMetrics struct {
	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	feesCreated       prometheus.Counter
	feesConflicted    prometheus.Counter
	batchFailures     *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	jobRuns           *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	loginLimited      *prometheus.CounterVec
}

func NewLedgerMetrics(registerer prometheus.Registerer, cfg Config) (*LedgerMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "corpsledger"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	m := &LedgerMetrics{
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "corpsledger_reconcile_runs_total",
			Help:        "Member reconciliations by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "corpsledger_reconcile_duration_seconds",
			Help:        "Latency of a single member reconciliation.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}),
		feesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "corpsledger_monthly_fees_created_total",
			Help:        "Monthly-fee transactions persisted by reconciliation.",
			ConstLabels: constLabels,
		}),
		feesConflicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "corpsledger_monthly_fees_conflicts_total",
			Help:        "Monthly fees skipped because another writer stored the month first.",
			ConstLabels: constLabels,
		}),
		batchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "corpsledger_batch_failures_total",
			Help:        "Per-item failures inside batch operations.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "corpsledger_http_requests_total",
			Help:        "HTTP requests by route and status.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "corpsledger_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "corpsledger_scheduler_job_runs_total",
			Help:        "Scheduler job runs by task and outcome.",
			ConstLabels: constLabels,
		}, []string{"task", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "corpsledger_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
			ConstLabels: constLabels,
		}, []string{"task"}),
		loginLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "corpsledger_login_rate_limited_total",
			Help:        "Login attempts rejected by the rate limiter.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{
		m.reconcileRuns, m.reconcileDuration, m.feesCreated, m.feesConflicted,
		m.batchFailures, m.httpRequests, m.httpDuration, m.jobRuns, m.jobDuration, m.loginLimited,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ProvideLedgerMetrics registers on the default registry served at /metrics.
func ProvideLedgerMetrics(cfg Config) (*LedgerMetrics, error) {
	return NewLedgerMetrics(prometheus.DefaultRegisterer, cfg)
}

func (m *LedgerMetrics) ObserveReconcile(outcome string, elapsed time.Duration, created, conflicted int) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(outcome).Inc()
	m.reconcileDuration.Observe(elapsed.Seconds())
	if created > 0 {
		m.feesCreated.Add(float64(created))
	}
	if conflicted > 0 {
		m.feesConflicted.Add(float64(conflicted))
	}
}

func (m *LedgerMetrics) IncBatchFailure(operation string) {
	if m == nil {
		return
	}
	m.batchFailures.WithLabelValues(operation).Inc()
}

func (m *LedgerMetrics) ObserveJob(job, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// GinMiddleware records request counts and latency per route template.
func (m *LedgerMetrics) IncLoginRateLimited(reason string) {
	if m == nil {
		return
	}
	m.loginLimited.WithLabelValues(reason).Inc()
}

func (m *LedgerMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
