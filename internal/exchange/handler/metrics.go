package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cropchainTokensTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cropchain_tokens_total",
		Help: "Total number of crop tokens by status.",
	}, []string{"status"})

	cropchainRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cropchain_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	cropchainRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cropchain_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	cropchainAuditEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cropchain_audit_entries_total",
		Help: "Total audit chain entries appended.",
	})

	cropchainSettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cropchain_settlements_total",
		Help: "Total completed trade settlements.",
	})

	cropchainSettlementVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cropchain_settlement_volume_total",
		Help: "Cumulative settled amount across all trades.",
	})

	cropchainIntegrityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cropchain_integrity_checks_total",
		Help: "Total audit chain integrity checks by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		cropchainRequestsTotal.WithLabelValues(method, path, status).Inc()
		cropchainRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordAuditAppend records n audit chain entries appended.
func RecordAuditAppend(n int) {
	cropchainAuditEntriesTotal.Add(float64(n))
}

// RecordSettlement records one completed settlement and its amount.
func RecordSettlement(amount float64) {
	cropchainSettlementsTotal.Inc()
	cropchainSettlementVolume.Add(amount)
}

// RecordIntegrityCheck records an audit chain integrity check result.
func RecordIntegrityCheck(valid bool) {
	if valid {
		cropchainIntegrityChecksTotal.WithLabelValues("valid").Inc()
	} else {
		cropchainIntegrityChecksTotal.WithLabelValues("invalid").Inc()
	}
}

// SetTokensGauge sets the token count gauge for a given status.
func SetTokensGauge(status string, count float64) {
	cropchainTokensTotal.WithLabelValues(status).Set(count)
}
