package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gateway's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "islamapp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of gateway HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "islamapp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of gateway HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "path"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "islamapp",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Requests sent to the islamapp backend.",
		},
		[]string{"method", "status"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "islamapp",
			Subsystem: "backend",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh attempts by outcome.",
		},
		[]string{"result"},
	)

	paymentPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "islamapp",
			Subsystem: "payments",
			Name:      "confirmations_total",
			Help:      "Payment confirmation waits by provider and outcome.",
		},
		[]string{"provider", "result"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		backendRequests,
		tokenRefreshes,
		paymentPolls,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func ObserveBackendRequest(method string, status int) {
	backendRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func ObserveTokenRefresh(result string) {
	tokenRefreshes.WithLabelValues(result).Inc()
}

func ObservePayment(provider, result string) {
	paymentPolls.WithLabelValues(provider, result).Inc()
}
