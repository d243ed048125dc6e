package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the endpoint's Prometheus collectors, kept on their own
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "requests_total",
			Help:      "Endpoint requests by action and status code.",
		}, []string{"action", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "absensi",
			Name:      "request_duration_seconds",
			Help:      "Endpoint request latency by action.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "absensi",
			Name:      "rows_total",
			Help:      "Rows received by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.rows,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Rows(kind, outcome string, n int) {
	if n > 0 {
		m.rows.WithLabelValues(kind, outcome).Add(float64(n))
	}
}

// actionKey is where handlers leave the resolved action for the
// middleware.
const actionKey = "absensi.action"

// Middleware records count and latency of every request under the action
// the handler resolved, or the route path when there is none.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		action := c.GetString(actionKey)
		if action == "" {
			action = c.FullPath()
		}
		m.requests.WithLabelValues(action, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}
}
