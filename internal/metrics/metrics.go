// Package metrics exposes Prometheus request metrics. They are served on
// a separate listener when configured so the SPA's route contract on the
// main listener stays untouched.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records per-request observations labeled by route category.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewCollector registers the gateway metrics with reg. Passing nil uses
// the default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chat_front",
			Name:      "requests_total",
			Help:      "Total number of requests handled, by route category and status",
		}, []string{"category", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chat_front",
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds, by route category",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
	}
}

// Observe records one handled request.
func (c *Collector) Observe(category string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(category, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(category).Observe(elapsed.Seconds())
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
