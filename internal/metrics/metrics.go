// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the backing store.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StoreCounter reports stored entity counts for scrape-time gauges.
type StoreCounter interface {
	CountAllHistoryItems(ctx context.Context) (int64, error)
	CountActivations(ctx context.Context) (int64, error)
}

// Registry bundles the server's Prometheus collectors.
type Registry struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRegistry creates a Registry with runtime, HTTP and store collectors.
// store may be nil, in which case no store gauges are exported.
func NewRegistry(store StoreCounter, logger zerolog.Logger) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bloom_http_requests_total",
		Help: "Total HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bloom_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	reg.MustRegister(requestsTotal, requestDuration)

	if store != nil {
		reg.MustRegister(newStoreCollector(store, logger))
	}

	return &Registry{
		registry:        reg,
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
	}
}

// ObserveRequest records one handled HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, latency time.Duration) {
	r.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler returns the HTTP handler serving this registry in exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// storeCollector reads entity counts from the store at scrape time. A failed
// count skips the sample rather than reporting a stale or zero value.
type storeCollector struct {
	store        StoreCounter
	logger       zerolog.Logger
	historyItems *prometheus.Desc
	activations  *prometheus.Desc
}

func newStoreCollector(store StoreCounter, logger zerolog.Logger) *storeCollector {
	return &storeCollector{
		store:  store,
		logger: logger.With().Str("component", "metrics").Logger(),
		historyItems: prometheus.NewDesc("bloom_history_items",
			"Number of stored history items across all users.", nil, nil),
		activations: prometheus.NewDesc("bloom_license_activations",
			"Number of recorded license activations.", nil, nil),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.historyItems
	ch <- c.activations
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if count, err := c.store.CountAllHistoryItems(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("collect history item count failed")
	} else {
		ch <- prometheus.MustNewConstMetric(c.historyItems, prometheus.GaugeValue, float64(count))
	}

	if count, err := c.store.CountActivations(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("collect activation count failed")
	} else {
		ch <- prometheus.MustNewConstMetric(c.activations, prometheus.GaugeValue, float64(count))
	}
}
