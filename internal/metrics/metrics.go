package metrics

import (
	"context"
	"strconv"
	"time"

	"admindash/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

type Registry struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	StoreFetchesTotal   *prometheus.CounterVec
	StoreFetchDuration  *prometheus.HistogramVec
	StoreActionsTotal   *prometheus.CounterVec
	LoginsTotal         *prometheus.CounterVec
	AuthSessions        prometheus.Gauge
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admindash_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admindash_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admindash_store_fetches_total",
				Help: "Store fetches by outcome",
			},
			[]string{"store", "outcome"},
		),
		StoreFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admindash_store_fetch_duration_seconds",
				Help:    "Time spent waiting on the data service",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"store"},
		),
		StoreActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admindash_store_actions_total",
				Help: "Synchronous store actions",
			},
			[]string{"store", "action"},
		),
		LoginsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admindash_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		AuthSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "admindash_auth_sessions",
				Help: "Number of tracked browser sessions",
			},
		),
	}
}

func (r *Registry) RecordFetch(_ context.Context, storeName string, outcome store.Outcome, elapsed time.Duration) {
	r.StoreFetchesTotal.WithLabelValues(storeName, string(outcome)).Inc()
	r.StoreFetchDuration.WithLabelValues(storeName).Observe(elapsed.Seconds())
}

func (r *Registry) RecordAction(_ context.Context, storeName, action string) {
	r.StoreActionsTotal.WithLabelValues(storeName, action).Inc()
}

func (r *Registry) RecordLogin(_ context.Context, _ string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	r.LoginsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() fiber.Handler {
	handler := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// Middleware counts requests by matched route so path parameters do not
// explode label cardinality.
func (r *Registry) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		r.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		r.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())

		return err
	}
}

var _ store.Recorder = (*Registry)(nil)
