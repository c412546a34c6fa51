package handler

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds the Prometheus collectors for the adwatch backend.
// Collectors exist from package init; InitMetrics registers them.
var Metrics = newMetrics()

type metricSet struct {
	ClaimsTotal      *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}

var registerOnce sync.Once

func newMetrics() *metricSet {
	return &metricSet{
		ClaimsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adwatch_reward_claims_total",
				Help: "Reward claims, by outcome (cash, coupon, rejected, transport_error, error).",
			},
			[]string{"result"},
		),
		WithdrawalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adwatch_withdrawals_total",
				Help: "Withdrawal requests, by outcome.",
			},
			[]string{"result"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adwatch_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by endpoint and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "adwatch_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adwatch_cache_hits_total",
				Help: "Total Redis cache hits.",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "adwatch_cache_misses_total",
				Help: "Total Redis cache misses.",
			},
		),
	}
}

// InitMetrics registers all Prometheus metrics with the default registry.
// pool and sessions may be nil. Only the first call has any effect.
func InitMetrics(pool *pgxpool.Pool, sessions func() int) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			Metrics.ClaimsTotal,
			Metrics.WithdrawalsTotal,
			Metrics.RequestDuration,
			Metrics.RequestsInFlight,
			Metrics.CacheHits,
			Metrics.CacheMisses,
		)

		if sessions != nil {
			prometheus.MustRegister(prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "adwatch_open_sessions",
					Help: "Number of open viewer sessions.",
				},
				func() float64 { return float64(sessions()) },
			))
		}

		if pool != nil {
			prometheus.MustRegister(
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: "adwatch_db_connection_pool_active",
						Help: "Number of active database connections.",
					},
					func() float64 { return float64(pool.Stat().AcquiredConns()) },
				),
				prometheus.NewGaugeFunc(
					prometheus.GaugeOpts{
						Name: "adwatch_db_connection_pool_idle",
						Help: "Number of idle database connections.",
					},
					func() float64 { return float64(pool.Stat().IdleConns()) },
				),
			)
		}
	})
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber's path and method share the fasthttp buffer; copy before c.Next().
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint keeps the endpoint label to the known routes.
func sanitizeEndpoint(path string) string {
	switch path {
	case "/api/sessions", "/api/wallet", "/api/campaigns", "/api/rewards/claim",
		"/api/withdrawals", "/api/presentation", "/api/presentation/dismiss",
		"/health/live", "/health/ready":
		return path
	default:
		return "other"
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
