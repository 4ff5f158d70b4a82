package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "anchorword"

// Metrics holds the Prometheus collectors for the game server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Guesses            *prometheus.CounterVec
	Solves             *prometheus.CounterVec
	ChallengesCreated  prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Guesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guesses_total",
				Help:      "Guesses evaluated, by result",
			},
			[]string{"result"},
		),
		Solves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_total",
				Help:      "Challenges solved, by attempt tier",
			},
			[]string{"attempt"},
		),
		ChallengesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "challenges_created_total",
				Help:      "Challenges created",
			},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Rejected challenge definitions, by rule",
			},
			[]string{"kind"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
	}
}

func (m *Metrics) ObserveGuess(correct bool, attempt int) {
	if m == nil {
		return
	}
	if !correct {
		m.Guesses.WithLabelValues("incorrect").Inc()
		return
	}
	m.Guesses.WithLabelValues("correct").Inc()
	tier := strconv.Itoa(attempt)
	if attempt >= 4 {
		tier = "4+"
	}
	m.Solves.WithLabelValues(tier).Inc()
}

func (m *Metrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.ChallengesCreated.Inc()
}

func (m *Metrics) ObserveValidationFailure(kind string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(kind).Inc()
}

// Middleware records latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
