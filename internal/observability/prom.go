package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Timers
	TimersStarted  prometheus.Counter
	TimerDuration  prometheus.Histogram
	TimerConflicts *prometheus.CounterVec

	// running-timer cache
	CacheLookups *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clocktrack",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "clocktrack",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "clocktrack",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "clocktrack",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clocktrack",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		TimersStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "clocktrack",
				Subsystem: "timer",
				Name:      "started_total",
				Help:      "Timers moved from idle to running.",
			},
		),
		TimerDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "clocktrack",
				Subsystem: "timer",
				Name:      "duration_seconds",
				Help:      "Length of entries closed by a stop.",
				Buckets:   []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800, 86400},
			},
		),
		TimerConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clocktrack",
				Subsystem: "timer",
				Name:      "conflicts_total",
				Help:      "Rejected state transitions by operation.",
			},
			[]string{"op"}, // op=start|stop|create|reopen
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "clocktrack",
				Subsystem: "cache",
				Name:      "running_lookups_total",
				Help:      "Running-timer cache lookups by result.",
			},
			[]string{"backend", "result"}, // result=hit|miss|error
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.TimersStarted, p.TimerDuration, p.TimerConflicts,
		p.CacheLookups,
	)

	return p
}

func (p *Prom) TimerStarted() {
	p.TimersStarted.Inc()
}

func (p *Prom) TimerStopped(d time.Duration) {
	p.TimerDuration.Observe(d.Seconds())
}

func (p *Prom) TimerConflict(op string) {
	p.TimerConflicts.WithLabelValues(op).Inc()
}

func (p *Prom) CacheLookup(backend, result string) {
	p.CacheLookups.WithLabelValues(backend, result).Inc()
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
