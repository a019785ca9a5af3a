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

	// store
	StoreOpDuration *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec

	// auth + photos
	LoginResults  *prometheus.CounterVec
	PresignIssued *prometheus.CounterVec

	// sweeper
	SweepObjects *prometheus.CounterVec
	SweepRuns    *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "backoffice",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "backoffice",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "backoffice",
				Subsystem: "store",
				Name:      "op_duration_seconds",
				Help:      "Document store latency by logical op.",
				Buckets:   []float64{0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"op", "status"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Document store errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		LoginResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Login attempts by realm and result.",
			},
			[]string{"realm", "result"}, // result=ok|invalid|error
		),
		PresignIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Subsystem: "photos",
				Name:      "presigned_urls_total",
				Help:      "Presigned URLs minted by method.",
			},
			[]string{"method"}, // PUT|GET
		),
		SweepObjects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Subsystem: "sweeper",
				Name:      "objects_total",
				Help:      "Pending upload keys processed by outcome.",
			},
			[]string{"outcome"}, // deleted|kept|failed
		),
		SweepRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "backoffice",
				Subsystem: "sweeper",
				Name:      "runs_total",
				Help:      "Sweep passes by result.",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.StoreOpDuration, p.StoreErrors,
		p.LoginResults, p.PresignIssued,
		p.SweepObjects, p.SweepRuns,
	)

	return p
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

// The helpers below tolerate a nil receiver so callers built without metrics
// (tests, CLIs) need no special casing.

func (p *Prom) ObserveLogin(realm, result string) {
	if p == nil {
		return
	}
	p.LoginResults.WithLabelValues(realm, result).Inc()
}

func (p *Prom) ObservePresign(method string) {
	if p == nil {
		return
	}
	p.PresignIssued.WithLabelValues(method).Inc()
}

func (p *Prom) ObserveSweep(result string, deleted, kept, failed int) {
	if p == nil {
		return
	}
	p.SweepRuns.WithLabelValues(result).Inc()
	p.SweepObjects.WithLabelValues("deleted").Add(float64(deleted))
	p.SweepObjects.WithLabelValues("kept").Add(float64(kept))
	p.SweepObjects.WithLabelValues("failed").Add(float64(failed))
}
