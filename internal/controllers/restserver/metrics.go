package restserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	evaluations     *prometheus.CounterVec
	sweeps          prometheus.Counter
	sweepSamples    prometheus.Histogram
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the server's collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "snowmodel",
			Name:      "evaluations_total",
			Help:      "Model evaluations by outcome.",
		}, []string{"outcome"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "snowmodel",
			Name:      "sweeps_total",
			Help:      "Temperature sweeps run.",
		}),
		sweepSamples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "snowmodel",
			Name:      "sweep_samples",
			Help:      "Air temperature samples per sweep.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "snowmodel",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(
		m.evaluations,
		m.sweeps,
		m.sweepSamples,
		m.requestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeEvaluation(err error) {
	if err != nil {
		m.evaluations.WithLabelValues("error").Inc()
		return
	}
	m.evaluations.WithLabelValues("ok").Inc()
}

func (m *Metrics) observeSweep(samples int, failed int) {
	m.sweeps.Inc()
	m.sweepSamples.Observe(float64(samples))
	m.evaluations.WithLabelValues("ok").Add(float64(samples - failed))
	m.evaluations.WithLabelValues("error").Add(float64(failed))
}

type codeRecorder struct {
	http.ResponseWriter
	code int
}

func (r *codeRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware times every request, labelled by its route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &codeRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, req)

		route := "unmatched"
		if r := mux.CurrentRoute(req); r != nil {
			if tpl, err := r.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requestDuration.WithLabelValues(route, req.Method, strconv.Itoa(rec.code)).Observe(time.Since(start).Seconds())
	})
}
