package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"msigwallet/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
// It doubles as an activity sink and as the consumer's metrics observer.
type Metrics struct {
	registry *prometheus.Registry

	steps           *prometheus.CounterVec
	requests        *prometheus.HistogramVec
	kafkaFetchErrs  prometheus.Counter
	kafkaDecodeErrs prometheus.Counter
	stored          prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	start := time.Now()

	m := &Metrics{registry: registry}
	m.steps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "msigwallet_operation_steps_total",
		Help: "Steps observed per write operation, including terminal failures",
	}, []string{"operation", "step"})
	m.requests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msigwallet_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "code"})
	m.kafkaFetchErrs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msigwallet_kafka_fetch_errors_total",
		Help: "Failed fetches from the activity topic",
	})
	m.kafkaDecodeErrs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msigwallet_kafka_decode_errors_total",
		Help: "Activity messages that could not be decoded",
	})
	m.stored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "msigwallet_activities_stored_total",
		Help: "Activities written to the journal by the consumer",
	})
	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "msigwallet_uptime_seconds",
		Help: "Seconds since the process started",
	}, func() float64 { return time.Since(start).Seconds() })

	registry.MustRegister(
		m.steps,
		m.requests,
		m.kafkaFetchErrs,
		m.kafkaDecodeErrs,
		m.stored,
		uptime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordActivity counts one step of an operation.
func (m *Metrics) RecordActivity(_ context.Context, activity domain.Activity) error {
	m.steps.WithLabelValues(string(activity.Operation), activity.Step).Inc()
	return nil
}

func (m *Metrics) IncKafkaFetchErr() {
	m.kafkaFetchErrs.Inc()
}

func (m *Metrics) IncKafkaDecodeErr() {
	m.kafkaDecodeErrs.Inc()
}

func (m *Metrics) AddActivitiesStored(n int) {
	m.stored.Add(float64(n))
}

// instrument records latency under a fixed route label. Labels come from
// mux patterns, never raw paths.
func (m *Metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
