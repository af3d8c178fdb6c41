package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application counters. A nil *Metrics is a valid no-op
// receiver so tests can pass nil.
type Metrics struct {
	ordersCreated     prometheus.Counter
	ordersConfirmed   prometheus.Counter
	callbacksRejected *prometheus.CounterVec
	tryonJobs         *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_created_total", Help: "Orders created.",
		}),
		ordersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_confirmed_total", Help: "Orders confirmed by settlement.",
		}),
		callbacksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_callbacks_rejected_total", Help: "Rejected gateway callbacks.",
		}, []string{"reason"}),
		tryonJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tryon_jobs_total", Help: "Try-on jobs by terminal outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	prometheus.MustRegister(m.ordersCreated, m.ordersConfirmed, m.callbacksRejected, m.tryonJobs, m.httpDuration)
	return m
}

func (m *Metrics) IncOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) IncOrderConfirmed() {
	if m == nil {
		return
	}
	m.ordersConfirmed.Inc()
}

func (m *Metrics) IncCallbackRejected(reason string) {
	if m == nil {
		return
	}
	m.callbacksRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncTryOnJob(outcome string) {
	if m == nil {
		return
	}
	m.tryonJobs.WithLabelValues(outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes request latency labelled by method and status class.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
