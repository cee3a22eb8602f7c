package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	requestErrors *prometheus.CounterVec
	jobs          *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	escalations   *prometheus.CounterVec
	sweepEscal    prometheus.Counter
	sweepFailures prometheus.Counter
	sweepDuration prometheus.Histogram
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP requests answered with a domain error, by error code",
		}, []string{"path", "method", "code"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Background jobs processed by queue, type and outcome",
		}, []string{"queue", "type", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Background job handler duration",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"queue", "type"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "escalations_total",
			Help: "Ticket escalations by target level and trigger",
		}, []string{"to_level", "auto"}),
		sweepEscal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_sweep_escalated_total",
			Help: "Tickets escalated by the SLA sweeper",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sla_sweep_failures_total",
			Help: "Per-ticket failures during SLA sweeps",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sla_sweep_duration_seconds",
			Help:    "Duration of an SLA sweep",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.requests, m.requestErrors, m.jobs, m.jobDuration, m.escalations,
		m.sweepEscal, m.sweepFailures, m.sweepDuration)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.requestErrors.WithLabelValues(path, method, code).Inc()
}

// RecordJob records a finished job attempt.
func (m *Metrics) RecordJob(queue, jobType string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "succeeded"
	if err != nil {
		status = "failed"
	}
	m.jobs.WithLabelValues(queue, jobType, status).Inc()
	m.jobDuration.WithLabelValues(queue, jobType).Observe(duration.Seconds())
}

// RecordDeadLetter counts a job that exhausted its retries.
func (m *Metrics) RecordDeadLetter(queue, jobType string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(queue, jobType, "dead").Inc()
}

// RecordEscalation counts a committed escalation.
func (m *Metrics) RecordEscalation(toLevel string, auto bool) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(toLevel, strconv.FormatBool(auto)).Inc()
}

// RecordSweep records the outcome of one SLA sweep.
func (m *Metrics) RecordSweep(escalated, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepEscal.Add(float64(escalated))
	m.sweepFailures.Add(float64(failed))
	m.sweepDuration.Observe(duration.Seconds())
}
