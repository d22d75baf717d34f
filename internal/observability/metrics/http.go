package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "documind"

// HTTPServerMetrics carries the HTTP counters plus the audit counters of the API process.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	auditTotal         *prometheus.CounterVec
	auditDuration      *prometheus.HistogramVec
	extractionDegraded *prometheus.CounterVec
	uploadRejected     *prometheus.CounterVec
	historySync        *prometheus.CounterVec
	llmTokensTotal     *prometheus.CounterVec
	retryTotal         *prometheus.CounterVec
	breakerOpen        *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	auditTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_total",
			Help:      "Total audits by outcome.",
		},
		[]string{"service", "status"},
	)
	auditDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Audit duration from extraction to validated verdict.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 90, 120, 180, 300},
		},
		[]string{"service", "status"},
	)
	extractionDegraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_degraded_total",
			Help:      "Uploads whose container could not be parsed and were sent as a placeholder.",
		},
		[]string{"service", "format"},
	)
	uploadRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_rejected_total",
			Help:      "Uploads rejected before extraction.",
		},
		[]string{"service", "reason"},
	)
	historySync := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_sync_total",
			Help:      "Remote history mirror calls by operation and result.",
		},
		[]string{"service", "operation", "result"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Token usage reported by the model API by direction.",
		},
		[]string{"service", "direction", "model"},
	)
	retryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resilience_retries_total",
			Help:      "Retried attempts of outbound calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_open",
			Help:      "1 while the circuit breaker of an operation is open or half-open.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		auditTotal,
		auditDuration,
		extractionDegraded,
		uploadRejected,
		historySync,
		llmTokensTotal,
		retryTotal,
		breakerOpen,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		auditTotal:         auditTotal,
		auditDuration:      auditDuration,
		extractionDegraded: extractionDegraded,
		uploadRejected:     uploadRejected,
		historySync:        historySync,
		retryTotal:         retryTotal,
		breakerOpen:        breakerOpen,
		llmTokensTotal:     llmTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, "/v1/history/")
	if !ok || rest == "" || rest == "export" {
		return path
	}
	if _, action, ok := strings.Cut(rest, "/"); ok {
		return "/v1/history/{id}/" + action
	}
	return "/v1/history/{id}"
}

func (m *HTTPServerMetrics) ObserveAudit(status string, duration time.Duration) {
	m.auditTotal.WithLabelValues(m.service, status).Inc()
	m.auditDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) IncUploadRejected(reason string) {
	m.uploadRejected.WithLabelValues(m.service, reason).Inc()
}

func (m *HTTPServerMetrics) IncHistorySync(operation, result string) {
	m.historySync.WithLabelValues(m.service, operation, result).Inc()
}

// ObserveRetry and ObserveBreakerState let the resilience executor report through this registry.
func (m *HTTPServerMetrics) ObserveRetry(operation string) {
	m.retryTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *HTTPServerMetrics) ObserveBreakerState(operation string, state string) {
	m.breakerOpen.WithLabelValues(m.service, operation).Set(breakerOpenValue(state))
}

// breakerOpenValue treats half-open as open: calls are still being shed.
func breakerOpenValue(state string) float64 {
	if state == "closed" {
		return 0
	}
	return 1
}

func (m *HTTPServerMetrics) RecordExtractionDegraded(format string) {
	if format == "" {
		format = "unknown"
	}
	m.extractionDegraded.WithLabelValues(m.service, format).Inc()
}

func (m *HTTPServerMetrics) RecordTokenUsage(model string, promptTokens, outputTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(m.service, "in", model).Add(float64(promptTokens))
	}
	if outputTokens > 0 {
		m.llmTokensTotal.WithLabelValues(m.service, "out", model).Add(float64(outputTokens))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
