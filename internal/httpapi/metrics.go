package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mock-exam/internal/exam"
)

// Metrics owns a private registry so several routers can coexist in one
// process (tests build many).
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	examsGenerated  *prometheus.CounterVec
	scoresSubmitted *prometheus.CounterVec
	importedRows    *prometheus.CounterVec
	loginAttempts   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exam_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exam_http_request_duration_seconds",
				Help:    "Time spent serving HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		examsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exam_generated_total",
				Help: "Total number of generated mock exams",
			},
			[]string{"mode"}, // mode: full/custom/exam_set
		),
		scoresSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exam_scores_submitted_total",
				Help: "Total number of submitted scores",
			},
			[]string{"exam_type"}, // exam_type: full/custom/exam_set/other
		),
		importedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exam_csv_import_rows_total",
				Help: "CSV rows processed by the question import",
			},
			[]string{"status"}, // status: success/error
		),
		loginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exam_admin_login_attempts_total",
				Help: "Total number of admin login attempts",
			},
			[]string{"status"}, // status: success/failure
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template, which
// keeps ids out of the label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.statusCode)).Inc()
	})
}

func (m *Metrics) observeExam(mode string) {
	m.examsGenerated.WithLabelValues(mode).Inc()
}

func (m *Metrics) observeScore(examType string) {
	m.scoresSubmitted.WithLabelValues(scoreLabel(examType)).Inc()
}

// scoreLabel folds the client-supplied exam type into a fixed label set.
func scoreLabel(examType string) string {
	switch label := strings.ToLower(strings.TrimSpace(examType)); label {
	case exam.ExamTypeFull, exam.ExamTypeCustom, "exam_set":
		return label
	default:
		return "other"
	}
}

func (m *Metrics) observeImport(success, failed int) {
	m.importedRows.WithLabelValues("success").Add(float64(success))
	m.importedRows.WithLabelValues("error").Add(float64(failed))
}

func (m *Metrics) observeLogin(ok bool) {
	status := "failure"
	if ok {
		status = "success"
	}
	m.loginAttempts.WithLabelValues(status).Inc()
}
