// Package metrics регистрирует метрики Prometheus сервиса ревью.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrialChecks считает вычисления пробного периода.
	TrialChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_trial_checks_total",
			Help: "Total number of trial status evaluations",
		},
		[]string{"in_trial"},
	)

	// FileSizeChecks считает проверки размера файла по уровню и результату.
	FileSizeChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_file_size_checks_total",
			Help: "Total number of file size validations",
		},
		[]string{"tier", "result"},
	)

	// SessionWarnings считает выданные предупреждения по уровню.
	SessionWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_session_warnings_total",
			Help: "Total number of session warning evaluations by level",
		},
		[]string{"level"},
	)

	// CodeAnalyses считает обращения к анализу кода.
	CodeAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_code_analysis_total",
			Help: "Total number of code analysis requests",
		},
		[]string{"language", "result"},
	)

	// RequestDuration: длительность HTTP-запросов.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)

// Result переводит bool в метку "ok"/"rejected".
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "rejected"
}

// Middleware замеряет длительность запросов. Маршрут берётся из шаблона chi,
// чтобы идентификаторы в пути не раздували кардинальность.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
