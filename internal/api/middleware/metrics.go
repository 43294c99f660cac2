// metrics.go — Prometheus HTTP метрики для Admin Module.
// Регистрирует метрики: vf_admin_http_requests_total, vf_admin_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vf_admin_http_requests_total",
			Help: "Общее количество HTTP-запросов к Admin Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vf_admin_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Admin Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/videos/12345 → /api/v1/videos/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/auth/me",
		"/api/v1/videos",
		"/api/v1/staff-salaries",
		"/api/v1/sales-salaries",
		"/api/v1/staff-limits",
		"/api/v1/users",
		"/api/v1/audit":
		return path
	}

	// Динамические пути с идентификатором
	prefixes := []struct {
		prefix string
		result string
	}{
		{"/api/v1/videos/", "/api/v1/videos/{id}"},
		{"/api/v1/staff-limits/", "/api/v1/staff-limits/{username}"},
		{"/api/v1/users/", "/api/v1/users/{id}"},
	}

	for _, p := range prefixes {
		if !strings.HasPrefix(path, p.prefix) || len(path) == len(p.prefix) {
			continue
		}
		rest := path[len(p.prefix):]
		// Суффиксы после идентификатора
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			switch rest[idx:] {
			case "/status":
				return p.result + "/status"
			case "/delivery":
				return p.result + "/delivery"
			case "/payment":
				return p.result + "/payment"
			case "/role-override":
				return p.result + "/role-override"
			case "/reset-password":
				return p.result + "/reset-password"
			}
		}
		return p.result
	}

	return path
}
