// handler.go — основной обработчик API Admin Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
// Маршруты подключаются в server.Server через chi.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/arturkryukov/vidflow/admin-module/internal/api/errors"
	"github.com/arturkryukov/vidflow/admin-module/internal/service"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// APIHandler — основной обработчик API Admin Module.
type APIHandler struct {
	health *HealthHandler
	videos *service.VideoService
	search *service.SearchHub
	salary *service.SalaryService
	limits *service.StaffLimitService
	users  *service.AdminUserService
	audit  *service.AuditService
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	videos *service.VideoService,
	search *service.SearchHub,
	salary *service.SalaryService,
	limits *service.StaffLimitService,
	users *service.AdminUserService,
	audit *service.AuditService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health: health,
		videos: videos,
		search: search,
		salary: salary,
		limits: limits,
		users:  users,
		audit:  audit,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt возвращает целочисленный query-параметр или значение по умолчанию.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// paginationDefaults нормализует параметры пагинации limit/offset.
func paginationDefaults(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}

	offset = queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Каждому классу ошибки соответствует своё сообщение: пользователь
// видит разные тексты для 401, 403, 404, 409, 422 и 5xx.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *vpclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case vpclient.KindAuth:
			apierrors.Unauthorized(w, apiErr.UserMessage())
		case vpclient.KindForbidden:
			apierrors.Forbidden(w, apiErr.UserMessage())
		case vpclient.KindNotFound:
			apierrors.NotFound(w, apiErr.UserMessage())
		case vpclient.KindConflict:
			apierrors.Conflict(w, apiErr.UserMessage())
		case vpclient.KindValidation:
			apierrors.Unprocessable(w, apiErr.UserMessage())
		case vpclient.KindRejected:
			// Бизнес-отказ backend: сообщение — дословно
			apierrors.Unprocessable(w, apiErr.UserMessage())
		default:
			apierrors.BackendUnavailable(w, apiErr.UserMessage())
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidRole):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrSuperAdminImmutable):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrIDPUnavailable):
		apierrors.IDPUnavailable(w, "Ошибка взаимодействия с Keycloak")
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
