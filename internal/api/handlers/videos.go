// videos.go — обработчики /api/v1/videos endpoints.
// Список и карточка доступны любому аутентифицированному пользователю —
// маскирование чувствительных полей выполняет сервисный слой по effective role.
// Мутации — только sales-admin и выше (проверяется на уровне маршрута).
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/vidflow/admin-module/internal/api/errors"
	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/listing"
	"github.com/arturkryukov/vidflow/admin-module/internal/service"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// defaultVideoSort — сортировка списка заказов по умолчанию.
const defaultVideoSort = "createdAt"

// ListVideos — GET /api/v1/videos.
// Параметры: search, status, sort ("column" / "-column"), page, pageSize.
// Ответ замаскирован под эффективную роль, агрегаты считаются по проекции.
func (h *APIHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	role := middleware.EffectiveRoleFromContext(r.Context())

	sort := listing.ParseSort(r.URL.Query().Get("sort"), defaultVideoSort)

	params := vpclient.VideoListParams{
		Search:   r.URL.Query().Get("search"),
		Status:   r.URL.Query().Get("status"),
		Sort:     sort.QueryValue(),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 50),
	}

	result, err := h.videos.List(r.Context(), params, role)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// suggestResponse — ответ живого поиска.
type suggestResponse struct {
	// Query — строка поиска, для которой получен результат
	Query  string                   `json:"query"`
	Result *service.VideoListResult `json:"result"`
}

// SuggestVideos — GET /api/v1/videos/suggest?q=...
// Живой поиск по имени заказчика: ввод проходит через debounce-координатор
// пользователя, быстрая серия запросов даёт один вызов backend с последним
// значением. Запрос, вытесненный более новым вводом, завершается 204.
func (h *APIHandler) SuggestVideos(w http.ResponseWriter, r *http.Request) {
	username := middleware.UsernameFromContext(r.Context())
	role := middleware.EffectiveRoleFromContext(r.Context())

	c := h.search.Coordinator(username, role)
	if c == nil {
		apierrors.InternalError(w, "Поиск недоступен: сервис завершает работу")
		return
	}

	query := r.URL.Query().Get("q")
	c.Input(query)

	// Результат придёт после окна тишины; допуск сверх окна — на вызов backend
	wait := time.NewTimer(h.search.Delay() + suggestBackendSlack)
	defer wait.Stop()

	select {
	case res := <-c.Results():
		if res.Err != nil {
			h.writeServiceError(w, res.Err)
			return
		}
		writeJSON(w, http.StatusOK, suggestResponse{Query: res.Query, Result: res.Result})
	case <-wait.C:
		// Ввод вытеснен более новым — результат заберёт последний запрос
		w.WriteHeader(http.StatusNoContent)
	case <-r.Context().Done():
	}
}

// suggestBackendSlack — допуск на выполнение запроса к backend сверх окна debounce.
const suggestBackendSlack = 10 * time.Second

// GetVideo — GET /api/v1/videos/{id}.
func (h *APIHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор заказа")
		return
	}

	role := middleware.EffectiveRoleFromContext(r.Context())

	view, err := h.videos.Get(r.Context(), id, role)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// videoStatusRequest — тело PATCH /api/v1/videos/{id}/status.
type videoStatusRequest struct {
	Status string `json:"status"`
}

// UpdateVideoStatus — PATCH /api/v1/videos/{id}/status.
// Доступ: sales-admin и выше.
func (h *APIHandler) UpdateVideoStatus(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор заказа")
		return
	}

	var req videoStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	view, err := h.videos.UpdateStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// videoDeliveryRequest — тело PATCH /api/v1/videos/{id}/delivery.
type videoDeliveryRequest struct {
	DeliveryStatus string `json:"deliveryStatus"`
}

// UpdateVideoDelivery — PATCH /api/v1/videos/{id}/delivery.
// Доступ: sales-admin и выше.
func (h *APIHandler) UpdateVideoDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор заказа")
		return
	}

	var req videoDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	view, err := h.videos.UpdateDelivery(r.Context(), actor, id, req.DeliveryStatus)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// videoPaymentRequest — тело PATCH /api/v1/videos/{id}/payment.
type videoPaymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
	// PaymentDate — дата оплаты в формате 2006-01-02 (опционально)
	PaymentDate string `json:"paymentDate,omitempty"`
}

// UpdateVideoPayment — PATCH /api/v1/videos/{id}/payment.
// Доступ: sales-admin и выше.
func (h *APIHandler) UpdateVideoPayment(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор заказа")
		return
	}

	var req videoPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	var paymentDate *time.Time
	if req.PaymentDate != "" {
		d, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			apierrors.ValidationError(w, "Некорректная дата оплаты: ожидается формат 2006-01-02")
			return
		}
		paymentDate = &d
	}

	actor := middleware.UsernameFromContext(r.Context())

	view, err := h.videos.UpdatePayment(r.Context(), actor, id, req.PaymentStatus, paymentDate)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// videoID извлекает идентификатор заказа из URL.
func videoID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
