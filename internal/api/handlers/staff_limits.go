// staff_limits.go — обработчики /api/v1/staff-limits endpoints.
// Чтение и управление лимитами заказов сотрудников.
// Доступ: sales-admin и выше (проверяется на уровне маршрута).
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/vidflow/admin-module/internal/api/errors"
	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
)

// ListStaffLimits — GET /api/v1/staff-limits.
// При недоступности backend отдаёт последний снимок watcher'а (stale=true).
func (h *APIHandler) ListStaffLimits(w http.ResponseWriter, r *http.Request) {
	result, err := h.limits.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetStaffLimit — GET /api/v1/staff-limits/{username}.
func (h *APIHandler) GetStaffLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	limit, err := h.limits.Get(r.Context(), username)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, limit)
}

// staffLimitRequest — тело PUT /api/v1/staff-limits/{username}.
type staffLimitRequest struct {
	MaxOrders int `json:"maxOrders"`
}

// SetStaffLimit — PUT /api/v1/staff-limits/{username}.
func (h *APIHandler) SetStaffLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req staffLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	limit, err := h.limits.Set(r.Context(), actor, username, req.MaxOrders)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, limit)
}

// DeleteStaffLimit — DELETE /api/v1/staff-limits/{username}.
func (h *APIHandler) DeleteStaffLimit(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	actor := middleware.UsernameFromContext(r.Context())

	if err := h.limits.Delete(r.Context(), actor, username); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
