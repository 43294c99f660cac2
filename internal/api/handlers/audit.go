// audit.go — обработчик /api/v1/audit.
// Чтение журнала административных действий.
// Доступ: realm-admin (проверяется на уровне маршрута).
package handlers

import (
	"net/http"

	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
)

// ListAudit — GET /api/v1/audit.
// Параметры: actor, action, objectType, limit, offset. Новые записи первыми.
func (h *APIHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationDefaults(r)

	filter := repository.AuditFilter{
		Actor:      r.URL.Query().Get("actor"),
		Action:     r.URL.Query().Get("action"),
		ObjectType: r.URL.Query().Get("objectType"),
	}

	result, err := h.audit.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
