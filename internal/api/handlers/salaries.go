// salaries.go — обработчики экранов зарплат.
// /api/v1/staff-salaries — зарплаты сотрудников, любой аутентифицированный.
// /api/v1/sales-salaries — комиссионные менеджеров, только sales-admin и выше
// (проверяется на уровне маршрута).
package handlers

import (
	"net/http"

	apierrors "github.com/arturkryukov/vidflow/admin-module/internal/api/errors"
	"github.com/arturkryukov/vidflow/admin-module/internal/service"
)

// ListStaffSalaries — GET /api/v1/staff-salaries.
// Параметры периода: from + to (диапазон) либо date (один день).
func (h *APIHandler) ListStaffSalaries(w http.ResponseWriter, r *http.Request) {
	filter, err := service.SalaryPeriod(
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"),
		r.URL.Query().Get("date"),
	)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	result, err := h.salary.ListStaff(r.Context(), filter,
		queryInt(r, "page", 1), queryInt(r, "pageSize", 50))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListSalesSalaries — GET /api/v1/sales-salaries.
// Параметры периода — те же, что и у staff-salaries.
func (h *APIHandler) ListSalesSalaries(w http.ResponseWriter, r *http.Request) {
	filter, err := service.SalaryPeriod(
		r.URL.Query().Get("from"),
		r.URL.Query().Get("to"),
		r.URL.Query().Get("date"),
	)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	result, err := h.salary.ListSales(r.Context(), filter,
		queryInt(r, "page", 1), queryInt(r, "pageSize", 50))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
