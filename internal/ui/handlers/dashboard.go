// Пакет handlers — HTTP-обработчики Admin UI.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
	uimiddleware "github.com/arturkryukov/vidflow/admin-module/internal/ui/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/ui/pages"
)

// DashboardHandler — обработчик страниц Admin UI.
type DashboardHandler struct {
	// searchDebounce — окно debounce живого поиска заказов.
	searchDebounce time.Duration
	// limitLookupDebounce — окно debounce поиска по лимитам сотрудников.
	limitLookupDebounce time.Duration
	logger              *slog.Logger
}

// NewDashboardHandler создаёт новый DashboardHandler.
// Интервалы debounce передаются странице Dashboard через data-атрибуты.
func NewDashboardHandler(searchDebounce, limitLookupDebounce time.Duration, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		searchDebounce:      searchDebounce,
		limitLookupDebounce: limitLookupDebounce,
		logger:              logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard обрабатывает GET /admin/ — отображает страницу Dashboard.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	session := uimiddleware.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/admin/login", http.StatusFound)
		return
	}

	data := pages.DashboardData{
		Username:              session.Username,
		Role:                  session.Role,
		SearchDebounceMS:      h.searchDebounce.Milliseconds(),
		LimitLookupDebounceMS: h.limitLookupDebounce.Milliseconds(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := pages.Dashboard(data).Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга Dashboard",
			slog.String("error", err.Error()),
			slog.String("username", session.Username),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// HandleAccessDenied отображает панель отказа в доступе.
// Вызывается при недостаточной роли: пользователь видит, какие роли
// дают доступ и под кем выполнен вход.
func (h *DashboardHandler) HandleAccessDenied(requiredRoles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := uimiddleware.SessionFromContext(r.Context())
		if session == nil {
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return
		}

		data := pages.AccessDeniedData{
			Username:      session.Username,
			Role:          session.Role,
			RequiredRoles: requiredRoles,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)

		if err := pages.AccessDenied(data).Render(r.Context(), w); err != nil {
			h.logger.Error("Ошибка рендеринга панели отказа",
				slog.String("error", err.Error()),
			)
			http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		}
	}
}

// HandleNotFound отображает страницу 404 для неизвестных адресов UI.
func (h *DashboardHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)

	if err := pages.NotFound().Render(r.Context(), w); err != nil {
		h.logger.Error("Ошибка рендеринга страницы 404",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
	}
}

// RequireUIRole возвращает middleware, требующий роль sales-admin или выше
// (либо указанные роли) для UI-маршрута. При недостаточной роли — панель
// отказа вместо JSON-ошибки.
func (h *DashboardHandler) RequireUIRole(requiredRoles ...string) func(http.Handler) http.Handler {
	denied := h.HandleAccessDenied(requiredRoles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := uimiddleware.SessionFromContext(r.Context())
			if session == nil {
				http.Redirect(w, r, "/admin/login", http.StatusFound)
				return
			}

			for _, role := range requiredRoles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			// realm-admin проходит всюду
			if rbac.IsRealmAdmin(session.Role) {
				next.ServeHTTP(w, r)
				return
			}

			denied(w, r)
		})
	}
}
