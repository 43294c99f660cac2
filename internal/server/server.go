// Пакет server — HTTP-сервер Admin Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/vidflow/admin-module/internal/api/handlers"
	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/config"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
	uihandlers "github.com/arturkryukov/vidflow/admin-module/internal/ui/handlers"
	uimiddleware "github.com/arturkryukov/vidflow/admin-module/internal/ui/middleware"
)

// UIComponents — набор зависимостей браузерного Admin UI.
// nil — UI отключён, маршруты /admin/* не регистрируются.
type UIComponents struct {
	AuthHandler      *uihandlers.AuthHandler
	AuthMiddleware   *uimiddleware.UIAuth
	DashboardHandler *uihandlers.DashboardHandler
}

// Server — HTTP-сервер Admin Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
// ui — компоненты Admin UI (nil — UI отключён).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth, ui *UIComponents) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Публичные endpoints — проверяются Kubernetes напрямую, без API Gateway.
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// REST API под JWT. Мутации и чувствительные списки — за доп. role middleware;
	// ровно один исход на запрос: либо 401/403 от middleware, либо handler.
	router.Route("/api/v1", func(api chi.Router) {
		if jwtAuth != nil {
			api.Use(jwtAuth.Middleware())
		}

		api.Get("/auth/me", handler.Me)

		// Заказы: чтение — любая аутентифицированная роль (маскирование
		// выполняет сервисный слой), мутации — sales-admin и выше.
		api.Route("/videos", func(r chi.Router) {
			r.Get("/", handler.ListVideos)
			r.Get("/suggest", handler.SuggestVideos)
			r.Get("/{id}", handler.GetVideo)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSalesAdmin())
				r.Patch("/{id}/status", handler.UpdateVideoStatus)
				r.Patch("/{id}/delivery", handler.UpdateVideoDelivery)
				r.Patch("/{id}/payment", handler.UpdateVideoPayment)
			})
		})

		// Зарплаты сотрудников видны всем, комиссионные — только sales-admin.
		api.Get("/staff-salaries", handler.ListStaffSalaries)

		api.Group(func(r chi.Router) {
			r.Use(middleware.RequireSalesAdmin())
			r.Get("/sales-salaries", handler.ListSalesSalaries)
		})

		api.Route("/staff-limits", func(r chi.Router) {
			r.Use(middleware.RequireSalesAdmin())
			r.Get("/", handler.ListStaffLimits)
			r.Get("/{username}", handler.GetStaffLimit)
			r.Put("/{username}", handler.SetStaffLimit)
			r.Delete("/{username}", handler.DeleteStaffLimit)
		})

		// Управление учётными записями и журнал аудита — только realm-admin.
		api.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(rbac.RoleRealmAdmin))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handler.ListUsers)
				r.Post("/", handler.CreateUser)
				r.Get("/{id}", handler.GetUser)
				r.Put("/{id}", handler.UpdateUser)
				r.Delete("/{id}", handler.DeleteUser)
				r.Put("/{id}/role-override", handler.UpdateRoleOverride)
				r.Put("/{id}/reset-password", handler.ResetUserPassword)
			})

			r.Get("/audit", handler.ListAudit)
		})
	})

	// Admin UI (опционально)
	if ui != nil {
		registerUIRoutes(router, ui)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// registerUIRoutes регистрирует маршруты браузерного UI под /admin/*.
// login/callback/logout — публичные (OIDC-поток), остальные за UIAuth.
func registerUIRoutes(router chi.Router, ui *UIComponents) {
	router.Route("/admin", func(r chi.Router) {
		r.Get("/login", ui.AuthHandler.HandleLogin)
		r.Get("/login/start", ui.AuthHandler.HandleLoginStart)
		r.Get("/callback", ui.AuthHandler.HandleCallback)
		r.Post("/logout", ui.AuthHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(ui.AuthMiddleware.Middleware())
			// Пользователь без сопоставленной роли (нет ни одной известной
			// группы) видит панель отказа, а не пустой Dashboard.
			r.With(ui.DashboardHandler.RequireUIRole(rbac.RoleViewer, rbac.RoleSalesAdmin, rbac.RoleRealmAdmin)).
				Get("/", ui.DashboardHandler.HandleDashboard)
			r.NotFound(ui.DashboardHandler.HandleNotFound)
		})
	})
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
