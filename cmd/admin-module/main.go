// Точка входа Admin Module — управляющий модуль системы Vidflow.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует Keycloak и backend клиенты, создаёт сервисный слой и API handlers,
// запускает фоновые задачи (наблюдение за лимитами, topologymetrics),
// HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/arturkryukov/vidflow/admin-module/internal/api/handlers"
	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/config"
	"github.com/arturkryukov/vidflow/admin-module/internal/database"
	"github.com/arturkryukov/vidflow/admin-module/internal/keycloak"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
	"github.com/arturkryukov/vidflow/admin-module/internal/server"
	"github.com/arturkryukov/vidflow/admin-module/internal/service"
	"github.com/arturkryukov/vidflow/admin-module/internal/ui/auth"
	uihandlers "github.com/arturkryukov/vidflow/admin-module/internal/ui/handlers"
	uimiddleware "github.com/arturkryukov/vidflow/admin-module/internal/ui/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Admin Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("VF_DEPHEALTH_GROUP") == "" {
		logger.Warn("VF_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	// Проверка здоровья PostgreSQL идёт через существующий пул соединений,
	// что позволяет обнаружить его исчерпание.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. HTTP-клиент с кастомным CA (для Keycloak и backend)
	var httpClientCA *http.Client
	if cfg.CACertPath != "" {
		httpClientCA, err = buildHTTPClientWithCA(cfg.CACertPath)
		if err != nil {
			logger.Error("Ошибка загрузки CA-сертификата",
				slog.String("path", cfg.CACertPath),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		logger.Info("CA-сертификат загружен", slog.String("path", cfg.CACertPath))
	}

	// 6. Keycloak Admin API клиент
	kcClient := keycloak.New(
		cfg.KeycloakURL,
		cfg.KeycloakRealm,
		cfg.KeycloakClientID,
		cfg.KeycloakClientSecret,
		httpClientCA, // nil — стандартный пул CA
		logger,
	)
	logger.Info("Keycloak клиент создан",
		slog.String("url", cfg.KeycloakURL),
		slog.String("realm", cfg.KeycloakRealm),
	)

	// 7. HTTP-клиент backend заказов (Vidflow Core)
	backend, err := vpclient.New(
		cfg.BackendURL,
		cfg.BackendDatabase,
		cfg.CACertPath,
		cfg.BackendTimeout,
		kcClient.TokenProvider(),
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания backend-клиента", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Backend-клиент создан",
		slog.String("url", cfg.BackendURL),
		slog.String("database", cfg.BackendDatabase),
	)

	// 8. Repositories
	roleRepo := repository.NewRoleOverrideRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	snapRepo := repository.NewLimitSnapshotRepository(pool)

	// 9. Services
	roleGroups := service.RoleGroups{
		RealmAdmin: cfg.RoleRealmAdminGroups,
		SalesAdmin: cfg.RoleSalesAdminGroups,
		Viewer:     cfg.RoleViewerGroups,
	}

	videosSvc := service.NewVideoService(backend, auditRepo, logger)
	searchHub := service.NewSearchHub(videosSvc, vpclient.VideoListParams{
		Sort:     "createdAt",
		PageSize: 50,
	}, cfg.SearchDebounce, logger)
	salarySvc := service.NewSalaryService(backend, logger)
	limitsSvc := service.NewStaffLimitService(backend, snapRepo, auditRepo, logger)
	usersSvc := service.NewAdminUserService(kcClient, roleRepo, auditRepo, roleGroups, logger)
	auditSvc := service.NewAuditService(auditRepo, logger)

	// 10. Фоновое наблюдение за лимитами сотрудников
	limitWatchSvc := service.NewLimitWatchService(
		backend, snapRepo,
		cfg.LimitRefreshInterval,
		logger,
	)

	// 11. Readiness checkers (PostgreSQL + Keycloak + backend)
	pgChecker := database.NewReadinessChecker(pool)
	kcChecker, err := middleware.NewKeycloakReadinessChecker(cfg.JWTJWKSURL, cfg.CACertPath, 5*time.Second)
	if err != nil {
		logger.Error("Ошибка создания Keycloak readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthHandler := handlers.NewHealthHandler(pgChecker, kcChecker, backend)

	// 12. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		videosSvc,
		searchHub,
		salarySvc,
		limitsSvc,
		usersSvc,
		auditSvc,
		logger,
	)

	// 13. JWT middleware.
	// AdminUserService реализует middleware.RoleOverrideProvider.
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.JWTJWKSURL,
		cfg.CACertPath,
		cfg.JWTIssuer,
		usersSvc,
		cfg.RoleRealmAdminGroups,
		cfg.RoleSalesAdminGroups,
		cfg.RoleViewerGroups,
		10*time.Second,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer jwtAuth.Close()
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.JWTJWKSURL),
		slog.String("issuer", cfg.JWTIssuer),
	)

	// 14. Запуск фоновых задач
	limitWatchSvc.Start(ctx)

	// 14.1 topologymetrics — мониторинг зависимостей (PostgreSQL + Keycloak + backend)
	var dephealthSvc *service.DephealthService
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"admin-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		cfg.BackendURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 15. Admin UI (опционально, если VF_UI_ENABLED=true)
	var uiComponents *server.UIComponents
	if cfg.UIEnabled {
		// Secure cookie: true если Keycloak URL начинается с https
		secureCookie := strings.HasPrefix(cfg.KeycloakURL, "https")

		// Session Manager — шифрование/дешифрование UI-сессий (AES-256-GCM)
		sessionMgr, sessionErr := auth.NewSessionManager(cfg.UISessionSecret, secureCookie)
		if sessionErr != nil {
			logger.Error("Ошибка создания Session Manager", slog.String("error", sessionErr.Error()))
			os.Exit(1)
		}

		if cfg.UISessionSecret == "" {
			logger.Warn("VF_UI_SESSION_SECRET не задан, UI-сессии не сохраняются между рестартами")
		}

		// OIDC-клиент для авторизации через Keycloak (PKCE)
		oidcClient := auth.NewOIDCClient(auth.OIDCConfig{
			KeycloakURL:        cfg.KeycloakURL,
			BrowserKeycloakURL: cfg.BrowserKeycloakURL,
			Realm:              cfg.KeycloakRealm,
			ClientID:           cfg.UIOIDCClientID,
			HTTPClient:         httpClientCA,
		})

		// Auth handler — login/callback/logout
		authHandler := uihandlers.NewAuthHandler(
			oidcClient, sessionMgr,
			cfg.RoleRealmAdminGroups, cfg.RoleSalesAdminGroups, cfg.RoleViewerGroups,
			secureCookie,
			logger,
		)

		// UI auth middleware — проверка сессии, авто-refresh токенов
		uiAuthMiddleware := uimiddleware.NewUIAuth(sessionMgr, oidcClient, logger)

		// Dashboard handler — страницы UI
		dashboardHandler := uihandlers.NewDashboardHandler(cfg.SearchDebounce, cfg.LimitLookupDebounce, logger)

		uiComponents = &server.UIComponents{
			AuthHandler:      authHandler,
			AuthMiddleware:   uiAuthMiddleware,
			DashboardHandler: dashboardHandler,
		}

		logger.Info("Admin UI инициализирован",
			slog.String("oidc_client_id", cfg.UIOIDCClientID),
			slog.Bool("secure_cookie", secureCookie),
		)
	} else {
		logger.Info("Admin UI отключён (VF_UI_ENABLED=false)")
	}

	// 16. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth, uiComponents)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 17. Graceful shutdown фоновых задач
	logger.Info("Останавливаем фоновые задачи...")

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	limitWatchSvc.Stop()
	searchHub.Stop()

	logger.Info("Admin Module остановлен")
}

// buildHTTPClientWithCA создаёт HTTP-клиент с кастомным CA-сертификатом.
func buildHTTPClientWithCA(caCertPath string) (*http.Client, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, err
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: caCertPool,
			},
		},
	}, nil
}
