// Пакет config — загрузка и валидация конфигурации Admin Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Admin Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Keycloak ---

	// URL Keycloak (например, https://keycloak.kryukov.lan)
	KeycloakURL string
	// Внешний URL Keycloak для browser redirects (если отличается от KeycloakURL)
	BrowserKeycloakURL string
	// Имя realm в Keycloak
	KeycloakRealm string
	// Client ID для доступа к Keycloak Admin API
	KeycloakClientID string
	// Client Secret для доступа к Keycloak Admin API
	KeycloakClientSecret string

	// --- JWT ---

	// Issuer JWT (авто-вычисляется из KeycloakURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из KeycloakURL, если не задан)
	JWTJWKSURL string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration

	// --- Vidflow Core backend ---

	// Базовый URL backend (REST API заказов)
	BackendURL string
	// Значение заголовка маршрутизации X-Database
	BackendDatabase string
	// Таймаут HTTP-запросов к backend
	BackendTimeout time.Duration
	// Путь к CA-сертификату для TLS-соединений (backend и Keycloak, опционально)
	CACertPath string

	// --- Staff limits ---

	// Интервал фонового обновления списка ограниченных сотрудников
	LimitRefreshInterval time.Duration

	// --- Поиск ---

	// Окно тишины debounce для поиска по имени заказчика
	SearchDebounce time.Duration
	// Окно тишины debounce для поиска лимитов сотрудников
	LimitLookupDebounce time.Duration

	// --- Маппинг групп → ролей ---

	// Группы Keycloak, дающие роль realm-admin (через запятую)
	RoleRealmAdminGroups []string
	// Группы Keycloak, дающие роль sales-admin (через запятую)
	RoleSalesAdminGroups []string
	// Группы Keycloak, дающие роль viewer (через запятую)
	RoleViewerGroups []string

	// --- Admin UI ---

	// Включён ли браузерный UI
	UIEnabled bool
	// OIDC Client ID для браузерного UI (public client, PKCE)
	UIOIDCClientID string
	// Секрет шифрования UI-сессий (base64 или произвольная строка)
	UISessionSecret string

	// --- Мониторинг зависимостей ---

	// Группа topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// VF_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("VF_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("VF_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("VF_PORT: значение %d вне допустимого диапазона", cfg.Port)
	}

	// VF_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("VF_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("VF_LOG_LEVEL: %w", err)
	}

	// VF_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("VF_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("VF_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("VF_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("VF_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("VF_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("VF_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("VF_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("VF_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("VF_DB_SSL_MODE", "disable")

	// --- Keycloak ---

	cfg.KeycloakURL, err = getEnvRequired("VF_KEYCLOAK_URL")
	if err != nil {
		return nil, err
	}
	cfg.KeycloakURL = strings.TrimRight(cfg.KeycloakURL, "/")

	// VF_BROWSER_KEYCLOAK_URL — внешний URL для browser redirects
	// (пустой — совпадает с VF_KEYCLOAK_URL)
	cfg.BrowserKeycloakURL = strings.TrimRight(getEnvDefault("VF_BROWSER_KEYCLOAK_URL", ""), "/")

	cfg.KeycloakRealm = getEnvDefault("VF_KEYCLOAK_REALM", "vidflow")

	cfg.KeycloakClientID, err = getEnvRequired("VF_KEYCLOAK_CLIENT_ID")
	if err != nil {
		return nil, err
	}

	cfg.KeycloakClientSecret, err = getEnvRequired("VF_KEYCLOAK_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}

	// --- JWT ---

	cfg.JWTIssuer = getEnvDefault("VF_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.KeycloakURL, cfg.KeycloakRealm))

	cfg.JWTJWKSURL = getEnvDefault("VF_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.KeycloakURL, cfg.KeycloakRealm))

	cfg.JWTLeeway, err = getEnvDuration("VF_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VF_JWT_LEEWAY: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("VF_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("VF_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// --- Vidflow Core backend ---

	cfg.BackendURL, err = getEnvRequired("VF_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	cfg.BackendDatabase = getEnvDefault("VF_BACKEND_DATABASE", "vidflow")

	cfg.BackendTimeout, err = getEnvDuration("VF_BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VF_BACKEND_TIMEOUT: %w", err)
	}

	cfg.CACertPath = getEnvDefault("VF_CA_CERT_PATH", "")

	// --- Staff limits ---

	cfg.LimitRefreshInterval, err = getEnvDuration("VF_LIMIT_REFRESH_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VF_LIMIT_REFRESH_INTERVAL: %w", err)
	}

	// --- Поиск ---

	// Окна тишины подобраны под живой ввод: имя заказчика — 300ms,
	// поиск лимитов — 500ms (реже меняется, дороже запрос).
	cfg.SearchDebounce, err = getEnvDuration("VF_SEARCH_DEBOUNCE", 300*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("VF_SEARCH_DEBOUNCE: %w", err)
	}

	cfg.LimitLookupDebounce, err = getEnvDuration("VF_LIMIT_LOOKUP_DEBOUNCE", 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("VF_LIMIT_LOOKUP_DEBOUNCE: %w", err)
	}

	// --- Маппинг групп → ролей ---

	cfg.RoleRealmAdminGroups = parseCSV(getEnvDefault("VF_ROLE_REALM_ADMIN_GROUPS", "vidflow-admins"))
	cfg.RoleSalesAdminGroups = parseCSV(getEnvDefault("VF_ROLE_SALES_ADMIN_GROUPS", "vidflow-sales-admins"))
	cfg.RoleViewerGroups = parseCSV(getEnvDefault("VF_ROLE_VIEWER_GROUPS", "vidflow-staff"))

	// --- Admin UI ---

	cfg.UIEnabled, err = getEnvBool("VF_UI_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("VF_UI_ENABLED: %w", err)
	}

	cfg.UIOIDCClientID = getEnvDefault("VF_UI_OIDC_CLIENT_ID", "vidflow-admin-ui")
	cfg.UISessionSecret = getEnvDefault("VF_UI_SESSION_SECRET", "")

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("VF_DEPHEALTH_GROUP", "vidflow")

	cfg.DephealthCheckInterval, err = getEnvDuration("VF_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VF_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("VF_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VF_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL (для метрик/лейблов).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
