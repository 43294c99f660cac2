package repository

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/arturkryukov/vidflow/admin-module/internal/config"
	"github.com/arturkryukov/vidflow/admin-module/internal/database"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB запускает PostgreSQL контейнер, применяет миграции.
// Возвращает pgxpool.Pool (очистка через t.Cleanup).
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("vidflow_test"),
		postgres.WithUsername("vidflow"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	// Настраиваем env для config.Load()
	os.Setenv("VF_DB_HOST", host)
	os.Setenv("VF_DB_PORT", port.Port())
	os.Setenv("VF_DB_NAME", "vidflow_test")
	os.Setenv("VF_DB_USER", "vidflow")
	os.Setenv("VF_DB_PASSWORD", "test-password")
	os.Setenv("VF_DB_SSL_MODE", "disable")
	os.Setenv("VF_KEYCLOAK_URL", "http://localhost:8080")
	os.Setenv("VF_KEYCLOAK_CLIENT_ID", "test")
	os.Setenv("VF_KEYCLOAK_CLIENT_SECRET", "test")
	os.Setenv("VF_BACKEND_URL", "http://localhost:8081")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Применяем миграции
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Ошибка миграций: %v", err)
	}

	// Подключаемся
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

// --- Тесты RoleOverrideRepository ---

func TestRoleOverrideCRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewRoleOverrideRepository(pool)

	ro := &model.RoleOverride{
		KeycloakUserID: "kc-user-001",
		Username:       "ivanov",
		AdditionalRole: "sales-admin",
		CreatedBy:      "admin",
	}

	// Upsert (создание)
	if err := repo.Upsert(ctx, ro); err != nil {
		t.Fatalf("Upsert() ошибка: %v", err)
	}
	if ro.ID == "" {
		t.Error("ID не установлен после Upsert")
	}
	if ro.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен после Upsert")
	}

	// GetByKeycloakUserID
	got, err := repo.GetByKeycloakUserID(ctx, "kc-user-001")
	if err != nil {
		t.Fatalf("GetByKeycloakUserID() ошибка: %v", err)
	}
	if got.AdditionalRole != "sales-admin" {
		t.Errorf("AdditionalRole = %q, хотели %q", got.AdditionalRole, "sales-admin")
	}
	if got.Username != "ivanov" {
		t.Errorf("Username = %q, хотели %q", got.Username, "ivanov")
	}

	// Upsert (обновление)
	ro.AdditionalRole = "realm-admin"
	if err := repo.Upsert(ctx, ro); err != nil {
		t.Fatalf("Upsert() обновление ошибка: %v", err)
	}
	got2, _ := repo.GetByKeycloakUserID(ctx, "kc-user-001")
	if got2.AdditionalRole != "realm-admin" {
		t.Errorf("После Upsert: AdditionalRole = %q, хотели %q", got2.AdditionalRole, "realm-admin")
	}

	// List
	list, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() вернул %d записей, хотели 1", len(list))
	}

	// Count
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, хотели 1", count)
	}

	// Delete
	if err := repo.Delete(ctx, "kc-user-001"); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	_, err = repo.GetByKeycloakUserID(ctx, "kc-user-001")
	if err != ErrNotFound {
		t.Errorf("После Delete ожидали ErrNotFound, получили: %v", err)
	}

	// Delete несуществующего
	if err := repo.Delete(ctx, "kc-user-001"); err != ErrNotFound {
		t.Errorf("Повторный Delete: ожидали ErrNotFound, получили: %v", err)
	}
}

// --- Тесты AuditRepository ---

func TestAuditInsertAndList(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewAuditRepository(pool)

	entries := []*model.AuditEntry{
		{
			Actor:      "petrova",
			Action:     model.AuditActionVideoStatus,
			ObjectType: "video",
			ObjectID:   "42",
			Detail:     map[string]any{"status": "done"},
		},
		{
			Actor:      "petrova",
			Action:     model.AuditActionLimitSet,
			ObjectType: "staff_limit",
			ObjectID:   "ivanov",
			Detail:     map[string]any{"maxOrders": float64(5)},
		},
		{
			Actor:      "admin",
			Action:     model.AuditActionUserCreate,
			ObjectType: "user",
			ObjectID:   "kc-user-002",
		},
	}

	for _, e := range entries {
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
		if e.ID == "" {
			t.Error("ID не установлен после Insert")
		}
		if e.CreatedAt.IsZero() {
			t.Error("CreatedAt не установлен после Insert")
		}
	}

	// List без фильтра
	list, err := repo.List(ctx, AuditFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() вернул %d записей, хотели 3", len(list))
	}

	// Фильтр по actor
	list, err = repo.List(ctx, AuditFilter{Actor: "petrova"}, 10, 0)
	if err != nil {
		t.Fatalf("List(actor) ошибка: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List(actor=petrova) вернул %d записей, хотели 2", len(list))
	}

	// Фильтр по action
	list, err = repo.List(ctx, AuditFilter{Action: model.AuditActionVideoStatus}, 10, 0)
	if err != nil {
		t.Fatalf("List(action) ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List(action) вернул %d записей, хотели 1", len(list))
	}
	if list[0].Detail["status"] != "done" {
		t.Errorf("Detail[status] = %v, хотели done", list[0].Detail["status"])
	}

	// Комбинированный фильтр
	list, err = repo.List(ctx, AuditFilter{Actor: "petrova", ObjectType: "staff_limit"}, 10, 0)
	if err != nil {
		t.Fatalf("List(actor+objectType) ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List(actor+objectType) вернул %d записей, хотели 1", len(list))
	}

	// Count с фильтром
	count, err := repo.Count(ctx, AuditFilter{Actor: "admin"})
	if err != nil {
		t.Fatalf("Count() ошибка: %v", err)
	}
	if count != 1 {
		t.Errorf("Count(actor=admin) = %d, хотели 1", count)
	}
}

// --- Тесты LimitSnapshotRepository ---

func TestLimitSnapshotInsertAndLatest(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewLimitSnapshotRepository(pool)

	// Latest на пустой таблице
	_, err := repo.Latest(ctx)
	if err != ErrNotFound {
		t.Errorf("Latest() на пустой таблице: ожидали ErrNotFound, получили %v", err)
	}

	snap := &model.LimitSnapshot{
		LimitedCount: 1,
		TotalCount:   2,
		Staff: []model.StaffLimit{
			{StaffUsername: "ivanov", MaxOrders: 5, CurrentOrders: 5, Limited: true},
			{StaffUsername: "petrov", MaxOrders: 3, CurrentOrders: 1, Limited: false},
		},
	}

	if err := repo.Insert(ctx, snap); err != nil {
		t.Fatalf("Insert() ошибка: %v", err)
	}
	if snap.ID == "" {
		t.Error("ID не установлен после Insert")
	}
	if snap.TakenAt.IsZero() {
		t.Error("TakenAt не установлен после Insert")
	}

	got, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() ошибка: %v", err)
	}
	if got.LimitedCount != 1 || got.TotalCount != 2 {
		t.Errorf("Latest: limited=%d total=%d, хотели 1/2", got.LimitedCount, got.TotalCount)
	}
	if len(got.Staff) != 2 {
		t.Fatalf("Latest: %d записей staff, хотели 2", len(got.Staff))
	}
	if got.Staff[0].StaffUsername != "ivanov" || !got.Staff[0].Limited {
		t.Errorf("Staff[0] = %+v, хотели ivanov limited", got.Staff[0])
	}
}

func TestLimitSnapshotPrune(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewLimitSnapshotRepository(pool)

	// Пять снимков
	for i := 0; i < 5; i++ {
		snap := &model.LimitSnapshot{TotalCount: i}
		if err := repo.Insert(ctx, snap); err != nil {
			t.Fatalf("Insert() ошибка: %v", err)
		}
		// Разносим taken_at для детерминированного порядка
		time.Sleep(10 * time.Millisecond)
	}

	// Оставляем 2 последних
	pruned, err := repo.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune() ошибка: %v", err)
	}
	if pruned != 3 {
		t.Errorf("Prune() удалил %d, хотели 3", pruned)
	}

	list, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() вернул %d записей, хотели 2", len(list))
	}
	// Новые первыми
	if list[0].TotalCount != 4 || list[1].TotalCount != 3 {
		t.Errorf("Остались снимки %d и %d, хотели 4 и 3", list[0].TotalCount, list[1].TotalCount)
	}

	// Prune при keep больше количества записей — ничего не удаляется
	pruned, err = repo.Prune(ctx, 10)
	if err != nil {
		t.Fatalf("Prune() ошибка: %v", err)
	}
	if pruned != 0 {
		t.Errorf("Prune(10) удалил %d, хотели 0", pruned)
	}
}
