package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
)

// AuditFilter — параметры фильтрации журнала аудита.
type AuditFilter struct {
	// Actor — фильтр по username администратора (пусто — все)
	Actor string
	// Action — фильтр по коду действия (пусто — все)
	Action string
	// ObjectType — фильтр по типу объекта (пусто — все)
	ObjectType string
}

// AuditRepository — интерфейс записи и чтения журнала аудита.
type AuditRepository interface {
	// Insert добавляет запись в журнал. Журнал только дописывается.
	Insert(ctx context.Context, entry *model.AuditEntry) error
	// List возвращает записи журнала, новые первыми.
	List(ctx context.Context, filter AuditFilter, limit, offset int) ([]*model.AuditEntry, error)
	// Count возвращает количество записей с учётом фильтра.
	Count(ctx context.Context, filter AuditFilter) (int, error)
}

// auditRepo — реализация AuditRepository.
type auditRepo struct {
	db DBTX
}

// NewAuditRepository создаёт репозиторий журнала аудита.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Insert(ctx context.Context, entry *model.AuditEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("ошибка сериализации деталей аудита: %w", err)
	}

	query := `
		INSERT INTO audit_log (actor, action, object_type, object_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.db.QueryRow(ctx, query,
		entry.Actor, entry.Action, entry.ObjectType, entry.ObjectID, detail,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал аудита: %w", err)
	}
	return nil
}

// buildFilter собирает WHERE-условия из фильтра.
// Возвращает SQL-фрагмент и аргументы, начиная с placeholder $1.
func buildAuditFilter(filter AuditFilter) (string, []any) {
	var (
		where string
		args  []any
	)

	add := func(cond, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf("%s = $%d", cond, len(args))
	}

	add("actor", filter.Actor)
	add("action", filter.Action)
	add("object_type", filter.ObjectType)

	return where, args
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter, limit, offset int) ([]*model.AuditEntry, error) {
	where, args := buildAuditFilter(filter)

	query := fmt.Sprintf(`
		SELECT id, actor, action, object_type, object_id, detail, created_at
		FROM audit_log%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала аудита: %w", err)
	}
	defer rows.Close()

	var result []*model.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanAuditEntry(row pgx.Row) (*model.AuditEntry, error) {
	entry := &model.AuditEntry{}
	var detail []byte
	if err := row.Scan(
		&entry.ID, &entry.Actor, &entry.Action, &entry.ObjectType,
		&entry.ObjectID, &detail, &entry.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("ошибка сканирования записи аудита: %w", err)
	}
	if len(detail) > 0 {
		if err := json.Unmarshal(detail, &entry.Detail); err != nil {
			return nil, fmt.Errorf("ошибка десериализации деталей аудита: %w", err)
		}
	}
	return entry, nil
}

func (r *auditRepo) Count(ctx context.Context, filter AuditFilter) (int, error) {
	where, args := buildAuditFilter(filter)

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта записей аудита: %w", err)
	}
	return count, nil
}
