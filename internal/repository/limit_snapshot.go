package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
)

// LimitSnapshotRepository — интерфейс хранения снимков лимитов сотрудников.
// Снимки пишет фоновый watcher, читает экран лимитов и health-probe.
type LimitSnapshotRepository interface {
	// Insert сохраняет снимок лимитов.
	Insert(ctx context.Context, snap *model.LimitSnapshot) error
	// Latest возвращает последний снимок.
	Latest(ctx context.Context) (*model.LimitSnapshot, error)
	// List возвращает снимки, новые первыми.
	List(ctx context.Context, limit, offset int) ([]*model.LimitSnapshot, error)
	// Prune удаляет снимки старше keep последних. Возвращает количество удалённых.
	Prune(ctx context.Context, keep int) (int64, error)
}

// limitSnapshotRepo — реализация LimitSnapshotRepository.
type limitSnapshotRepo struct {
	db DBTX
}

// NewLimitSnapshotRepository создаёт репозиторий снимков лимитов.
func NewLimitSnapshotRepository(db DBTX) LimitSnapshotRepository {
	return &limitSnapshotRepo{db: db}
}

func (r *limitSnapshotRepo) Insert(ctx context.Context, snap *model.LimitSnapshot) error {
	staff, err := json.Marshal(snap.Staff)
	if err != nil {
		return fmt.Errorf("ошибка сериализации лимитов: %w", err)
	}

	query := `
		INSERT INTO limit_snapshots (limited_count, total_count, staff)
		VALUES ($1, $2, $3)
		RETURNING id, taken_at`

	err = r.db.QueryRow(ctx, query,
		snap.LimitedCount, snap.TotalCount, staff,
	).Scan(&snap.ID, &snap.TakenAt)
	if err != nil {
		return fmt.Errorf("ошибка записи снимка лимитов: %w", err)
	}
	return nil
}

func (r *limitSnapshotRepo) Latest(ctx context.Context) (*model.LimitSnapshot, error) {
	query := `
		SELECT id, taken_at, limited_count, total_count, staff
		FROM limit_snapshots
		ORDER BY taken_at DESC
		LIMIT 1`

	snap, err := scanLimitSnapshot(r.db.QueryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (r *limitSnapshotRepo) List(ctx context.Context, limit, offset int) ([]*model.LimitSnapshot, error) {
	query := `
		SELECT id, taken_at, limited_count, total_count, staff
		FROM limit_snapshots
		ORDER BY taken_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимков лимитов: %w", err)
	}
	defer rows.Close()

	var result []*model.LimitSnapshot
	for rows.Next() {
		snap, err := scanLimitSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	return result, rows.Err()
}

func scanLimitSnapshot(row pgx.Row) (*model.LimitSnapshot, error) {
	snap := &model.LimitSnapshot{}
	var staff []byte
	if err := row.Scan(
		&snap.ID, &snap.TakenAt, &snap.LimitedCount, &snap.TotalCount, &staff,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка сканирования снимка лимитов: %w", err)
	}
	if len(staff) > 0 {
		if err := json.Unmarshal(staff, &snap.Staff); err != nil {
			return nil, fmt.Errorf("ошибка десериализации лимитов: %w", err)
		}
	}
	return snap, nil
}

func (r *limitSnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM limit_snapshots
		WHERE id NOT IN (
			SELECT id FROM limit_snapshots
			ORDER BY taken_at DESC
			LIMIT $1
		)`

	tag, err := r.db.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки снимков лимитов: %w", err)
	}
	return tag.RowsAffected(), nil
}
