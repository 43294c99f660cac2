// staff_limits.go — бизнес-логика лимитов заказов сотрудников.
//
// Лимиты хранит Vidflow Core backend; Admin Module транслирует CRUD-операции,
// валидирует вход и пишет изменения в журнал аудита. Последний снимок
// фонового watcher'а доступен как fallback при недоступности backend.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// StaffLimitService — сервис лимитов заказов сотрудников.
type StaffLimitService struct {
	backend   *vpclient.Client
	snapRepo  repository.LimitSnapshotRepository
	auditRepo repository.AuditRepository
	// lookupGroup объединяет одновременные запросы лимита одного сотрудника
	// в один вызов backend.
	lookupGroup singleflight.Group
	logger      *slog.Logger
}

// NewStaffLimitService создаёт сервис лимитов.
func NewStaffLimitService(
	backend *vpclient.Client,
	snapRepo repository.LimitSnapshotRepository,
	auditRepo repository.AuditRepository,
	logger *slog.Logger,
) *StaffLimitService {
	return &StaffLimitService{
		backend:   backend,
		snapRepo:  snapRepo,
		auditRepo: auditRepo,
		logger:    logger.With(slog.String("component", "staff_limit_service")),
	}
}

// LimitListResult — список лимитов с признаком источника данных.
type LimitListResult struct {
	Limits []*model.StaffLimit `json:"limits"`
	// Stale — true, если backend недоступен и данные взяты из
	// последнего сохранённого снимка.
	Stale bool `json:"stale"`
	// SnapshotAt — время снимка (заполнено только при Stale)
	SnapshotAt string `json:"snapshotAt,omitempty"`
}

// List возвращает актуальные лимиты всех сотрудников.
// При недоступности backend отдаёт последний снимок watcher'а с пометкой stale.
func (s *StaffLimitService) List(ctx context.Context) (*LimitListResult, error) {
	limits, err := s.backend.ListStaffLimits(ctx)
	if err == nil {
		return &LimitListResult{Limits: limits}, nil
	}

	// Fallback на снимок — только при транспортных/серверных ошибках
	if !vpclient.IsKind(err, vpclient.KindNetwork) && !vpclient.IsKind(err, vpclient.KindServer) {
		return nil, err
	}

	snap, snapErr := s.snapRepo.Latest(ctx)
	if snapErr != nil {
		if errors.Is(snapErr, repository.ErrNotFound) {
			return nil, err // снимков ещё нет — отдаём исходную ошибку backend
		}
		return nil, fmt.Errorf("чтение снимка лимитов: %w", snapErr)
	}

	s.logger.Warn("Backend недоступен, лимиты отданы из снимка",
		slog.Time("taken_at", snap.TakenAt),
		slog.String("backend_error", err.Error()),
	)

	limits = make([]*model.StaffLimit, 0, len(snap.Staff))
	for i := range snap.Staff {
		limits = append(limits, &snap.Staff[i])
	}

	return &LimitListResult{
		Limits:     limits,
		Stale:      true,
		SnapshotAt: snap.TakenAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// Get возвращает лимит одного сотрудника.
func (s *StaffLimitService) Get(ctx context.Context, username string) (*model.StaffLimit, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: пустой username", ErrValidation)
	}

	v, err, _ := s.lookupGroup.Do(username, func() (any, error) {
		return s.backend.GetStaffLimit(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.StaffLimit), nil
}

// Set устанавливает лимит заказов сотрудника и пишет действие в аудит.
func (s *StaffLimitService) Set(ctx context.Context, actor, username string, maxOrders int) (*model.StaffLimit, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: пустой username", ErrValidation)
	}
	if maxOrders < 1 {
		return nil, fmt.Errorf("%w: maxOrders должен быть не меньше 1", ErrValidation)
	}

	limit, err := s.backend.SetStaffLimit(ctx, username, maxOrders)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, model.AuditActionLimitSet, username, map[string]any{"maxOrders": maxOrders})
	return limit, nil
}

// Delete снимает лимит заказов сотрудника и пишет действие в аудит.
func (s *StaffLimitService) Delete(ctx context.Context, actor, username string) error {
	if username == "" {
		return fmt.Errorf("%w: пустой username", ErrValidation)
	}

	if err := s.backend.DeleteStaffLimit(ctx, username); err != nil {
		return err
	}

	s.audit(ctx, actor, model.AuditActionLimitDelete, username, nil)
	return nil
}

func (s *StaffLimitService) audit(ctx context.Context, actor, action, username string, detail map[string]any) {
	entry := &model.AuditEntry{
		Actor:      actor,
		Action:     action,
		ObjectType: "staff_limit",
		ObjectID:   username,
		Detail:     detail,
	}
	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		s.logger.Warn("Ошибка записи в журнал аудита",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
