// audit.go — чтение журнала аудита.
package service

import (
	"context"
	"log/slog"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
)

// AuditService — сервис чтения журнала аудита.
// Запись ведут сервисы, выполняющие действия; здесь только чтение.
type AuditService struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

// NewAuditService создаёт сервис журнала аудита.
func NewAuditService(repo repository.AuditRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger.With(slog.String("component", "audit_service")),
	}
}

// AuditListResult — страница журнала аудита.
type AuditListResult struct {
	Entries []*model.AuditEntry `json:"entries"`
	Total   int                 `json:"total"`
}

// List возвращает записи журнала, новые первыми.
func (s *AuditService) List(ctx context.Context, filter repository.AuditFilter, limit, offset int) (*AuditListResult, error) {
	entries, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &AuditListResult{Entries: entries, Total: total}, nil
}
