// videos.go — бизнес-логика работы с заказами видео.
//
// VideoService — прослойка между handlers и Vidflow Core backend:
//  1. Список/карточка заказа прогоняются через политику видимости
//     (visibility.MaskVideos) до сериализации.
//  2. Агрегаты считаются по уже отфильтрованной проекции.
//  3. Изменения статусов пишутся в журнал аудита.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/visibility"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// Допустимые статусы для валидации входа.
var validVideoStatuses = map[string]bool{
	model.VideoStatusNew:        true,
	model.VideoStatusInProgress: true,
	model.VideoStatusReview:     true,
	model.VideoStatusDone:       true,
	model.VideoStatusCancelled:  true,
}

// VideoService — сервис заказов видео.
type VideoService struct {
	backend   *vpclient.Client
	auditRepo repository.AuditRepository
	logger    *slog.Logger
}

// NewVideoService создаёт сервис заказов.
func NewVideoService(backend *vpclient.Client, auditRepo repository.AuditRepository, logger *slog.Logger) *VideoService {
	return &VideoService{
		backend:   backend,
		auditRepo: auditRepo,
		logger:    logger.With(slog.String("component", "video_service")),
	}
}

// VideoListResult — результат списочного запроса: проекции, агрегаты, пагинация.
type VideoListResult struct {
	Videos     []model.VideoView    `json:"videos"`
	Summary    model.VideoSummary   `json:"summary"`
	Pagination *vpclient.Pagination `json:"pagination,omitempty"`
}

// List возвращает страницу заказов, замаскированную под эффективную роль.
// Агрегаты считаются по проекции текущей страницы — фильтрация предшествует
// агрегации, суммы относятся к тому, что пользователь видит.
func (s *VideoService) List(ctx context.Context, p vpclient.VideoListParams, effectiveRole string) (*VideoListResult, error) {
	videos, pg, err := s.backend.ListVideos(ctx, p)
	if err != nil {
		return nil, err
	}

	views := visibility.MaskVideos(videos, effectiveRole)

	return &VideoListResult{
		Videos:     views,
		Summary:    visibility.Summarize(views),
		Pagination: pg,
	}, nil
}

// Get возвращает карточку заказа, замаскированную под эффективную роль.
func (s *VideoService) Get(ctx context.Context, id int64, effectiveRole string) (*model.VideoView, error) {
	video, err := s.backend.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}

	view := visibility.MaskVideo(video, effectiveRole)
	return &view, nil
}

// UpdateStatus меняет статус производства заказа и пишет действие в аудит.
func (s *VideoService) UpdateStatus(ctx context.Context, actor string, id int64, status string) (*model.VideoView, error) {
	if !validVideoStatuses[status] {
		return nil, fmt.Errorf("%w: неизвестный статус %q", ErrValidation, status)
	}

	video, err := s.backend.UpdateVideoStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, model.AuditActionVideoStatus, id, map[string]any{"status": status})

	// Изменения доступны только sales-admin и выше — маскировать нечего,
	// но проекция едина для всех ответов
	view := visibility.MaskVideo(video, actorRoleForMutations)
	return &view, nil
}

// UpdateDelivery меняет статус доставки заказа и пишет действие в аудит.
func (s *VideoService) UpdateDelivery(ctx context.Context, actor string, id int64, deliveryStatus string) (*model.VideoView, error) {
	if deliveryStatus == "" {
		return nil, fmt.Errorf("%w: пустой статус доставки", ErrValidation)
	}

	video, err := s.backend.UpdateVideoDelivery(ctx, id, deliveryStatus)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, model.AuditActionVideoDelivery, id, map[string]any{"deliveryStatus": deliveryStatus})

	view := visibility.MaskVideo(video, actorRoleForMutations)
	return &view, nil
}

// UpdatePayment меняет статус и дату оплаты заказа и пишет действие в аудит.
func (s *VideoService) UpdatePayment(ctx context.Context, actor string, id int64, paymentStatus string, paymentDate *time.Time) (*model.VideoView, error) {
	if paymentStatus == "" {
		return nil, fmt.Errorf("%w: пустой статус оплаты", ErrValidation)
	}

	video, err := s.backend.UpdateVideoPayment(ctx, id, paymentStatus, paymentDate)
	if err != nil {
		return nil, err
	}

	detail := map[string]any{"paymentStatus": paymentStatus}
	if paymentDate != nil {
		detail["paymentDate"] = paymentDate.Format("2006-01-02")
	}
	s.audit(ctx, actor, model.AuditActionVideoPayment, id, detail)

	view := visibility.MaskVideo(video, actorRoleForMutations)
	return &view, nil
}

// actorRoleForMutations — мутации заказов доступны только роли sales-admin
// и выше, поэтому ответ мутации формируется без маскирования.
const actorRoleForMutations = rbac.RoleSalesAdmin

// audit пишет запись в журнал. Ошибка записи не прерывает операцию —
// только предупреждение в логе.
func (s *VideoService) audit(ctx context.Context, actor, action string, videoID int64, detail map[string]any) {
	entry := &model.AuditEntry{
		Actor:      actor,
		Action:     action,
		ObjectType: "video",
		ObjectID:   fmt.Sprintf("%d", videoID),
		Detail:     detail,
	}
	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		s.logger.Warn("Ошибка записи в журнал аудита",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
