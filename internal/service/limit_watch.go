// limit_watch.go — фоновый сервис наблюдения за лимитами сотрудников.
//
// LimitWatchService запускает горутину с ticker (VF_LIMIT_REFRESH_INTERVAL,
// по умолчанию 30s), которая опрашивает backend и сохраняет снимок
// в limit_snapshots. Первый опрос выполняется сразу при старте, не дожидаясь
// первого тика. Если предыдущий опрос ещё выполняется, очередной тик
// пропускается: опросы не накладываются и не ставятся в очередь.
//
// Prometheus-метрики:
//   - vf_admin_limit_refresh_duration_seconds — длительность опроса
//   - vf_admin_limit_refresh_total — количество опросов (по результату)
//   - vf_admin_limited_staff — текущее количество сотрудников на лимите
package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// Prometheus-метрики наблюдения за лимитами.
var (
	limitRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vf_admin_limit_refresh_duration_seconds",
		Help:    "Длительность опроса лимитов сотрудников",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms … ~25s
	})

	limitRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vf_admin_limit_refresh_total",
		Help: "Количество опросов лимитов сотрудников",
	}, []string{"result"}) // result: ok, error, skipped

	limitedStaffGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vf_admin_limited_staff",
		Help: "Количество сотрудников, достигших лимита заказов",
	})
)

// snapshotKeep — сколько последних снимков хранить в БД.
const snapshotKeep = 1000

// LimitWatchService — фоновый сервис опроса лимитов сотрудников.
type LimitWatchService struct {
	backend  *vpclient.Client
	snapRepo repository.LimitSnapshotRepository
	interval time.Duration
	logger   *slog.Logger

	// inFlight — защита от наложения опросов: 1 пока опрос выполняется
	inFlight atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLimitWatchService создаёт сервис наблюдения за лимитами.
func NewLimitWatchService(
	backend *vpclient.Client,
	snapRepo repository.LimitSnapshotRepository,
	interval time.Duration,
	logger *slog.Logger,
) *LimitWatchService {
	return &LimitWatchService{
		backend:  backend,
		snapRepo: snapRepo,
		interval: interval,
		logger:   logger.With(slog.String("component", "limit_watch")),
	}
}

// Start запускает фоновую горутину с периодическим опросом.
// Первый опрос выполняется немедленно. Вызывается один раз при старте приложения.
func (s *LimitWatchService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		s.logger.Info("Наблюдение за лимитами сотрудников запущено",
			slog.String("interval", s.interval.String()),
		)

		// Немедленный первый опрос — экран лимитов не ждёт первого тика
		s.refresh(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Наблюдение за лимитами сотрудников остановлено")
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()
}

// Stop останавливает фоновую горутину и ждёт завершения.
func (s *LimitWatchService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// refresh выполняет один опрос лимитов и сохраняет снимок.
// Если предыдущий опрос ещё не завершился — тик пропускается.
func (s *LimitWatchService) refresh(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("Опрос лимитов пропущен: предыдущий ещё выполняется")
		limitRefreshTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer s.inFlight.Store(false)

	started := time.Now()

	limits, err := s.backend.ListStaffLimits(ctx)
	if err != nil {
		limitRefreshTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Ошибка опроса лимитов сотрудников",
			slog.String("error", err.Error()),
		)
		return
	}

	snap := buildSnapshot(limits)

	if err := s.snapRepo.Insert(ctx, snap); err != nil {
		limitRefreshTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Ошибка сохранения снимка лимитов",
			slog.String("error", err.Error()),
		)
		return
	}

	// Периодическая очистка старых снимков
	if pruned, err := s.snapRepo.Prune(ctx, snapshotKeep); err != nil {
		s.logger.Warn("Ошибка очистки снимков лимитов", slog.String("error", err.Error()))
	} else if pruned > 0 {
		s.logger.Debug("Старые снимки лимитов удалены", slog.Int64("count", pruned))
	}

	duration := time.Since(started)
	limitRefreshDuration.Observe(duration.Seconds())
	limitRefreshTotal.WithLabelValues("ok").Inc()
	limitedStaffGauge.Set(float64(snap.LimitedCount))

	s.logger.Debug("Снимок лимитов сохранён",
		slog.Int("total", snap.TotalCount),
		slog.Int("limited", snap.LimitedCount),
		slog.String("duration", duration.String()),
	)
}

// buildSnapshot строит снимок из ответа backend.
func buildSnapshot(limits []*model.StaffLimit) *model.LimitSnapshot {
	snap := &model.LimitSnapshot{
		TotalCount: len(limits),
		Staff:      make([]model.StaffLimit, 0, len(limits)),
	}
	for _, l := range limits {
		if l.Limited {
			snap.LimitedCount++
		}
		snap.Staff = append(snap.Staff, *l)
	}
	return snap
}
