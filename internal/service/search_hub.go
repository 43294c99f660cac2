// search_hub.go — реестр координаторов живого поиска.
//
// Координатор создаётся на пару «пользователь + эффективная роль» при первом
// запросе подсказок и переиспользуется для последующих вводов: серия быстрых
// запросов одного пользователя проходит через общее окно debounce, и backend
// получает один запрос с последним значением.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// SearchHub — реестр SearchCoordinator по пользователям.
type SearchHub struct {
	videos *VideoService
	base   vpclient.VideoListParams
	delay  time.Duration
	logger *slog.Logger

	mu           sync.Mutex
	coordinators map[string]*SearchCoordinator
	stopped      bool
}

// NewSearchHub создаёт реестр координаторов поиска.
// base — базовые параметры списка (сортировка, размер страницы);
// delay — окно тишины debounce (VF_SEARCH_DEBOUNCE).
func NewSearchHub(videos *VideoService, base vpclient.VideoListParams, delay time.Duration, logger *slog.Logger) *SearchHub {
	return &SearchHub{
		videos:       videos,
		base:         base,
		delay:        delay,
		logger:       logger.With(slog.String("component", "search_hub")),
		coordinators: make(map[string]*SearchCoordinator),
	}
}

// Coordinator возвращает координатор поиска пользователя, создавая при
// первом обращении. Роль входит в ключ: после смены роли пользователь
// получает новый координатор с новой маской видимости.
func (h *SearchHub) Coordinator(username, effectiveRole string) *SearchCoordinator {
	key := username + "|" + effectiveRole

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}
	if c, ok := h.coordinators[key]; ok {
		return c
	}

	c := NewSearchCoordinator(h.videos, effectiveRole, h.base, h.delay, h.logger)
	h.coordinators[key] = c

	h.logger.Debug("Создан координатор поиска",
		slog.String("username", username),
		slog.String("role", effectiveRole),
	)
	return c
}

// Delay возвращает окно тишины debounce. Обработчик подсказок использует
// его при расчёте времени ожидания результата.
func (h *SearchHub) Delay() time.Duration {
	return h.delay
}

// Stop останавливает все координаторы. После Stop реестр не выдаёт
// координаторы — вызывается при завершении приложения.
func (h *SearchHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for _, c := range h.coordinators {
		c.Stop()
	}
	h.coordinators = nil
}
