// search.go — координатор живого поиска по заказам.
//
// SearchCoordinator связывает debounce и слияние одинаковых запросов:
//   - серия быстрых вводов даёт ровно один запрос с последним значением
//     (async.Debouncer, окно тишины VF_SEARCH_DEBOUNCE);
//   - одинаковые запросы от параллельных подписчиков сливаются в один
//     вызов backend (singleflight.Group);
//   - результат устаревшего запроса не применяется — контекст запуска
//     отменяется при поступлении более нового значения.
//
// Подписчики (SSE-поток UI, websocket и т.п.) получают результаты через
// канал Results.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/arturkryukov/vidflow/admin-module/internal/async"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// SearchResult — результат одного выполненного поиска.
type SearchResult struct {
	// Query — строка поиска, для которой получен результат
	Query string
	// Result — страница заказов (уже замаскированная под роль)
	Result *VideoListResult
	// Err — ошибка запроса к backend (Result == nil)
	Err error
}

// SearchCoordinator — живой поиск с debounce и слиянием запросов.
// Один экземпляр на поле поиска (сеанс пользователя).
type SearchCoordinator struct {
	videos    *VideoService
	role      string
	params    vpclient.VideoListParams
	debouncer *async.Debouncer
	group     singleflight.Group
	results   chan SearchResult
	logger    *slog.Logger
}

// NewSearchCoordinator создаёт координатор поиска для эффективной роли.
// delay — окно тишины debounce; base — базовые параметры списка
// (статус-фильтр, сортировка, размер страницы), поисковая строка
// подставляется из ввода.
func NewSearchCoordinator(
	videos *VideoService,
	effectiveRole string,
	base vpclient.VideoListParams,
	delay time.Duration,
	logger *slog.Logger,
) *SearchCoordinator {
	c := &SearchCoordinator{
		videos:  videos,
		role:    effectiveRole,
		params:  base,
		results: make(chan SearchResult, 1),
		logger:  logger.With(slog.String("component", "search")),
	}
	c.debouncer = async.NewDebouncer(delay, c.run)
	return c
}

// Input регистрирует очередное значение поискового ввода.
// Запрос уйдёт один — с последним значением после окна тишины.
func (c *SearchCoordinator) Input(value string) {
	c.debouncer.Trigger(value)
}

// Flush немедленно выполняет отложенный поиск (подтверждение Enter).
func (c *SearchCoordinator) Flush() {
	c.debouncer.Flush()
}

// Results — канал результатов поиска. Буфер на один элемент: если
// подписчик не успел забрать результат, более новый вытесняет старый.
func (c *SearchCoordinator) Results() <-chan SearchResult {
	return c.results
}

// Stop детерминированно останавливает координатор.
func (c *SearchCoordinator) Stop() {
	c.debouncer.Stop()
}

// run выполняет поиск после окна тишины.
// ctx отменяется при поступлении более нового значения — результат
// устаревшего запуска отбрасывается, не публикуется.
func (c *SearchCoordinator) run(ctx context.Context, query string) {
	p := c.params
	p.Search = query

	// Одинаковые запросы от параллельных подписчиков сливаются в один
	v, err, shared := c.group.Do(query, func() (any, error) {
		return c.videos.List(ctx, p, c.role)
	})
	if shared {
		c.logger.Debug("Поисковый запрос слит с идентичным", slog.String("query", query))
	}

	// Устаревший запуск: более новое значение уже в работе
	if ctx.Err() != nil {
		return
	}

	res := SearchResult{Query: query, Err: err}
	if err == nil {
		res.Result = v.(*VideoListResult)
	}

	// Вытесняем непрочитанный старый результат
	select {
	case c.results <- res:
	default:
		select {
		case <-c.results:
		default:
		}
		select {
		case c.results <- res:
		default:
		}
	}
}
