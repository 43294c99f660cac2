// Тесты живого поиска GET /api/v1/videos/suggest.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
	"github.com/arturkryukov/vidflow/admin-module/internal/service"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// noopAuditRepo — журнал аудита, отбрасывающий записи.
type noopAuditRepo struct{}

func (r *noopAuditRepo) Insert(_ context.Context, _ *model.AuditEntry) error { return nil }
func (r *noopAuditRepo) List(_ context.Context, _ repository.AuditFilter, _, _ int) ([]*model.AuditEntry, error) {
	return nil, nil
}
func (r *noopAuditRepo) Count(_ context.Context, _ repository.AuditFilter) (int, error) {
	return 0, nil
}

// newSuggestHandler собирает APIHandler с живым поиском поверх
// httptest-backend, возвращающего один заказ с пришедшей поисковой строкой.
func newSuggestHandler(t *testing.T, delay time.Duration) (*APIHandler, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query().Get("customerName")
		videos := []*model.Video{
			{ID: 1, CustomerID: 137, CustomerName: q, Title: "Ролик", Status: model.VideoStatusInProgress},
		}
		raw, _ := json.Marshal(videos)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    json.RawMessage(raw),
		})
	}))
	t.Cleanup(srv.Close)

	backend, err := vpclient.New(srv.URL, "vidflow", "", 5*time.Second,
		func(ctx context.Context) (string, error) { return "test-token", nil },
		testLogger(),
	)
	if err != nil {
		t.Fatalf("ошибка создания backend-клиента: %v", err)
	}

	videosSvc := service.NewVideoService(backend, &noopAuditRepo{}, testLogger())
	hub := service.NewSearchHub(videosSvc, vpclient.VideoListParams{PageSize: 50}, delay, testLogger())
	t.Cleanup(hub.Stop)

	return NewAPIHandler(nil, videosSvc, hub, nil, nil, nil, nil, testLogger()), &hits
}

// suggestRequest создаёт запрос подсказок с claims аутентифицированного
// пользователя в контексте.
func suggestRequest(q, username, role string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/videos/suggest?q="+url.QueryEscape(q), nil)
	claims := &middleware.AuthClaims{
		PreferredUsername: username,
		EffectiveRole:     role,
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyClaims, claims))
}

// TestSuggestVideos — подсказки проходят через debounce-координатор и
// возвращают результат для введённой строки.
func TestSuggestVideos(t *testing.T) {
	h, hits := newSuggestHandler(t, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	h.SuggestVideos(rec, suggestRequest("иванов", "petrova", rbac.RoleSalesAdmin))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Query  string `json:"query"`
		Result struct {
			Videos []model.VideoView `json:"videos"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка парсинга ответа: %v", err)
	}

	if resp.Query != "иванов" {
		t.Errorf("ожидался query=иванов, получено %q", resp.Query)
	}
	if len(resp.Result.Videos) != 1 {
		t.Fatalf("ожидался один заказ, получено %d", len(resp.Result.Videos))
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("ожидался один запрос к backend, выполнено %d", got)
	}
}

// TestSuggestVideos_MaskedForRole — ответ подсказок проходит политику
// видимости: viewer получает псевдоним заказчика.
func TestSuggestVideos_MaskedForRole(t *testing.T) {
	h, _ := newSuggestHandler(t, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	h.SuggestVideos(rec, suggestRequest("иванов", "sidorov", rbac.RoleViewer))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", rec.Code)
	}

	var resp struct {
		Result struct {
			Videos []model.VideoView `json:"videos"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка парсинга ответа: %v", err)
	}
	if len(resp.Result.Videos) != 1 {
		t.Fatalf("ожидался один заказ, получено %d", len(resp.Result.Videos))
	}
	if resp.Result.Videos[0].Customer != "00000137" {
		t.Errorf("viewer должен видеть псевдоним 00000137, получено %q", resp.Result.Videos[0].Customer)
	}
}
