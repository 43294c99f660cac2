package service

import (
	"testing"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// newSearchHub собирает реестр координаторов поверх httptest-backend.
func newSearchHub(t *testing.T, b *searchBackend, delay time.Duration) *SearchHub {
	t.Helper()
	videos := NewVideoService(newWatchBackend(t, b.srv), &fakeAuditRepo{}, testLogger())
	return NewSearchHub(videos, vpclient.VideoListParams{PageSize: 50}, delay, testLogger())
}

// TestSearchHub_ReusesCoordinator — повторные обращения одного пользователя
// получают тот же координатор: серия запросов проходит общее окно debounce.
func TestSearchHub_ReusesCoordinator(t *testing.T) {
	b := newSearchBackend(t)
	hub := newSearchHub(t, b, 20*time.Millisecond)
	defer hub.Stop()

	first := hub.Coordinator("ivanov", rbac.RoleSalesAdmin)
	second := hub.Coordinator("ivanov", rbac.RoleSalesAdmin)
	if first != second {
		t.Error("один пользователь должен получать один координатор")
	}

	other := hub.Coordinator("petrov", rbac.RoleSalesAdmin)
	if other == first {
		t.Error("разные пользователи не должны делить координатор")
	}
}

// TestSearchHub_RoleInKey — смена эффективной роли даёт новый координатор:
// маска видимости привязана к роли на момент создания.
func TestSearchHub_RoleInKey(t *testing.T) {
	b := newSearchBackend(t)
	hub := newSearchHub(t, b, 20*time.Millisecond)
	defer hub.Stop()

	asViewer := hub.Coordinator("ivanov", rbac.RoleViewer)
	asAdmin := hub.Coordinator("ivanov", rbac.RoleRealmAdmin)
	if asViewer == asAdmin {
		t.Error("координатор viewer не должен обслуживать realm-admin")
	}
}

// TestSearchHub_DebouncedFlow — ввод через координатор из реестра проходит
// debounce: серия быстрых вводов даёт один запрос с последним значением.
func TestSearchHub_DebouncedFlow(t *testing.T) {
	b := newSearchBackend(t)
	hub := newSearchHub(t, b, 40*time.Millisecond)
	defer hub.Stop()

	c := hub.Coordinator("ivanov", rbac.RoleSalesAdmin)
	for _, input := range []string{"ро", "ром", "ромашка"} {
		c.Input(input)
		time.Sleep(5 * time.Millisecond)
	}

	res := receiveResult(t, c)
	if res.Err != nil {
		t.Fatalf("неожиданная ошибка: %v", res.Err)
	}
	if res.Query != "ромашка" {
		t.Errorf("ожидался результат последнего ввода, получено %q", res.Query)
	}
	if got := b.hits.Load(); got != 1 {
		t.Errorf("ожидался ровно один запрос к backend, выполнено %d", got)
	}
}

// TestSearchHub_Stop — после Stop реестр не выдаёт координаторы.
func TestSearchHub_Stop(t *testing.T) {
	b := newSearchBackend(t)
	hub := newSearchHub(t, b, 20*time.Millisecond)

	c := hub.Coordinator("ivanov", rbac.RoleSalesAdmin)
	if c == nil {
		t.Fatal("до Stop координатор должен выдаваться")
	}

	hub.Stop()

	if got := hub.Coordinator("ivanov", rbac.RoleSalesAdmin); got != nil {
		t.Error("после Stop координатор выдаваться не должен")
	}
}
