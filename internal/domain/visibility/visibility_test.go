package visibility

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
)

// testVideo — заказ с заполненными чувствительными полями.
func testVideo() *model.Video {
	paid := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	return &model.Video{
		ID:             42,
		CustomerID:     137,
		CustomerName:   "ООО Ромашка",
		CustomerNotes:  "постоянный клиент",
		Title:          "Рекламный ролик",
		Status:         model.VideoStatusInProgress,
		DeliveryStatus: "pending",
		PaymentStatus:  "paid",
		OrderValue:     150000,
		Checked:        true,
		PaymentDate:    &paid,
		AssignedTo:     "ivanov",
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCustomerAlias(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{137, "00000137"},
		{1, "00000001"},
		{99999999, "99999999"},
		{123456789, "123456789"},
	}

	for _, tt := range tests {
		if got := CustomerAlias(tt.id); got != tt.want {
			t.Errorf("CustomerAlias(%d) = %q, хотели %q", tt.id, got, tt.want)
		}
	}
}

func TestCoarseProgress(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{model.VideoStatusNew, ProgressProcessing},
		{model.VideoStatusInProgress, ProgressProcessing},
		{model.VideoStatusReview, ProgressProcessing},
		{model.VideoStatusDone, ProgressDone},
		{model.VideoStatusCancelled, ProgressDone},
		{"unknown", ProgressProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := CoarseProgress(tt.status); got != tt.want {
				t.Errorf("CoarseProgress(%q) = %q, хотели %q", tt.status, got, tt.want)
			}
		})
	}
}

// TestMaskVideo_Viewer — для viewer чувствительные поля скрыты.
func TestMaskVideo_Viewer(t *testing.T) {
	view := MaskVideo(testVideo(), rbac.RoleViewer)

	if view.Customer != "00000137" {
		t.Errorf("ожидался псевдоним 00000137, получен %q", view.Customer)
	}
	if view.Progress != ProgressProcessing {
		t.Errorf("ожидался progress=processing, получен %q", view.Progress)
	}
	if view.OrderValue != nil {
		t.Error("OrderValue должен отсутствовать для viewer")
	}
	if view.CustomerNotes != nil {
		t.Error("CustomerNotes должны отсутствовать для viewer")
	}
	if view.Checked != nil {
		t.Error("Checked должен отсутствовать для viewer")
	}
	if view.PaymentDate != nil {
		t.Error("PaymentDate должна отсутствовать для viewer")
	}

	// Нечувствительные поля сохраняются
	if view.Title != "Рекламный ролик" {
		t.Errorf("ожидался title без изменений, получен %q", view.Title)
	}
	if view.AssignedTo != "ivanov" {
		t.Errorf("ожидался assignedTo=ivanov, получен %q", view.AssignedTo)
	}
}

// TestMaskVideo_SalesAdmin — sales-admin видит полные данные.
func TestMaskVideo_SalesAdmin(t *testing.T) {
	view := MaskVideo(testVideo(), rbac.RoleSalesAdmin)

	if view.Customer != "ООО Ромашка" {
		t.Errorf("ожидалось имя заказчика, получено %q", view.Customer)
	}
	if view.Progress != "" {
		t.Errorf("progress не должен заполняться для sales-admin, получен %q", view.Progress)
	}
	if view.OrderValue == nil || *view.OrderValue != 150000 {
		t.Error("ожидался OrderValue=150000")
	}
	if view.CustomerNotes == nil || *view.CustomerNotes != "постоянный клиент" {
		t.Error("ожидались CustomerNotes")
	}
	if view.Checked == nil || !*view.Checked {
		t.Error("ожидался Checked=true")
	}
	if view.PaymentDate == nil {
		t.Error("ожидалась PaymentDate")
	}
}

// TestMaskVideo_RealmAdmin — realm-admin видит то же, что sales-admin.
func TestMaskVideo_RealmAdmin(t *testing.T) {
	view := MaskVideo(testVideo(), rbac.RoleRealmAdmin)

	if view.Customer != "ООО Ромашка" {
		t.Errorf("ожидалось имя заказчика, получено %q", view.Customer)
	}
	if view.OrderValue == nil {
		t.Error("ожидался OrderValue")
	}
}

// TestMaskVideo_JSONOmitsSensitive — чувствительные поля не попадают в JSON.
// Маскирование должно работать на уровне сериализации, а не значений.
func TestMaskVideo_JSONOmitsSensitive(t *testing.T) {
	view := MaskVideo(testVideo(), rbac.RoleViewer)

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	for _, forbidden := range []string{"orderValue", "customerNotes", "checked", "paymentDate", "Ромашка"} {
		if strings.Contains(body, forbidden) {
			t.Errorf("JSON не должен содержать %q: %s", forbidden, body)
		}
	}
}

// TestSummarize — агрегаты считаются по проекции.
func TestSummarize(t *testing.T) {
	v1 := testVideo()
	v2 := testVideo()
	v2.ID = 43
	v2.Status = model.VideoStatusDone
	v2.OrderValue = 50000

	// Привилегированная проекция: деньги видны
	views := MaskVideos([]*model.Video{v1, v2}, rbac.RoleSalesAdmin)
	s := Summarize(views)

	if s.Count != 2 {
		t.Errorf("ожидался count=2, получен %d", s.Count)
	}
	if s.DoneCount != 1 {
		t.Errorf("ожидался doneCount=1, получен %d", s.DoneCount)
	}
	if s.TotalValue != 200000 {
		t.Errorf("ожидался totalValue=200000, получен %v", s.TotalValue)
	}
	if s.AverageValue != 100000 {
		t.Errorf("ожидался averageValue=100000, получен %v", s.AverageValue)
	}
}

// TestSummarize_MaskedProjection — для непривилегированной проекции
// денежные агрегаты равны нулю: стоимости нет в самих проекциях.
func TestSummarize_MaskedProjection(t *testing.T) {
	v1 := testVideo()
	v2 := testVideo()
	v2.ID = 43
	v2.Status = model.VideoStatusDone

	views := MaskVideos([]*model.Video{v1, v2}, rbac.RoleViewer)
	s := Summarize(views)

	if s.Count != 2 {
		t.Errorf("ожидался count=2, получен %d", s.Count)
	}
	if s.DoneCount != 1 {
		t.Errorf("ожидался doneCount=1, получен %d", s.DoneCount)
	}
	if s.TotalValue != 0 {
		t.Errorf("ожидался totalValue=0, получен %v", s.TotalValue)
	}
	if s.AverageValue != 0 {
		t.Errorf("ожидался averageValue=0, получен %v", s.AverageValue)
	}
}

// TestSummarize_Empty — пустая выборка.
func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.TotalValue != 0 || s.AverageValue != 0 || s.DoneCount != 0 {
		t.Errorf("ожидались нулевые агрегаты, получено %+v", s)
	}
}
