// Пакет visibility — политика видимости полей заказов по ролям.
//
// Маскирование применяется в сервисном слое до сериализации: ни один
// handler не может выдать чувствительное поле в обход политики.
// Правила: имя заказчика, стоимость, заметки, флаг проверки и дата оплаты
// видны только роли sales-admin и выше. Остальные роли вместо имени
// заказчика получают дополненный нулями числовой псевдоним, вместо
// стоимости — грубый статус processing/done.
package visibility

import (
	"fmt"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
)

// customerAliasWidth — ширина числового псевдонима заказчика.
const customerAliasWidth = 8

// Грубые статусы заказа для непривилегированных ролей.
const (
	ProgressProcessing = "processing"
	ProgressDone       = "done"
)

// CustomerAlias возвращает непрозрачный псевдоним заказчика:
// числовой ID, дополненный нулями до фиксированной ширины.
func CustomerAlias(customerID int64) string {
	return fmt.Sprintf("%0*d", customerAliasWidth, customerID)
}

// CoarseProgress сводит статус производства к паре processing/done.
func CoarseProgress(status string) string {
	switch status {
	case model.VideoStatusDone, model.VideoStatusCancelled:
		return ProgressDone
	default:
		return ProgressProcessing
	}
}

// MaskVideo строит проекцию заказа для указанной эффективной роли.
// Для sales-admin и выше — полные данные, для остальных — маскированные.
func MaskVideo(v *model.Video, effectiveRole string) model.VideoView {
	view := model.VideoView{
		ID:             v.ID,
		Title:          v.Title,
		Status:         v.Status,
		DeliveryStatus: v.DeliveryStatus,
		PaymentStatus:  v.PaymentStatus,
		AssignedTo:     v.AssignedTo,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}

	if !rbac.IsSalesAdmin(effectiveRole) {
		view.Customer = CustomerAlias(v.CustomerID)
		view.Progress = CoarseProgress(v.Status)
		return view
	}

	view.Customer = v.CustomerName
	orderValue := v.OrderValue
	view.OrderValue = &orderValue
	notes := v.CustomerNotes
	view.CustomerNotes = &notes
	checked := v.Checked
	view.Checked = &checked
	view.PaymentDate = v.PaymentDate
	return view
}

// MaskVideos строит проекции для среза заказов.
func MaskVideos(videos []*model.Video, effectiveRole string) []model.VideoView {
	views := make([]model.VideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, MaskVideo(v, effectiveRole))
	}
	return views
}

// Summarize считает агрегаты по уже отфильтрованной проекции.
// Фильтрация всегда предшествует агрегации: суммы и средние значения
// относятся к тому, что пользователь реально видит.
// Для непривилегированных ролей денежные агрегаты равны нулю —
// стоимость недоступна самим проекциям.
func Summarize(views []model.VideoView) model.VideoSummary {
	s := model.VideoSummary{Count: len(views)}

	var withValue int
	for i := range views {
		if views[i].Status == model.VideoStatusDone {
			s.DoneCount++
		}
		if views[i].OrderValue != nil {
			s.TotalValue += *views[i].OrderValue
			withValue++
		}
	}
	if withValue > 0 {
		s.AverageValue = s.TotalValue / float64(withValue)
	}
	return s
}
