// Пакет model — доменные модели Admin Module.
//
// Сущности заказов, зарплат и лимитов принадлежат Vidflow Core backend:
// здесь они представлены как неизменяемые снимки ответов REST API.
// Создание/удаление на стороне Admin Module — только запросы к backend,
// авторитетный жизненный цикл остаётся за ним.
package model

import "time"

// Статусы заказа видео (словарь backend).
const (
	VideoStatusNew        = "new"
	VideoStatusInProgress = "in_progress"
	VideoStatusReview     = "review"
	VideoStatusDone       = "done"
	VideoStatusCancelled  = "cancelled"
)

// Video — заказ на производство видео (снимок ответа backend).
type Video struct {
	// ID — идентификатор заказа
	ID int64 `json:"id"`
	// CustomerID — числовой идентификатор заказчика
	CustomerID int64 `json:"customerId"`
	// CustomerName — имя заказчика (чувствительное поле)
	CustomerName string `json:"customerName"`
	// CustomerNotes — заметки по заказчику (чувствительное поле)
	CustomerNotes string `json:"customerNotes"`
	// Title — название заказа
	Title string `json:"title"`
	// Status — статус производства (new, in_progress, review, done, cancelled)
	Status string `json:"status"`
	// DeliveryStatus — статус доставки заказчику
	DeliveryStatus string `json:"deliveryStatus"`
	// PaymentStatus — статус оплаты
	PaymentStatus string `json:"paymentStatus"`
	// OrderValue — стоимость заказа (чувствительное поле)
	OrderValue float64 `json:"orderValue"`
	// Checked — проверен ли заказ администратором (чувствительное поле)
	Checked bool `json:"checked"`
	// PaymentDate — дата оплаты (чувствительное поле)
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
	// AssignedTo — username сотрудника, взявшего заказ
	AssignedTo string `json:"assignedTo"`
	// CreatedAt — время создания заказа
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time `json:"updatedAt"`
}

// VideoView — проекция заказа для выдачи наружу.
// Формируется пакетом visibility: для непривилегированных ролей
// чувствительные поля отсутствуют, вместо имени заказчика — числовой псевдоним.
type VideoView struct {
	ID int64 `json:"id"`
	// Customer — имя заказчика (sales-admin) или дополненный нулями
	// числовой псевдоним (остальные роли)
	Customer string `json:"customer"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	// Progress — грубый статус processing/done (только для непривилегированных)
	Progress       string `json:"progress,omitempty"`
	DeliveryStatus string `json:"deliveryStatus"`
	PaymentStatus  string `json:"paymentStatus"`
	// Чувствительные поля: присутствуют только для sales-admin и выше
	OrderValue    *float64   `json:"orderValue,omitempty"`
	CustomerNotes *string    `json:"customerNotes,omitempty"`
	Checked       *bool      `json:"checked,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	AssignedTo    string     `json:"assignedTo"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// VideoSummary — агрегаты по отфильтрованной выборке заказов.
// Считается по уже отфильтрованной проекции, не по сырому ответу backend.
type VideoSummary struct {
	// Count — количество заказов в выборке
	Count int `json:"count"`
	// TotalValue — суммарная стоимость (0 для непривилегированных ролей)
	TotalValue float64 `json:"totalValue"`
	// AverageValue — средняя стоимость (0 для непривилегированных ролей)
	AverageValue float64 `json:"averageValue"`
	// DoneCount — количество завершённых заказов
	DoneCount int `json:"doneCount"`
}
