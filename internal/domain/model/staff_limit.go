package model

import "time"

// StaffLimit — лимит заказов сотрудника (снимок ответа backend).
type StaffLimit struct {
	// StaffUsername — username сотрудника
	StaffUsername string `json:"staffUsername"`
	// StaffName — полное имя сотрудника
	StaffName string `json:"staffName"`
	// MaxOrders — максимальное количество одновременных заказов
	MaxOrders int `json:"maxOrders"`
	// CurrentOrders — текущее количество заказов в работе
	CurrentOrders int `json:"currentOrders"`
	// Limited — достигнут ли лимит
	Limited bool `json:"limited"`
	// UpdatedAt — время последнего изменения лимита
	UpdatedAt time.Time `json:"updatedAt"`
}

// LimitSnapshot — снимок списка ограниченных сотрудников.
// Пишется фоновым watcher'ом в таблицу limit_snapshots при каждом
// успешном обновлении.
type LimitSnapshot struct {
	// ID — UUID записи
	ID string
	// TakenAt — время снятия снимка
	TakenAt time.Time
	// LimitedCount — количество сотрудников, достигших лимита
	LimitedCount int
	// TotalCount — общее количество сотрудников с лимитами
	TotalCount int
	// Staff — сериализованный список лимитов (JSONB)
	Staff []StaffLimit
}
