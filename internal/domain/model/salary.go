package model

import "time"

// StaffSalary — зарплата сотрудника производства (снимок ответа backend).
// Экран зарплат сотрудников доступен всем аутентифицированным пользователям —
// это явное продуктовое решение, а не пробел в авторизации.
type StaffSalary struct {
	// StaffUsername — username сотрудника
	StaffUsername string `json:"staffUsername"`
	// StaffName — полное имя сотрудника
	StaffName string `json:"staffName"`
	// Date — дата начисления
	Date time.Time `json:"date"`
	// OrdersCompleted — количество завершённых заказов за период
	OrdersCompleted int `json:"ordersCompleted"`
	// BaseAmount — базовая ставка
	BaseAmount float64 `json:"baseAmount"`
	// BonusAmount — премия
	BonusAmount float64 `json:"bonusAmount"`
	// Total — итоговая сумма
	Total float64 `json:"total"`
}

// SalesSalary — комиссионная зарплата менеджера продаж (снимок ответа backend).
// Доступна только роли sales-admin.
type SalesSalary struct {
	// SalesUsername — username менеджера продаж
	SalesUsername string `json:"salesUsername"`
	// SalesName — полное имя менеджера
	SalesName string `json:"salesName"`
	// Date — дата начисления
	Date time.Time `json:"date"`
	// OrdersSold — количество проданных заказов
	OrdersSold int `json:"ordersSold"`
	// Revenue — выручка по заказам
	Revenue float64 `json:"revenue"`
	// CommissionRate — ставка комиссии (доля, например 0.05)
	CommissionRate float64 `json:"commissionRate"`
	// Commission — сумма комиссии
	Commission float64 `json:"commission"`
}

// SalaryFilter — фильтр периода для запросов зарплат.
//
// У фильтра два пути задания периода: явный диапазон From/To и «один день»
// (SingleDate), который принудительно выставляет From == To. Оба пути
// сохраняют наблюдаемое поведение исходной системы — считать один из них
// устаревшим без подтверждения нельзя.
type SalaryFilter struct {
	// From — начало периода (включительно)
	From time.Time
	// To — конец периода (включительно)
	To time.Time
}

// NewSalaryRange создаёт фильтр с явным диапазоном дат.
func NewSalaryRange(from, to time.Time) SalaryFilter {
	return SalaryFilter{From: from, To: to}
}

// NewSalarySingleDate создаёт фильтр одного дня: From == To.
func NewSalarySingleDate(date time.Time) SalaryFilter {
	return SalaryFilter{From: date, To: date}
}

// IsSingleDate — true, если фильтр покрывает ровно один день.
func (f SalaryFilter) IsSingleDate() bool {
	return f.From.Equal(f.To)
}
