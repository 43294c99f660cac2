// salaries.go — бизнес-логика экранов зарплат.
//
// Зарплаты считает Vidflow Core backend, Admin Module только запрашивает
// и проверяет период. Два пути фильтра (диапазон дат и один день)
// сохранены раздельными операциями — так их различает и UI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/vpclient"
)

// SalaryService — сервис зарплат сотрудников и комиссионных менеджеров.
type SalaryService struct {
	backend *vpclient.Client
	logger  *slog.Logger
}

// NewSalaryService создаёт сервис зарплат.
func NewSalaryService(backend *vpclient.Client, logger *slog.Logger) *SalaryService {
	return &SalaryService{
		backend: backend,
		logger:  logger.With(slog.String("component", "salary_service")),
	}
}

// SalaryPeriod парсит период из query-параметров.
// Если заданы from и to — диапазон; если только date — один день (from == to).
// Пустые параметры дают нулевой фильтр (backend вернёт текущий период).
func SalaryPeriod(from, to, date string) (model.SalaryFilter, error) {
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return model.SalaryFilter{}, fmt.Errorf("%w: некорректная дата %q", ErrValidation, date)
		}
		return model.NewSalarySingleDate(d), nil
	}

	var filter model.SalaryFilter
	if from != "" {
		f, err := time.Parse("2006-01-02", from)
		if err != nil {
			return model.SalaryFilter{}, fmt.Errorf("%w: некорректная дата from %q", ErrValidation, from)
		}
		filter.From = f
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return model.SalaryFilter{}, fmt.Errorf("%w: некорректная дата to %q", ErrValidation, to)
		}
		filter.To = t
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return model.SalaryFilter{}, fmt.Errorf("%w: дата to раньше даты from", ErrValidation)
	}

	return filter, nil
}

// StaffSalaryResult — страница зарплат сотрудников.
type StaffSalaryResult struct {
	Salaries   []*model.StaffSalary `json:"salaries"`
	Pagination *vpclient.Pagination `json:"pagination,omitempty"`
}

// ListStaff возвращает зарплаты сотрудников за период.
// Доступно любому аутентифицированному пользователю.
func (s *SalaryService) ListStaff(ctx context.Context, filter model.SalaryFilter, page, pageSize int) (*StaffSalaryResult, error) {
	salaries, pg, err := s.backend.ListStaffSalaries(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &StaffSalaryResult{Salaries: salaries, Pagination: pg}, nil
}

// SalesSalaryResult — страница комиссионных зарплат менеджеров.
type SalesSalaryResult struct {
	Salaries   []*model.SalesSalary `json:"salaries"`
	Pagination *vpclient.Pagination `json:"pagination,omitempty"`
}

// ListSales возвращает комиссионные зарплаты менеджеров за период.
// Доступ только для sales-admin и выше — проверяется на уровне маршрута.
func (s *SalaryService) ListSales(ctx context.Context, filter model.SalaryFilter, page, pageSize int) (*SalesSalaryResult, error) {
	salaries, pg, err := s.backend.ListSalesSalaries(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &SalesSalaryResult{Salaries: salaries, Pagination: pg}, nil
}
