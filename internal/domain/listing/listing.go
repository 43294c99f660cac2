// Пакет listing — состояние сортировки списков.
// Инвариант: активна ровно одна колонка сортировки.
package listing

// SortState — активная колонка и направление сортировки.
type SortState struct {
	// Column — имя активной колонки
	Column string
	// Descending — направление (false = по возрастанию)
	Descending bool
}

// NewSortState создаёт состояние с колонкой по умолчанию.
func NewSortState(defaultColumn string) SortState {
	return SortState{Column: defaultColumn}
}

// Toggle обрабатывает клик по заголовку колонки: повторный клик по активной
// колонке меняет направление, клик по другой колонке делает её активной
// и сбрасывает направление на значение по умолчанию (по возрастанию).
func (s SortState) Toggle(column string) SortState {
	if s.Column == column {
		s.Descending = !s.Descending
		return s
	}
	return SortState{Column: column}
}

// QueryValue возвращает значение для параметра sort в запросе к backend
// (формат "column" или "-column" для убывания).
func (s SortState) QueryValue() string {
	if s.Column == "" {
		return ""
	}
	if s.Descending {
		return "-" + s.Column
	}
	return s.Column
}

// ParseSort разбирает параметр sort из запроса ("column" / "-column").
// Пустая строка и неизвестный формат дают колонку по умолчанию.
func ParseSort(raw, defaultColumn string) SortState {
	if raw == "" {
		return NewSortState(defaultColumn)
	}
	if raw[0] == '-' {
		if len(raw) == 1 {
			return NewSortState(defaultColumn)
		}
		return SortState{Column: raw[1:], Descending: true}
	}
	return SortState{Column: raw}
}
