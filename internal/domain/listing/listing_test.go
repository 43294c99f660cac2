package listing

import "testing"

// TestToggle — повторный клик меняет направление, другая колонка сбрасывает его.
func TestToggle(t *testing.T) {
	s := NewSortState("createdAt")
	if s.Column != "createdAt" || s.Descending {
		t.Fatalf("ожидался createdAt по возрастанию, получено %+v", s)
	}

	// Клик по активной колонке — смена направления
	s = s.Toggle("createdAt")
	if !s.Descending {
		t.Error("ожидалось убывание после повторного клика")
	}

	// Ещё клик — обратно
	s = s.Toggle("createdAt")
	if s.Descending {
		t.Error("ожидалось возрастание после третьего клика")
	}

	// Клик по другой колонке в состоянии убывания — новая колонка,
	// направление сбрасывается на возрастание
	s = s.Toggle("createdAt")
	s = s.Toggle("title")
	if s.Column != "title" {
		t.Errorf("ожидалась колонка title, получена %q", s.Column)
	}
	if s.Descending {
		t.Error("направление должно сбрасываться при смене колонки")
	}
}

// TestQueryValue — формат параметра sort для backend.
func TestQueryValue(t *testing.T) {
	tests := []struct {
		state SortState
		want  string
	}{
		{SortState{Column: "createdAt"}, "createdAt"},
		{SortState{Column: "createdAt", Descending: true}, "-createdAt"},
		{SortState{}, ""},
	}

	for _, tt := range tests {
		if got := tt.state.QueryValue(); got != tt.want {
			t.Errorf("QueryValue(%+v) = %q, хотели %q", tt.state, got, tt.want)
		}
	}
}

// TestParseSort — разбор параметра sort.
func TestParseSort(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SortState
	}{
		{"пустая строка -> default", "", SortState{Column: "createdAt"}},
		{"по возрастанию", "title", SortState{Column: "title"}},
		{"по убыванию", "-title", SortState{Column: "title", Descending: true}},
		{"только дефис -> default", "-", SortState{Column: "createdAt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSort(tt.raw, "createdAt")
			if got != tt.want {
				t.Errorf("ParseSort(%q) = %+v, хотели %+v", tt.raw, got, tt.want)
			}
		})
	}
}

// TestParseSort_Roundtrip — ParseSort(QueryValue()) возвращает то же состояние.
func TestParseSort_Roundtrip(t *testing.T) {
	states := []SortState{
		{Column: "createdAt"},
		{Column: "title", Descending: true},
	}

	for _, s := range states {
		got := ParseSort(s.QueryValue(), "fallback")
		if got != s {
			t.Errorf("roundtrip %+v -> %+v", s, got)
		}
	}
}
