package rbac

import (
	"testing"
)

func TestEffectiveRole(t *testing.T) {
	tests := []struct {
		name         string
		idpRole      string
		roleOverride *string
		want         string
	}{
		{
			name:    "realm-admin из IdP, без override",
			idpRole: RoleRealmAdmin,
			want:    RoleRealmAdmin,
		},
		{
			name:    "viewer из IdP, без override",
			idpRole: RoleViewer,
			want:    RoleViewer,
		},
		{
			name:         "viewer из IdP, override до sales-admin — повышение",
			idpRole:      RoleViewer,
			roleOverride: strPtr(RoleSalesAdmin),
			want:         RoleSalesAdmin,
		},
		{
			name:         "viewer из IdP, override до realm-admin — повышение",
			idpRole:      RoleViewer,
			roleOverride: strPtr(RoleRealmAdmin),
			want:         RoleRealmAdmin,
		},
		{
			name:         "realm-admin из IdP, override до viewer — игнорируется (нельзя понизить)",
			idpRole:      RoleRealmAdmin,
			roleOverride: strPtr(RoleViewer),
			want:         RoleRealmAdmin,
		},
		{
			name:         "sales-admin из IdP, override sales-admin — без изменений",
			idpRole:      RoleSalesAdmin,
			roleOverride: strPtr(RoleSalesAdmin),
			want:         RoleSalesAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveRole(tt.idpRole, tt.roleOverride)
			if got != tt.want {
				t.Errorf("EffectiveRole(%q, %v) = %q, хотели %q",
					tt.idpRole, fmtPtr(tt.roleOverride), got, tt.want)
			}
		})
	}
}

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "пустой набор", roles: nil, want: ""},
		{name: "один realm-admin", roles: []string{RoleRealmAdmin}, want: RoleRealmAdmin},
		{name: "один viewer", roles: []string{RoleViewer}, want: RoleViewer},
		{name: "viewer + sales-admin", roles: []string{RoleViewer, RoleSalesAdmin}, want: RoleSalesAdmin},
		{name: "все три", roles: []string{RoleViewer, RoleRealmAdmin, RoleSalesAdmin}, want: RoleRealmAdmin},
		{name: "все viewer", roles: []string{RoleViewer, RoleViewer}, want: RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HighestRole(tt.roles)
			if got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestMapGroupsToRole(t *testing.T) {
	realmAdminGroups := []string{"vidflow-admins"}
	salesAdminGroups := []string{"vidflow-sales-admins"}
	viewerGroups := []string{"vidflow-staff"}

	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{
			name:   "группа admins -> realm-admin",
			groups: []string{"vidflow-admins"},
			want:   RoleRealmAdmin,
		},
		{
			name:   "группа sales-admins -> sales-admin",
			groups: []string{"vidflow-sales-admins"},
			want:   RoleSalesAdmin,
		},
		{
			name:   "группа staff -> viewer",
			groups: []string{"vidflow-staff"},
			want:   RoleViewer,
		},
		{
			name:   "staff + sales-admins -> sales-admin (max)",
			groups: []string{"vidflow-staff", "vidflow-sales-admins"},
			want:   RoleSalesAdmin,
		},
		{
			name:   "все группы -> realm-admin (max)",
			groups: []string{"vidflow-staff", "vidflow-sales-admins", "vidflow-admins"},
			want:   RoleRealmAdmin,
		},
		{
			name:   "нет совпадений -> пустая строка",
			groups: []string{"other-group"},
			want:   "",
		},
		{
			name:   "пустой список групп -> пустая строка",
			groups: nil,
			want:   "",
		},
		{
			name:   "несколько групп, одна совпадает",
			groups: []string{"some-group", "vidflow-staff", "another-group"},
			want:   RoleViewer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapGroupsToRole(tt.groups, realmAdminGroups, salesAdminGroups, viewerGroups)
			if got != tt.want {
				t.Errorf("MapGroupsToRole(%v, ...) = %q, хотели %q", tt.groups, got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleRealmAdmin, true},
		{RoleSalesAdmin, true},
		{RoleViewer, true},
		{"invalid", false},
		{"", false},
		{"superadmin", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got := IsValidRole(tt.role)
			if got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	// IsFixedSuperAdmin — только фиксированное имя
	if !IsFixedSuperAdmin(SuperAdminUsername) {
		t.Error("ожидался IsFixedSuperAdmin(admin) = true")
	}
	if IsFixedSuperAdmin("administrator") {
		t.Error("ожидался IsFixedSuperAdmin(administrator) = false")
	}
	if IsFixedSuperAdmin("") {
		t.Error("ожидался IsFixedSuperAdmin(\"\") = false")
	}

	// IsRealmAdmin — строгое совпадение
	if !IsRealmAdmin(RoleRealmAdmin) {
		t.Error("ожидался IsRealmAdmin(realm-admin) = true")
	}
	if IsRealmAdmin(RoleSalesAdmin) {
		t.Error("ожидался IsRealmAdmin(sales-admin) = false")
	}

	// IsSalesAdmin — sales-admin или выше
	if !IsSalesAdmin(RoleSalesAdmin) {
		t.Error("ожидался IsSalesAdmin(sales-admin) = true")
	}
	if !IsSalesAdmin(RoleRealmAdmin) {
		t.Error("ожидался IsSalesAdmin(realm-admin) = true")
	}
	if IsSalesAdmin(RoleViewer) {
		t.Error("ожидался IsSalesAdmin(viewer) = false")
	}
	if IsSalesAdmin("") {
		t.Error("ожидался IsSalesAdmin(\"\") = false")
	}
}

// strPtr — вспомогательная функция для создания указателя на строку.
func strPtr(s string) *string {
	return &s
}

// fmtPtr — форматирование указателя для вывода в тестах.
func fmtPtr(p *string) string {
	if p == nil {
		return "nil"
	}
	return `"` + *p + `"`
}
