// Пакет rbac — логика определения эффективной роли пользователя.
// Реализует двухуровневую авторизацию: роли из IdP + локальные дополнения.
// Правила: итоговая роль = max(роль из IdP, локальное дополнение).
// Роль можно только повысить, не понизить.
package rbac

// Роли в порядке возрастания привилегий.
const (
	// RoleViewer — обычный сотрудник: видит заказы в замаскированном виде,
	// зарплаты сотрудников и собственные лимиты.
	RoleViewer = "viewer"
	// RoleSalesAdmin — администратор ресурса продаж/комиссий: видит
	// чувствительные поля заказов, комиссионные зарплаты и лимиты сотрудников.
	RoleSalesAdmin = "sales-admin"
	// RoleRealmAdmin — администратор realm: всё, что sales-admin,
	// плюс управление учётными записями пользователей.
	RoleRealmAdmin = "realm-admin"
)

// SuperAdminUsername — фиксированное имя суперадминистратора.
// Унаследовано от исходной системы: проверка по username, а не по role claim.
// TODO: перенести в явный role claim в Keycloak и убрать константу.
const SuperAdminUsername = "admin"

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleViewer:     1,
	RoleSalesAdmin: 2,
	RoleRealmAdmin: 3,
}

// EffectiveRole вычисляет итоговую роль = max(idpRole, roleOverride).
// Если roleOverride == nil, возвращает idpRole.
// Роль можно только повысить, не понизить.
func EffectiveRole(idpRole string, roleOverride *string) string {
	if roleOverride == nil {
		return idpRole
	}
	return maxRole(idpRole, *roleOverride)
}

// maxRole возвращает роль с максимальными привилегиями из двух.
func maxRole(a, b string) string {
	wa := roleWeight[a]
	wb := roleWeight[b]
	if wa >= wb {
		return a
	}
	return b
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	if len(roles) == 0 {
		return ""
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		highest = maxRole(highest, r)
	}
	return highest
}

// MapGroupsToRole определяет роль пользователя на основе его групп IdP.
// Проверяет принадлежность к realmAdminGroups, salesAdminGroups и viewerGroups.
// Возвращает максимальную роль из всех совпадений.
// Если ни одна группа не совпала — возвращает пустую строку.
func MapGroupsToRole(groups []string, realmAdminGroups, salesAdminGroups, viewerGroups []string) string {
	realmAdminSet := toSet(realmAdminGroups)
	salesAdminSet := toSet(salesAdminGroups)
	viewerSet := toSet(viewerGroups)

	var roles []string
	for _, g := range groups {
		if realmAdminSet[g] {
			roles = append(roles, RoleRealmAdmin)
		}
		if salesAdminSet[g] {
			roles = append(roles, RoleSalesAdmin)
		}
		if viewerSet[g] {
			roles = append(roles, RoleViewer)
		}
	}

	return HighestRole(roles)
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// --- Предикаты ---
//
// Предикаты — чистые функции от текущих claims. Пересчитываются на каждый
// запрос, не кэшируются: устаревшее значение предиката — ошибка корректности.
// Для пустых аргументов все предикаты возвращают false.

// IsFixedSuperAdmin — true только для фиксированного имени суперадминистратора.
// Сохраняет поведение исходной системы (см. SuperAdminUsername).
func IsFixedSuperAdmin(username string) bool {
	return username == SuperAdminUsername
}

// IsRealmAdmin — true, если эффективная роль — realm-admin.
func IsRealmAdmin(effectiveRole string) bool {
	return effectiveRole == RoleRealmAdmin
}

// IsSalesAdmin — true, если эффективная роль даёт права администратора
// ресурса продаж (sales-admin или выше).
func IsSalesAdmin(effectiveRole string) bool {
	return roleWeight[effectiveRole] >= roleWeight[RoleSalesAdmin]
}

// toSet конвертирует срез строк в map для быстрого поиска.
func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
