// Пакет pages — HTML-страницы Admin UI.
// Страницы собраны как templ-компоненты вручную (templ.ComponentFunc):
// UI минимален, основная работа идёт через REST API.
package pages

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// pageShell оборачивает содержимое в общий каркас страницы.
func pageShell(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s — Vidflow Admin</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f4f5f7;color:#1e2530}
.card{max-width:560px;margin:12vh auto;background:#fff;border-radius:8px;
box-shadow:0 1px 4px rgba(0,0,0,.12);padding:2rem}
h1{font-size:1.3rem;margin-top:0}
a.button{display:inline-block;margin-top:1rem;padding:.5rem 1.2rem;background:#2456c4;
color:#fff;border-radius:4px;text-decoration:none}
.muted{color:#6b7280;font-size:.9rem}
</style>
</head>
<body>
<div class="card">
%s
</div>
</body>
</html>`, html.EscapeString(title), body)
		return err
	})
}

// LoginData — данные страницы входа.
type LoginData struct {
	// StartURL — адрес начала OIDC-потока (redirect на Keycloak).
	StartURL string
}

// Login — страница входа. Сама аутентификация выполняется Keycloak,
// страница лишь запускает OIDC-поток.
func Login(data LoginData) templ.Component {
	body := fmt.Sprintf(`<h1>Vidflow Admin Module</h1>
<p class="muted">Для доступа к панели управления выполните вход через Keycloak.</p>
<a class="button" href="%s">Войти</a>`,
		html.EscapeString(data.StartURL))
	return pageShell("Вход", body)
}

// DashboardData — данные страницы Dashboard.
type DashboardData struct {
	// Username — имя текущего пользователя.
	Username string
	// Role — эффективная роль пользователя.
	Role string
	// SearchDebounceMS — окно debounce живого поиска заказов, мс.
	SearchDebounceMS int64
	// LimitLookupDebounceMS — окно debounce поиска по лимитам, мс.
	LimitLookupDebounceMS int64
}

// Dashboard — стартовая страница Admin UI после входа.
// Интервалы debounce отдаются браузеру через data-атрибуты.
func Dashboard(data DashboardData) templ.Component {
	body := fmt.Sprintf(`<main id="app" data-search-debounce-ms="%d" data-limit-debounce-ms="%d">
<h1>Vidflow Admin Module</h1>
<p>Вы вошли как <strong>%s</strong> (роль: %s).</p>
<p class="muted">Заказы, зарплаты, лимиты и пользователи доступны через REST API модуля.</p>
<form method="post" action="/admin/logout"><button class="button" type="submit">Выйти</button></form>
</main>`,
		data.SearchDebounceMS, data.LimitLookupDebounceMS,
		html.EscapeString(data.Username), html.EscapeString(data.Role))
	return pageShell("Dashboard", body)
}

// AccessDeniedData — данные панели отказа в доступе.
type AccessDeniedData struct {
	// Username — имя текущего пользователя.
	Username string
	// Role — эффективная роль пользователя.
	Role string
	// RequiredRoles — роли, дающие доступ к ресурсу.
	RequiredRoles []string
}

// AccessDenied — панель отказа в доступе.
// Показывает, какие роли дают доступ и под кем выполнен вход: пользователь
// видит причину отказа, а не пустой экран.
func AccessDenied(data AccessDeniedData) templ.Component {
	roles := make([]string, 0, len(data.RequiredRoles))
	for _, r := range data.RequiredRoles {
		roles = append(roles, html.EscapeString(r))
	}

	body := fmt.Sprintf(`<h1>Доступ запрещён</h1>
<p>Для просмотра этого раздела требуется роль: <strong>%s</strong>.</p>
<p class="muted">Вы вошли как %s (роль: %s).</p>
<a class="button" href="/admin/">На главную</a>`,
		strings.Join(roles, " или "),
		html.EscapeString(data.Username), html.EscapeString(data.Role))
	return pageShell("Доступ запрещён", body)
}

// NotFound — страница 404.
func NotFound() templ.Component {
	body := `<h1>Страница не найдена</h1>
<p class="muted">Запрошенный адрес не существует или был перемещён.</p>
<a class="button" href="/admin/">На главную</a>`
	return pageShell("Не найдено", body)
}
