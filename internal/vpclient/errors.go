// errors.go — классификация ошибок Vidflow Core backend.
//
// Каждому классу ошибки соответствует отдельное пользовательское сообщение,
// чтобы вызывающая сторона могла отличить повторяемую ошибку от фатальной.
// Приоритет выбора сообщения: сообщение backend → типовое сообщение по
// HTTP-статусу → сообщение о сетевой ошибке → общий fallback.
package vpclient

import (
	"errors"
	"fmt"
)

// Kind — класс ошибки backend.
type Kind int

const (
	// KindUnknown — неклассифицированная ошибка.
	KindUnknown Kind = iota
	// KindAuth — 401, требуется повторная аутентификация.
	KindAuth
	// KindForbidden — 403, недостаточно прав.
	KindForbidden
	// KindNotFound — 404, ресурс не существует.
	KindNotFound
	// KindConflict — 409, конфликт или дубликат.
	KindConflict
	// KindValidation — 400/422, некорректный запрос.
	KindValidation
	// KindServer — 5xx, временная ошибка сервера.
	KindServer
	// KindNetwork — транспортная ошибка (таймаут, обрыв соединения).
	KindNetwork
	// KindRejected — backend вернул 200, но success=false.
	KindRejected
)

// Типовые пользовательские сообщения по классам ошибок.
var kindMessages = map[Kind]string{
	KindAuth:       "Требуется повторная аутентификация",
	KindForbidden:  "Недостаточно прав для выполнения операции",
	KindNotFound:   "Запрошенный ресурс не существует",
	KindConflict:   "Конфликт — такой ресурс уже существует",
	KindValidation: "Некорректные данные запроса",
	KindServer:     "Сервер временно недоступен, повторите попытку позже",
	KindNetwork:    "Ошибка соединения — проверьте сетевое подключение",
}

// genericMessage — общий fallback, когда причина не определена.
const genericMessage = "Не удалось выполнить запрос"

// APIError — ошибка запроса к Vidflow Core backend.
type APIError struct {
	// Status — HTTP-статус ответа (0 для транспортных ошибок).
	Status int
	// Kind — класс ошибки.
	Kind Kind
	// Message — сообщение из тела ответа backend (может быть пустым).
	Message string
	// Err — исходная транспортная ошибка (для KindNetwork).
	Err error
}

// Error реализует error.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (статус %d)", e.Message, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("backend: %v", e.Err)
	}
	return fmt.Sprintf("backend: статус %d", e.Status)
}

// Unwrap возвращает исходную ошибку.
func (e *APIError) Unwrap() error { return e.Err }

// UserMessage возвращает сообщение для показа пользователю.
// Сообщение backend всегда имеет приоритет над типовыми.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return genericMessage
}

// Retryable — true для ошибок, при которых повтор запроса имеет смысл.
func (e *APIError) Retryable() bool {
	return e.Kind == KindServer || e.Kind == KindNetwork
}

// kindForStatus классифицирует HTTP-статус ответа backend.
func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindAuth
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status == 400 || status == 422:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// MessageFor извлекает пользовательское сообщение из произвольной ошибки.
// Для *APIError применяется приоритет UserMessage, для остальных — общий fallback.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return genericMessage
}

// IsKind — true, если err является *APIError указанного класса.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
