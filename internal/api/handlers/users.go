// users.go — обработчики /api/v1/users endpoints.
// Управление учётными записями: CRUD, сброс пароля, role overrides.
// Доступ: realm-admin (проверяется на уровне маршрута).
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/arturkryukov/vidflow/admin-module/internal/api/errors"
	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/service"
)

// adminUserResponse — представление пользователя в ответах API.
type adminUserResponse struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email,omitempty"`
	FirstName     string   `json:"firstName,omitempty"`
	LastName      string   `json:"lastName,omitempty"`
	Enabled       bool     `json:"enabled"`
	Groups        []string `json:"groups,omitempty"`
	IdpRole       string   `json:"idpRole,omitempty"`
	RoleOverride  *string  `json:"roleOverride,omitempty"`
	EffectiveRole string   `json:"effectiveRole"`
	CreatedAt     string   `json:"createdAt,omitempty"`
}

// mapAdminUser конвертирует модель в представление API.
func mapAdminUser(u *model.AdminUser) adminUserResponse {
	resp := adminUserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Enabled:       u.Enabled,
		Groups:        u.Groups,
		IdpRole:       u.IdpRole,
		RoleOverride:  u.RoleOverride,
		EffectiveRole: u.EffectiveRole,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// userListResponse — страница пользователей.
type userListResponse struct {
	Items   []adminUserResponse `json:"items"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	HasMore bool                `json:"hasMore"`
}

// ListUsers — GET /api/v1/users.
// Параметры: search (строка поиска Keycloak), limit, offset.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationDefaults(r)

	users, err := h.users.List(r.Context(), r.URL.Query().Get("search"), offset, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	total, err := h.users.Count(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]adminUserResponse, len(users))
	for i, u := range users {
		items[i] = mapAdminUser(u)
	}

	writeJSON(w, http.StatusOK, userListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// userID извлекает и валидирует UUID пользователя из path parameter.
func userID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// GetUser — GET /api/v1/users/{id}.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор пользователя")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAdminUser(user))
}

// CreateUser — POST /api/v1/users.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	user, err := h.users.Create(r.Context(), actor, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapAdminUser(user))
}

// UpdateUser — PUT /api/v1/users/{id}.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	id, err := userID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор пользователя")
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	user, err := h.users.Update(r.Context(), actor, id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAdminUser(user))
}

// DeleteUser — DELETE /api/v1/users/{id}.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор пользователя")
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	if err := h.users.Delete(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resetPasswordRequest — тело PUT /api/v1/users/{id}/reset-password.
type resetPasswordRequest struct {
	Password  string `json:"password"`
	Temporary bool   `json:"temporary"`
}

// ResetUserPassword — PUT /api/v1/users/{id}/reset-password.
func (h *APIHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	id, err := userID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор пользователя")
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	if err := h.users.ResetPassword(r.Context(), actor, id, req.Password, req.Temporary); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// roleOverrideRequest — тело PUT /api/v1/users/{id}/role-override.
// role == null удаляет override.
type roleOverrideRequest struct {
	Role *string `json:"role"`
}

// UpdateRoleOverride — PUT /api/v1/users/{id}/role-override.
// Устанавливает или удаляет (role: null) локальное дополнение роли.
func (h *APIHandler) UpdateRoleOverride(w http.ResponseWriter, r *http.Request) {
	var req roleOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	id, err := userID(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный идентификатор пользователя")
		return
	}

	actor := middleware.UsernameFromContext(r.Context())

	var user *model.AdminUser
	if req.Role == nil {
		user, err = h.users.DropRoleOverride(r.Context(), actor, id)
	} else {
		user, err = h.users.SetRoleOverride(r.Context(), actor, id, *req.Role)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapAdminUser(user))
}
