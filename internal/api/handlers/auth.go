// auth.go — обработчик /api/v1/auth/me.
// Возвращает сведения о текущем пользователе из claims контекста:
// username, email, группы, роль IdP, дополнение и эффективную роль.
package handlers

import (
	"net/http"

	apierrors "github.com/arturkryukov/vidflow/admin-module/internal/api/errors"
	"github.com/arturkryukov/vidflow/admin-module/internal/api/middleware"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
)

// meResponse — ответ /api/v1/auth/me.
type meResponse struct {
	Subject       string   `json:"subject"`
	Username      string   `json:"username"`
	Email         string   `json:"email,omitempty"`
	Groups        []string `json:"groups,omitempty"`
	IdpRole       string   `json:"idpRole,omitempty"`
	RoleOverride  *string  `json:"roleOverride,omitempty"`
	EffectiveRole string   `json:"effectiveRole"`
	// SuperAdmin — это фиксированная учётная запись суперадминистратора
	SuperAdmin bool `json:"superAdmin"`
}

// Me — GET /api/v1/auth/me.
// Доступ: любой аутентифицированный пользователь.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Subject:       claims.Subject,
		Username:      claims.PreferredUsername,
		Email:         claims.Email,
		Groups:        claims.Groups,
		IdpRole:       claims.IdpRole,
		RoleOverride:  claims.RoleOverride,
		EffectiveRole: claims.EffectiveRole,
		SuperAdmin:    rbac.IsFixedSuperAdmin(claims.PreferredUsername),
	})
}
