// users.go — бизнес-логика управления учётными записями.
//
// AdminUserService объединяет два источника:
//   - Keycloak Admin REST API — авторитетные учётные записи и группы
//   - таблица role_overrides — локальные дополнения ролей (только повышение)
//
// Все мутации пишутся в журнал аудита. Учётная запись фиксированного
// суперадминистратора не подлежит изменению и удалению.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/vidflow/admin-module/internal/domain/model"
	"github.com/arturkryukov/vidflow/admin-module/internal/domain/rbac"
	"github.com/arturkryukov/vidflow/admin-module/internal/keycloak"
	"github.com/arturkryukov/vidflow/admin-module/internal/repository"
)

// RoleGroups — соответствие групп IdP ролям (из конфигурации).
type RoleGroups struct {
	RealmAdmin []string
	SalesAdmin []string
	Viewer     []string
}

// AdminUserService — сервис управления пользователями.
type AdminUserService struct {
	kc         *keycloak.Client
	roleRepo   repository.RoleOverrideRepository
	auditRepo  repository.AuditRepository
	roleGroups RoleGroups
	logger     *slog.Logger
}

// idpError классифицирует ошибку Keycloak Admin API: 404 означает
// «такого пользователя нет» (ErrNotFound), всё остальное — недоступность
// Identity Provider.
func idpError(err error) error {
	if errors.Is(err, keycloak.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrIDPUnavailable, err)
}

// NewAdminUserService создаёт сервис пользователей.
func NewAdminUserService(
	kc *keycloak.Client,
	roleRepo repository.RoleOverrideRepository,
	auditRepo repository.AuditRepository,
	roleGroups RoleGroups,
	logger *slog.Logger,
) *AdminUserService {
	return &AdminUserService{
		kc:         kc,
		roleRepo:   roleRepo,
		auditRepo:  auditRepo,
		roleGroups: roleGroups,
		logger:     logger.With(slog.String("component", "user_service")),
	}
}

// List возвращает пользователей realm с локальными дополнениями ролей.
// query — поисковая строка Keycloak (username, email, имя, фамилия).
func (s *AdminUserService) List(ctx context.Context, query string, first, max int) ([]*model.AdminUser, error) {
	kcUsers, err := s.kc.ListUsers(ctx, query, first, max)
	if err != nil {
		return nil, idpError(err)
	}

	users := make([]*model.AdminUser, 0, len(kcUsers))
	for i := range kcUsers {
		user, err := s.enrich(ctx, &kcUsers[i])
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Count возвращает количество пользователей realm.
func (s *AdminUserService) Count(ctx context.Context) (int, error) {
	count, err := s.kc.CountUsers(ctx)
	if err != nil {
		return 0, idpError(err)
	}
	return count, nil
}

// Get возвращает пользователя по Keycloak ID с дополнением роли.
func (s *AdminUserService) Get(ctx context.Context, id string) (*model.AdminUser, error) {
	kcUser, err := s.kc.GetUser(ctx, id)
	if err != nil {
		return nil, idpError(err)
	}
	return s.enrich(ctx, kcUser)
}

// enrich формирует AdminUser: группы IdP → роль, role override → эффективная роль.
func (s *AdminUserService) enrich(ctx context.Context, kcUser *keycloak.KeycloakUser) (*model.AdminUser, error) {
	groups, err := s.kc.GetUserGroups(ctx, kcUser.ID)
	if err != nil {
		return nil, idpError(err)
	}

	groupNames := make([]string, 0, len(groups))
	for _, g := range groups {
		groupNames = append(groupNames, g.Name)
	}

	idpRole := rbac.MapGroupsToRole(groupNames,
		s.roleGroups.RealmAdmin, s.roleGroups.SalesAdmin, s.roleGroups.Viewer)

	user := &model.AdminUser{
		ID:        kcUser.ID,
		Username:  kcUser.Username,
		Email:     kcUser.Email,
		FirstName: kcUser.FirstName,
		LastName:  kcUser.LastName,
		Enabled:   kcUser.Enabled,
		Groups:    groupNames,
		IdpRole:   idpRole,
		CreatedAt: kcUser.CreatedAtTime(),
	}

	// Локальное дополнение роли (отсутствие — не ошибка)
	override, err := s.roleRepo.GetByKeycloakUserID(ctx, kcUser.ID)
	switch {
	case err == nil:
		user.RoleOverride = &override.AdditionalRole
	case errors.Is(err, repository.ErrNotFound):
		// дополнения нет
	default:
		return nil, fmt.Errorf("чтение role override: %w", err)
	}

	user.EffectiveRole = rbac.EffectiveRole(user.IdpRole, user.RoleOverride)
	return user, nil
}

// CreateUserInput — параметры создания пользователя.
type CreateUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	// Temporary — потребовать смену пароля при первом входе
	Temporary bool `json:"temporary"`
}

// Create создаёт пользователя в Keycloak и устанавливает начальный пароль.
func (s *AdminUserService) Create(ctx context.Context, actor string, in CreateUserInput) (*model.AdminUser, error) {
	if in.Username == "" {
		return nil, fmt.Errorf("%w: пустой username", ErrValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: пустой пароль", ErrValidation)
	}

	// Проверка дубликата до создания — Keycloak вернёт 409, но с менее
	// внятным сообщением
	existing, err := s.kc.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, idpError(err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: пользователь %s", ErrConflict, in.Username)
	}

	id, err := s.kc.CreateUser(ctx, &keycloak.KeycloakUser{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Enabled:   true,
	})
	if err != nil {
		return nil, idpError(err)
	}

	if err := s.kc.ResetPassword(ctx, id, in.Password, in.Temporary); err != nil {
		return nil, fmt.Errorf("установка пароля: %w", idpError(err))
	}

	s.audit(ctx, actor, model.AuditActionUserCreate, id, map[string]any{"username": in.Username})

	return s.Get(ctx, id)
}

// UpdateUserInput — параметры обновления пользователя.
type UpdateUserInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

// Update обновляет атрибуты пользователя в Keycloak.
func (s *AdminUserService) Update(ctx context.Context, actor, id string, in UpdateUserInput) (*model.AdminUser, error) {
	kcUser, err := s.kc.GetUser(ctx, id)
	if err != nil {
		return nil, idpError(err)
	}

	if rbac.IsFixedSuperAdmin(kcUser.Username) {
		return nil, ErrSuperAdminImmutable
	}

	kcUser.Email = in.Email
	kcUser.FirstName = in.FirstName
	kcUser.LastName = in.LastName
	kcUser.Enabled = in.Enabled

	if err := s.kc.UpdateUser(ctx, id, kcUser); err != nil {
		return nil, idpError(err)
	}

	s.audit(ctx, actor, model.AuditActionUserUpdate, id, map[string]any{
		"username": kcUser.Username,
		"enabled":  in.Enabled,
	})

	return s.Get(ctx, id)
}

// Delete удаляет пользователя в Keycloak и его локальное дополнение роли.
func (s *AdminUserService) Delete(ctx context.Context, actor, id string) error {
	kcUser, err := s.kc.GetUser(ctx, id)
	if err != nil {
		return idpError(err)
	}

	if rbac.IsFixedSuperAdmin(kcUser.Username) {
		return ErrSuperAdminImmutable
	}

	if err := s.kc.DeleteUser(ctx, id); err != nil {
		return idpError(err)
	}

	// Подчистка локального дополнения (отсутствие — не ошибка)
	if err := s.roleRepo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Ошибка удаления role override",
			slog.String("keycloak_user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.audit(ctx, actor, model.AuditActionUserDelete, id, map[string]any{"username": kcUser.Username})
	return nil
}

// ResetPassword устанавливает новый пароль пользователя.
func (s *AdminUserService) ResetPassword(ctx context.Context, actor, id, password string, temporary bool) error {
	if password == "" {
		return fmt.Errorf("%w: пустой пароль", ErrValidation)
	}

	kcUser, err := s.kc.GetUser(ctx, id)
	if err != nil {
		return idpError(err)
	}

	if rbac.IsFixedSuperAdmin(kcUser.Username) {
		return ErrSuperAdminImmutable
	}

	if err := s.kc.ResetPassword(ctx, id, password, temporary); err != nil {
		return idpError(err)
	}

	s.audit(ctx, actor, model.AuditActionPasswordReset, id, map[string]any{"username": kcUser.Username})
	return nil
}

// SetRoleOverride устанавливает локальное дополнение роли.
// Дополнение только повышает роль — понизить роль из IdP нельзя.
func (s *AdminUserService) SetRoleOverride(ctx context.Context, actor, id, role string) (*model.AdminUser, error) {
	if !rbac.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	kcUser, err := s.kc.GetUser(ctx, id)
	if err != nil {
		return nil, idpError(err)
	}

	if rbac.IsFixedSuperAdmin(kcUser.Username) {
		return nil, ErrSuperAdminImmutable
	}

	override := &model.RoleOverride{
		KeycloakUserID: id,
		Username:       kcUser.Username,
		AdditionalRole: role,
		CreatedBy:      actor,
	}
	if err := s.roleRepo.Upsert(ctx, override); err != nil {
		return nil, fmt.Errorf("сохранение role override: %w", err)
	}

	s.audit(ctx, actor, model.AuditActionRoleOverrideSet, id, map[string]any{
		"username": kcUser.Username,
		"role":     role,
	})

	return s.Get(ctx, id)
}

// DropRoleOverride удаляет локальное дополнение роли.
func (s *AdminUserService) DropRoleOverride(ctx context.Context, actor, id string) (*model.AdminUser, error) {
	kcUser, err := s.kc.GetUser(ctx, id)
	if err != nil {
		return nil, idpError(err)
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("удаление role override: %w", err)
	}

	s.audit(ctx, actor, model.AuditActionRoleOverrideDrop, id, map[string]any{"username": kcUser.Username})

	return s.Get(ctx, id)
}

// RoleOverrideByUserID возвращает локальное дополнение роли пользователя.
// Используется auth middleware для вычисления эффективной роли.
func (s *AdminUserService) RoleOverrideByUserID(ctx context.Context, keycloakUserID string) (*string, error) {
	override, err := s.roleRepo.GetByKeycloakUserID(ctx, keycloakUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &override.AdditionalRole, nil
}

func (s *AdminUserService) audit(ctx context.Context, actor, action, userID string, detail map[string]any) {
	entry := &model.AuditEntry{
		Actor:      actor,
		Action:     action,
		ObjectType: "user",
		ObjectID:   userID,
		Detail:     detail,
	}
	if err := s.auditRepo.Insert(ctx, entry); err != nil {
		s.logger.Warn("Ошибка записи в журнал аудита",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
