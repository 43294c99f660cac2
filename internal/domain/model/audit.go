package model

import "time"

// Действия, фиксируемые в журнале аудита.
const (
	AuditActionUserCreate       = "user.create"
	AuditActionUserUpdate       = "user.update"
	AuditActionUserDelete       = "user.delete"
	AuditActionPasswordReset    = "user.password_reset"
	AuditActionRoleOverrideSet  = "role_override.set"
	AuditActionRoleOverrideDrop = "role_override.drop"
	AuditActionLimitSet         = "staff_limit.set"
	AuditActionLimitDelete      = "staff_limit.delete"
	AuditActionVideoStatus      = "video.status_update"
	AuditActionVideoDelivery    = "video.delivery_update"
	AuditActionVideoPayment     = "video.payment_update"
)

// AuditEntry — запись журнала аудита административных действий.
// Хранится в таблице audit_log.
type AuditEntry struct {
	// ID — UUID записи
	ID string
	// Actor — username администратора, выполнившего действие
	Actor string
	// Action — машиночитаемый код действия (см. AuditAction*)
	Action string
	// ObjectType — тип объекта (user, video, staff_limit, role_override)
	ObjectType string
	// ObjectID — идентификатор объекта
	ObjectID string
	// Detail — произвольные детали действия (JSONB)
	Detail map[string]any
	// CreatedAt — время действия
	CreatedAt time.Time
}
