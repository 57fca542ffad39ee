package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	ActionCreate             AuditAction = "CREATE"
	ActionUpdate             AuditAction = "UPDATE"
	ActionSubmit             AuditAction = "SUBMIT"
	ActionApprove            AuditAction = "APPROVE"
	ActionReject             AuditAction = "REJECT"
	ActionRollback           AuditAction = "ROLLBACK"
	ActionDelete             AuditAction = "DELETE"
	ActionCollaboratorAdd    AuditAction = "COLLABORATOR_ADD"
	ActionCollaboratorRemove AuditAction = "COLLABORATOR_REMOVE"
)

// AuditLog только дописывается, строки не меняются.
// При удалении руководства ссылки обнуляются.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ManualID  *uint `gorm:"index" json:"manual_id"`
	VersionID *uint `gorm:"index" json:"version_id"`

	Action   AuditAction       `gorm:"type:varchar(30);not null;index" json:"action"`
	ActorID  uint              `gorm:"not null;index" json:"actor"`
	Metadata datatypes.JSONMap `json:"metadata"`
}
