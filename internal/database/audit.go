package database

import (
	"fmt"

	"manualdesk/internal/models"

	"gorm.io/gorm"
)

// AuditEntry описывает одну запись журнала
type AuditEntry struct {
	Action    models.AuditAction
	ActorID   uint
	ManualID  uint
	VersionID uint
	Metadata  map[string]any
}

// CreateAuditLog appends an entry using tx, so the entry commits or rolls
// back together with the change it describes.
func CreateAuditLog(tx *gorm.DB, e AuditEntry) error {
	record := models.AuditLog{
		Action:   e.Action,
		ActorID:  e.ActorID,
		Metadata: e.Metadata,
	}
	if e.ManualID != 0 {
		id := e.ManualID
		record.ManualID = &id
	}
	if e.VersionID != 0 {
		id := e.VersionID
		record.VersionID = &id
	}
	if record.Metadata == nil {
		record.Metadata = map[string]any{}
	}

	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("write audit log %s: %w", e.Action, err)
	}
	return nil
}
