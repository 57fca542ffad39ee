package manuals

import (
	"context"
	"encoding/json"
	"errors"

	"manualdesk/internal/apperr"
	"manualdesk/internal/content"
	"manualdesk/internal/database"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BlockInput struct {
	Type  models.BlockType
	Order *int
	Data  json.RawMessage
}

// BlockUpdate changes the order and/or data of a block. The type is fixed.
type BlockUpdate struct {
	Order *int
	Data  json.RawMessage
}

// ListBlocks returns the ordered blocks of a version.
func (s *Service) ListBlocks(ctx context.Context, actor policy.Actor, versionID uint) ([]models.ContentBlock, error) {
	v, err := s.GetVersion(ctx, actor, versionID)
	if err != nil {
		return nil, err
	}
	return v.Blocks, nil
}

func (s *Service) GetBlock(ctx context.Context, actor policy.Actor, id uint) (*models.ContentBlock, error) {
	db := s.db.WithContext(ctx)
	b, err := blockByID(db, id)
	if err != nil {
		return nil, err
	}
	v, err := s.versionByID(db, b.VersionID)
	if err != nil {
		return nil, err
	}
	m, err := s.manualByID(db, v.ManualID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(db, policy.ViewManual, m, actor); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBlock adds a block to the current, not yet reviewed version. Without
// an explicit order the block goes last.
func (s *Service) CreateBlock(ctx context.Context, actor policy.Actor, versionID uint, in BlockInput) (*models.ContentBlock, error) {
	data, err := content.Normalize(in.Type, in.Data)
	if err != nil {
		return nil, err
	}

	var block models.ContentBlock
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, m, err := s.editableVersion(tx, actor, versionID)
		if err != nil {
			return err
		}

		order := 0
		if in.Order != nil {
			order = *in.Order
		} else {
			var last int
			if err := tx.Model(&models.ContentBlock{}).
				Where("version_id = ?", v.ID).
				Select(`COALESCE(MAX("order"), -1)`).
				Scan(&last).Error; err != nil {
				return err
			}
			order = last + 1
		}

		block = models.ContentBlock{
			VersionID: v.ID,
			Order:     order,
			Type:      in.Type,
			Data:      datatypes.JSON(data),
		}
		if err := tx.Create(&block).Error; err != nil {
			return err
		}
		return blockAudit(tx, actor, m, v, "create", block.ID)
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *Service) UpdateBlock(ctx context.Context, actor policy.Actor, id uint, in BlockUpdate) (*models.ContentBlock, error) {
	var block *models.ContentBlock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := blockByID(tx, id)
		if err != nil {
			return err
		}
		v, m, err := s.editableVersion(tx, actor, b.VersionID)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Order != nil {
			fields["order"] = *in.Order
		}
		if len(in.Data) > 0 {
			data, err := content.Normalize(b.Type, in.Data)
			if err != nil {
				return err
			}
			fields["data"] = datatypes.JSON(data)
		}
		if len(fields) == 0 {
			block = b
			return nil
		}
		if err := tx.Model(b).Updates(fields).Error; err != nil {
			return err
		}
		if block, err = blockByID(tx, id); err != nil {
			return err
		}
		return blockAudit(tx, actor, m, v, "update", b.ID)
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (s *Service) DeleteBlock(ctx context.Context, actor policy.Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := blockByID(tx, id)
		if err != nil {
			return err
		}
		v, m, err := s.editableVersion(tx, actor, b.VersionID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.ContentBlock{}, b.ID).Error; err != nil {
			return err
		}
		return blockAudit(tx, actor, m, v, "delete", b.ID)
	})
}

// editableVersion locks the owning manual and checks that actor may change
// the content of version id.
func (s *Service) editableVersion(tx *gorm.DB, actor policy.Actor, id uint) (*models.ManualVersion, *models.Manual, error) {
	v, err := s.versionByID(tx, id)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.manualByID(tx, v.ManualID, true)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(tx, policy.EditManual, m, actor); err != nil {
		return nil, nil, err
	}
	if err := s.checkMutable(tx, m, v); err != nil {
		return nil, nil, err
	}
	return v, m, nil
}

func blockByID(db *gorm.DB, id uint) (*models.ContentBlock, error) {
	var b models.ContentBlock
	if err := db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("block %d not found", id)
		}
		return nil, err
	}
	return &b, nil
}

func blockAudit(tx *gorm.DB, actor policy.Actor, m *models.Manual, v *models.ManualVersion, op string, blockID uint) error {
	return database.CreateAuditLog(tx, database.AuditEntry{
		Action:    models.ActionUpdate,
		ActorID:   actor.UserID,
		ManualID:  m.ID,
		VersionID: v.ID,
		Metadata:  map[string]any{"block": op, "block_id": blockID},
	})
}
