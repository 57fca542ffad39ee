package manuals

import (
	"context"
	"errors"

	"manualdesk/internal/apperr"
	"manualdesk/internal/database"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"

	"gorm.io/gorm"
)

func (s *Service) ListCollaborators(ctx context.Context, actor policy.Actor, slug string) ([]models.ManualCollaborator, error) {
	db := s.db.WithContext(ctx)
	m, err := s.manualBySlug(db, slug, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(db, policy.ViewManual, m, actor); err != nil {
		return nil, err
	}

	var out []models.ManualCollaborator
	if err := db.Preload("User").Where("manual_id = ?", m.ID).Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// AddCollaborator grants userID a role on the manual. Only the creator may
// do this, and neither the creator nor an existing collaborator can be added.
func (s *Service) AddCollaborator(ctx context.Context, actor policy.Actor, slug string, userID uint, role models.CollaboratorRole) (*models.ManualCollaborator, error) {
	if !role.Valid() {
		return nil, apperr.ValidationFields("invalid role", map[string]string{
			"role": "must be one of: EDITOR VIEWER",
		})
	}

	var collab models.ManualCollaborator
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.ManageCollaborators, m, actor); err != nil {
			return err
		}

		var target models.User
		if err := tx.First(&target, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user %d not found", userID)
			}
			return err
		}
		if target.ID == m.CreatedByID {
			return apperr.ValidationFields("cannot add creator", map[string]string{
				"user": "The creator of the manual cannot be added as a collaborator.",
			})
		}

		var exists int64
		if err := tx.Model(&models.ManualCollaborator{}).
			Where("manual_id = ? AND user_id = ?", m.ID, target.ID).
			Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return alreadyCollaborator()
		}

		collab = models.ManualCollaborator{
			ManualID:  m.ID,
			UserID:    target.ID,
			Role:      role,
			AddedByID: actor.UserID,
		}
		if err := tx.Omit("User").Create(&collab).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyCollaborator()
			}
			return err
		}
		collab.User = &target

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:   models.ActionCollaboratorAdd,
			ActorID:  actor.UserID,
			ManualID: m.ID,
			Metadata: map[string]any{
				"user_id":  target.ID,
				"username": target.Username,
				"role":     string(role),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &collab, nil
}

// RemoveCollaborator deletes the collaborator row id of the manual.
func (s *Service) RemoveCollaborator(ctx context.Context, actor policy.Actor, slug string, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.ManageCollaborators, m, actor); err != nil {
			return err
		}

		var collab models.ManualCollaborator
		if err := tx.Where("id = ? AND manual_id = ?", id, m.ID).First(&collab).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("collaborator %d not found", id)
			}
			return err
		}
		if err := tx.Delete(&models.ManualCollaborator{}, collab.ID).Error; err != nil {
			return err
		}

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:   models.ActionCollaboratorRemove,
			ActorID:  actor.UserID,
			ManualID: m.ID,
			Metadata: map[string]any{
				"user_id": collab.UserID,
				"role":    string(collab.Role),
			},
		})
	})
}

func alreadyCollaborator() error {
	return apperr.ValidationFields("already a collaborator", map[string]string{
		"user": "This user is already a collaborator.",
	})
}
