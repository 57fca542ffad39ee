package manuals

import (
	"context"
	"strings"

	"manualdesk/internal/content"
	"manualdesk/internal/database"
	"manualdesk/internal/metrics"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"

	"gorm.io/gorm"
)

type NewVersion struct {
	Changelog string
	// CopyBlocks переносит блоки текущей версии в новую
	CopyBlocks bool
}

// Preview is a version with its blocks rendered to HTML.
type Preview struct {
	Version *models.ManualVersion `json:"version"`
	Manual  *models.Manual        `json:"manual"`
	HTML    string                `json:"html"`
}

// CreateVersion appends version max+1, makes it current and returns the
// manual to DRAFT. Pending reviews of the manual are closed.
func (s *Service) CreateVersion(ctx context.Context, actor policy.Actor, slug string, in NewVersion) (*models.ManualVersion, error) {
	var created models.ManualVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.EditManual, m, actor); err != nil {
			return err
		}

		var last int
		if err := tx.Model(&models.ManualVersion{}).
			Where("manual_id = ?", m.ID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}

		created = models.ManualVersion{
			ManualID:      m.ID,
			VersionNumber: last + 1,
			Changelog:     strings.TrimSpace(in.Changelog),
			CreatedByID:   actor.UserID,
		}
		if err := tx.Omit("Blocks").Create(&created).Error; err != nil {
			return err
		}

		copied := 0
		if in.CopyBlocks && m.CurrentVersionID != nil {
			var blocks []models.ContentBlock
			if err := tx.Where("version_id = ?", *m.CurrentVersionID).Scopes(database.OrderedBlocks).Find(&blocks).Error; err != nil {
				return err
			}
			if len(blocks) > 0 {
				clones := make([]models.ContentBlock, 0, len(blocks))
				for _, b := range blocks {
					clones = append(clones, models.ContentBlock{
						VersionID: created.ID,
						Order:     b.Order,
						Type:      b.Type,
						Data:      b.Data,
					})
				}
				if err := tx.Create(&clones).Error; err != nil {
					return err
				}
				copied = len(clones)
			}
		}

		if err := tx.Model(m).Updates(map[string]any{
			"current_version_id": created.ID,
			"status":             models.StatusDraft,
			"updated_at":         s.now(),
		}).Error; err != nil {
			return err
		}
		meta := map[string]any{
			"version_number": created.VersionNumber,
			"copied_blocks":  copied,
		}
		closed, err := s.closePendingReviews(tx, m.ID, newVersionFeedback)
		if err != nil {
			return err
		}
		if closed > 0 {
			meta["closed_reviews"] = closed
		}

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:    models.ActionUpdate,
			ActorID:   actor.UserID,
			ManualID:  m.ID,
			VersionID: created.ID,
			Metadata:  meta,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition(string(models.ActionUpdate))
	return s.loadVersion(s.db.WithContext(ctx), created.ID)
}

// ListVersions returns every version of the manual, oldest first.
func (s *Service) ListVersions(ctx context.Context, actor policy.Actor, slug string) ([]models.ManualVersion, error) {
	db := s.db.WithContext(ctx)
	m, err := s.manualBySlug(db, slug, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(db, policy.ViewManual, m, actor); err != nil {
		return nil, err
	}

	var versions []models.ManualVersion
	if err := db.Where("manual_id = ?", m.ID).Order("version_number ASC").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// GetVersion returns a version with its ordered blocks.
func (s *Service) GetVersion(ctx context.Context, actor policy.Actor, id uint) (*models.ManualVersion, error) {
	db := s.db.WithContext(ctx)
	v, err := s.loadVersion(db, id)
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
	return v, nil
}

// PreviewVersion renders the version. Published versions return their stored
// snapshot.
func (s *Service) PreviewVersion(ctx context.Context, actor policy.Actor, id uint) (*Preview, error) {
	db := s.db.WithContext(ctx)
	v, err := s.GetVersion(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	m, err := s.manualByID(db, v.ManualID, false)
	if err != nil {
		return nil, err
	}

	html := v.PublishedHTML
	if !v.IsPublished || html == "" {
		if html, err = content.RenderHTML(m.Title, v.Blocks); err != nil {
			return nil, err
		}
	}
	return &Preview{Version: v, Manual: m, HTML: html}, nil
}

func (s *Service) loadVersion(db *gorm.DB, id uint) (*models.ManualVersion, error) {
	v, err := s.versionByID(db, id)
	if err != nil {
		return nil, err
	}
	if err := db.Where("version_id = ?", v.ID).Scopes(database.OrderedBlocks).Find(&v.Blocks).Error; err != nil {
		return nil, err
	}
	return v, nil
}
