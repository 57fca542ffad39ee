// Package manuals implements the manual aggregate: metadata, versions,
// content blocks, collaborators and the audit trail that records them.
package manuals

import (
	"errors"
	"time"

	"manualdesk/internal/apperr"
	"manualdesk/internal/database"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"

	"gorm.io/gorm"
)

type Service struct {
	db           *gorm.DB
	now          func() time.Time
	newReference func() (string, error)
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now, newReference: NewReference}
}

func (s *Service) manualBySlug(tx *gorm.DB, slug string, lock bool) (*models.Manual, error) {
	q := tx
	if lock {
		q = database.ForUpdate(q)
	}
	var m models.Manual
	if err := q.Where("slug = ?", slug).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("manual %q not found", slug)
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) manualByID(tx *gorm.DB, id uint, lock bool) (*models.Manual, error) {
	q := tx
	if lock {
		q = database.ForUpdate(q)
	}
	var m models.Manual
	if err := q.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("manual %d not found", id)
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) versionByID(tx *gorm.DB, id uint) (*models.ManualVersion, error) {
	var v models.ManualVersion
	if err := tx.First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("version %d not found", id)
		}
		return nil, err
	}
	return &v, nil
}

// resource describes m from the point of view of actor.
func (s *Service) resource(tx *gorm.DB, m *models.Manual, actor policy.Actor) (policy.Resource, error) {
	res := policy.Resource{CreatedByID: m.CreatedByID, Status: m.Status}

	var collab models.ManualCollaborator
	err := tx.Where("manual_id = ? AND user_id = ?", m.ID, actor.UserID).Take(&collab).Error
	switch {
	case err == nil:
		role := collab.Role
		res.Collaborator = &role
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return res, err
	}
	return res, nil
}

func (s *Service) authorize(tx *gorm.DB, action policy.Action, m *models.Manual, actor policy.Actor) error {
	res, err := s.resource(tx, m, actor)
	if err != nil {
		return err
	}
	if d := policy.Evaluate(action, res, actor); !d.Allowed {
		return apperr.Permission("%s", d.Reason)
	}
	return nil
}

// checkMutable allows block changes only on the current version and only
// until that version has been submitted for review.
func (s *Service) checkMutable(tx *gorm.DB, m *models.Manual, v *models.ManualVersion) error {
	if m.CurrentVersionID == nil || *m.CurrentVersionID != v.ID {
		return apperr.InvalidState("version %d is not the current version of this manual", v.VersionNumber)
	}
	var reviews int64
	if err := tx.Model(&models.ReviewRequest{}).Where("version_id = ?", v.ID).Count(&reviews).Error; err != nil {
		return err
	}
	if reviews > 0 {
		return apperr.InvalidState("version %d has been submitted for review, create a new version to edit it", v.VersionNumber)
	}
	return nil
}
