// Package reviews implements the decision side of the review workflow.
// Review requests are opened by manuals.Service.Submit.
package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"manualdesk/internal/apperr"
	"manualdesk/internal/content"
	"manualdesk/internal/database"
	"manualdesk/internal/logger"
	"manualdesk/internal/metrics"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type ListFilter struct {
	Status   models.ReviewStatus
	ManualID uint
	database.Pagination
}

// Reviewed is the content a review request refers to.
type Reviewed struct {
	Review  *models.ReviewRequest `json:"review"`
	Manual  *models.Manual        `json:"manual"`
	Version *models.ManualVersion `json:"version"`
}

// List returns review requests, newest first. Reviewer roles see all of
// them, everybody else the requests they submitted and those on manuals they
// created or collaborate on.
func (s *Service) List(ctx context.Context, actor policy.Actor, f ListFilter) ([]models.ReviewRequest, int64, error) {
	if actor.UserID == 0 {
		return nil, 0, apperr.Authentication("authentication required")
	}

	q := s.db.WithContext(ctx).Model(&models.ReviewRequest{})
	if !policy.Evaluate(policy.ViewAllReviews, policy.Resource{}, actor).Allowed {
		q = q.Where("review_requests.submitted_by_id = ? OR review_requests.version_id IN (?)",
			actor.UserID, s.ownVersions(actor.UserID))
	}
	if f.Status != "" {
		q = q.Where("review_requests.status = ?", f.Status)
	}
	if f.ManualID != 0 {
		q = q.Where("review_requests.version_id IN (?)",
			s.db.Model(&models.ManualVersion{}).Select("id").Where("manual_id = ?", f.ManualID))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.ReviewRequest
	if err := q.Preload("Version").
		Order("review_requests.submitted_at DESC").Order("review_requests.id DESC").
		Scopes(f.Pagination.Scope).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, actor policy.Actor, id uint) (*models.ReviewRequest, error) {
	db := s.db.WithContext(ctx)
	r, err := s.review(db, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.canSee(db, actor, r); err != nil {
		return nil, err
	}
	var v models.ManualVersion
	if err := db.First(&v, r.VersionID).Error; err != nil {
		return nil, err
	}
	r.Version = &v
	return r, nil
}

// Content returns the manual and the reviewed version with its blocks.
func (s *Service) Content(ctx context.Context, actor policy.Actor, id uint) (*Reviewed, error) {
	db := s.db.WithContext(ctx)
	r, err := s.review(db, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.canSee(db, actor, r); err != nil {
		return nil, err
	}

	var v models.ManualVersion
	err = db.Preload("Blocks", database.OrderedBlocks).First(&v, r.VersionID).Error
	if err != nil {
		return nil, err
	}
	var m models.Manual
	if err := db.Preload("Category").Preload("Tags").First(&m, v.ManualID).Error; err != nil {
		return nil, err
	}
	return &Reviewed{Review: r, Manual: &m, Version: &v}, nil
}

// Approve marks the review and the manual APPROVED and publishes the
// reviewed version.
func (s *Service) Approve(ctx context.Context, actor policy.Actor, id uint) (*models.ReviewRequest, error) {
	return s.decide(ctx, actor, id, models.ReviewApproved, "")
}

// Reject marks the review and the manual REJECTED. feedback may be empty.
func (s *Service) Reject(ctx context.Context, actor policy.Actor, id uint, feedback string) (*models.ReviewRequest, error) {
	return s.decide(ctx, actor, id, models.ReviewRejected, strings.TrimSpace(feedback))
}

func (s *Service) decide(ctx context.Context, actor policy.Actor, id uint, outcome models.ReviewStatus, feedback string) (*models.ReviewRequest, error) {
	if d := policy.Evaluate(policy.DecideReview, policy.Resource{}, actor); !d.Allowed {
		return nil, apperr.Permission("%s", d.Reason)
	}

	var (
		decided *models.ReviewRequest
		action  models.AuditAction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.review(tx, id, true)
		if err != nil {
			return err
		}
		if r.Status != models.ReviewPending {
			return apperr.InvalidState("review %d is already %s", r.ID, r.Status)
		}

		var v models.ManualVersion
		if err := tx.First(&v, r.VersionID).Error; err != nil {
			return err
		}
		var m models.Manual
		if err := database.ForUpdate(tx).First(&m, v.ManualID).Error; err != nil {
			return err
		}
		// запрос устарел: после него был откат или новая версия
		if m.Status != models.StatusSubmitted || m.CurrentVersionID == nil || *m.CurrentVersionID != v.ID {
			return apperr.InvalidState("review %d is stale, the manual has changed since it was submitted", r.ID)
		}

		now := s.now()
		res := tx.Model(&models.ReviewRequest{}).
			Where("id = ? AND status = ?", r.ID, models.ReviewPending).
			Updates(map[string]any{
				"status":      outcome,
				"reviewer_id": actor.UserID,
				"feedback":    feedback,
				"decided_at":  now,
				"updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("review %d has already been decided", r.ID)
		}

		manualStatus := models.StatusRejected
		action = models.ActionReject
		if outcome == models.ReviewApproved {
			manualStatus = models.StatusApproved
			action = models.ActionApprove

			if err := tx.Where("version_id = ?", v.ID).Scopes(database.OrderedBlocks).Find(&v.Blocks).Error; err != nil {
				return err
			}
			html, err := content.RenderHTML(m.Title, v.Blocks)
			if err != nil {
				return err
			}
			if err := tx.Model(&models.ManualVersion{}).Where("id = ?", v.ID).Updates(map[string]any{
				"is_published":   true,
				"published_html": html,
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&m).Updates(map[string]any{
			"status":     manualStatus,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}

		meta := map[string]any{"review_id": r.ID, "version_number": v.VersionNumber}
		if feedback != "" {
			meta["feedback"] = feedback
		}
		if err := database.CreateAuditLog(tx, database.AuditEntry{
			Action:    action,
			ActorID:   actor.UserID,
			ManualID:  m.ID,
			VersionID: v.ID,
			Metadata:  meta,
		}); err != nil {
			return err
		}

		decided, err = s.review(tx, r.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Transition(string(action))
	log := logger.With("reviews")
	log.Info().
		Uint("review_id", decided.ID).
		Uint("reviewer_id", actor.UserID).
		Str("outcome", string(outcome)).
		Msg("review decided")
	return decided, nil
}

func (s *Service) review(db *gorm.DB, id uint, lock bool) (*models.ReviewRequest, error) {
	q := db
	if lock {
		q = database.ForUpdate(q)
	}
	var r models.ReviewRequest
	if err := q.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("review %d not found", id)
		}
		return nil, err
	}
	return &r, nil
}

// canSee applies the same visibility as List to a single request.
func (s *Service) canSee(db *gorm.DB, actor policy.Actor, r *models.ReviewRequest) error {
	if actor.UserID == 0 {
		return apperr.Authentication("authentication required")
	}
	if policy.Evaluate(policy.ViewAllReviews, policy.Resource{}, actor).Allowed || r.SubmittedByID == actor.UserID {
		return nil
	}

	var count int64
	err := db.Model(&models.ManualVersion{}).
		Where("id = ? AND id IN (?)", r.VersionID, s.ownVersions(actor.UserID)).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return apperr.Permission("you do not have access to this review")
	}
	return nil
}

// ownVersions selects the versions of manuals userID created or collaborates on.
func (s *Service) ownVersions(userID uint) *gorm.DB {
	return s.db.Model(&models.ManualVersion{}).
		Select("manual_versions.id").
		Joins("JOIN manuals ON manuals.id = manual_versions.manual_id").
		Where("manuals.created_by_id = ? OR manuals.id IN (?)", userID,
			s.db.Model(&models.ManualCollaborator{}).Select("manual_id").Where("user_id = ?", userID))
}
