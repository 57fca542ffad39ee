package manuals

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"manualdesk/internal/apperr"
	"manualdesk/internal/database"
	"manualdesk/internal/metrics"
	"manualdesk/internal/models"
	"manualdesk/internal/policy"
	"manualdesk/internal/slugs"

	"gorm.io/gorm"
)

const maxTitleLength = 300

type CreateInput struct {
	Title      string
	Slug       string
	Department string
	CategoryID *uint
	TagIDs     []uint
	Changelog  string
}

// UpdateInput changes manual metadata. Nil fields are left alone, a
// CategoryID pointing at 0 clears the category.
type UpdateInput struct {
	Title      *string
	Department *string
	CategoryID *uint
	TagIDs     *[]uint
}

type ListFilter struct {
	Status     models.ManualStatus
	Department string
	CategoryID uint
	Tag        string
	Query      string
	Mine       bool
	database.Pagination
}

// Detail is a manual together with what the caller may do with it.
type Detail struct {
	*models.Manual
	CanEdit                bool `json:"can_edit"`
	CanManageCollaborators bool `json:"can_manage_collaborators"`
	CanDelete              bool `json:"can_delete"`
}

// Create stores a DRAFT manual with its first version.
func (s *Service) Create(ctx context.Context, actor policy.Actor, in CreateInput) (*Detail, error) {
	if actor.UserID == 0 {
		return nil, apperr.Authentication("authentication required")
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}

	var manualID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.pickSlug(tx, in.Slug, title)
		if err != nil {
			return err
		}
		if err := checkCategory(tx, in.CategoryID); err != nil {
			return err
		}
		tags, err := loadTags(tx, in.TagIDs)
		if err != nil {
			return err
		}

		m := models.Manual{
			Title:       title,
			Slug:        slug,
			Department:  strings.TrimSpace(in.Department),
			CategoryID:  nonZero(in.CategoryID),
			Status:      models.StatusDraft,
			CreatedByID: actor.UserID,
		}
		if err := s.insertManual(tx, &m); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return slugTaken()
			}
			return err
		}

		changelog := strings.TrimSpace(in.Changelog)
		if changelog == "" {
			changelog = "Initial version"
		}
		v := models.ManualVersion{
			ManualID:      m.ID,
			VersionNumber: 1,
			Changelog:     changelog,
			CreatedByID:   actor.UserID,
		}
		if err := tx.Omit("Blocks").Create(&v).Error; err != nil {
			return err
		}
		if err := tx.Model(&m).Update("current_version_id", v.ID).Error; err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Model(&m).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}

		manualID = m.ID
		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:    models.ActionCreate,
			ActorID:   actor.UserID,
			ManualID:  m.ID,
			VersionID: v.ID,
			Metadata:  map[string]any{"title": m.Title, "reference": m.Reference},
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition(string(models.ActionCreate))
	return s.detail(ctx, actor, manualID)
}

// Get returns a manual by slug if the actor may view it.
func (s *Service) Get(ctx context.Context, actor policy.Actor, slug string) (*Detail, error) {
	m, err := s.manualBySlug(s.db.WithContext(ctx), slug, false)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, actor, m.ID)
}

func (s *Service) detail(ctx context.Context, actor policy.Actor, id uint) (*Detail, error) {
	db := s.db.WithContext(ctx)

	var m models.Manual
	err := db.Preload("Category").
		Preload("Tags").
		Preload("CurrentVersion").
		Preload("Collaborators.User").
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("manual %d not found", id)
		}
		return nil, err
	}

	res, err := s.resource(db, &m, actor)
	if err != nil {
		return nil, err
	}
	if d := policy.Evaluate(policy.ViewManual, res, actor); !d.Allowed {
		return nil, apperr.Permission("%s", d.Reason)
	}
	return &Detail{
		Manual:                 &m,
		CanEdit:                policy.CanEdit(res, actor),
		CanManageCollaborators: policy.Evaluate(policy.ManageCollaborators, res, actor).Allowed,
		CanDelete:              policy.Evaluate(policy.DeleteManual, res, actor).Allowed,
	}, nil
}

// List returns the manuals visible to actor: APPROVED ones, those it created
// or collaborates on. Reviewer roles see everything.
func (s *Service) List(ctx context.Context, actor policy.Actor, f ListFilter) ([]models.Manual, int64, error) {
	if actor.UserID == 0 {
		return nil, 0, apperr.Authentication("authentication required")
	}

	q := s.db.WithContext(ctx).Model(&models.Manual{})
	if !policy.IsReviewer(actor.Role) {
		q = q.Where(
			"manuals.status = ? OR manuals.created_by_id = ? OR manuals.id IN (?)",
			models.StatusApproved,
			actor.UserID,
			s.db.Model(&models.ManualCollaborator{}).Select("manual_id").Where("user_id = ?", actor.UserID),
		)
	}
	if f.Mine {
		q = q.Where(
			"manuals.created_by_id = ? OR manuals.id IN (?)",
			actor.UserID,
			s.db.Model(&models.ManualCollaborator{}).Select("manual_id").Where("user_id = ?", actor.UserID),
		)
	}
	if f.Status != "" {
		q = q.Where("manuals.status = ?", f.Status)
	}
	if f.Department != "" {
		q = q.Where("manuals.department = ?", f.Department)
	}
	if f.CategoryID != 0 {
		q = q.Where("manuals.category_id = ?", f.CategoryID)
	}
	if f.Tag != "" {
		q = q.Where("manuals.id IN (?)", s.db.Table("manual_tags").
			Select("manual_tags.manual_id").
			Joins("JOIN tags ON tags.id = manual_tags.tag_id").
			Where("tags.slug = ?", f.Tag))
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(manuals.title) LIKE ? OR LOWER(manuals.reference) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Manual
	err := q.Preload("Category").Preload("Tags").Preload("CurrentVersion").
		Order("manuals.updated_at DESC").Order("manuals.id DESC").
		Scopes(f.Pagination.Scope).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update changes metadata only. Content changes go through versions.
func (s *Service) Update(ctx context.Context, actor policy.Actor, slug string, in UpdateInput) (*Detail, error) {
	var manualID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.EditManual, m, actor); err != nil {
			return err
		}
		manualID = m.ID

		fields := map[string]any{}
		var changed []string
		if in.Title != nil {
			title, err := cleanTitle(*in.Title)
			if err != nil {
				return err
			}
			fields["title"] = title
			changed = append(changed, "title")
		}
		if in.Department != nil {
			fields["department"] = strings.TrimSpace(*in.Department)
			changed = append(changed, "department")
		}
		if in.CategoryID != nil {
			if err := checkCategory(tx, in.CategoryID); err != nil {
				return err
			}
			fields["category_id"] = nonZero(in.CategoryID)
			changed = append(changed, "category")
		}
		if len(fields) > 0 {
			fields["updated_at"] = s.now()
			if err := tx.Model(m).Updates(fields).Error; err != nil {
				return err
			}
		}
		if in.TagIDs != nil {
			tags, err := loadTags(tx, *in.TagIDs)
			if err != nil {
				return err
			}
			assoc := tx.Model(m).Association("Tags")
			if len(tags) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(tags)
			}
			if err != nil {
				return err
			}
			changed = append(changed, "tags")
		}
		if len(changed) == 0 {
			return nil
		}

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:   models.ActionUpdate,
			ActorID:  actor.UserID,
			ManualID: m.ID,
			Metadata: map[string]any{"fields": changed},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, actor, manualID)
}

// Delete removes the manual with everything it owns. Audit rows stay, their
// references are cleared.
func (s *Service) Delete(ctx context.Context, actor policy.Actor, slug string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.DeleteManual, m, actor); err != nil {
			return err
		}

		versions := tx.Model(&models.ManualVersion{}).Select("id").Where("manual_id = ?", m.ID)

		if err := tx.Where("version_id IN (?)", versions).Delete(&models.ContentBlock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("version_id IN (?)", versions).Delete(&models.ReviewRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AuditLog{}).Where("manual_id = ?", m.ID).
			Updates(map[string]any{"manual_id": nil, "version_id": nil}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Manual{}).Where("id = ?", m.ID).Update("current_version_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("manual_id = ?", m.ID).Delete(&models.ManualVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("manual_id = ?", m.ID).Delete(&models.ManualCollaborator{}).Error; err != nil {
			return err
		}
		if err := tx.Model(m).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&models.Manual{}, m.ID).Error; err != nil {
			return err
		}

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:  models.ActionDelete,
			ActorID: actor.UserID,
			Metadata: map[string]any{
				"title":     m.Title,
				"reference": m.Reference,
				"slug":      m.Slug,
			},
		})
	})
	if err != nil {
		return err
	}
	metrics.Transition(string(models.ActionDelete))
	return nil
}

// Submit moves a DRAFT or REJECTED manual to SUBMITTED and opens a review
// request on its current version.
func (s *Service) Submit(ctx context.Context, actor policy.Actor, slug string) (*models.ReviewRequest, error) {
	var review models.ReviewRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.EditManual, m, actor); err != nil {
			return err
		}
		if m.Status != models.StatusDraft && m.Status != models.StatusRejected {
			return apperr.InvalidState("manual in status %s cannot be submitted for review", m.Status)
		}
		if m.CurrentVersionID == nil {
			return apperr.InvalidState("manual has no current version")
		}

		if err := tx.Model(m).Updates(map[string]any{
			"status":     models.StatusSubmitted,
			"updated_at": s.now(),
		}).Error; err != nil {
			return err
		}

		review = models.ReviewRequest{
			VersionID:     *m.CurrentVersionID,
			SubmittedByID: actor.UserID,
			Status:        models.ReviewPending,
			SubmittedAt:   s.now(),
		}
		if err := tx.Omit("Version").Create(&review).Error; err != nil {
			return err
		}

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:    models.ActionSubmit,
			ActorID:   actor.UserID,
			ManualID:  m.ID,
			VersionID: *m.CurrentVersionID,
			Metadata:  map[string]any{"review_id": review.ID},
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition(string(models.ActionSubmit))
	return &review, nil
}

// Rollback makes an existing version current again and returns the manual
// to DRAFT. Pending reviews of the manual are closed as REJECTED, so a later
// resubmission leaves exactly one decidable review.
func (s *Service) Rollback(ctx context.Context, actor policy.Actor, slug string, versionNumber int) (*Detail, error) {
	var manualID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.manualBySlug(tx, slug, true)
		if err != nil {
			return err
		}
		if err := s.authorize(tx, policy.EditManual, m, actor); err != nil {
			return err
		}
		manualID = m.ID

		var target models.ManualVersion
		err = tx.Where("manual_id = ? AND version_number = ?", m.ID, versionNumber).First(&target).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("version %d not found for this manual", versionNumber)
			}
			return err
		}

		meta := map[string]any{"to_version": target.VersionNumber, "from_status": string(m.Status)}
		if m.CurrentVersionID != nil {
			var from models.ManualVersion
			if err := tx.Select("version_number").First(&from, *m.CurrentVersionID).Error; err == nil {
				meta["from_version"] = from.VersionNumber
			}
		}

		if err := tx.Model(m).Updates(map[string]any{
			"current_version_id": target.ID,
			"status":             models.StatusDraft,
			"updated_at":         s.now(),
		}).Error; err != nil {
			return err
		}
		closed, err := s.closePendingReviews(tx, m.ID, rollbackFeedback)
		if err != nil {
			return err
		}
		if closed > 0 {
			meta["closed_reviews"] = closed
		}

		return database.CreateAuditLog(tx, database.AuditEntry{
			Action:    models.ActionRollback,
			ActorID:   actor.UserID,
			ManualID:  m.ID,
			VersionID: target.ID,
			Metadata:  meta,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Transition(string(models.ActionRollback))
	return s.detail(ctx, actor, manualID)
}

const (
	rollbackFeedback   = "superseded by rollback"
	newVersionFeedback = "superseded by a new version"
)

// closePendingReviews rejects every PENDING review of the manual's versions.
// Callers hold the manual row lock.
func (s *Service) closePendingReviews(tx *gorm.DB, manualID uint, feedback string) (int64, error) {
	now := s.now()
	res := tx.Model(&models.ReviewRequest{}).
		Where("status = ? AND version_id IN (?)", models.ReviewPending,
			tx.Session(&gorm.Session{NewDB: true}).Model(&models.ManualVersion{}).Select("id").Where("manual_id = ?", manualID)).
		Updates(map[string]any{
			"status":     models.ReviewRejected,
			"feedback":   feedback,
			"decided_at": now,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.ValidationFields("invalid title", map[string]string{"title": "This field may not be blank."})
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", apperr.ValidationFields("invalid title", map[string]string{"title": "Ensure this field has no more than 300 characters."})
	}
	return title, nil
}

func (s *Service) pickSlug(tx *gorm.DB, requested, title string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		slug := slugs.Make(requested)
		if slug == "" {
			return "", apperr.ValidationFields("invalid slug", map[string]string{"slug": "Enter a valid slug."})
		}
		var count int64
		if err := tx.Model(&models.Manual{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count > 0 {
			return "", slugTaken()
		}
		return slug, nil
	}

	base := slugs.Make(title)
	if base == "" {
		base = "manual"
	}
	return slugs.Unique(tx, "manuals", base)
}

func slugTaken() error {
	return apperr.ValidationFields("slug already exists", map[string]string{
		"slug": "A manual with this slug already exists.",
	})
}

func checkCategory(tx *gorm.DB, id *uint) error {
	if id == nil || *id == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.ValidationFields("unknown category", map[string]string{"category": "Invalid category id."})
	}
	return nil
}

func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	if len(ids) == 0 {
		return []models.Tag{}, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(tags))
	for _, t := range tags {
		seen[t.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return nil, apperr.ValidationFields("unknown tag", map[string]string{"tags": "Invalid tag id."})
		}
	}
	return tags, nil
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}
