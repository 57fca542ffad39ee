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

type AuditFilter struct {
	ManualID uint
	Action   models.AuditAction
	ActorID  uint
	database.Pagination
}

// auditScope limits the journal to entries actor may read: everything for
// reviewer roles, otherwise own actions and entries of manuals the actor
// created or collaborates on.
func (s *Service) auditScope(actor policy.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if policy.Evaluate(policy.ViewAllAudit, policy.Resource{}, actor).Allowed {
			return db
		}
		return db.Where(
			"audit_logs.actor_id = ? OR audit_logs.manual_id IN (?) OR audit_logs.manual_id IN (?)",
			actor.UserID,
			s.db.Model(&models.Manual{}).Select("id").Where("created_by_id = ?", actor.UserID),
			s.db.Model(&models.ManualCollaborator{}).Select("manual_id").Where("user_id = ?", actor.UserID),
		)
	}
}

// ListAudit returns journal entries, newest first.
func (s *Service) ListAudit(ctx context.Context, actor policy.Actor, f AuditFilter) ([]models.AuditLog, int64, error) {
	if actor.UserID == 0 {
		return nil, 0, apperr.Authentication("authentication required")
	}

	q := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(s.auditScope(actor))
	if f.ManualID != 0 {
		q = q.Where("audit_logs.manual_id = ?", f.ManualID)
	}
	if f.Action != "" {
		q = q.Where("audit_logs.action = ?", f.Action)
	}
	if f.ActorID != 0 {
		q = q.Where("audit_logs.actor_id = ?", f.ActorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if err := q.Order("audit_logs.created_at DESC").Order("audit_logs.id DESC").
		Scopes(f.Pagination.Scope).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (s *Service) GetAudit(ctx context.Context, actor policy.Actor, id uint) (*models.AuditLog, error) {
	if actor.UserID == 0 {
		return nil, apperr.Authentication("authentication required")
	}
	var entry models.AuditLog
	err := s.db.WithContext(ctx).Scopes(s.auditScope(actor)).First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("audit entry %d not found", id)
		}
		return nil, err
	}
	return &entry, nil
}
