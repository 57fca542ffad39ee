// Package policy holds every permission decision of the application in one
// place: Evaluate(action, resource, actor).
package policy

import "manualdesk/internal/models"

type Action string

const (
	ViewManual          Action = "manual.view"
	EditManual          Action = "manual.edit"
	DeleteManual        Action = "manual.delete"
	ManageCollaborators Action = "manual.collaborators"
	DecideReview        Action = "review.decide"
	ViewAllReviews      Action = "review.list_all"
	ViewAllAudit        Action = "audit.list_all"
	ManageTaxonomy      Action = "taxonomy.manage"
	ManageUsers         Action = "users.manage"
)

// Actor is the authenticated identity of a request.
type Actor struct {
	UserID             uint
	Username           string
	Role               models.UserRole
	Department         string
	MustChangePassword bool
}

// Resource describes the manual an action is applied to. Zero value for
// actions that are not bound to a manual.
type Resource struct {
	CreatedByID uint
	Status      models.ManualStatus
	// Collaborator is the actor's collaborator role on the manual, nil if none.
	Collaborator *models.CollaboratorRole
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// IsReviewer reports whether the role may decide review requests.
func IsReviewer(role models.UserRole) bool {
	switch role {
	case models.RoleSupervisor, models.RoleManager, models.RoleChiefManager, models.RoleAdmin:
		return true
	}
	return false
}

func Evaluate(action Action, res Resource, actor Actor) Decision {
	if actor.UserID == 0 {
		return deny("authentication required")
	}

	isCreator := res.CreatedByID != 0 && res.CreatedByID == actor.UserID

	switch action {
	case ViewManual:
		if isCreator || res.Collaborator != nil || res.Status == models.StatusApproved || IsReviewer(actor.Role) {
			return allow()
		}
		return deny("you do not have access to this manual")

	case EditManual:
		if isCreator {
			return allow()
		}
		if res.Collaborator != nil && *res.Collaborator == models.CollaboratorEditor {
			return allow()
		}
		return deny("you do not have permission to edit this manual")

	case ManageCollaborators:
		if isCreator {
			return allow()
		}
		return deny("only the creator can manage collaborators")

	case DeleteManual:
		if isCreator || actor.Role == models.RoleAdmin {
			return allow()
		}
		return deny("only the creator or an administrator can delete this manual")

	case DecideReview:
		if IsReviewer(actor.Role) {
			return allow()
		}
		return deny("only supervisors, managers and administrators can review manuals")

	case ViewAllReviews, ViewAllAudit:
		if IsReviewer(actor.Role) {
			return allow()
		}
		return deny("insufficient role")

	case ManageTaxonomy, ManageUsers:
		if actor.Role == models.RoleAdmin {
			return allow()
		}
		return deny("administrator role required")
	}

	return deny("unknown action")
}

func CanView(res Resource, actor Actor) bool {
	return Evaluate(ViewManual, res, actor).Allowed
}

func CanEdit(res Resource, actor Actor) bool {
	return Evaluate(EditManual, res, actor).Allowed
}
