package models

import (
	"time"

	"gorm.io/datatypes"
)

type ManualStatus string
type CollaboratorRole string
type BlockType string
type ReviewStatus string

const (
	StatusDraft     ManualStatus = "DRAFT"
	StatusSubmitted ManualStatus = "SUBMITTED"
	StatusApproved  ManualStatus = "APPROVED"
	StatusRejected  ManualStatus = "REJECTED"

	CollaboratorEditor CollaboratorRole = "EDITOR"
	CollaboratorViewer CollaboratorRole = "VIEWER"

	BlockText      BlockType = "TEXT"
	BlockImage     BlockType = "IMAGE"
	BlockTable     BlockType = "TABLE"
	BlockChecklist BlockType = "CHECKLIST"
	BlockDiagram   BlockType = "DIAGRAM"
	BlockTabs      BlockType = "TABS"

	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

func (r CollaboratorRole) Valid() bool {
	return r == CollaboratorEditor || r == CollaboratorViewer
}

type Manual struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:300;not null" json:"title"`
	Slug        string       `gorm:"uniqueIndex;size:320;not null" json:"slug"`
	Reference   string       `gorm:"uniqueIndex;size:16;not null" json:"reference"`
	Department  string       `gorm:"size:200;index" json:"department"`
	CategoryID  *uint        `gorm:"index" json:"category_id"`
	Status      ManualStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	CreatedByID uint         `gorm:"not null;index" json:"created_by"`
	// указатель на текущую версию, всегда версия этого же руководства
	CurrentVersionID *uint     `json:"current_version_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Category       *Category            `json:"category,omitempty"`
	Tags           []Tag                `gorm:"many2many:manual_tags;" json:"tags"`
	CreatedBy      *User                `gorm:"foreignKey:CreatedByID" json:"-"`
	CurrentVersion *ManualVersion       `gorm:"foreignKey:CurrentVersionID" json:"current_version,omitempty"`
	Collaborators  []ManualCollaborator `json:"collaborators,omitempty"`
}

type ManualCollaborator struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	ManualID  uint             `gorm:"uniqueIndex:idx_manual_collaborator;not null" json:"manual_id"`
	UserID    uint             `gorm:"uniqueIndex:idx_manual_collaborator;not null" json:"user_id"`
	Role      CollaboratorRole `gorm:"type:varchar(10);not null" json:"role"`
	AddedByID uint             `gorm:"not null" json:"added_by"`
	CreatedAt time.Time        `json:"created_at"`

	User *User `json:"user,omitempty"`
}

type ManualVersion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ManualID      uint      `gorm:"uniqueIndex:idx_manual_version;not null" json:"manual_id"`
	VersionNumber int       `gorm:"uniqueIndex:idx_manual_version;not null" json:"version_number"`
	Changelog     string    `gorm:"type:text" json:"changelog"`
	CreatedByID   uint      `gorm:"not null" json:"created_by"`
	IsPublished   bool      `gorm:"not null;default:false;index" json:"is_published"`
	PublishedHTML string    `gorm:"type:text" json:"published_html"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Blocks []ContentBlock `gorm:"foreignKey:VersionID" json:"blocks,omitempty"`
}

type ContentBlock struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	VersionID uint           `gorm:"index:idx_block_version_order,priority:1;not null" json:"version_id"`
	Order     int            `gorm:"index:idx_block_version_order,priority:2;not null" json:"order"`
	Type      BlockType      `gorm:"type:varchar(20);not null;index" json:"type"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ReviewRequest struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	VersionID     uint         `gorm:"not null;index" json:"version_id"`
	SubmittedByID uint         `gorm:"not null" json:"submitted_by"`
	ReviewerID    *uint        `json:"reviewer"`
	Status        ReviewStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Feedback      string       `gorm:"type:text" json:"feedback"`
	SubmittedAt   time.Time    `gorm:"not null;index" json:"submitted_at"`
	DecidedAt     *time.Time   `json:"decided_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Version *ManualVersion `json:"version,omitempty"`
}
