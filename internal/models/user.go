package models

import "time"

type UserRole string

const (
	RoleUser         UserRole = "USER"
	RoleAnalyst      UserRole = "ANALYST"
	RoleSupervisor   UserRole = "SUPERVISOR"
	RoleManager      UserRole = "MANAGER"
	RoleChiefManager UserRole = "CHIEF_MANAGER"
	RoleAdmin        UserRole = "ADMIN"
)

// Valid сообщает, известна ли роль
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAnalyst, RoleSupervisor, RoleManager, RoleChiefManager, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"size:254" json:"email"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	Department   string     `gorm:"size:200" json:"department"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"date_joined"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Profile *Profile `json:"profile,omitempty"`
}

// Profile создаётся вместе с пользователем, ровно один на пользователя
type Profile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName        string    `gorm:"size:200" json:"display_name"`
	MustChangePassword bool      `gorm:"not null;default:false" json:"must_change_password"`
	PhoneNumber        string    `gorm:"size:50" json:"phone_number"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
