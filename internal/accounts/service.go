// Package accounts owns users, their profiles and credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manualdesk/internal/apperr"
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

// NewUser is the input of CreateUser.
type NewUser struct {
	Username           string
	Email              string
	FirstName          string
	LastName           string
	Password           string
	Role               models.UserRole
	Department         string
	DisplayName        string
	PhoneNumber        string
	MustChangePassword bool
}

// CreateUser inserts the user and its profile in one transaction.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if len(in.Username) < 3 {
		return nil, apperr.ValidationFields("invalid username", map[string]string{
			"username": "must contain at least 3 characters",
		})
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, apperr.ValidationFields("invalid role", map[string]string{"role": string(in.Role) + " is not a valid role"})
	}
	if err := ValidatePassword(in.Password, in.Username); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        strings.TrimSpace(in.Email),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         in.Role,
		Department:   in.Department,
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return usernameTaken()
		}

		if err := tx.Omit("Profile").Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return usernameTaken()
			}
			return err
		}

		profile := models.Profile{
			UserID:             user.ID,
			DisplayName:        in.DisplayName,
			PhoneNumber:        in.PhoneNumber,
			MustChangePassword: in.MustChangePassword,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.Profile = &profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func usernameTaken() error {
	return apperr.ValidationFields("user already exists", map[string]string{
		"username": "A user with that username already exists.",
	})
}

// RegisterInput is the self-service registration form.
type RegisterInput struct {
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Password   string
	Password2  string
	Role       models.UserRole
	Department string
}

// Register creates an account from the public registration form.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Password != in.Password2 {
		return nil, apperr.ValidationFields("passwords do not match", map[string]string{
			"password": "Passwords do not match",
		})
	}

	// самостоятельно можно зарегистрироваться только как USER или ANALYST
	switch in.Role {
	case "":
		in.Role = models.RoleUser
	case models.RoleUser, models.RoleAnalyst:
	default:
		return nil, apperr.ValidationFields("invalid role", map[string]string{
			"role": "self registration is limited to USER and ANALYST",
		})
	}

	return s.CreateUser(ctx, NewUser{
		Username:   in.Username,
		Email:      in.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Password:   in.Password,
		Role:       in.Role,
		Department: in.Department,
	})
}

// Authenticate verifies credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").
		Where("username = ?", strings.TrimSpace(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// сравниваем с фиктивным хешем, чтобы время ответа не выдавало логин
			_ = checkPassword(dummyHash, password)
			return nil, apperr.Authentication("Invalid username or password.")
		}
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) || !user.IsActive {
		return nil, apperr.Authentication("Invalid username or password.")
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now
	return &user, nil
}

// bcrypt hash of a random string, never matches.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoO5Q/3V3Pa7e5hQ9a3nH5cK4p6bqf1Zmi"

// Get loads a user with its profile.
func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, err
	}
	return &user, nil
}

// List returns active users ordered by username.
func (s *Service) List(ctx context.Context, search string) ([]models.User, error) {
	q := s.db.WithContext(ctx).Preload("Profile").Where("is_active = ?", true).Order("username asc")
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ProfileUpdate carries optional profile and user fields.
type ProfileUpdate struct {
	DisplayName *string
	PhoneNumber *string
	Email       *string
	FirstName   *string
	LastName    *string
	Department  *string
}

func (s *Service) UpdateProfile(ctx context.Context, actor policy.Actor, in ProfileUpdate) (*models.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userFields := map[string]any{}
		if in.Email != nil {
			userFields["email"] = strings.TrimSpace(*in.Email)
		}
		if in.FirstName != nil {
			userFields["first_name"] = *in.FirstName
		}
		if in.LastName != nil {
			userFields["last_name"] = *in.LastName
		}
		if in.Department != nil {
			userFields["department"] = *in.Department
		}
		if len(userFields) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", actor.UserID).Updates(userFields).Error; err != nil {
				return err
			}
		}

		profileFields := map[string]any{}
		if in.DisplayName != nil {
			profileFields["display_name"] = *in.DisplayName
		}
		if in.PhoneNumber != nil {
			profileFields["phone_number"] = *in.PhoneNumber
		}
		if len(profileFields) > 0 {
			res := tx.Model(&models.Profile{}).Where("user_id = ?", actor.UserID).Updates(profileFields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("profile not found")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor.UserID)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, actor policy.Actor, oldPassword, newPassword string) error {
	user, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !checkPassword(user.PasswordHash, oldPassword) {
		return apperr.ValidationFields("incorrect password", map[string]string{
			"old_password": "Incorrect password.",
		})
	}
	return s.setPassword(ctx, user, newPassword)
}

// ForcePasswordChange handles the first login of users created with a
// temporary password. It only works while the flag is set.
func (s *Service) ForcePasswordChange(ctx context.Context, actor policy.Actor, newPassword, confirm string) error {
	user, err := s.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if user.Profile == nil || !user.Profile.MustChangePassword {
		return apperr.InvalidState("password change is not required for this account")
	}
	if newPassword != confirm {
		return apperr.ValidationFields("passwords do not match", map[string]string{
			"confirm_password": "Passwords do not match",
		})
	}
	if checkPassword(user.PasswordHash, newPassword) {
		return apperr.ValidationFields("password unchanged", map[string]string{
			"new_password": "The new password must differ from the temporary one.",
		})
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *Service) setPassword(ctx context.Context, user *models.User, password string) error {
	if err := ValidatePassword(password, user.Username); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("must_change_password", false).Error
	})
}

// AdminCreateUser creates an account with a temporary password that must be
// changed on first login.
func (s *Service) AdminCreateUser(ctx context.Context, actor policy.Actor, in NewUser) (*models.User, error) {
	if d := policy.Evaluate(policy.ManageUsers, policy.Resource{}, actor); !d.Allowed {
		return nil, apperr.Permission("%s", d.Reason)
	}
	in.MustChangePassword = true
	return s.CreateUser(ctx, in)
}

// SetRole changes the role of another user.
func (s *Service) SetRole(ctx context.Context, actor policy.Actor, userID uint, role models.UserRole) (*models.User, error) {
	if d := policy.Evaluate(policy.ManageUsers, policy.Resource{}, actor); !d.Allowed {
		return nil, apperr.Permission("%s", d.Reason)
	}
	if !role.Valid() {
		return nil, apperr.ValidationFields("invalid role", map[string]string{"role": string(role) + " is not a valid role"})
	}
	if userID == actor.UserID {
		return nil, apperr.Validation("administrators cannot change their own role")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	return s.Get(ctx, userID)
}
