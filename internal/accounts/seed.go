package accounts

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"manualdesk/internal/logger"
	"manualdesk/internal/models"
)

// EnsureDefaultAdmin creates the first administrator when no ADMIN exists.
// Without a configured password a random one is generated and logged once;
// the account must change it on first login.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	log := logger.With("seed")

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		// админ уже есть, ничего не делаем
		return nil
	}

	generated := password == ""
	if generated {
		var err error
		if password, err = randomPassword(); err != nil {
			return err
		}
	}

	_, err := s.CreateUser(ctx, NewUser{
		Username:           username,
		Password:           password,
		Role:               models.RoleAdmin,
		DisplayName:        "Administrator",
		MustChangePassword: generated,
	})
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	ev := log.Info().Str("username", username)
	if generated {
		ev = ev.Str("temporary_password", password)
	}
	ev.Msg("created default admin user")
	return nil
}

// SeedDemoUsers adds one account per reviewer-relevant role for demos.
func (s *Service) SeedDemoUsers(ctx context.Context) error {
	log := logger.With("seed")

	demo := []NewUser{
		{Username: "author", Password: "Demo#Pass-101", Role: models.RoleUser, Department: "Operations"},
		{Username: "analyst", Password: "Demo#Pass-102", Role: models.RoleAnalyst, Department: "Quality"},
		{Username: "supervisor", Password: "Demo#Pass-103", Role: models.RoleSupervisor, Department: "Operations"},
		{Username: "manager", Password: "Demo#Pass-104", Role: models.RoleManager, Department: "Operations"},
	}

	for _, u := range demo {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", u.Username).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check seed user %s: %w", u.Username, err)
		}
		if count > 0 {
			continue
		}
		if _, err := s.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create seed user %s: %w", u.Username, err)
		}
		log.Info().Str("username", u.Username).Str("role", string(u.Role)).Msg("created seed user")
	}
	return nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
