// Package handlers is the JSON API over the domain services.
package handlers

import (
	"time"

	"manualdesk/internal/accounts"
	"manualdesk/internal/manuals"
	"manualdesk/internal/reviews"
	"manualdesk/internal/taxonomy"
)

// Settings are the parts of the configuration the handlers need.
type Settings struct {
	SessionTTL     time.Duration
	SessionWarning time.Duration
	SecureCookies  bool
}

type Handler struct {
	settings Settings
	users    *accounts.Service
	manuals  *manuals.Service
	reviews  *reviews.Service
	taxonomy *taxonomy.Service
	now      func() time.Time
}

func New(settings Settings, users *accounts.Service, man *manuals.Service, rev *reviews.Service, tax *taxonomy.Service) *Handler {
	return &Handler{
		settings: settings,
		users:    users,
		manuals:  man,
		reviews:  rev,
		taxonomy: tax,
		now:      time.Now,
	}
}
