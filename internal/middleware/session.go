package middleware

import (
	"time"

	"manualdesk/internal/logger"
	"manualdesk/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserID       = "user_id"
	sessionRole         = "role"
	sessionLastActivity = "last_activity"
	sessionCSRFToken    = "csrf_token"
)

// SessionUserID returns the user stored in the session, 0 if none.
func SessionUserID(sess sessions.Session) uint {
	if uid, ok := sess.Get(sessionUserID).(uint); ok {
		return uid
	}
	return 0
}

// StartSession binds the session to user. The CSRF token survives the login.
func StartSession(c *gin.Context, user *models.User, now time.Time) error {
	sess := sessions.Default(c)
	sess.Set(sessionUserID, user.ID)
	sess.Set(sessionRole, string(user.Role))
	sess.Set(sessionLastActivity, now.Unix())
	return sess.Save()
}

func EndSession(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		log := logger.With("middleware")
		log.Warn().Err(err).Msg("failed to clear session")
	}
}

// TouchSession restarts the inactivity timer.
func TouchSession(c *gin.Context, now time.Time) error {
	sess := sessions.Default(c)
	sess.Set(sessionLastActivity, now.Unix())
	return sess.Save()
}

// SessionRemaining returns how long the session stays valid without activity.
func SessionRemaining(c *gin.Context, ttl time.Duration, now time.Time) time.Duration {
	last, ok := sessions.Default(c).Get(sessionLastActivity).(int64)
	if !ok {
		return ttl
	}
	remaining := ttl - now.Sub(time.Unix(last, 0))
	if remaining < 0 {
		return 0
	}
	return remaining
}
