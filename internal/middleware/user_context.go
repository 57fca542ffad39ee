package middleware

import (
	"net/http"

	"manualdesk/internal/accounts"
	"manualdesk/internal/apperr"
	"manualdesk/internal/logger"
	"manualdesk/internal/policy"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const actorKey = "CurrentActor"

// InjectUser resolves the session user and stores it as a policy.Actor.
// Sessions of deleted or deactivated users are cleared.
func InjectUser(users *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		uid := SessionUserID(sess)
		if uid == 0 {
			c.Next()
			return
		}

		user, err := users.Get(c.Request.Context(), uid)
		switch {
		case err == nil && user.IsActive:
			actor := policy.Actor{
				UserID:     user.ID,
				Username:   user.Username,
				Role:       user.Role,
				Department: user.Department,
			}
			if user.Profile != nil {
				actor.MustChangePassword = user.Profile.MustChangePassword
			}
			c.Set(actorKey, actor)
		case err == nil || apperr.IsNotFound(err):
			EndSession(c)
		default:
			log := logger.With("middleware")
			log.Error().Err(err).Uint("user_id", uid).Msg("failed to load session user")
			abort(c, http.StatusInternalServerError, apperr.KindInternal.Code(), "internal server error", nil)
			return
		}

		c.Next()
	}
}

// CurrentActor returns the authenticated actor, the zero Actor for anonymous requests.
func CurrentActor(c *gin.Context) policy.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Actor{}
}
