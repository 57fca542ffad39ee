package middleware

import (
	"net/http"

	"manualdesk/internal/apperr"
	"manualdesk/internal/models"

	"github.com/gin-gonic/gin"
)

// abort stops the chain with the same error body the handlers use.
func abort(c *gin.Context, status int, code, detail string, extra gin.H) {
	body := gin.H{"code": code, "detail": detail}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

func abortErr(c *gin.Context, err *apperr.Error) {
	abort(c, err.Kind.Status(), err.Kind.Code(), err.Message, nil)
}

// RequireAuth rejects requests without an authenticated user. Must run after InjectUser.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c).UserID == 0 {
			abortErr(c, apperr.Authentication("Authentication credentials were not provided."))
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor.UserID == 0 {
			abortErr(c, apperr.Authentication("Authentication credentials were not provided."))
			return
		}
		if _, ok := roleSet[actor.Role]; !ok {
			abort(c, http.StatusForbidden, apperr.KindPermission.Code(), "access denied", nil)
			return
		}
		c.Next()
	}
}
