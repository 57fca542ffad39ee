package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// PasswordChangeGate blocks users with a temporary password everywhere
// except under the allowed path prefixes.
func PasswordChangeGate(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentActor(c).MustChangePassword {
			c.Next()
			return
		}
		for _, prefix := range allowed {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "PASSWORD_CHANGE_REQUIRED",
			"You must change your temporary password before continuing.", nil)
	}
}
