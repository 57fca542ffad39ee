package middleware

import (
	"net/http"
	"strconv"
	"time"

	"manualdesk/internal/apperr"
	"manualdesk/internal/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type SessionTimeoutConfig struct {
	TTL     time.Duration
	Warning time.Duration
	// Passive routes report the remaining time without restarting the timer.
	Passive []string
	// On Public routes an expired session is dropped and the request goes on
	// anonymously, so that login works with a stale cookie.
	Public []string
}

// SessionTimeout ends sessions that were idle longer than the TTL and reports
// the remaining time in X-Session-* headers.
func SessionTimeout(cfg SessionTimeoutConfig) gin.HandlerFunc {
	ttl, warning := cfg.TTL, cfg.Warning
	skip := routeSet(cfg.Passive)
	public := routeSet(cfg.Public)

	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if SessionUserID(sess) == 0 {
			c.Next()
			return
		}

		now := time.Now()
		remaining := SessionRemaining(c, ttl, now)
		if remaining <= 0 {
			EndSession(c)
			if _, ok := public[c.FullPath()]; ok {
				c.Next()
				return
			}
			c.Header("X-Session-Remaining", "0")
			c.Header("X-Session-Warning", "true")
			c.Header("X-Session-Expired", "true")
			abort(c, http.StatusUnauthorized, apperr.KindAuthentication.Code(),
				"Your session has expired. Please log in again.", gin.H{"session_expired": true})
			return
		}

		if _, ok := skip[c.FullPath()]; !ok {
			if err := TouchSession(c, now); err != nil {
				// ответ не ломаем, только пишем в лог
				log := logger.With("middleware")
				log.Warn().Err(err).Msg("failed to refresh session activity")
			} else {
				remaining = ttl
			}
		}

		c.Header("X-Session-Remaining", strconv.Itoa(int(remaining.Seconds())))
		c.Header("X-Session-Warning", strconv.FormatBool(remaining < warning))
		c.Header("X-Session-Expired", "false")
		c.Next()
	}
}

func routeSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
