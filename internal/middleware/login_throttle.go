package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"manualdesk/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const loginFailuresPrefix = "login:failures:"

// LoginThrottle counts failed logins (401 responses) per client IP in Redis
// and answers 429 once maxFailures is reached, until the lockout expires.
// A successful login resets the counter. Without Redis, or when Redis
// fails, requests pass through.
func LoginThrottle(rdb *redis.Client, maxFailures int, lockout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || maxFailures <= 0 {
			c.Next()
			return
		}

		log := logger.With("login_throttle")
		ctx := c.Request.Context()
		key := loginFailuresPrefix + c.ClientIP()

		failures, err := rdb.Get(ctx, key).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("redis unavailable, login throttling skipped")
			c.Next()
			return
		}

		if failures >= maxFailures {
			retryAfter := lockout
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retryAfter = ttl
			}
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			abort(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
				"Too many failed login attempts. Try again later.", nil)
			return
		}

		c.Next()

		var updateErr error
		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			_, updateErr = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Incr(ctx, key)
				pipe.Expire(ctx, key, lockout)
				return nil
			})
		case http.StatusOK:
			updateErr = rdb.Del(ctx, key).Err()
		}
		if updateErr != nil {
			log.Warn().Err(updateErr).Str("client_ip", c.ClientIP()).Msg("failed to update login failures")
		}
	}
}
