package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CSRFCookie = "csrftoken"
	CSRFHeader = "X-CSRFToken"
)

// IssueCSRFToken returns the session token, creating it and the cookie on first use.
func IssueCSRFToken(c *gin.Context, secure bool) (string, error) {
	sess := sessions.Default(c)
	token, _ := sess.Get(sessionCSRFToken).(string)
	if token == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		token = hex.EncodeToString(buf)
		sess.Set(sessionCSRFToken, token)
		if err := sess.Save(); err != nil {
			return "", err
		}
	}
	// cookie читает фронтенд, поэтому без HttpOnly
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CSRFCookie, token, 0, "/", "", secure, false)
	return token, nil
}

// CSRF requires unsafe requests of authenticated sessions to echo the token
// in the X-CSRFToken header.
func CSRF(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		sess := sessions.Default(c)
		if SessionUserID(sess) == 0 {
			c.Next()
			return
		}

		expected, _ := sess.Get(sessionCSRFToken).(string)
		got := c.GetHeader(CSRFHeader)
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			abort(c, http.StatusForbidden, "CSRF_FAILED", "CSRF token missing or incorrect.", nil)
			return
		}
		c.Next()
	}
}
