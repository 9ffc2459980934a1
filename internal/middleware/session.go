package middleware

import (
	"context"
	"errors"
	"net/http"

	"ad-ranking-system/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	SessionHeader = "X-Session-Token"
	SessionCookie = "session"

	sessionKey = "session"
)

type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*session.Session, error)
}

// SessionMiddleware resolves the request's session token, if any, and
// stores the session on the context. Requests without a valid session pass
// through as anonymous.
func SessionMiddleware(store SessionLookup, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		sess, err := store.Lookup(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(sessionKey, sess)
		case errors.Is(err, session.ErrNotFound):
		default:
			log.WithError(err).Warn("Session lookup failed, continuing anonymously")
		}
		c.Next()
	}
}

// RequireSession rejects anonymous requests.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not logged in"})
			return
		}
		c.Next()
	}
}

// RequireAdmin only lets the listed users through.
func RequireAdmin(admins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(admins))
	for _, a := range admins {
		allowed[a] = true
	}
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if !sess.Authenticated() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not logged in"})
			return
		}
		if !allowed[sess.UserID] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// CurrentSession returns the request's session, nil when anonymous.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// SessionToken reads the token from the header, falling back to the cookie.
func SessionToken(c *gin.Context) string {
	if token := c.GetHeader(SessionHeader); token != "" {
		return token
	}
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return token
}
