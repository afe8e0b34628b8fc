package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"issue-tracker/internal/services"
)

const (
	SessionCookie = "session"
	sessionKey    = "session"
)

// TokenParser turns a signed token into a session.
type TokenParser interface {
	ParseToken(token string) (*services.Session, error)
}

// Session attaches the caller's session to the context when a valid token is
// presented. It never rejects a request.
func Session(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token != "" {
			if session, err := parser.ParseToken(token); err == nil {
				c.Set(sessionKey, session)
			}
		}
		c.Next()
	}
}

// RequireSession rejects requests that carry no valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (*services.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*services.Session)
	return session, ok && session != nil
}

func bearerToken(header string) string {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
