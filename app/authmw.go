package app

import (
	"errors"
	"net/http"
	"strings"

	"tool_inventory/inventory"
	"tool_inventory/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

const sessionKey = "session"

// SessionID reads the session id from the cookie or a bearer token.
func SessionID(c *gin.Context) string {
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// AuthRequired resolves the session and puts its role into the request
// context, where the inventory service reads it.
func AuthRequired(appSess *session.AppSessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := SessionID(c)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), id)
		if errors.Is(err, session.ErrNoSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, H{"error": "session store unavailable"})
			return
		}

		c.Set(sessionKey, as)
		c.Request = c.Request.WithContext(inventory.WithRole(c.Request.Context(), as.Role))
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (*session.AppSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	as, ok := v.(*session.AppSession)
	return as, ok
}
