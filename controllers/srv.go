// controllers/srv.go
package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"tool_inventory/app"
	"tool_inventory/inventory"
	"tool_inventory/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Srv struct {
	Svc       *inventory.Service
	AppSess   *session.AppSessionStore
	Users     *session.Directory
	Limiter   *session.LoginLimiter
	Log       *zap.Logger
	WebOrigin string
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Svc:       a.Service,
		AppSess:   a.AppSessions(),
		Users:     a.Users,
		Limiter:   a.Limiter,
		Log:       a.Log.Named("controllers"),
		WebOrigin: a.Config.WebOrigin,
	}
}

// --- helpers ---

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearAppCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   strings.HasPrefix(s.WebOrigin, "https://"),
	})
}

// paramID parses a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}

func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}
