// controllers/session_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"tool_inventory/app"
	"tool_inventory/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionController struct{ *Srv }

func NewSessionController(s *Srv) *SessionController { return &SessionController{Srv: s} }

func (sc *SessionController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	username := strings.TrimSpace(in.Username)

	blocked, err := sc.Limiter.Blocked(ctx, username)
	if err != nil {
		sc.fail(c, err)
		return
	}
	if blocked {
		c.JSON(http.StatusTooManyRequests, app.H{"error": "too many failed attempts, try later"})
		return
	}

	acct, err := sc.Users.Authenticate(username, in.Password)
	if errors.Is(err, session.ErrBadCredentials) {
		if ferr := sc.Limiter.Fail(ctx, username); ferr != nil {
			sc.Log.Warn("record failed login", zap.String("user", username), zap.Error(ferr))
		}
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid username or password"})
		return
	}
	if err != nil {
		sc.fail(c, err)
		return
	}
	_ = sc.Limiter.Reset(ctx, username)

	as, err := sc.AppSess.Create(ctx, acct.Username, acct.Role)
	if err != nil {
		sc.fail(c, err)
		return
	}
	sc.setAppCookie(c.Writer, as.ID, sc.AppSess.TTL())
	sc.Log.Info("login", zap.String("user", as.Username), zap.String("role", string(as.Role)))
	c.JSON(http.StatusCreated, app.H{
		"token":     as.ID,
		"username":  as.Username,
		"role":      as.Role,
		"expiresAt": time.Unix(as.ExpiresAt, 0).UTC(),
	})
}

func (sc *SessionController) WhoAmI(c *gin.Context) {
	as, ok := app.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"username":  as.Username,
		"role":      as.Role,
		"expiresAt": time.Unix(as.ExpiresAt, 0).UTC(),
	})
}

func (sc *SessionController) Logout(c *gin.Context) {
	if id := app.SessionID(c); id != "" {
		_ = sc.AppSess.Delete(c.Request.Context(), id)
	}
	sc.clearAppCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (sc *SessionController) RevokeAll(c *gin.Context) {
	as, ok := app.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	if err := sc.AppSess.RevokeAllForUser(c.Request.Context(), as.Username); err != nil {
		sc.fail(c, err)
		return
	}
	sc.clearAppCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
