// app/seenmw.go
package app

import (
	"time"

	"tool_inventory/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TouchSession slides the caller's session, at most once per throttle window.
func TouchSession(appSess *session.AppSessionStore, rdb *redis.Client, throttle time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		as, ok := SessionFrom(c)
		if !ok {
			c.Next()
			return
		}

		key := "app:sess_touch:" + as.ID
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			if err := appSess.Refresh(c, as); err != nil {
				log.Warn("refresh session", zap.String("user", as.Username), zap.Error(err))
			}
		}
		c.Next()
	}
}
