package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tool_inventory/inventory"
	"tool_inventory/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRouter(t *testing.T) (*gin.Engine, *session.AppSessionStore, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewAppSessionStore(rdb, time.Hour)
	r := gin.New()
	r.Use(AuthRequired(store), TouchSession(store, rdb, 5*time.Minute, zaptest.NewLogger(t)))
	r.GET("/role", func(c *gin.Context) {
		role, ok := inventory.RoleFrom(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(role))
	})
	return r, store, mr
}

func get(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredPutsRoleInContext(t *testing.T) {
	r, store, _ := newRouter(t)
	as, err := store.Create(context.Background(), "ana", inventory.RoleWorker)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/role", nil)
	req.Header.Set("Authorization", "Bearer "+as.ID)
	w := get(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "worker", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/role", nil)
	req.AddCookie(&http.Cookie{Name: AppSessionCookie, Value: as.ID})
	assert.Equal(t, http.StatusOK, get(r, req).Code)
}

func TestAuthRequiredRejects(t *testing.T) {
	r, _, _ := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, httptest.NewRequest(http.MethodGet, "/role", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/role", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, get(r, req).Code)
}

func TestTouchSessionSlidesOncePerWindow(t *testing.T) {
	r, store, mr := newRouter(t)
	as, err := store.Create(context.Background(), "boss", inventory.RoleAdmin)
	require.NoError(t, err)

	call := func() {
		req := httptest.NewRequest(http.MethodGet, "/role", nil)
		req.Header.Set("Authorization", "Bearer "+as.ID)
		require.Equal(t, http.StatusOK, get(r, req).Code)
	}

	mr.FastForward(30 * time.Minute)
	call()
	assert.Equal(t, time.Hour, mr.TTL("app:sess:"+as.ID))

	// inside the throttle window the ttl keeps draining
	mr.FastForward(time.Minute)
	call()
	assert.Equal(t, 59*time.Minute, mr.TTL("app:sess:"+as.ID))

	mr.FastForward(5 * time.Minute)
	call()
	assert.Equal(t, time.Hour, mr.TTL("app:sess:"+as.ID))
}
