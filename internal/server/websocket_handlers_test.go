package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"inkpress/internal/models"
	"inkpress/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedWebSocket_Gating(t *testing.T) {
	t.Run("flag off hides the endpoint", func(t *testing.T) {
		env := newTestEnv(t, withFlags("realtime_feed=off,image_previews=off"))
		user := env.createUser("listener", models.RoleUser)

		resp := env.do(http.MethodGet, "/api/v1/ws?token="+env.token(user), nil, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("plain request needs an upgrade", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser("listener", models.RoleUser)

		resp := env.do(http.MethodGet, "/api/v1/ws?token="+env.token(user), nil, "")
		require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
		assert.Equal(t, "UPGRADE_REQUIRED", decode[models.ErrorResponse](t, resp).Code)
	})

	t.Run("anonymous is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/v1/ws", nil, "").StatusCode)
	})
}

func TestFeedWebSocket_ReceivesLikeEvents(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser("author", models.RoleAuthor)
	listener := env.createUser("listener", models.RoleUser)
	articleID := env.createArticle(env.token(author), "Watched")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	wsURL := fmt.Sprintf("ws://%s/api/v1/ws?token=%s", ln.Addr().String(), env.token(listener))
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return env.srv.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	vote := env.do(http.MethodPost, "/api/v1/likes", fiber.Map{"article_id": articleID, "dir": 1}, env.token(listener))
	require.Equal(t, http.StatusCreated, vote.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notifications.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, notifications.ArticleLiked, ev.Type)
	assert.Equal(t, articleID, ev.ArticleID)
	assert.Equal(t, listener.ID, ev.UserID)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.srv.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGetFeatureFlags(t *testing.T) {
	env := newTestEnv(t, withFlags("realtime_feed=25%,image_previews=off"))
	admin := env.createUser("root", models.RoleAdmin)
	author := env.createUser("writer", models.RoleAuthor)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/admin/feature-flags", nil, env.token(author)).StatusCode)

	resp := env.do(http.MethodGet, "/api/v1/admin/feature-flags", nil, env.token(admin))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}](t, resp)
	assert.Equal(t, "25%", body.Raw["realtime_feed"])
	assert.Equal(t, "off", body.Raw["image_previews"])
	assert.False(t, body.Evaluated["image_previews"])
	assert.Contains(t, body.Evaluated, "realtime_feed")
}
