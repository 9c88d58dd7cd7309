package server

import (
	"log/slog"

	"inkpress/internal/middleware"
	"inkpress/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedWebSocket handles GET /api/v1/ws, streaming article feed events to the caller.
// @Summary Article event feed
// @Description WebSocket upgrade. Authenticate with a bearer header or ?token=.
// @Tags realtime
// @Param token query string false "Access token"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) FeedWebSocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(localUserID).(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("feed registration rejected",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("feed connected", slog.Uint64("user_id", uint64(userID)))
		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(featureFlagRealtimeFeed, currentUser(c).ID) {
			return models.Respond(c, models.NewNotFoundError("Feature", string(featureFlagRealtimeFeed)))
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return c.Status(fiber.StatusUpgradeRequired).JSON(models.ErrorResponse{
				Detail: "WebSocket upgrade required",
				Code:   "UPGRADE_REQUIRED",
			})
		}
		return upgrade(c)
	}
}
