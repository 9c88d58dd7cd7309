package server

import (
	"context"

	"inkpress/internal/models"
	"inkpress/internal/notifications"
)

// publishFeedEvent pushes an event to the article feed. It is a no-op when the
// realtime_feed flag is off for everyone. Delivery never fails the request that caused it.
func (s *Server) publishFeedEvent(ctx context.Context, t notifications.EventType, articleID, userID uint, payload any) {
	if s.hub == nil || !s.featureFlags.EnabledForAny(featureFlagRealtimeFeed) {
		return
	}
	s.hub.Publish(context.WithoutCancel(ctx), notifications.NewEvent(t, articleID, userID, payload))
}

func articleSummary(a *models.Article) map[string]any {
	return map[string]any{
		"id":         a.ID,
		"title":      a.Title,
		"author_id":  a.UserID,
		"categories": a.CategoryIDs,
	}
}
