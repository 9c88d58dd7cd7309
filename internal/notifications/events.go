package notifications

import (
	"encoding/json"
	"time"
)

// EventType names an article feed event.
type EventType string

const (
	ArticleCreated EventType = "article_created"
	ArticleUpdated EventType = "article_updated"
	ArticleDeleted EventType = "article_deleted"
	CommentCreated EventType = "comment_created"
	ArticleLiked   EventType = "article_liked"
)

// Event is one message on the article feed.
type Event struct {
	Type      EventType `json:"type"`
	ArticleID uint      `json:"article_id"`
	UserID    uint      `json:"user_id"`
	Payload   any       `json:"payload,omitempty"`
	At        time.Time `json:"at"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, articleID, userID uint, payload any) Event {
	return Event{Type: t, ArticleID: articleID, UserID: userID, Payload: payload, At: time.Now().UTC()}
}

// Encode renders the wire form of the event.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
