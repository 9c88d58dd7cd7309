package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"inkpress/internal/middleware"
	"inkpress/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	ErrServerFull  = errors.New("server connection limit reached")
	ErrUserFull    = errors.New("user connection limit reached")
	ErrHubShutdown = errors.New("hub is shutting down")
)

// Hub tracks feed connections per user and delivers events to all of them.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	notifier   *Notifier
}

// NewHub creates a Hub. With a Redis-backed notifier events travel through Redis
// so that every instance delivers them; otherwise they are delivered locally.
func NewHub(notifier *Notifier) *Hub {
	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		notifier: notifier,
	}
}

// Name identifies the hub in metrics and logs.
func (h *Hub) Name() string { return "article feed" }

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubShutdown
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes a client. Calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		observability.WebSocketConnections.Dec()
		client.closeSend()
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll queues message on every connection.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// Publish delivers ev to every feed connection, through Redis when available.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	payload, err := ev.Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "encode feed event failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
		return
	}

	if h.notifier.Enabled() {
		err := h.notifier.Publish(ctx, payload)
		if err == nil {
			return
		}
		middleware.Logger.WarnContext(ctx, "feed publish to redis failed, delivering locally",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()),
		)
	}
	h.BroadcastAll(payload)
}

// StartWiring forwards events received from Redis to local connections.
func (h *Hub) StartWiring(ctx context.Context) error {
	return h.notifier.StartSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown closes every send queue so each write pump emits a close frame, then drops
// the connections. Only the write pump writes to a connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for userID, userConns := range h.conns {
		for client := range userConns {
			client.closeSend()
			observability.WebSocketConnections.Dec()
			middleware.Logger.Debug("feed connection closing",
				slog.Uint64("user_id", uint64(userID)),
			)
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
