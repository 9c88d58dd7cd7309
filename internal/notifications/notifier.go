// Package notifications fans article feed events out to websocket clients.
package notifications

import (
	"context"
	"log/slog"
	"runtime/debug"

	"inkpress/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis channel that carries encoded feed events between instances.
const FeedChannel = "inkpress:feed"

// Notifier publishes feed events into Redis so every instance's hub receives them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client makes it a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether a Redis client backs the notifier.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// Publish sends an encoded event to FeedChannel.
func (n *Notifier) Publish(ctx context.Context, payload []byte) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, FeedChannel, payload).Err()
}

// StartSubscriber subscribes to FeedChannel and calls onMessage for every payload
// until ctx is cancelled. Panics in onMessage are logged and swallowed.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
