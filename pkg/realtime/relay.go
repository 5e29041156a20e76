package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/classtrack/pkg/logger"
)

// RelayConfig configures the cross-instance push bridge.
type RelayConfig struct {
	RedisURL string `env:"REDIS_URL"`                                             // RedisURL is the redis connection string; empty disables the relay.
	Channel  string `env:"REALTIME_RELAY_CHANNEL" envDefault:"classtrack:realtime"` // Channel is the pub/sub channel name.
}

// relayFrame is the pub/sub payload: the target user plus the envelope to
// deliver to their local connections.
type relayFrame struct {
	UserID   string   `json:"user_id"`
	Envelope Envelope `json:"envelope"`
}

// Relay bridges pushes across service instances over Redis pub/sub. A push
// published on one instance is delivered by every subscribed instance to the
// connections it holds locally, including the publishing instance itself, so
// callers publish instead of pushing directly.
type Relay struct {
	rdb      *redis.Client
	channel  string
	registry *Registry
	log      *slog.Logger
}

// NewRelay creates a relay over the given redis client and local registry.
func NewRelay(rdb *redis.Client, registry *Registry, cfg RelayConfig, log *slog.Logger) (*Relay, error) {
	if rdb == nil {
		return nil, ErrRelayRedisRequired
	}
	if registry == nil {
		return nil, ErrRelayRegistryRequired
	}
	if log == nil {
		log = slog.Default()
	}
	channel := cfg.Channel
	if channel == "" {
		channel = "classtrack:realtime"
	}
	return &Relay{rdb: rdb, channel: channel, registry: registry, log: log}, nil
}

// Push publishes the envelope for delivery on every instance.
func (r *Relay) Push(ctx context.Context, userID string, env Envelope) {
	frame, err := json.Marshal(relayFrame{UserID: userID, Envelope: env})
	if err != nil {
		r.log.LogAttrs(ctx, slog.LevelError, "Failed to encode relay frame",
			logger.UserID(userID), logger.Error(err))
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, frame).Err(); err != nil {
		// Degrade to local delivery: a broken relay must not cost the
		// publishing instance its own connected clients.
		r.log.LogAttrs(ctx, slog.LevelWarn, "Relay publish failed, delivering locally",
			logger.UserID(userID), logger.Error(err))
		r.registry.Push(ctx, userID, env)
	}
}

// Run subscribes to the relay channel and delivers incoming frames to the
// local registry. It blocks until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Confirm the subscription before reporting the relay as running.
	if _, err := sub.Receive(ctx); err != nil {
		return errors.Join(ErrRelaySubscribeFailed, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return ErrRelayChannelClosed
			}
			var frame relayFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				r.log.LogAttrs(ctx, slog.LevelWarn, "Dropping malformed relay frame",
					logger.Error(err))
				continue
			}
			r.registry.Push(ctx, frame.UserID, frame.Envelope)
		}
	}
}
