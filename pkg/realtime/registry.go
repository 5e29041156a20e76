package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/classtrack/pkg/logger"
)

// Conn is one live transport connection. The registry only needs to write to
// it; connection lifecycle (accept, read loop, close) belongs to the
// transport handler that registered it.
//
// Send must be safe for concurrent use and should fail fast on a dead
// connection: a Send error is treated as an implicit deregister.
type Conn interface {
	Send(ctx context.Context, env Envelope) error
}

// Registry maps user ids to their live connections. One user may hold any
// number of connections (several tabs, several devices); a push addressed to
// the user reaches all of them.
//
// The registry is the only shared mutable state of the realtime layer. A
// single RWMutex over the bucket map keeps register/deregister/push
// linearizable per user without per-bucket lock bookkeeping.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[Conn]struct{}
	log   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for the Registry.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty connection registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns: make(map[string]map[Conn]struct{}),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a connection for the user. Registering the same connection
// twice is a no-op.
func (r *Registry) Register(userID string, c Conn) {
	if userID == "" || c == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.conns[userID]
	if !ok {
		bucket = make(map[Conn]struct{})
		r.conns[userID] = bucket
	}
	bucket[c] = struct{}{}
}

// Deregister removes a connection for the user. It is idempotent: removing
// an unknown connection or user is a no-op.
func (r *Registry) Deregister(userID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(bucket, c)
	if len(bucket) == 0 {
		delete(r.conns, userID)
	}
}

// Push fans the envelope out to every live connection of the user. With zero
// registered connections the push is dropped silently; the durable store is
// the fallback the recipient sees on reconnect. A connection whose Send
// fails is deregistered implicitly.
func (r *Registry) Push(ctx context.Context, userID string, env Envelope) {
	// Snapshot under the read lock, send outside it: a slow connection must
	// not block registration traffic or pushes to other users.
	r.mu.RLock()
	bucket := r.conns[userID]
	targets := make([]Conn, 0, len(bucket))
	for c := range bucket {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(ctx, env); err != nil {
			r.log.LogAttrs(ctx, slog.LevelDebug, "Dropping dead realtime connection",
				logger.UserID(userID),
				slog.String("message_type", string(env.Type)),
				logger.Error(err),
			)
			r.Deregister(userID, c)
		}
	}
}

// Connections returns the number of live connections for the user.
func (r *Registry) Connections(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
