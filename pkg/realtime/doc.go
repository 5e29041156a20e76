// Package realtime maintains the per-user registry of live connections and
// the push path that fans a message out to all of them.
//
// Delivery semantics are at-most-once: a push to a user with no registered
// connections is dropped silently, and a connection that fails mid-send is
// deregistered rather than retried. The durable notification store layered
// underneath provides the at-least-once guarantee; this package only makes
// already-persisted messages arrive faster.
//
// The Registry covers a single process. For multi-instance deployments the
// Relay mirrors every push over Redis pub/sub so the instance holding the
// user's websocket delivers it, wherever the triggering request landed.
package realtime
