// Package notification is the durable ledger of the fan-out subsystem: one
// row per (event, recipient) pair, with read-state tracking owned by the
// recipient.
//
// The store is the source of truth for delivery. Realtime pushes layered on
// top of it are best effort; a recipient with no live connection simply
// finds the notification here on the next poll or reconnect.
//
// Two implementations are provided: PgStore for production and MemoryStore
// for development and tests. Both enforce the same contract, including the
// monotonic false→true read flag and the immutable course_title snapshot.
package notification
