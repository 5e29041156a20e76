// Package dispatch fans domain events out into per-recipient notifications.
//
// A Subject represents one course's fan-out point: observers attach with a
// default sender, and Notify persists one notification per observer before
// pushing it to their live connections. Persistence always precedes the
// push, so a recipient either has a durable row or a recorded failure -
// never a push without a row behind it.
//
// The Engine sits above Subjects and translates domain events (course
// created, teacher changed, student enrolled, attendance marked) into the
// right set of observers and message texts, resolving the parties through a
// Directory.
//
// Failures are isolated per recipient: one failed store write does not stop
// the remaining recipients, and the aggregate comes back as a
// *PartialDeliveryError listing exactly who was missed.
package dispatch
