// Package httpserver wraps net/http's server with graceful shutdown, signal
// handling, start/stop hooks and a probe handler, so cmd/server stays a
// wiring file.
package httpserver
