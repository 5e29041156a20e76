// Package notifications is the HTTP and websocket surface of the
// notification system: the inbox queries, read-state mutations, course
// broadcasts, and the realtime connection endpoint.
//
// Every route derives the acting user from the request's access token. The
// websocket endpoint accepts the token from the Authorization header or the
// "token" query parameter and rejects the request before the upgrade when it
// is missing or invalid.
package notifications
