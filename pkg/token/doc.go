// Package token implements compact HMAC-signed bearer tokens with a generic
// JSON payload. The accounts service issues them at login and the realtime
// endpoint validates them at websocket connect time; expiry is part of the
// payload and enforced by the caller, keeping this package a pure
// sign/verify primitive.
package token
