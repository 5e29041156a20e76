package accounts

import (
	"time"

	"github.com/dmitrymomot/classtrack/pkg/roster"
)

// Claims is the authenticated identity carried inside an access token.
type Claims struct {
	UserID    string      `json:"uid"`
	Role      roster.Role `json:"role"`
	ExpiresAt int64       `json:"exp"`
}

// Expired reports whether the token's lifetime has passed.
func (c Claims) Expired() bool {
	return c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt
}
