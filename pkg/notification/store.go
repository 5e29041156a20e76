package notification

import (
	"context"
	"time"
)

// CreateParams describes one notification to persist. Title defaults to
// DefaultTitle when empty; Message and Recipient are required.
type CreateParams struct {
	Recipient   string
	Sender      string // empty for system notifications
	Title       string
	Message     string
	CourseID    string
	CourseTitle string // snapshot; the store never looks the title up
}

// ListOptions filters ListFor results.
type ListOptions struct {
	// ExcludeSender drops notifications sent by the given user. The query
	// surface uses it to hide a user's own broadcasts from their inbox.
	ExcludeSender string
	OnlyUnread    bool
	Limit         int // 0 = no limit
	Offset        int
}

// SentGroup is one logical broadcast reconstructed from per-recipient rows.
//
// Rows are grouped by (title, created_at, sender). This is a heuristic, not
// a stored broadcast entity: two independent sends by the same user with an
// identical title in the same timestamp tick would merge into one group.
// Accepted given microsecond timestamp granularity; callers should treat the
// recipient count as approximate in that corner.
type SentGroup struct {
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Sender      string    `json:"sender"`
	CourseTitle string    `json:"course_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Recipients  int       `json:"recipients"`
}

// Store is the durable notification ledger.
type Store interface {
	// Create persists a new notification and returns it with id and
	// creation timestamp assigned.
	Create(ctx context.Context, params CreateParams) (*Notification, error)

	// MarkRead flips the read flag for the recipient. Returns ErrNotFound
	// for an unknown id and ErrForbidden when actingUser is not the
	// recipient; the flag is untouched in both cases.
	MarkRead(ctx context.Context, id int64, actingUser string) (*Notification, error)

	// MarkAllRead marks every unread notification of the user as read and
	// returns how many were flipped.
	MarkAllRead(ctx context.Context, user string) (int, error)

	// ListFor returns the user's notifications, newest first.
	ListFor(ctx context.Context, user string, opts ListOptions) ([]Notification, error)

	// ListSentBy reconstructs the user's outgoing broadcasts with recipient
	// counts, newest first. See SentGroup for the grouping caveat.
	ListSentBy(ctx context.Context, user string) ([]SentGroup, error)

	// CountUnread returns the number of unread notifications for the user.
	CountUnread(ctx context.Context, user string) (int, error)
}
