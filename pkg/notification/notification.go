package notification

import "time"

// DefaultTitle is used when the originating event does not name one.
const DefaultTitle = "Notification"

// Notification is one durable row in the ledger. Exactly one row exists per
// (event, recipient) pair; a broadcast to N users produces N rows.
type Notification struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	// Sender is empty for system-generated notifications.
	Sender  string `json:"sender,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
	// CourseID is a weak reference kept for display context; it becomes
	// empty if the course is deleted.
	CourseID string `json:"course_id,omitempty"`
	// CourseTitle is a snapshot captured at creation time. It never changes
	// afterwards, even when the course is renamed or deleted.
	CourseTitle string     `json:"course_title,omitempty"`
	Read        bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// markRead flips the read flag. The transition is monotonic: re-marking an
// already read notification keeps the original ReadAt.
func (n *Notification) markRead(now time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	n.ReadAt = &now
}
