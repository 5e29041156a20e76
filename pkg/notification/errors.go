package notification

import "errors"

var (
	// ErrNotFound is returned when a notification id does not exist.
	ErrNotFound = errors.New("notification not found")
	// ErrForbidden is returned when the acting user is not the recipient of
	// the targeted notification.
	ErrForbidden = errors.New("notification belongs to another user")
	// ErrEmptyRecipient is returned when Create is called without a recipient.
	ErrEmptyRecipient = errors.New("notification recipient is required")
	// ErrEmptyMessage is returned when Create is called with an empty message.
	ErrEmptyMessage = errors.New("notification message is required")
)
