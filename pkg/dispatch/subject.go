package dispatch

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/classtrack/pkg/logger"
	"github.com/dmitrymomot/classtrack/pkg/notification"
	"github.com/dmitrymomot/classtrack/pkg/realtime"
)

// Pusher delivers an already-persisted notification to a user's live
// connections. realtime.Registry satisfies it for single-instance
// deployments and realtime.Relay for multi-instance ones.
type Pusher interface {
	Push(ctx context.Context, userID string, env realtime.Envelope)
}

// CourseRef carries the course context a Subject stamps on every
// notification it emits. Title is snapshotted into course_title at creation
// time; later renames never touch emitted rows.
type CourseRef struct {
	ID    string
	Title string
}

// observer wraps one recipient identity plus the default sender used when
// Notify does not override it.
type observer struct {
	recipient string
	sender    string
}

// Subject is the fan-out point for one course aggregate. Observers are
// attached per interested party and notified in attachment order.
type Subject struct {
	course    CourseRef
	store     notification.Store
	pusher    Pusher
	log       *slog.Logger
	observers []observer
	attached  map[string]struct{}
}

// SubjectOption configures a Subject.
type SubjectOption func(*Subject)

// WithSubjectLogger sets the logger for the Subject.
func WithSubjectLogger(log *slog.Logger) SubjectOption {
	return func(s *Subject) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSubject creates a Subject bound to one course. pusher may be nil, in
// which case notifications are persisted without a realtime push.
func NewSubject(store notification.Store, pusher Pusher, course CourseRef, opts ...SubjectOption) *Subject {
	s := &Subject{
		course:   course,
		store:    store,
		pusher:   pusher,
		log:      slog.Default(),
		attached: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach adds a recipient with an optional default sender. Attaching an
// empty recipient is a no-op, and re-attaching a recipient already observed
// by this subject is ignored, keeping fan-out exactly-once per recipient.
func (s *Subject) Attach(recipient, sender string) {
	if recipient == "" {
		return
	}
	if _, ok := s.attached[recipient]; ok {
		return
	}
	s.attached[recipient] = struct{}{}
	s.observers = append(s.observers, observer{recipient: recipient, sender: sender})
}

// Observers returns the number of attached observers.
func (s *Subject) Observers() int {
	return len(s.observers)
}

// NotifyOption adjusts a single Notify call.
type NotifyOption func(*notifyConfig)

type notifyConfig struct {
	title          string
	senderOverride string
	hasSender      bool
}

// WithTitle sets the notification title; the store default applies otherwise.
func WithTitle(title string) NotifyOption {
	return func(c *notifyConfig) { c.title = title }
}

// WithSender overrides every observer's default sender for this call.
func WithSender(sender string) NotifyOption {
	return func(c *notifyConfig) {
		c.senderOverride = sender
		c.hasSender = true
	}
}

// Notify persists one notification per attached observer and pushes each
// persisted row to the recipient's live connections.
//
// Recipients are processed in attachment order. A store failure for one
// recipient is recorded and the remaining recipients still get theirs; the
// aggregated result reports the success count and every failed recipient.
// The push happens only after that recipient's store write succeeded, and a
// failed push is not a delivery failure - the row is durable and will be
// seen on the next poll.
func (s *Subject) Notify(ctx context.Context, message string, opts ...NotifyOption) (*Result, error) {
	var cfg notifyConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	res := &Result{}
	for _, obs := range s.observers {
		sender := obs.sender
		if cfg.hasSender {
			sender = cfg.senderOverride
		}

		n, err := s.store.Create(ctx, notification.CreateParams{
			Recipient:   obs.recipient,
			Sender:      sender,
			Title:       cfg.title,
			Message:     message,
			CourseID:    s.course.ID,
			CourseTitle: s.course.Title,
		})
		if err != nil {
			s.log.LogAttrs(ctx, slog.LevelError, "Failed to persist notification",
				logger.UserID(obs.recipient),
				logger.CourseID(s.course.ID),
				logger.Error(err),
			)
			res.Failed = append(res.Failed, DeliveryFailure{Recipient: obs.recipient, Err: err})
			continue
		}
		res.Delivered++

		if s.pusher == nil {
			continue
		}
		env, err := realtime.NewEnvelope(realtime.MessageNewNotification, n)
		if err != nil {
			s.log.LogAttrs(ctx, slog.LevelError, "Failed to encode notification push",
				logger.NotificationID(n.ID), logger.Error(err))
			continue
		}
		s.pusher.Push(ctx, obs.recipient, env)
	}

	return res, res.Err()
}
