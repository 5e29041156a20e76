package dispatch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classtrack/pkg/dispatch"
	"github.com/dmitrymomot/classtrack/pkg/notification"
	"github.com/dmitrymomot/classtrack/pkg/realtime"
)

// recordingPusher captures every push in order.
type recordingPusher struct {
	pushes []pushedFrame
}

type pushedFrame struct {
	userID string
	env    realtime.Envelope
}

func (p *recordingPusher) Push(_ context.Context, userID string, env realtime.Envelope) {
	p.pushes = append(p.pushes, pushedFrame{userID: userID, env: env})
}

// failingStore wraps a Store and fails Create for selected recipients.
type failingStore struct {
	notification.Store
	failFor map[string]error
}

func (s *failingStore) Create(ctx context.Context, params notification.CreateParams) (*notification.Notification, error) {
	if err, ok := s.failFor[params.Recipient]; ok {
		return nil, err
	}
	return s.Store.Create(ctx, params)
}

func TestSubjectAttach(t *testing.T) {
	t.Parallel()

	subj := dispatch.NewSubject(notification.NewMemoryStore(), nil,
		dispatch.CourseRef{ID: "c1", Title: "Algebra"})

	subj.Attach("STU000001", "")
	subj.Attach("STU000001", "TCR000001") // duplicate recipient is ignored
	subj.Attach("", "TCR000001")          // empty recipient is a no-op
	subj.Attach("STU000002", "")

	assert.Equal(t, 2, subj.Observers())
}

func TestSubjectNotify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists one row per observer and pushes each", func(t *testing.T) {
		t.Parallel()
		store := notification.NewMemoryStore()
		pusher := &recordingPusher{}
		subj := dispatch.NewSubject(store, pusher, dispatch.CourseRef{ID: "c1", Title: "Algebra"})
		subj.Attach("STU000001", "TCR000001")
		subj.Attach("STU000002", "TCR000001")

		res, err := subj.Notify(ctx, "Welcome to the course 'Algebra'")
		require.NoError(t, err)
		assert.Equal(t, 2, res.Delivered)
		assert.Empty(t, res.Failed)

		for _, user := range []string{"STU000001", "STU000002"} {
			rows, err := store.ListFor(ctx, user, notification.ListOptions{})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "Welcome to the course 'Algebra'", rows[0].Message)
			assert.Equal(t, "TCR000001", rows[0].Sender)
			assert.Equal(t, "Algebra", rows[0].CourseTitle)
		}

		require.Len(t, pusher.pushes, 2)
		assert.Equal(t, "STU000001", pusher.pushes[0].userID)
		assert.Equal(t, "STU000002", pusher.pushes[1].userID)
		for _, p := range pusher.pushes {
			assert.Equal(t, realtime.MessageNewNotification, p.env.Type)
		}
	})

	t.Run("isolates per-recipient store failures", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("disk full")
		store := &failingStore{
			Store:   notification.NewMemoryStore(),
			failFor: map[string]error{"STU000002": boom},
		}
		pusher := &recordingPusher{}
		subj := dispatch.NewSubject(store, pusher, dispatch.CourseRef{ID: "c1", Title: "Algebra"})
		subj.Attach("STU000001", "")
		subj.Attach("STU000002", "")
		subj.Attach("STU000003", "")

		res, err := subj.Notify(ctx, "hello")
		assert.Equal(t, 2, res.Delivered)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, "STU000002", res.Failed[0].Recipient)

		var partial *dispatch.PartialDeliveryError
		require.ErrorAs(t, err, &partial)
		assert.Equal(t, 2, partial.Delivered)
		assert.ErrorIs(t, err, boom)

		// The failed recipient must not receive a push: the push always
		// follows the durable write.
		require.Len(t, pusher.pushes, 2)
		assert.Equal(t, "STU000001", pusher.pushes[0].userID)
		assert.Equal(t, "STU000003", pusher.pushes[1].userID)
	})

	t.Run("title and sender overrides", func(t *testing.T) {
		t.Parallel()
		store := notification.NewMemoryStore()
		subj := dispatch.NewSubject(store, nil, dispatch.CourseRef{ID: "c1", Title: "Algebra"})
		subj.Attach("STU000001", "TCR000001")

		_, err := subj.Notify(ctx, "exam moved",
			dispatch.WithTitle("Schedule change"),
			dispatch.WithSender("TCR000002"),
		)
		require.NoError(t, err)

		rows, err := store.ListFor(ctx, "STU000001", notification.ListOptions{})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Schedule change", rows[0].Title)
		assert.Equal(t, "TCR000002", rows[0].Sender)
	})

	t.Run("no observers delivers nothing", func(t *testing.T) {
		t.Parallel()
		subj := dispatch.NewSubject(notification.NewMemoryStore(), nil,
			dispatch.CourseRef{ID: "c1", Title: "Algebra"})

		res, err := subj.Notify(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, 0, res.Delivered)
		assert.Empty(t, res.Failed)
	})
}
