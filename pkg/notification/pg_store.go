package notification

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/classtrack/pkg/pg"
)

// PgStore is the Postgres implementation of Store backed by a pgx pool.
//
// The notifications table cascades on recipient deletion and nullifies the
// course reference on course deletion; course_title is a plain column the
// database never rewrites, which is what keeps the snapshot immutable.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a notification store over the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const notificationColumns = `id, recipient, COALESCE(sender, ''), title, message,
	COALESCE(course_id::text, ''), COALESCE(course_title, ''), is_read, read_at, created_at`

func (s *PgStore) Create(ctx context.Context, params CreateParams) (*Notification, error) {
	if params.Recipient == "" {
		return nil, ErrEmptyRecipient
	}
	if params.Message == "" {
		return nil, ErrEmptyMessage
	}
	title := params.Title
	if title == "" {
		title = DefaultTitle
	}

	var sender, courseID, courseTitle any
	if params.Sender != "" {
		sender = params.Sender
	}
	if params.CourseID != "" {
		courseID = params.CourseID
	}
	if params.CourseTitle != "" {
		courseTitle = params.CourseTitle
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (recipient, sender, title, message, course_id, course_title)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+notificationColumns,
		params.Recipient, sender, title, params.Message, courseID, courseTitle,
	)
	return scanNotification(row)
}

func (s *PgStore) MarkRead(ctx context.Context, id int64, actingUser string) (*Notification, error) {
	// Fetch first so a foreign notification yields ErrForbidden rather than
	// being indistinguishable from a missing row.
	row := s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if n.Recipient != actingUser {
		return nil, ErrForbidden
	}
	if n.Read {
		return n, nil
	}

	row = s.pool.QueryRow(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now()
		 WHERE id = $1 AND NOT is_read
		 RETURNING `+notificationColumns,
		id,
	)
	updated, err := scanNotification(row)
	if pg.IsNotFoundError(err) {
		// Lost a race with a concurrent MarkRead; the flag is already set.
		n.Read = true
		return n, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PgStore) MarkAllRead(ctx context.Context, user string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now()
		 WHERE recipient = $1 AND NOT is_read`,
		user,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PgStore) ListFor(ctx context.Context, user string, opts ListOptions) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE recipient = $1
		AND ($2 = '' OR sender IS DISTINCT FROM $2)
		AND (NOT $3 OR NOT is_read)
		ORDER BY created_at DESC, id DESC`
	args := []any{user, opts.ExcludeSender, opts.OnlyUnread}
	if opts.Limit > 0 {
		query += ` LIMIT $4 OFFSET $5`
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *PgStore) ListSentBy(ctx context.Context, user string) ([]SentGroup, error) {
	// Grouping by (title, created_at, sender) reconstructs one broadcast from
	// its per-recipient rows; see SentGroup for the documented collision.
	rows, err := s.pool.Query(ctx,
		`SELECT title, MIN(message), COALESCE(MIN(course_title), ''), created_at, COUNT(*)
		 FROM notifications
		 WHERE sender = $1
		 GROUP BY title, created_at
		 ORDER BY created_at DESC`,
		user,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SentGroup{}
	for rows.Next() {
		g := SentGroup{Sender: user}
		if err := rows.Scan(&g.Title, &g.Message, &g.CourseTitle, &g.CreatedAt, &g.Recipients); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PgStore) CountUnread(ctx context.Context, user string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND NOT is_read`, user).
		Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	var n Notification
	var readAt *time.Time
	err := row.Scan(&n.ID, &n.Recipient, &n.Sender, &n.Title, &n.Message,
		&n.CourseID, &n.CourseTitle, &n.Read, &readAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.ReadAt = readAt
	return &n, nil
}
