package notification

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   []Notification
}

// NewMemoryStore creates an empty in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(ctx context.Context, params CreateParams) (*Notification, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n := Notification{
		ID:          s.nextID,
		Recipient:   params.Recipient,
		Sender:      params.Sender,
		Title:       title,
		Message:     params.Message,
		CourseID:    params.CourseID,
		CourseTitle: params.CourseTitle,
		CreatedAt:   time.Now(),
	}
	s.rows = append(s.rows, n)
	return &n, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, id int64, actingUser string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].ID != id {
			continue
		}
		if s.rows[i].Recipient != actingUser {
			return nil, ErrForbidden
		}
		s.rows[i].markRead(time.Now())
		n := s.rows[i]
		return &n, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) MarkAllRead(ctx context.Context, user string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for i := range s.rows {
		if s.rows[i].Recipient == user && !s.rows[i].Read {
			s.rows[i].markRead(now)
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ListFor(ctx context.Context, user string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Notification
	for _, n := range s.rows {
		if n.Recipient != user {
			continue
		}
		if opts.ExcludeSender != "" && n.Sender == opts.ExcludeSender {
			continue
		}
		if opts.OnlyUnread && n.Read {
			continue
		}
		filtered = append(filtered, n)
	}

	// Newest first; id breaks ties within the same timestamp tick.
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (s *MemoryStore) ListSentBy(ctx context.Context, user string) ([]SentGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		title     string
		createdAt time.Time
	}
	groups := make(map[key]*SentGroup)
	var order []key

	for _, n := range s.rows {
		if n.Sender != user {
			continue
		}
		k := key{title: n.Title, createdAt: n.CreatedAt}
		g, ok := groups[k]
		if !ok {
			g = &SentGroup{
				Title:       n.Title,
				Message:     n.Message,
				Sender:      n.Sender,
				CourseTitle: n.CourseTitle,
				CreatedAt:   n.CreatedAt,
			}
			groups[k] = g
			order = append(order, k)
		}
		g.Recipients++
	}

	out := make([]SentGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, user string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.rows {
		if n.Recipient == user && !n.Read {
			count++
		}
	}
	return count, nil
}
