package roster

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]User              // id -> user
	usernames   map[string]string            // username -> id
	courses     map[string]Course            // id -> course
	enrollments map[string]map[string]time.Time // courseID -> studentID -> enrolled at
	attendance  map[string]AttendanceRecord  // student|course|date -> record
}

// NewMemoryStore creates an empty in-memory roster store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]User),
		usernames:   make(map[string]string),
		courses:     make(map[string]Course),
		enrollments: make(map[string]map[string]time.Time),
		attendance:  make(map[string]AttendanceRecord),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicateUser
	}
	if _, ok := s.usernames[u.Username]; ok {
		return ErrDuplicateUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = u
	s.usernames[u.Username] = u.ID
	return nil
}

func (s *MemoryStore) User(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *MemoryStore) UserIDExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

func (s *MemoryStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.usernames[username]
	return ok, nil
}

func (s *MemoryStore) CreateCourse(ctx context.Context, c Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.courses[c.ID] = c
	return nil
}

func (s *MemoryStore) Course(ctx context.Context, id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	return &c, nil
}

func (s *MemoryStore) SetCourseTeacher(ctx context.Context, courseID, teacherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.courses[courseID]
	if !ok {
		return ErrCourseNotFound
	}
	if teacherID != "" {
		if _, ok := s.users[teacherID]; !ok {
			return ErrUserNotFound
		}
	}
	c.TeacherID = teacherID
	s.courses[courseID] = c
	return nil
}

func (s *MemoryStore) Enroll(ctx context.Context, courseID, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[courseID]; !ok {
		return ErrCourseNotFound
	}
	if _, ok := s.users[studentID]; !ok {
		return ErrUserNotFound
	}
	if s.enrollments[courseID] == nil {
		s.enrollments[courseID] = make(map[string]time.Time)
	}
	// Re-enrolling is a no-op; the original enrollment time is kept.
	if _, ok := s.enrollments[courseID][studentID]; !ok {
		s.enrollments[courseID][studentID] = time.Now()
	}
	return nil
}

func (s *MemoryStore) EnrolledStudents(ctx context.Context, courseID string) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.courses[courseID]; !ok {
		return nil, ErrCourseNotFound
	}

	ids := make([]string, 0, len(s.enrollments[courseID]))
	for id := range s.enrollments[courseID] {
		ids = append(ids, id)
	}
	// Stable order keeps fan-out attachment order deterministic in tests.
	sort.Slice(ids, func(i, j int) bool {
		return s.enrollments[courseID][ids[i]].Before(s.enrollments[courseID][ids[j]])
	})

	students := make([]User, 0, len(ids))
	for _, id := range ids {
		students = append(students, s.users[id])
	}
	return students, nil
}

func (s *MemoryStore) UpsertAttendance(ctx context.Context, rec AttendanceRecord) (*AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[rec.CourseID]; !ok {
		return nil, ErrCourseNotFound
	}
	if _, ok := s.users[rec.StudentID]; !ok {
		return nil, ErrUserNotFound
	}
	if _, ok := s.enrollments[rec.CourseID][rec.StudentID]; !ok {
		return nil, ErrNotEnrolled
	}

	key := rec.StudentID + "|" + rec.CourseID + "|" + rec.Date.Format("2006-01-02")
	if existing, ok := s.attendance[key]; ok {
		existing.Status = rec.Status
		existing.Notes = rec.Notes
		s.attendance[key] = existing
		return &existing, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.attendance[key] = rec
	return &rec, nil
}
