package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classtrack/pkg/dispatch"
	"github.com/dmitrymomot/classtrack/pkg/notification"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

// seedRoster builds a roster with one teacher, two students, and one course
// taught by the teacher.
func seedRoster(t *testing.T) *roster.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := roster.NewMemoryStore()

	users := []roster.User{
		{ID: "TCR000001", Username: "a.petrov001", FullName: "Alex Petrov", Role: roster.RoleTeacher},
		{ID: "STU000001", Username: "j.smith001", FullName: "John Smith", Role: roster.RoleStudent},
		{ID: "STU000002", Username: "m.jones002", FullName: "Mary Jones", Role: roster.RoleStudent},
	}
	for _, u := range users {
		require.NoError(t, store.CreateUser(ctx, u))
	}
	require.NoError(t, store.CreateCourse(ctx, roster.Course{
		ID:        "c1",
		Title:     "Algebra",
		TeacherID: "TCR000001",
	}))
	return store
}

func inbox(t *testing.T, store notification.Store, user string) []notification.Notification {
	t.Helper()
	rows, err := store.ListFor(context.Background(), user, notification.ListOptions{})
	require.NoError(t, err)
	return rows
}

func TestEngineRaise(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("course created greets the teacher", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.Raise(ctx, dispatch.Event{
			Kind:     dispatch.EventCourseCreated,
			CourseID: "c1",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Delivered)

		rows := inbox(t, store, "TCR000001")
		require.Len(t, rows, 1)
		assert.Equal(t, "Welcome to the course 'Algebra'", rows[0].Message)
		assert.Equal(t, "TCR000001", rows[0].Sender)
	})

	t.Run("course without teacher produces nothing", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		require.NoError(t, dir.CreateCourse(ctx, roster.Course{ID: "c2", Title: "Chemistry"}))
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.Raise(ctx, dispatch.Event{
			Kind:     dispatch.EventCourseCreated,
			CourseID: "c2",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Delivered)
	})

	t.Run("teacher change greets the new teacher", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		require.NoError(t, dir.CreateUser(ctx, roster.User{
			ID: "TCR000002", Username: "b.ivanov002", FullName: "Boris Ivanov", Role: roster.RoleTeacher,
		}))
		require.NoError(t, dir.SetCourseTeacher(ctx, "c1", "TCR000002"))
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.Raise(ctx, dispatch.Event{
			Kind:     dispatch.EventCourseTeacherChanged,
			CourseID: "c1",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Delivered)

		rows := inbox(t, store, "TCR000002")
		require.Len(t, rows, 1)
		assert.Equal(t, "Welcome to the course 'Algebra'", rows[0].Message)
	})

	t.Run("enrollment notifies student and teacher", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.Raise(ctx, dispatch.Event{
			Kind:      dispatch.EventStudentEnrolled,
			CourseID:  "c1",
			StudentID: "STU000001",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Delivered)

		studentRows := inbox(t, store, "STU000001")
		require.Len(t, studentRows, 1)
		assert.Equal(t, "Welcome to the course 'Algebra'", studentRows[0].Message)
		assert.Equal(t, "TCR000001", studentRows[0].Sender)

		teacherRows := inbox(t, store, "TCR000001")
		require.Len(t, teacherRows, 1)
		assert.Equal(t, "New student assigned to 'Algebra': j.smith001", teacherRows[0].Message)
		assert.Empty(t, teacherRows[0].Sender, "the assignment notice is a system message")
	})

	t.Run("enrollment into teacherless course notifies only the student", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		require.NoError(t, dir.CreateCourse(ctx, roster.Course{ID: "c2", Title: "Chemistry"}))
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.Raise(ctx, dispatch.Event{
			Kind:      dispatch.EventStudentEnrolled,
			CourseID:  "c2",
			StudentID: "STU000001",
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Delivered)

		rows := inbox(t, store, "STU000001")
		require.Len(t, rows, 1)
		assert.Empty(t, rows[0].Sender)
	})

	t.Run("attendance marked notifies the student", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.Raise(ctx, dispatch.Event{
			Kind:      dispatch.EventAttendanceMarked,
			CourseID:  "c1",
			StudentID: "STU000001",
			Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Status:    roster.StatusLate,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Delivered)

		rows := inbox(t, store, "STU000001")
		require.Len(t, rows, 1)
		assert.Equal(t, "Attendance for 'Algebra' on 2026-03-02 is updated: Late", rows[0].Message)
		assert.Equal(t, "TCR000001", rows[0].Sender)
	})

	t.Run("course rename never rewrites the snapshot", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		_, err := engine.Raise(ctx, dispatch.Event{
			Kind:     dispatch.EventCourseCreated,
			CourseID: "c1",
		})
		require.NoError(t, err)

		require.NoError(t, dir.CreateCourse(ctx, roster.Course{
			ID: "c1", Title: "Algebra II", TeacherID: "TCR000001",
		}))

		rows := inbox(t, store, "TCR000001")
		require.Len(t, rows, 1)
		assert.Equal(t, "Algebra", rows[0].CourseTitle,
			"notifications keep the title they were created with")
	})

	t.Run("validation and resolution failures", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		engine := dispatch.NewEngine(notification.NewMemoryStore(), nil, dir)

		_, err := engine.Raise(ctx, dispatch.Event{Kind: dispatch.EventCourseCreated})
		assert.ErrorIs(t, err, dispatch.ErrMissingCourse)

		_, err = engine.Raise(ctx, dispatch.Event{Kind: dispatch.EventCourseCreated, CourseID: "nope"})
		assert.ErrorIs(t, err, roster.ErrCourseNotFound)

		_, err = engine.Raise(ctx, dispatch.Event{Kind: dispatch.EventStudentEnrolled, CourseID: "c1"})
		assert.ErrorIs(t, err, dispatch.ErrMissingStudent)

		_, err = engine.Raise(ctx, dispatch.Event{Kind: "course_archived", CourseID: "c1"})
		assert.ErrorIs(t, err, dispatch.ErrUnknownEvent)
	})
}

func TestEngineBroadcastCourse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reaches every student and the teacher", func(t *testing.T) {
		t.Parallel()
		dir := seedRoster(t)
		require.NoError(t, dir.Enroll(ctx, "c1", "STU000001"))
		require.NoError(t, dir.Enroll(ctx, "c1", "STU000002"))
		store := notification.NewMemoryStore()
		engine := dispatch.NewEngine(store, nil, dir)

		res, err := engine.BroadcastCourse(ctx, "c1", "TCR000001", "Exam moved", "Friday now")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Delivered)

		for _, user := range []string{"STU000001", "STU000002"} {
			rows := inbox(t, store, user)
			require.Len(t, rows, 1)
			assert.Equal(t, "Exam moved", rows[0].Title)
			assert.Equal(t, "Friday now", rows[0].Message)
			assert.Equal(t, "TCR000001", rows[0].Sender)
		}

		// The teacher is the sender; their copy exists but their inbox view
		// would hide it through ExcludeSender.
		teacherRows, err := store.ListFor(ctx, "TCR000001", notification.ListOptions{})
		require.NoError(t, err)
		assert.Len(t, teacherRows, 1)
		hidden, err := store.ListFor(ctx, "TCR000001", notification.ListOptions{ExcludeSender: "TCR000001"})
		require.NoError(t, err)
		assert.Empty(t, hidden)
	})

	t.Run("unknown course", func(t *testing.T) {
		t.Parallel()
		engine := dispatch.NewEngine(notification.NewMemoryStore(), nil, seedRoster(t))
		_, err := engine.BroadcastCourse(ctx, "nope", "TCR000001", "", "hello")
		assert.ErrorIs(t, err, roster.ErrCourseNotFound)
	})
}
