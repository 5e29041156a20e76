package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/classtrack/pkg/notification"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

// EventKind names a domain event the engine knows how to fan out.
type EventKind string

const (
	EventCourseCreated        EventKind = "course_created"
	EventCourseTeacherChanged EventKind = "course_teacher_changed"
	EventStudentEnrolled      EventKind = "student_enrolled"
	EventAttendanceMarked     EventKind = "attendance_marked"
)

// Event describes one domain occurrence. CourseID is always required;
// StudentID, Date, and Status matter only for the kinds that use them.
type Event struct {
	Kind      EventKind
	CourseID  string
	StudentID string
	Date      time.Time
	Status    roster.AttendanceStatus
}

// Directory resolves the users involved in an event. roster.Store satisfies it.
type Directory interface {
	Course(ctx context.Context, id string) (*roster.Course, error)
	User(ctx context.Context, id string) (*roster.User, error)
	EnrolledStudents(ctx context.Context, courseID string) ([]roster.User, error)
}

// Engine turns domain events into notification fan-outs. It resolves the
// interested parties for each event kind through the directory, builds a
// Subject over them, and delegates delivery to it.
type Engine struct {
	store  notification.Store
	pusher Pusher
	dir    Directory
	log    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for the Engine and the Subjects it builds.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates an Engine. pusher may be nil to disable realtime pushes.
func NewEngine(store notification.Store, pusher Pusher, dir Directory, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		pusher: pusher,
		dir:    dir,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Raise fans out the notifications for one domain event. The returned error
// is a *PartialDeliveryError when some recipients failed, or a resolution
// error when the event references a course or user that does not exist.
func (e *Engine) Raise(ctx context.Context, ev Event) (*Result, error) {
	if ev.CourseID == "" {
		return nil, ErrMissingCourse
	}
	course, err := e.dir.Course(ctx, ev.CourseID)
	if err != nil {
		return nil, err
	}

	switch ev.Kind {
	case EventCourseCreated, EventCourseTeacherChanged:
		return e.welcomeTeacher(ctx, course)
	case EventStudentEnrolled:
		return e.studentEnrolled(ctx, course, ev)
	case EventAttendanceMarked:
		return e.attendanceMarked(ctx, course, ev)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
}

// welcomeTeacher greets the course's current teacher. Courses without a
// teacher produce no notifications; the greeting is sent when one is set.
func (e *Engine) welcomeTeacher(ctx context.Context, course *roster.Course) (*Result, error) {
	subj := e.subject(course)
	subj.Attach(course.TeacherID, course.TeacherID)
	return subj.Notify(ctx, fmt.Sprintf("Welcome to the course '%s'", course.Title))
}

// studentEnrolled welcomes the student on the teacher's behalf and tells the
// teacher who joined. The two messages differ, so each goes through its own
// single-observer fan-out.
func (e *Engine) studentEnrolled(ctx context.Context, course *roster.Course, ev Event) (*Result, error) {
	if ev.StudentID == "" {
		return nil, ErrMissingStudent
	}
	student, err := e.dir.User(ctx, ev.StudentID)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	welcome := e.subject(course)
	welcome.Attach(student.ID, course.TeacherID)
	wres, _ := welcome.Notify(ctx, fmt.Sprintf("Welcome to the course '%s'", course.Title))
	res.merge(wres)

	if course.TeacherID != "" {
		assigned := e.subject(course)
		assigned.Attach(course.TeacherID, "")
		ares, _ := assigned.Notify(ctx,
			fmt.Sprintf("New student assigned to '%s': %s", course.Title, student.Username))
		res.merge(ares)
	}

	return res, res.Err()
}

// attendanceMarked tells the student their attendance changed, attributed to
// the course's teacher.
func (e *Engine) attendanceMarked(ctx context.Context, course *roster.Course, ev Event) (*Result, error) {
	if ev.StudentID == "" {
		return nil, ErrMissingStudent
	}
	subj := e.subject(course)
	subj.Attach(ev.StudentID, course.TeacherID)
	return subj.Notify(ctx, fmt.Sprintf("Attendance for '%s' on %s is updated: %s",
		course.Title, ev.Date.Format("2006-01-02"), ev.Status.Display()))
}

// BroadcastCourse sends one message from sender to every enrolled student
// and the course's teacher. The sender, if among the recipients, still gets
// a copy; list views exclude self-sent rows instead.
func (e *Engine) BroadcastCourse(ctx context.Context, courseID, sender, title, message string) (*Result, error) {
	course, err := e.dir.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students, err := e.dir.EnrolledStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}

	subj := e.subject(course)
	for _, s := range students {
		subj.Attach(s.ID, sender)
	}
	subj.Attach(course.TeacherID, sender)

	opts := []NotifyOption{WithSender(sender)}
	if title != "" {
		opts = append(opts, WithTitle(title))
	}
	return subj.Notify(ctx, message, opts...)
}

func (e *Engine) subject(course *roster.Course) *Subject {
	return NewSubject(e.store, e.pusher, CourseRef{ID: course.ID, Title: course.Title},
		WithSubjectLogger(e.log))
}
