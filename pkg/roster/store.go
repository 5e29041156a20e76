package roster

import "context"

// Store is the roster persistence contract. Both the Postgres implementation
// and the in-memory twin used in tests satisfy it.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	User(ctx context.Context, id string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserIDExists(ctx context.Context, id string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	CreateCourse(ctx context.Context, c Course) error
	Course(ctx context.Context, id string) (*Course, error)
	SetCourseTeacher(ctx context.Context, courseID, teacherID string) error

	Enroll(ctx context.Context, courseID, studentID string) error
	EnrolledStudents(ctx context.Context, courseID string) ([]User, error)

	// UpsertAttendance creates or overwrites the record for the
	// (student, course, date) slot and returns the stored record.
	UpsertAttendance(ctx context.Context, rec AttendanceRecord) (*AttendanceRecord, error)
}
