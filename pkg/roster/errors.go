package roster

import "errors"

var (
	// ErrUserNotFound is returned when a user id or username does not exist.
	ErrUserNotFound = errors.New("roster: user not found")
	// ErrCourseNotFound is returned when a course id does not exist.
	ErrCourseNotFound = errors.New("roster: course not found")
	// ErrDuplicateUser is returned when a user id or username is already taken.
	ErrDuplicateUser = errors.New("roster: user id or username already taken")
	// ErrNotEnrolled is returned when an attendance record targets a student
	// who is not enrolled in the course.
	ErrNotEnrolled = errors.New("roster: student is not enrolled in course")
)
