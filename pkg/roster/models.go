package roster

import "time"

// Role tags a user as student or teacher. The value doubles as the 3-letter
// prefix of allocated user ids.
type Role string

const (
	RoleStudent Role = "STU"
	RoleTeacher Role = "TCR"
)

// Valid reports whether the role is one of the known tags.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User is an account in the school roster. ID and Username are produced by
// the identity allocator and are unique across all users.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Course is a teachable unit. TeacherID is empty when no teacher is assigned.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttendanceStatus is the single-letter attendance mark.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "P"
	StatusAbsent  AttendanceStatus = "A"
	StatusLate    AttendanceStatus = "L"
)

// Valid reports whether the status is one of the known marks.
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

// Display returns the human-readable form used in notification messages.
func (s AttendanceStatus) Display() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	case StatusLate:
		return "Late"
	default:
		return string(s)
	}
}

// AttendanceRecord marks one student's attendance in one course on one date.
// At most one record exists per (student, course, date); re-marking the same
// slot overwrites status and notes.
type AttendanceRecord struct {
	ID        string           `json:"id"`
	StudentID string           `json:"student_id"`
	CourseID  string           `json:"course_id"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
