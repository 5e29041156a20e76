package roster

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/classtrack/pkg/pg"
)

// PgStore is the Postgres implementation of Store backed by a pgx pool.
// Schema lives in migrations/.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a roster store over the given connection pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, full_name, role, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.FullName, string(u.Role), u.PasswordHash,
	)
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(ErrDuplicateUser, err)
	}
	return err
}

func (s *PgStore) User(ctx context.Context, id string) (*User, error) {
	return s.scanUser(ctx,
		`SELECT id, username, full_name, role, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *PgStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(ctx,
		`SELECT id, username, full_name, role, password_hash, created_at FROM users WHERE username = $1`, username)
}

func (s *PgStore) scanUser(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	var role string
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.FullName, &role, &u.PasswordHash, &u.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

func (s *PgStore) UserIDExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (s *PgStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (s *PgStore) CreateCourse(ctx context.Context, c Course) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	var teacher any
	if c.TeacherID != "" {
		teacher = c.TeacherID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO courses (id, title, description, teacher_id) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Title, c.Description, teacher,
	)
	if pg.IsForeignKeyViolationError(err) {
		return errors.Join(ErrUserNotFound, err)
	}
	return err
}

func (s *PgStore) Course(ctx context.Context, id string) (*Course, error) {
	var c Course
	var teacher *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, teacher_id, created_at FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Description, &teacher, &c.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	if teacher != nil {
		c.TeacherID = *teacher
	}
	return &c, nil
}

func (s *PgStore) SetCourseTeacher(ctx context.Context, courseID, teacherID string) error {
	var teacher any
	if teacherID != "" {
		teacher = teacherID
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE courses SET teacher_id = $2 WHERE id = $1`, courseID, teacher)
	if pg.IsForeignKeyViolationError(err) {
		return errors.Join(ErrUserNotFound, err)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (s *PgStore) Enroll(ctx context.Context, courseID, studentID string) error {
	// ON CONFLICT keeps re-enrollment idempotent, matching the in-memory twin.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrollments (course_id, student_id) VALUES ($1, $2)
		 ON CONFLICT (course_id, student_id) DO NOTHING`,
		courseID, studentID,
	)
	if pg.IsForeignKeyViolationError(err) {
		return errors.Join(ErrCourseNotFound, err)
	}
	return err
}

func (s *PgStore) EnrolledStudents(ctx context.Context, courseID string) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.username, u.full_name, u.role, u.password_hash, u.created_at
		 FROM enrollments e
		 JOIN users u ON u.id = e.student_id
		 WHERE e.course_id = $1
		 ORDER BY e.enrolled_at, u.id`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.Role = Role(role)
		students = append(students, u)
	}
	return students, rows.Err()
}

func (s *PgStore) UpsertAttendance(ctx context.Context, rec AttendanceRecord) (*AttendanceRecord, error) {
	var enrolled bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`,
		rec.CourseID, rec.StudentID).Scan(&enrolled); err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	var out AttendanceRecord
	var status string
	var date time.Time
	err := s.pool.QueryRow(ctx,
		`INSERT INTO attendance_records (id, student_id, course_id, date, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (student_id, course_id, date)
		 DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes
		 RETURNING id, student_id, course_id, date, status, notes, created_at`,
		rec.ID, rec.StudentID, rec.CourseID, rec.Date, string(rec.Status), rec.Notes,
	).Scan(&out.ID, &out.StudentID, &out.CourseID, &date, &status, &out.Notes, &out.CreatedAt)
	if pg.IsForeignKeyViolationError(err) {
		return nil, errors.Join(ErrCourseNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	out.Date = date
	out.Status = AttendanceStatus(status)
	return &out, nil
}
