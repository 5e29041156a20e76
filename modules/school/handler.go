package school

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/classtrack/modules/accounts"
	"github.com/dmitrymomot/classtrack/pkg/dispatch"
	"github.com/dmitrymomot/classtrack/pkg/logger"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

// Handler exposes course, enrollment, and attendance management. Each
// mutation persists through the roster store first and then raises the
// matching dispatch event; a notification fan-out failure never rolls the
// mutation back.
type Handler struct {
	store  roster.Store
	engine *dispatch.Engine
	log    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the logger for the Handler.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates the school HTTP handler.
func NewHandler(store roster.Store, engine *dispatch.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:  store,
		engine: engine,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts the authenticated school routes. Mutations require the
// teacher role; students interact with the system through their inbox.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requireTeacher)
	r.Post("/courses", h.createCourse)
	r.Put("/courses/{id}/teacher", h.setTeacher)
	r.Post("/courses/{id}/enroll", h.enroll)
	r.Post("/attendance", h.markAttendance)
	return r
}

func requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accounts.CurrentRole(r.Context()) != roster.RoleTeacher {
			writeError(w, http.StatusForbidden, errors.New("teacher role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TeacherID   string `json:"teacher_id"`
}

// createCourse stores a new course and greets its teacher. An omitted
// teacher_id defaults to the caller.
func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, errors.New("title is required"))
		return
	}
	if req.TeacherID == "" {
		req.TeacherID = accounts.CurrentUserID(r.Context())
	}

	course := roster.Course{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   req.TeacherID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.store.CreateCourse(r.Context(), course); err != nil {
		if errors.Is(err, roster.ErrUserNotFound) {
			writeError(w, http.StatusBadRequest, errors.New("unknown teacher"))
			return
		}
		h.serverError(w, r, "Failed to create course", err)
		return
	}

	h.raise(r.Context(), dispatch.Event{Kind: dispatch.EventCourseCreated, CourseID: course.ID})
	writeJSON(w, http.StatusCreated, course)
}

type setTeacherRequest struct {
	TeacherID string `json:"teacher_id"`
}

// setTeacher reassigns the course to a new teacher and greets them.
func (h *Handler) setTeacher(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req setTeacherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.TeacherID == "" {
		writeError(w, http.StatusBadRequest, errors.New("teacher_id is required"))
		return
	}

	if err := h.store.SetCourseTeacher(r.Context(), courseID, req.TeacherID); err != nil {
		switch {
		case errors.Is(err, roster.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, roster.ErrUserNotFound):
			writeError(w, http.StatusBadRequest, errors.New("unknown teacher"))
		default:
			h.serverError(w, r, "Failed to set course teacher", err)
		}
		return
	}

	h.raise(r.Context(), dispatch.Event{Kind: dispatch.EventCourseTeacherChanged, CourseID: courseID})
	writeJSON(w, http.StatusOK, map[string]string{"course_id": courseID, "teacher_id": req.TeacherID})
}

type enrollRequest struct {
	StudentID string `json:"student_id"`
}

// enroll adds the student to the course. The student gets a welcome message
// and the teacher learns who joined.
func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.StudentID == "" {
		writeError(w, http.StatusBadRequest, errors.New("student_id is required"))
		return
	}

	if err := h.store.Enroll(r.Context(), courseID, req.StudentID); err != nil {
		switch {
		case errors.Is(err, roster.ErrCourseNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, roster.ErrUserNotFound):
			writeError(w, http.StatusBadRequest, errors.New("unknown student"))
		default:
			h.serverError(w, r, "Failed to enroll student", err)
		}
		return
	}

	h.raise(r.Context(), dispatch.Event{
		Kind:      dispatch.EventStudentEnrolled,
		CourseID:  courseID,
		StudentID: req.StudentID,
	})
	writeJSON(w, http.StatusOK, map[string]string{"course_id": courseID, "student_id": req.StudentID})
}

type markAttendanceRequest struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// markAttendance upserts one attendance slot and notifies the student of the
// resulting status.
func (h *Handler) markAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	status := roster.AttendanceStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("status must be P, A, or L"))
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
		return
	}

	rec, err := h.store.UpsertAttendance(r.Context(), roster.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Date:      date,
		Status:    status,
		Notes:     req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrCourseNotFound), errors.Is(err, roster.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, roster.ErrNotEnrolled):
			writeError(w, http.StatusBadRequest, err)
		default:
			h.serverError(w, r, "Failed to mark attendance", err)
		}
		return
	}

	h.raise(r.Context(), dispatch.Event{
		Kind:      dispatch.EventAttendanceMarked,
		CourseID:  rec.CourseID,
		StudentID: rec.StudentID,
		Date:      rec.Date,
		Status:    rec.Status,
	})
	writeJSON(w, http.StatusOK, rec)
}

// raise fires the dispatch event and logs fan-out problems. The triggering
// mutation already succeeded, so delivery failures are reported to the log
// rather than the client.
func (h *Handler) raise(ctx context.Context, ev dispatch.Event) {
	if _, err := h.engine.Raise(ctx, ev); err != nil {
		h.log.LogAttrs(ctx, slog.LevelError, "Notification fan-out incomplete",
			logger.EventType(string(ev.Kind)),
			logger.CourseID(ev.CourseID),
			logger.Error(err),
		)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.LogAttrs(r.Context(), slog.LevelError, msg, logger.Error(err))
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
