package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/classtrack/modules/accounts"
	"github.com/dmitrymomot/classtrack/pkg/dispatch"
	"github.com/dmitrymomot/classtrack/pkg/logger"
	"github.com/dmitrymomot/classtrack/pkg/notification"
	"github.com/dmitrymomot/classtrack/pkg/realtime"
	"github.com/dmitrymomot/classtrack/pkg/roster"
)

// Handler exposes the notification inbox and broadcast endpoints. All routes
// require the accounts middleware upstream; the acting user always comes from
// the request's claims, never from the payload.
type Handler struct {
	store  notification.Store
	engine *dispatch.Engine
	pusher dispatch.Pusher
	auth   *accounts.Service
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

// NewHandler creates the notifications HTTP handler. pusher may be nil, in
// which case read-state changes are not mirrored to live connections.
func NewHandler(store notification.Store, engine *dispatch.Engine, pusher dispatch.Pusher, auth *accounts.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:  store,
		engine: engine,
		pusher: pusher,
		auth:   auth,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts the authenticated notification routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/{id}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
	r.Get("/sent", h.listSent)
	r.Post("/send-course", h.sendCourse)
	return r
}

type listResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Unread        int                         `json:"unread"`
}

// list returns the caller's inbox, newest first, excluding notifications the
// caller sent themselves.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user := accounts.CurrentUserID(r.Context())

	opts := notification.ListOptions{
		ExcludeSender: user,
		OnlyUnread:    r.URL.Query().Get("unread") == "true",
		Limit:         queryInt(r, "limit"),
		Offset:        queryInt(r, "offset"),
	}
	items, err := h.store.ListFor(r.Context(), user, opts)
	if err != nil {
		h.serverError(w, r, "Failed to list notifications", err)
		return
	}
	unread, err := h.store.CountUnread(r.Context(), user)
	if err != nil {
		h.serverError(w, r, "Failed to count unread notifications", err)
		return
	}
	if items == nil {
		items = []notification.Notification{}
	}
	writeJSON(w, http.StatusOK, listResponse{Notifications: items, Unread: unread})
}

// markRead flips one notification's read flag and mirrors the change to the
// caller's live connections.
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	user := accounts.CurrentUserID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid notification id"))
		return
	}

	n, err := h.store.MarkRead(r.Context(), id, user)
	switch {
	case errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, notification.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
		return
	case err != nil:
		h.serverError(w, r, "Failed to mark notification read", err)
		return
	}

	h.push(r.Context(), user, realtime.MessageNotificationRead, map[string]int64{"id": n.ID})
	writeJSON(w, http.StatusOK, n)
}

// markAllRead marks every unread notification of the caller as read.
func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	user := accounts.CurrentUserID(r.Context())

	count, err := h.store.MarkAllRead(r.Context(), user)
	if err != nil {
		h.serverError(w, r, "Failed to mark all notifications read", err)
		return
	}

	h.push(r.Context(), user, realtime.MessageAllNotificationsRead, map[string]int{"count": count})
	writeJSON(w, http.StatusOK, map[string]int{"marked": count})
}

// listSent returns the caller's outgoing broadcasts with recipient counts.
func (h *Handler) listSent(w http.ResponseWriter, r *http.Request) {
	user := accounts.CurrentUserID(r.Context())

	groups, err := h.store.ListSentBy(r.Context(), user)
	if err != nil {
		h.serverError(w, r, "Failed to list sent notifications", err)
		return
	}
	if groups == nil {
		groups = []notification.SentGroup{}
	}
	writeJSON(w, http.StatusOK, map[string][]notification.SentGroup{"sent": groups})
}

type sendCourseRequest struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

type sendCourseResponse struct {
	Delivered int      `json:"delivered"`
	Failed    []string `json:"failed,omitempty"`
}

// sendCourse broadcasts a message from the caller to every enrolled student
// and the teacher of the course.
func (h *Handler) sendCourse(w http.ResponseWriter, r *http.Request) {
	user := accounts.CurrentUserID(r.Context())

	var req sendCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.CourseID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("course_id and message are required"))
		return
	}

	res, err := h.engine.BroadcastCourse(r.Context(), req.CourseID, user, req.Title, req.Message)
	if errors.Is(err, roster.ErrCourseNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}

	resp := sendCourseResponse{}
	if res != nil {
		resp.Delivered = res.Delivered
		for _, f := range res.Failed {
			resp.Failed = append(resp.Failed, f.Recipient)
		}
	}
	var partial *dispatch.PartialDeliveryError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.As(err, &partial):
		// Some recipients have durable rows, some do not; report both sides
		// instead of pretending the broadcast failed wholesale.
		writeJSON(w, http.StatusOK, resp)
	default:
		h.serverError(w, r, "Failed to broadcast to course", err)
	}
}

func (h *Handler) push(ctx context.Context, user string, t realtime.MessageType, payload any) {
	if h.pusher == nil {
		return
	}
	env, err := realtime.NewEnvelope(t, payload)
	if err != nil {
		h.log.LogAttrs(ctx, slog.LevelError, "Failed to encode push", logger.Error(err))
		return
	}
	h.pusher.Push(ctx, user, env)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.LogAttrs(r.Context(), slog.LevelError, msg, logger.Error(err))
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	if n < 0 {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
