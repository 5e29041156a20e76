package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/dmitrymomot/classtrack/modules/accounts"
	"github.com/dmitrymomot/classtrack/pkg/logger"
	"github.com/dmitrymomot/classtrack/pkg/realtime"
)

const wsSendTimeout = 5 * time.Second

// wsConn adapts one websocket connection to the registry's Conn contract.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, env realtime.Envelope) error {
	ctx, cancel := context.WithTimeout(ctx, wsSendTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.conn, env)
}

// WSHandler upgrades the request to a websocket, registers the connection for
// the authenticated user, and serves the inbound control loop until the
// client disconnects.
//
// The token is validated before the upgrade, so a rejected client gets a
// plain 401 and never touches the registry. After the upgrade the connection
// stays registered for its whole lifetime; deregistration runs exactly once
// on the way out regardless of how the read loop ends.
func (h *Handler) WSHandler(registry *realtime.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.auth.ValidateToken(accounts.TokenFromRequest(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, accounts.ErrUnauthenticated)
			return
		}

		// Long-lived connection: lift the server's per-request deadlines so
		// the write timeout does not sever it mid-session.
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			h.log.LogAttrs(r.Context(), slog.LevelWarn, "Websocket upgrade failed",
				logger.UserID(claims.UserID), logger.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		wc := &wsConn{conn: conn}
		registry.Register(claims.UserID, wc)
		defer registry.Deregister(claims.UserID, wc)

		ctx := r.Context()
		h.sendEnvelope(ctx, wc, realtime.MessageConnectionEstablished,
			map[string]string{"user_id": claims.UserID})

		h.readLoop(ctx, claims.UserID, conn, wc)
	}
}

// readLoop consumes inbound frames until the connection dies. Only ping is
// meaningful; malformed or unknown frames are logged and skipped rather than
// terminating the connection.
func (h *Handler) readLoop(ctx context.Context, userID string, conn *websocket.Conn, wc *wsConn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.LogAttrs(ctx, slog.LevelDebug, "Websocket closed",
				logger.UserID(userID), logger.Error(err))
			return
		}

		var env realtime.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.log.LogAttrs(ctx, slog.LevelDebug, "Ignoring malformed websocket frame",
				logger.UserID(userID), logger.Error(err))
			continue
		}

		if env.Type == realtime.MessagePing {
			h.sendEnvelope(ctx, wc, realtime.MessagePong, nil)
		}
	}
}

func (h *Handler) sendEnvelope(ctx context.Context, wc *wsConn, t realtime.MessageType, payload any) {
	env, err := realtime.NewEnvelope(t, payload)
	if err != nil {
		h.log.LogAttrs(ctx, slog.LevelError, "Failed to encode websocket frame", logger.Error(err))
		return
	}
	if err := wc.Send(ctx, env); err != nil {
		h.log.LogAttrs(ctx, slog.LevelDebug, "Websocket send failed",
			slog.String("message_type", string(t)), logger.Error(err))
	}
}
