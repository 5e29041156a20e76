package notifications_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/classtrack/pkg/realtime"
)

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + srv.URL[len("http"):] + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var env realtime.Envelope
	require.NoError(t, wsjson.Read(ctx, conn, &env))
	return env
}

func TestWSHandler(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing or invalid token before upgrade", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/ws")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, err = http.Get(srv.URL + "/ws?token=garbage")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		assert.Equal(t, 0, env.registry.Connections(env.student.ID),
			"a rejected client never reaches the registry")
	})

	t.Run("registers and confirms the connection", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()

		conn := dialWS(t, srv, env.studentToken)
		got := readEnvelope(t, conn)
		assert.Equal(t, realtime.MessageConnectionEstablished, got.Type)
		assert.JSONEq(t, `{"user_id":"`+env.student.ID+`"}`, string(got.Payload))

		require.Eventually(t, func() bool {
			return env.registry.Connections(env.student.ID) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("answers ping with pong", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()

		conn := dialWS(t, srv, env.studentToken)
		_ = readEnvelope(t, conn) // connection_established

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, wsjson.Write(ctx, conn, realtime.Envelope{Type: realtime.MessagePing}))

		got := readEnvelope(t, conn)
		assert.Equal(t, realtime.MessagePong, got.Type)
	})

	t.Run("receives registry pushes", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()

		conn := dialWS(t, srv, env.studentToken)
		_ = readEnvelope(t, conn) // connection_established

		require.Eventually(t, func() bool {
			return env.registry.Connections(env.student.ID) == 1
		}, time.Second, 10*time.Millisecond)

		pushed, err := realtime.NewEnvelope(realtime.MessageNewNotification, map[string]string{"message": "hi"})
		require.NoError(t, err)
		env.registry.Push(context.Background(), env.student.ID, pushed)

		got := readEnvelope(t, conn)
		assert.Equal(t, realtime.MessageNewNotification, got.Type)
	})

	t.Run("malformed frames keep the connection alive", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()

		conn := dialWS(t, srv, env.studentToken)
		_ = readEnvelope(t, conn) // connection_established

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))

		// The connection must survive the bad frame and still answer pings.
		require.NoError(t, wsjson.Write(ctx, conn, realtime.Envelope{Type: realtime.MessagePing}))
		got := readEnvelope(t, conn)
		assert.Equal(t, realtime.MessagePong, got.Type)
	})

	t.Run("deregisters on disconnect", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()

		conn := dialWS(t, srv, env.studentToken)
		_ = readEnvelope(t, conn)

		require.Eventually(t, func() bool {
			return env.registry.Connections(env.student.ID) == 1
		}, time.Second, 10*time.Millisecond)

		conn.Close(websocket.StatusNormalClosure, "")
		require.Eventually(t, func() bool {
			return env.registry.Connections(env.student.ID) == 0
		}, time.Second, 10*time.Millisecond)
	})
}
