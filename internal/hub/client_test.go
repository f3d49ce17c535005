package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
)

func TestClient_ReadPumpUnregistersOnPanic(t *testing.T) {
	h := NewHub()
	rec := &recordingListener{}
	h.SetPresenceListener(rec)

	cfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      5 * time.Second,
		MaxMessageSize: 1024,
		SendBuffer:     4,
	}
	upgrader := websocket.Upgrader{}
	clients := make(chan *Client, 1)
	done := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("alice", h, conn, cfg)
		h.Register(c)
		clients <- c

		c.ReadPump(context.Background(), func(context.Context, *Client, []byte) {
			panic("handler failed")
		})
		close(done)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	c := <-clients
	require.True(t, h.IsOnline("alice"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{}`)))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("read pump did not return after handler panic")
	}

	assert.False(t, h.IsOnline("alice"))
	assert.Equal(t, 0, h.ConnectionCount("alice"))

	changes := rec.snapshot()
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Online)
	assert.False(t, changes[1].Online)

	// A second unregister is a no-op.
	h.Unregister(c)
	assert.Len(t, rec.snapshot(), 2)
	assert.False(t, c.SendEvent(domain.NewStatusEvent("bob", domain.PresenceOnline)))
}
