package hub

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
)

type recordingListener struct {
	mu      sync.Mutex
	changes []PresenceChange
}

func (r *recordingListener) OnPresenceChange(c PresenceChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordingListener) snapshot() []PresenceChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PresenceChange(nil), r.changes...)
}

func newTestClient(h *Hub, userID string, buffer int) *Client {
	return NewClient(userID, h, nil, config.WebSocketConfig{SendBuffer: buffer})
}

func drain(c *Client) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var m map[string]interface{}
			json.Unmarshal(data, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	h := NewHub()
	rec := &recordingListener{}
	h.SetPresenceListener(rec)

	c1 := newTestClient(h, "alice", 4)
	c2 := newTestClient(h, "alice", 4)

	h.Register(c1)
	h.Register(c2)
	assert.True(t, h.IsOnline("alice"))
	assert.Equal(t, 2, h.ConnectionCount("alice"))
	assert.Equal(t, []string{"alice"}, h.OnlineUsers())

	h.Unregister(c1)
	assert.True(t, h.IsOnline("alice"))
	assert.Equal(t, 1, h.ConnectionCount("alice"))

	h.Unregister(c2)
	assert.False(t, h.IsOnline("alice"))
	assert.Empty(t, h.OnlineUsers())

	assert.Equal(t, []PresenceChange{
		{UserID: "alice", Online: true, Connections: 1},
		{UserID: "alice", Online: true, Connections: 2},
		{UserID: "alice", Online: false, Connections: 1},
		{UserID: "alice", Online: false, Connections: 0},
	}, rec.snapshot())
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := NewHub()
	rec := &recordingListener{}
	h.SetPresenceListener(rec)

	c := newTestClient(h, "alice", 4)
	h.Register(c)
	h.Unregister(c)

	assert.NotPanics(t, func() { h.Unregister(c) })
	assert.Len(t, rec.snapshot(), 2, "no-op unregister announces nothing")

	_, ok := <-c.Send
	assert.False(t, ok, "queue closed")
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	h := NewHub()
	other := newTestClient(h, "bob", 1)
	h.Register(newTestClient(h, "bob", 1))

	h.Unregister(other)
	assert.Equal(t, 1, h.ConnectionCount("bob"))
}

func TestHub_SendFansOutToEveryChannel(t *testing.T) {
	h := NewHub()
	c1 := newTestClient(h, "bob", 4)
	c2 := newTestClient(h, "bob", 4)
	other := newTestClient(h, "carol", 4)
	h.Register(c1)
	h.Register(c2)
	h.Register(other)

	n := h.Send("bob", domain.NewTypingEvent(domain.EventTyping, "alice"))
	assert.Equal(t, 2, n)

	for _, c := range []*Client{c1, c2} {
		got := drain(c)
		require.Len(t, got, 1)
		assert.Equal(t, "typing", got[0]["type"])
		assert.Equal(t, "alice", got[0]["sender_id"])
	}
	assert.Empty(t, drain(other))
}

func TestHub_SendToOfflineIsNoop(t *testing.T) {
	h := NewHub()
	assert.Equal(t, 0, h.Send("nobody", domain.NewReadReceiptEvent("m1")))

	c := newTestClient(h, "alice", 1)
	h.Register(c)
	h.Unregister(c)
	assert.Equal(t, 0, h.Send("alice", domain.NewReadReceiptEvent("m1")))
}

func TestHub_FullQueueDropsWithoutBlocking(t *testing.T) {
	h := NewHub()
	slow := newTestClient(h, "bob", 1)
	fast := newTestClient(h, "bob", 4)
	h.Register(slow)
	h.Register(fast)

	assert.Equal(t, 2, h.Send("bob", domain.NewReadReceiptEvent("m1")))
	assert.Equal(t, 1, h.Send("bob", domain.NewReadReceiptEvent("m2")))

	assert.Len(t, drain(slow), 1)
	assert.Len(t, drain(fast), 2)
	assert.True(t, h.IsOnline("bob"), "a slow channel stays registered")
}

func TestClient_SendEventAfterClose(t *testing.T) {
	h := NewHub()
	c := newTestClient(h, "alice", 2)
	h.Register(c)

	assert.True(t, c.SendEvent(domain.NewErrorEvent("x")))
	h.Unregister(c)
	assert.False(t, c.SendEvent(domain.NewErrorEvent("y")))
}

func TestNewClient_DefaultBuffer(t *testing.T) {
	c := newTestClient(NewHub(), "alice", 0)
	assert.Equal(t, 256, cap(c.Send))
	assert.NotEmpty(t, c.ID)
}

func TestHub_Stop(t *testing.T) {
	h := NewHub()
	rec := &recordingListener{}
	c1 := newTestClient(h, "alice", 1)
	c2 := newTestClient(h, "bob", 1)
	h.Register(c1)
	h.Register(c2)
	h.SetPresenceListener(rec)

	h.Stop()

	assert.Empty(t, h.OnlineUsers())
	assert.Empty(t, rec.snapshot())
	for _, c := range []*Client{c1, c2} {
		_, ok := <-c.Send
		assert.False(t, ok)
	}

	// Channels closed by Stop unregister later as a no-op.
	h.Unregister(c1)
	assert.Empty(t, rec.snapshot())
}

func TestHub_ConcurrentMutations(t *testing.T) {
	h := NewHub()
	rec := &recordingListener{}
	h.SetPresenceListener(rec)

	const n = 50
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(h, "alice", 1)
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			h.Register(c)
			h.Send("alice", domain.NewReadReceiptEvent("m"))
			h.Unregister(c)
			h.Unregister(c)
		}(c)
	}
	wg.Wait()

	assert.False(t, h.IsOnline("alice"))
	changes := rec.snapshot()
	require.Len(t, changes, 2*n)

	// Notifications follow registry order, so the counts form a valid walk.
	count := 0
	for _, c := range changes {
		if c.Online {
			count++
		} else {
			count--
		}
		assert.Equal(t, count, c.Connections)
	}
	assert.Equal(t, 0, count)
}
