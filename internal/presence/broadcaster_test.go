package presence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/hub"
)

func setup(t *testing.T, mode string) *hub.Hub {
	t.Helper()
	h := hub.NewHub()
	b, err := NewBroadcaster(h, mode)
	require.NoError(t, err)
	h.SetPresenceListener(b)
	return h
}

func connect(h *hub.Hub, userID string) *hub.Client {
	c := hub.NewClient(userID, h, nil, config.WebSocketConfig{SendBuffer: 16})
	h.Register(c)
	return c
}

func statuses(c *hub.Client) []domain.StatusEvent {
	var out []domain.StatusEvent
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var evt domain.StatusEvent
			if json.Unmarshal(data, &evt) == nil && evt.Type == domain.EventStatus {
				out = append(out, evt)
			}
		default:
			return out
		}
	}
}

func TestBroadcaster_EveryMode(t *testing.T) {
	h := setup(t, ModeEvery)

	bob := connect(h, "bob")
	carol := connect(h, "carol")
	assert.Equal(t, []domain.StatusEvent{{Type: "status", UserID: "carol", Status: "online"}}, statuses(bob))

	a1 := connect(h, "alice")
	a2 := connect(h, "alice")
	h.Unregister(a1)

	want := []domain.StatusEvent{
		{Type: "status", UserID: "alice", Status: "online"},
		{Type: "status", UserID: "alice", Status: "online"},
		{Type: "status", UserID: "alice", Status: "offline"},
	}
	assert.Equal(t, want, statuses(bob))
	assert.Equal(t, want, statuses(carol))

	// Alice never hears about herself.
	for _, evt := range statuses(a2) {
		assert.NotEqual(t, "alice", evt.UserID)
	}
}

func TestBroadcaster_TransitionMode(t *testing.T) {
	h := setup(t, ModeTransition)

	bob := connect(h, "bob")
	a1 := connect(h, "alice")
	a2 := connect(h, "alice")
	h.Unregister(a1)
	assert.Equal(t, []domain.StatusEvent{{Type: "status", UserID: "alice", Status: "online"}}, statuses(bob))

	h.Unregister(a2)
	assert.Equal(t, []domain.StatusEvent{{Type: "status", UserID: "alice", Status: "offline"}}, statuses(bob))
}

func TestBroadcaster_FirstUserHearsNothing(t *testing.T) {
	h := setup(t, "")
	alice := connect(h, "alice")
	assert.Empty(t, statuses(alice))
}

func TestNewBroadcaster_BadMode(t *testing.T) {
	_, err := NewBroadcaster(hub.NewHub(), "sometimes")
	assert.Error(t, err)
}
