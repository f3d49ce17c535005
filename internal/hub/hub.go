package hub

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/metrics"
	"github.com/Prag-18/Reviva/pkg/log"
)

// PresenceChange describes one registry mutation.
type PresenceChange struct {
	UserID string
	Online bool
	// Connections is the identity's channel count after the mutation.
	Connections int
}

// PresenceListener is told about every registry mutation, in registry order.
type PresenceListener interface {
	OnPresenceChange(change PresenceChange)
}

// Hub maps identities to their live channels. It is the single source of
// truth for whether a user is online.
type Hub struct {
	// opMu serialises mutations together with their presence notification.
	opMu sync.Mutex

	mu       sync.RWMutex
	users    map[string]map[string]*Client // userID -> clientID -> client
	channels int

	listener PresenceListener
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[string]map[string]*Client),
	}
}

// SetPresenceListener installs l. Call before the hub accepts channels.
func (h *Hub) SetPresenceListener(l PresenceListener) {
	h.opMu.Lock()
	defer h.opMu.Unlock()
	h.listener = l
}

func (h *Hub) Register(client *Client) {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.Lock()
	conns, ok := h.users[client.UserID]
	if !ok {
		conns = make(map[string]*Client)
		h.users[client.UserID] = conns
	}
	if _, dup := conns[client.ID]; dup {
		h.mu.Unlock()
		return
	}
	conns[client.ID] = client
	h.channels++
	count := len(conns)
	h.updateGauges()
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldUserID, client.UserID).Str(log.FieldChannelID, client.ID).Int("connections", count).Msg("channel registered")

	h.notify(PresenceChange{UserID: client.UserID, Online: true, Connections: count})
}

// Unregister removes client and closes its outbound queue. Calling it for a
// client that is not registered does nothing.
func (h *Hub) Unregister(client *Client) {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.Lock()
	conns, ok := h.users[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := conns[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(conns, client.ID)
	count := len(conns)
	if count == 0 {
		delete(h.users, client.UserID)
	}
	h.channels--
	h.updateGauges()
	h.mu.Unlock()

	client.close()

	l := log.L()
	l.Debug().Str(log.FieldUserID, client.UserID).Str(log.FieldChannelID, client.ID).Int("connections", count).Msg("channel unregistered")

	h.notify(PresenceChange{UserID: client.UserID, Online: false, Connections: count})
}

func (h *Hub) notify(change PresenceChange) {
	if h.listener != nil {
		h.listener.OnPresenceChange(change)
	}
}

// updateGauges must be called with h.mu held.
func (h *Hub) updateGauges() {
	metrics.OnlineUsers.Set(float64(len(h.users)))
	metrics.OpenChannels.Set(float64(h.channels))
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// OnlineUsers returns the registered identities in sorted order.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Send delivers evt to every channel of userID and returns how many channels
// accepted it. Channels with a full or closed queue are skipped. Sending to
// an offline identity is a no-op.
func (h *Hub) Send(userID string, evt domain.OutboundEvent) int {
	data, err := json.Marshal(evt)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldEventType, evt.EventType()).Msg("failed to marshal outbound event")
		return 0
	}
	return h.SendRaw(userID, data)
}

// SendRaw is Send for an already encoded frame.
func (h *Hub) SendRaw(userID string, data []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[userID]))
	for _, c := range h.users[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	accepted := 0
	for _, c := range targets {
		if c.trySend(data) {
			accepted++
			continue
		}
		l := log.L()
		l.Debug().Str(log.FieldUserID, userID).Str(log.FieldChannelID, c.ID).Msg("outbound frame dropped")
	}
	return accepted
}

// Stop closes every channel's outbound queue and empties the registry.
// No presence changes are announced.
func (h *Hub) Stop() {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.Lock()
	var all []*Client
	for _, conns := range h.users {
		for _, c := range conns {
			all = append(all, c)
		}
	}
	h.users = make(map[string]map[string]*Client)
	h.channels = 0
	h.updateGauges()
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}

	l := log.L()
	l.Info().Int("channels", len(all)).Msg("hub stopped")
}
