package presence

import (
	"encoding/json"
	"fmt"

	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/hub"
	"github.com/Prag-18/Reviva/pkg/log"
)

// Broadcast modes.
const (
	// ModeEvery announces every connect and disconnect.
	ModeEvery = "every"
	// ModeTransition announces only the first connect and the last disconnect.
	ModeTransition = "transition"
)

// Registry is the part of the hub the broadcaster fans out through.
type Registry interface {
	OnlineUsers() []string
	SendRaw(userID string, data []byte) int
}

// Broadcaster sends status events to every other online identity when the
// registry changes. Delivery is best-effort with no retry.
type Broadcaster struct {
	registry Registry
	mode     string
}

func NewBroadcaster(registry Registry, mode string) (*Broadcaster, error) {
	switch mode {
	case "":
		mode = ModeEvery
	case ModeEvery, ModeTransition:
	default:
		return nil, fmt.Errorf("unsupported presence broadcast mode: %s", mode)
	}
	return &Broadcaster{registry: registry, mode: mode}, nil
}

// OnPresenceChange implements hub.PresenceListener.
func (b *Broadcaster) OnPresenceChange(change hub.PresenceChange) {
	if b.mode == ModeTransition && !isTransition(change) {
		return
	}

	status := domain.PresenceOffline
	if change.Online {
		status = domain.PresenceOnline
	}
	b.Announce(change.UserID, status)
}

func isTransition(change hub.PresenceChange) bool {
	if change.Online {
		return change.Connections == 1
	}
	return change.Connections == 0
}

// Announce sends {type:"status"} for userID to every other online identity
// and returns the number of channels that accepted it.
func (b *Broadcaster) Announce(userID, status string) int {
	data, err := json.Marshal(domain.NewStatusEvent(userID, status))
	if err != nil {
		return 0
	}

	sent := 0
	for _, uid := range b.registry.OnlineUsers() {
		if uid == userID {
			continue
		}
		sent += b.registry.SendRaw(uid, data)
	}

	l := log.L()
	l.Debug().Str(log.FieldUserID, userID).Str("presence", status).Int("channels", sent).Msg("presence broadcast")
	return sent
}
