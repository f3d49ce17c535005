package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_online_users",
		Help: "Identities with at least one open chat channel.",
	})
	OpenChannels = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_open_channels",
		Help: "Open chat websocket channels.",
	})
	ConnectRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_connect_rejected_total",
		Help: "Websocket connections refused during authorization, by close code.",
	}, []string{"code"})

	OutboundQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_outbound_queued_total",
		Help: "Outbound events queued on a channel.",
	})
	OutboundDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_outbound_dropped_total",
		Help: "Outbound events dropped because a channel queue was full or closed.",
	})

	InboundEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_inbound_events_total",
		Help: "Inbound channel events processed, by type and result.",
	}, []string{"type", "result"})
	MessagesStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_stored_total",
		Help: "Chat messages persisted, by initial status.",
	}, []string{"status"})
	ReadReceipts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_read_receipts_total",
		Help: "Messages transitioned to read by history fetches.",
	})
)

var once sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			OnlineUsers, OpenChannels, ConnectRejected,
			OutboundQueued, OutboundDropped,
			InboundEvents, MessagesStored, ReadReceipts,
		)
	})
}
