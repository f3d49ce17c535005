package pubsub

import (
	"fmt"
	"time"
)

// Channel naming conventions for chat domain events. The user id segment is
// the party the event concerns and doubles as the partition key on Kafka.
const (
	ChannelMessageCreated = "chat:user:%s:message_created"
	ChannelMessageRead    = "chat:user:%s:message_read"
)

// Event types.
const (
	EventMessageCreated = "message_created"
	EventMessageRead    = "message_read"
)

// MessageCreatedChannel returns the channel for messages addressed to receiverID.
func MessageCreatedChannel(receiverID string) string {
	return fmt.Sprintf(ChannelMessageCreated, receiverID)
}

// MessageReadChannel returns the channel for read receipts owed to senderID.
func MessageReadChannel(senderID string) string {
	return fmt.Sprintf(ChannelMessageRead, senderID)
}

// MessageCreatedPayload is published after a chat message is stored.
type MessageCreatedPayload struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageReadPayload is published after a message transitions to read.
type MessageReadPayload struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	ReaderID  string `json:"reader_id"`
}
