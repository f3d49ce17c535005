package domain

import "time"

// MessageStatus is the delivery state of a chat message.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s MessageStatus) Valid() bool {
	return s.rank() > 0
}

// CanAdvanceTo reports whether moving from s to next keeps the status
// monotonic along sent -> delivered -> read.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.Valid() && next.rank() > s.rank()
}

// DeliveryStatus picks the status a new message is stored with.
func DeliveryStatus(receiverOnline bool) MessageStatus {
	if receiverOnline {
		return StatusDelivered
	}
	return StatusSent
}

// ChatMessage is a stored direct message between two users.
type ChatMessage struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"sender_id"`
	ReceiverID string        `json:"receiver_id"`
	Content    string        `json:"content"`
	CreatedAt  time.Time     `json:"created_at"`
	IsRead     bool          `json:"is_read"`
	Status     MessageStatus `json:"status"`
}

// User is the read-only view of an account this service needs.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is one inbox row: the latest message exchanged with a counterparty.
type Conversation struct {
	OtherUserID   string     `json:"other_user_id"`
	OtherUserName string     `json:"other_user_name"`
	OtherUserRole string     `json:"other_user_role"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	Unread        bool       `json:"unread"`
}
