package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Inbound event types (client -> server).
const (
	EventMessage    = "message"
	EventTyping     = "typing"
	EventStopTyping = "stop_typing"
)

// Outbound event types (server -> client).
const (
	EventStatus      = "status"
	EventChatMessage = "chat_message"
	EventReadReceipt = "read_receipt"
	EventError       = "error"
)

// Presence states carried by status events.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// Error texts sent to clients in error events.
const (
	ErrTextInvalidFormat   = "Invalid message format"
	ErrTextUnsupportedType = "Unsupported message type"
	ErrTextEmptyContent    = "Message content is required"
	ErrTextReceiverMissing = "Receiver not found"
	ErrTextStoreFailed     = "Failed to store message"
	ErrTextInternal        = "Internal server error"
)

var (
	ErrInvalidEvent    = errors.New("invalid event")
	ErrUnsupportedType = errors.New("unsupported event type")
	ErrEmptyContent    = errors.New("empty message content")
)

var validate = validator.New()

// InboundEvent is a frame received from a chat channel.
type InboundEvent struct {
	Type       string `json:"type" validate:"oneof=message typing stop_typing"`
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content"`
}

// ParseInbound decodes and validates a raw inbound frame. A missing type
// defaults to "message"; the receiver id is normalised to its canonical
// UUID form and message content is trimmed.
func ParseInbound(raw []byte) (*InboundEvent, error) {
	var evt InboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, ErrInvalidEvent
	}
	if evt.Type == "" {
		evt.Type = EventMessage
	}

	// The receiver is checked before the type so a frame with both wrong
	// reports the malformed frame.
	id, err := uuid.Parse(evt.ReceiverID)
	if err != nil {
		return nil, ErrInvalidEvent
	}
	evt.ReceiverID = id.String()

	if err := validate.Struct(&evt); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, ErrInvalidEvent
		}
		unsupported := false
		for _, fe := range verrs {
			if fe.Field() != "Type" {
				return nil, ErrInvalidEvent
			}
			unsupported = true
		}
		if unsupported {
			return nil, ErrUnsupportedType
		}
	}

	if evt.Type == EventMessage {
		evt.Content = strings.TrimSpace(evt.Content)
		if evt.Content == "" {
			return nil, ErrEmptyContent
		}
	}

	return &evt, nil
}

// ErrorText maps an inbound parse error to the text sent back to the client.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return ErrTextUnsupportedType
	case errors.Is(err, ErrEmptyContent):
		return ErrTextEmptyContent
	default:
		return ErrTextInvalidFormat
	}
}

// OutboundEvent is one of the frames the server pushes to a channel.
// The set is closed: only types in this package implement it.
type OutboundEvent interface {
	EventType() string
	outbound()
}

type StatusEvent struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

func NewStatusEvent(userID, status string) *StatusEvent {
	return &StatusEvent{Type: EventStatus, UserID: userID, Status: status}
}

func (e *StatusEvent) EventType() string { return e.Type }
func (*StatusEvent) outbound()           {}

// TypingEvent carries both typing and stop_typing indicators.
type TypingEvent struct {
	Type     string `json:"type"`
	SenderID string `json:"sender_id"`
}

func NewTypingEvent(eventType, senderID string) *TypingEvent {
	return &TypingEvent{Type: eventType, SenderID: senderID}
}

func (e *TypingEvent) EventType() string { return e.Type }
func (*TypingEvent) outbound()           {}

type ChatMessageEvent struct {
	Type string `json:"type"`
	ChatMessage
}

func NewChatMessageEvent(msg *ChatMessage) *ChatMessageEvent {
	return &ChatMessageEvent{Type: EventChatMessage, ChatMessage: *msg}
}

func (e *ChatMessageEvent) EventType() string { return e.Type }
func (*ChatMessageEvent) outbound()           {}

type ReadReceiptEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

func NewReadReceiptEvent(messageID string) *ReadReceiptEvent {
	return &ReadReceiptEvent{Type: EventReadReceipt, MessageID: messageID}
}

func (e *ReadReceiptEvent) EventType() string { return e.Type }
func (*ReadReceiptEvent) outbound()           {}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewErrorEvent(text string) *ErrorEvent {
	return &ErrorEvent{Type: EventError, Error: text}
}

func (e *ErrorEvent) EventType() string { return e.Type }
func (*ErrorEvent) outbound()           {}
