package service

import (
	"context"
	"errors"

	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/hub"
)

var (
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrUserNotFound     = errors.New("user not found")
)

// Router is the registry view the chat service delivers through.
type Router interface {
	IsOnline(userID string) bool
	Send(userID string, evt domain.OutboundEvent) int
}

type ChatService interface {
	// HandleInbound processes one frame read from client. Every error has
	// already been reported to the client as an error event; recoverable
	// ones satisfy IsRecoverable.
	HandleInbound(ctx context.Context, client *hub.Client, raw []byte) error
	// GetHistory returns the conversation between callerID and otherID and
	// marks the returned messages addressed to callerID as read.
	GetHistory(ctx context.Context, callerID, otherID string, limit, offset int) ([]*domain.ChatMessage, error)
	GetConversations(ctx context.Context, callerID string) ([]*domain.Conversation, error)
}

// IsRecoverable reports whether err came from bad client input rather than
// a failure of the service.
func IsRecoverable(err error) bool {
	return errors.Is(err, domain.ErrInvalidEvent) ||
		errors.Is(err, domain.ErrUnsupportedType) ||
		errors.Is(err, domain.ErrEmptyContent) ||
		errors.Is(err, ErrReceiverNotFound)
}
