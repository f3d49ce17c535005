package repository

import (
	"context"
	"errors"

	"github.com/Prag-18/Reviva/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// MessageRepository is the durable store of direct messages.
type MessageRepository interface {
	// Create assigns an id and creation time when missing and stores msg.
	Create(ctx context.Context, msg *domain.ChatMessage) error
	// ListConversation returns messages exchanged between a and b in either
	// direction, ordered by (created_at, id) ascending.
	ListConversation(ctx context.Context, a, b string, limit, offset int) ([]*domain.ChatMessage, error)
	// MarkRead moves the given messages addressed to readerID to read. Each
	// row transitions at most once; the ids actually transitioned are returned.
	MarkRead(ctx context.Context, readerID string, messageIDs []string) ([]string, error)
	// ListConversations returns the latest message per counterparty of userID,
	// newest first.
	ListConversations(ctx context.Context, userID string) ([]*domain.Conversation, error)
}

// UserRepository is the read-only user lookup.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
