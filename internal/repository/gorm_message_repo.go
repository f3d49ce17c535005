package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Prag-18/Reviva/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate message id: %w", err)
		}
		msg.ID = id.String()
	}
	if msg.CreatedAt.IsZero() {
		// Postgres keeps microseconds; truncate so the echoed value matches the row.
		msg.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	if msg.Status == "" {
		msg.Status = domain.StatusSent
	}

	if err := r.db.WithContext(ctx).Create(domain.MessageToModel(msg)).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *GormMessageRepository) ListConversation(ctx context.Context, a, b string, limit, offset int) ([]*domain.ChatMessage, error) {
	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}

	messages := make([]*domain.ChatMessage, len(models))
	for i := range models {
		messages[i] = models[i].ToDomain()
	}
	return messages, nil
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, readerID string, messageIDs []string) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var transitioned []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transitioned = transitioned[:0]
		for _, id := range messageIDs {
			result := tx.Model(&domain.MessageModel{}).
				Where("id = ? AND receiver_id = ? AND is_read = ?", id, readerID, false).
				Updates(map[string]interface{}{
					"is_read": true,
					"status":  string(domain.StatusRead),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				transitioned = append(transitioned, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return transitioned, nil
}

// latestRow identifies the newest message exchanged with one counterparty.
type latestRow struct {
	ID          string
	OtherUserID string
}

const latestPerCounterpartySQL = `
SELECT id, other_user_id FROM (
	SELECT
		id,
		CASE WHEN sender_id = @uid THEN receiver_id ELSE sender_id END AS other_user_id,
		ROW_NUMBER() OVER (
			PARTITION BY CASE WHEN sender_id = @uid THEN receiver_id ELSE sender_id END
			ORDER BY created_at DESC, id DESC
		) AS rn
	FROM messages
	WHERE sender_id = @uid OR receiver_id = @uid
) latest
WHERE rn = 1`

func (r *GormMessageRepository) ListConversations(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	db := r.db.WithContext(ctx)

	var rows []latestRow
	if err := db.Raw(latestPerCounterpartySQL, map[string]interface{}{"uid": userID}).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query latest messages: %w", err)
	}
	if len(rows) == 0 {
		return []*domain.Conversation{}, nil
	}

	messageIDs := make([]string, len(rows))
	otherIDs := make([]string, len(rows))
	for i, row := range rows {
		messageIDs[i] = row.ID
		otherIDs[i] = row.OtherUserID
	}

	var messages []domain.MessageModel
	if err := db.Where("id IN ?", messageIDs).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to load latest messages: %w", err)
	}

	var users []domain.UserModel
	if err := db.Where("id IN ?", otherIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load counterparties: %w", err)
	}
	byID := make(map[string]*domain.UserModel, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.After(messages[j].CreatedAt)
		}
		return messages[i].ID > messages[j].ID
	})

	conversations := make([]*domain.Conversation, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		otherID := m.SenderID
		if m.SenderID == userID {
			otherID = m.ReceiverID
		}
		// Counterparties without a user record are left out of the inbox.
		user, ok := byID[otherID]
		if !ok {
			continue
		}
		at := m.CreatedAt.UTC()
		conversations = append(conversations, &domain.Conversation{
			OtherUserID:   otherID,
			OtherUserName: user.Name,
			OtherUserRole: user.Role,
			LastMessage:   m.Content,
			LastMessageAt: &at,
			Unread:        !m.IsRead && m.SenderID != userID,
		})
	}
	return conversations, nil
}
