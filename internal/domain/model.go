package domain

import "time"

// MessageModel is the GORM model for messages table.
type MessageModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	SenderID   string    `gorm:"type:varchar(36);not null;index:idx_messages_sender_receiver,priority:1"`
	ReceiverID string    `gorm:"type:varchar(36);not null;index:idx_messages_sender_receiver,priority:2;index:idx_messages_receiver_read,priority:1"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
	IsRead     bool      `gorm:"not null;default:false;index:idx_messages_receiver_read,priority:2"`
	Status     string    `gorm:"type:varchar(16);not null;default:sent"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain ChatMessage.
func (m *MessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.UTC(),
		IsRead:     m.IsRead,
		Status:     MessageStatus(m.Status),
	}
}

// MessageToModel converts domain ChatMessage to MessageModel.
func MessageToModel(msg *ChatMessage) *MessageModel {
	return &MessageModel{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		IsRead:     msg.IsRead,
		Status:     string(msg.Status),
	}
}

// UserModel maps the columns of the externally owned users table that the
// chat core reads. The table is migrated only in tests and local setups.
type UserModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Role      string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}
