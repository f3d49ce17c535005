package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prag-18/Reviva/internal/audit"
	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/hub"
	"github.com/Prag-18/Reviva/internal/metrics"
	"github.com/Prag-18/Reviva/internal/repository"
	"github.com/Prag-18/Reviva/pkg/log"
	"github.com/Prag-18/Reviva/pkg/pubsub"
)

type chatService struct {
	router    Router
	users     repository.UserRepository
	messages  repository.MessageRepository
	publisher pubsub.Publisher
	history   config.HistoryConfig
}

func NewChatService(
	router Router,
	users repository.UserRepository,
	messages repository.MessageRepository,
	publisher pubsub.Publisher,
	history config.HistoryConfig,
) ChatService {
	if publisher == nil {
		publisher = pubsub.NopPublisher{}
	}
	if history.DefaultLimit <= 0 {
		history.DefaultLimit = 50
	}
	if history.MaxLimit <= 0 {
		history.MaxLimit = 100
	}
	return &chatService{
		router:    router,
		users:     users,
		messages:  messages,
		publisher: publisher,
		history:   history,
	}
}

func (s *chatService) HandleInbound(ctx context.Context, c *hub.Client, raw []byte) error {
	evt, err := domain.ParseInbound(raw)
	if err != nil {
		metrics.InboundEvents.WithLabelValues("unknown", "rejected").Inc()
		c.SendEvent(domain.NewErrorEvent(domain.ErrorText(err)))
		return err
	}

	switch evt.Type {
	case domain.EventTyping, domain.EventStopTyping:
		// Indicators are not persisted and the receiver is not looked up.
		s.router.Send(evt.ReceiverID, domain.NewTypingEvent(evt.Type, c.UserID))
		metrics.InboundEvents.WithLabelValues(evt.Type, "ok").Inc()
		return nil
	default:
		return s.handleMessage(ctx, c, evt)
	}
}

func (s *chatService) handleMessage(ctx context.Context, c *hub.Client, evt *domain.InboundEvent) error {
	if _, err := s.users.GetByID(ctx, evt.ReceiverID); err != nil {
		metrics.InboundEvents.WithLabelValues(evt.Type, "rejected").Inc()
		if errors.Is(err, repository.ErrUserNotFound) {
			c.SendEvent(domain.NewErrorEvent(domain.ErrTextReceiverMissing))
			return ErrReceiverNotFound
		}
		c.SendEvent(domain.NewErrorEvent(domain.ErrTextInternal))
		return fmt.Errorf("failed to look up receiver: %w", err)
	}

	// Delivery status is decided once, before the row is written.
	msg := &domain.ChatMessage{
		SenderID:   c.UserID,
		ReceiverID: evt.ReceiverID,
		Content:    evt.Content,
		Status:     domain.DeliveryStatus(s.router.IsOnline(evt.ReceiverID)),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		metrics.InboundEvents.WithLabelValues(evt.Type, "failed").Inc()
		c.SendEvent(domain.NewErrorEvent(domain.ErrTextStoreFailed))
		return fmt.Errorf("failed to store message: %w", err)
	}
	metrics.InboundEvents.WithLabelValues(evt.Type, "ok").Inc()
	metrics.MessagesStored.WithLabelValues(string(msg.Status)).Inc()

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldMessageID, msg.ID).
		Str(log.FieldReceiverID, msg.ReceiverID).
		Str("status", string(msg.Status)).
		Msg("message stored")

	out := domain.NewChatMessageEvent(msg)
	s.router.Send(msg.ReceiverID, out)
	if msg.SenderID != msg.ReceiverID {
		s.router.Send(msg.SenderID, out)
	}

	s.publish(ctx, pubsub.MessageCreatedChannel(msg.ReceiverID), pubsub.EventMessageCreated, msg.SenderID, pubsub.MessageCreatedPayload{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Status:     string(msg.Status),
		CreatedAt:  msg.CreatedAt,
	})

	audit.LogTarget(ctx, audit.ActionSendMessage, msg.SenderID, msg.ReceiverID, "message sent")
	return nil
}

func (s *chatService) GetHistory(ctx context.Context, callerID, otherID string, limit, offset int) ([]*domain.ChatMessage, error) {
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if limit <= 0 {
		limit = s.history.DefaultLimit
	}
	if limit > s.history.MaxLimit {
		limit = s.history.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messages.ListConversation(ctx, callerID, otherID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from repository: %w", err)
	}

	var unread []string
	for _, m := range messages {
		if m.ReceiverID == callerID && !m.IsRead && m.Status.CanAdvanceTo(domain.StatusRead) {
			unread = append(unread, m.ID)
		}
	}

	transitioned, err := s.messages.MarkRead(ctx, callerID, unread)
	if err != nil {
		return nil, err
	}

	if len(transitioned) > 0 {
		byID := make(map[string]*domain.ChatMessage, len(messages))
		for _, m := range messages {
			byID[m.ID] = m
		}
		for _, id := range transitioned {
			m, ok := byID[id]
			if !ok {
				continue
			}
			m.IsRead = true
			m.Status = domain.StatusRead
			metrics.ReadReceipts.Inc()

			l := log.Ctx(ctx)
			l.Debug().
				Str(log.FieldMessageID, m.ID).
				Str(log.FieldReceiverID, callerID).
				Msg("message read")

			s.router.Send(m.SenderID, domain.NewReadReceiptEvent(m.ID))
			s.publish(ctx, pubsub.MessageReadChannel(m.SenderID), pubsub.EventMessageRead, callerID, pubsub.MessageReadPayload{
				MessageID: m.ID,
				SenderID:  m.SenderID,
				ReaderID:  callerID,
			})
		}
	}

	audit.LogWithDetail(ctx, audit.ActionHistoryRead, callerID, fmt.Sprintf("other=%s read=%d", otherID, len(transitioned)), "chat history read")

	if messages == nil {
		messages = []*domain.ChatMessage{}
	}
	return messages, nil
}

func (s *chatService) GetConversations(ctx context.Context, callerID string) ([]*domain.Conversation, error) {
	conversations, err := s.messages.ListConversations(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversations: %w", err)
	}
	return conversations, nil
}

// publish is best-effort: failures are logged and never fail the caller.
func (s *chatService) publish(ctx context.Context, channel, eventType, userID string, payload interface{}) {
	evt, err := pubsub.NewEvent(eventType, userID, payload)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEventType, eventType).Msg("failed to build bus event")
		return
	}
	if err := s.publisher.Publish(ctx, channel, evt); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldEventType, eventType).Str("channel", channel).Msg("failed to publish bus event")
	}
}
