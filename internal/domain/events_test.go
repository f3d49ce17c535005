package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const receiver = "6f1c2a9e-3b7d-4e8a-9c1f-2d3e4f5a6b7c"

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		want    *InboundEvent
	}{
		{
			name: "message with default type",
			raw:  `{"receiver_id":"` + receiver + `","content":"  hello  "}`,
			want: &InboundEvent{Type: EventMessage, ReceiverID: receiver, Content: "hello"},
		},
		{
			name: "typing ignores content",
			raw:  `{"type":"typing","receiver_id":"` + receiver + `"}`,
			want: &InboundEvent{Type: EventTyping, ReceiverID: receiver},
		},
		{
			name: "uppercase receiver is normalised",
			raw:  `{"type":"stop_typing","receiver_id":"6F1C2A9E-3B7D-4E8A-9C1F-2D3E4F5A6B7C"}`,
			want: &InboundEvent{Type: EventStopTyping, ReceiverID: receiver},
		},
		{name: "not json", raw: `hello`, wantErr: ErrInvalidEvent},
		{name: "null", raw: `null`, wantErr: ErrInvalidEvent},
		{name: "missing receiver", raw: `{"content":"hi"}`, wantErr: ErrInvalidEvent},
		{name: "bad receiver", raw: `{"receiver_id":"nope","content":"hi"}`, wantErr: ErrInvalidEvent},
		{name: "content not a string", raw: `{"receiver_id":"` + receiver + `","content":5}`, wantErr: ErrInvalidEvent},
		{name: "unknown type", raw: `{"type":"wave","receiver_id":"` + receiver + `"}`, wantErr: ErrUnsupportedType},
		{name: "unknown type without receiver", raw: `{"type":"wave"}`, wantErr: ErrInvalidEvent},
		{name: "unknown type with bad receiver", raw: `{"type":"bogus","receiver_id":"not-a-uuid"}`, wantErr: ErrInvalidEvent},
		{name: "blank content", raw: `{"receiver_id":"` + receiver + `","content":"   "}`, wantErr: ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInbound([]byte(tt.raw))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, ErrTextInvalidFormat, ErrorText(ErrInvalidEvent))
	assert.Equal(t, ErrTextUnsupportedType, ErrorText(ErrUnsupportedType))
	assert.Equal(t, ErrTextEmptyContent, ErrorText(ErrEmptyContent))
}

func TestOutboundEvents_Wire(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &ChatMessage{
		ID:         "m1",
		SenderID:   "a",
		ReceiverID: "b",
		Content:    "hi",
		CreatedAt:  created,
		Status:     StatusDelivered,
	}

	tests := []struct {
		evt  OutboundEvent
		want string
	}{
		{NewStatusEvent("a", PresenceOnline), `{"type":"status","user_id":"a","status":"online"}`},
		{NewTypingEvent(EventStopTyping, "a"), `{"type":"stop_typing","sender_id":"a"}`},
		{NewReadReceiptEvent("m1"), `{"type":"read_receipt","message_id":"m1"}`},
		{NewErrorEvent(ErrTextReceiverMissing), `{"type":"error","error":"Receiver not found"}`},
		{
			NewChatMessageEvent(msg),
			`{"type":"chat_message","id":"m1","sender_id":"a","receiver_id":"b","content":"hi","created_at":"2026-03-01T12:00:00Z","is_read":false,"status":"delivered"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.evt.EventType(), func(t *testing.T) {
			data, err := json.Marshal(tt.evt)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestMessageStatus_Monotonic(t *testing.T) {
	assert.True(t, StatusSent.CanAdvanceTo(StatusDelivered))
	assert.True(t, StatusSent.CanAdvanceTo(StatusRead))
	assert.True(t, StatusDelivered.CanAdvanceTo(StatusRead))
	assert.False(t, StatusRead.CanAdvanceTo(StatusDelivered))
	assert.False(t, StatusDelivered.CanAdvanceTo(StatusSent))
	assert.False(t, StatusRead.CanAdvanceTo(StatusRead))
	assert.False(t, StatusSent.CanAdvanceTo(MessageStatus("lost")))

	assert.Equal(t, StatusDelivered, DeliveryStatus(true))
	assert.Equal(t, StatusSent, DeliveryStatus(false))
}

func TestMessageModel_RoundTrip(t *testing.T) {
	msg := &ChatMessage{ID: "m1", SenderID: "a", ReceiverID: "b", Content: "x", Status: StatusSent}
	got := MessageToModel(msg).ToDomain()
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, StatusSent, got.Status)
	assert.Equal(t, "messages", MessageModel{}.TableName())
	assert.Equal(t, "users", UserModel{}.TableName())
}
