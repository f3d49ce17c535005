package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"
	FieldWebSocket = "websocket"

	// Actor (matches pkg/middleware/auth.go keys)
	FieldUserID = "user_id"

	// Chat
	FieldChannelID  = "channel_id"
	FieldReceiverID = "receiver_id"
	FieldMessageID  = "message_id"
	FieldEventType  = "event_type"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
