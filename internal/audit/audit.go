package audit

import (
	"context"

	"github.com/Prag-18/Reviva/pkg/log"
)

// Audit actions for the chat core.
const (
	ActionConnect         = "chat.connect"
	ActionConnectRejected = "chat.connect_rejected"
	ActionSendMessage     = "chat.send_message"
	ActionHistoryRead     = "chat.history_read"
	ActionDisconnect      = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogTarget emits an audit entry about an action userID took on targetID.
func LogTarget(ctx context.Context, action string, userID, targetID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
