package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prag-18/Reviva/pkg/log"
)

func capture(t *testing.T, fn func(ctx context.Context)) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	logger := log.NewWithWriter(log.Config{Level: "info"}, &buf)
	fn(log.WithLogger(context.Background(), logger))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogTarget(t *testing.T) {
	entry := capture(t, func(ctx context.Context) {
		LogTarget(ctx, ActionSendMessage, "alice", "bob", "message sent")
	})

	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionSendMessage, entry[FieldAction])
	assert.Equal(t, "alice", entry[log.FieldUserID])
	assert.Equal(t, "bob", entry[FieldTargetID])
	assert.Equal(t, "message sent", entry["message"])
}

func TestLogWithDetail(t *testing.T) {
	entry := capture(t, func(ctx context.Context) {
		LogWithDetail(ctx, ActionConnectRejected, "alice", "4003", "connection rejected")
	})

	assert.Equal(t, ActionConnectRejected, entry[FieldAction])
	assert.Equal(t, "4003", entry[FieldDetail])
}
