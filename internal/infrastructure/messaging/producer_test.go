package messaging

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-assistant-api/internal/application/assistant"
	"schema-assistant-api/pkg/logger"
)

func TestProducer_PublishEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p := NewProducer(rdb, "", 0)
	ctx := logger.WithContext(context.Background(), logger.RequestIDKey, "req-1")

	err := p.PublishEvent(ctx, assistant.Event{
		Type:      assistant.EventArtifactProposed,
		SessionID: "s-1",
		Subject:   "orders-value",
		Payload:   map[string]string{"artifact": `{"type":"string"}`},
	})
	require.NoError(t, err)

	entries, err := rdb.XRange(ctx, string(StreamAssistantEvents), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, assistant.EventArtifactProposed, entries[0].Values["type"])

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "s-1", msg.SessionID)
	assert.Equal(t, "orders-value", msg.Subject)
	assert.Equal(t, "req-1", msg.Metadata["request_id"])

	var payload map[string]string
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, `{"type":"string"}`, payload["artifact"])
}

func TestProducer_EventWithoutPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p := NewProducer(rdb, "stream:test", 10)
	require.NoError(t, p.PublishEvent(context.Background(), assistant.Event{Type: assistant.EventSessionClosed, SessionID: "s-2"}))

	n, err := rdb.XLen(context.Background(), "stream:test").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
