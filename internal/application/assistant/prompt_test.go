package assistant

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-assistant-api/internal/domain/entity"
)

func TestBuildSystemPrompt(t *testing.T) {
	msg, err := BuildSystemPrompt(context.Background(), avroContext())
	require.NoError(t, err)

	assert.Equal(t, schema.System, msg.Role)
	want := "You are an expert AVRO schema assistant. The user is working on the following schema:\n\n" +
		"Subject: orders-value\n" +
		"Schema Type: AVRO\n" +
		"Current Schema:\n" +
		"```json\n" +
		`{"type":"record","name":"Order","fields":[]}` + "\n" +
		"```\n\n" +
		"When suggesting schema changes, provide the complete updated schema in a JSON code block.\n" +
		"Focus on AVRO best practices, proper field types, and schema evolution considerations."
	assert.Equal(t, want, msg.Content)
}

func TestBuildMessages_Order(t *testing.T) {
	history := []entity.ChatTurn{
		{Role: entity.RoleUser, Content: "q1"},
		{Role: entity.RoleAssistant, Content: "a1"},
	}
	msgs, err := BuildMessages(context.Background(), avroContext(), history, "q2")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "q1", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, "a1", msgs[2].Content)
	assert.Equal(t, schema.User, msgs[3].Role)
	assert.Equal(t, "q2", msgs[3].Content)
}
