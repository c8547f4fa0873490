package assistant

import (
	"context"
	_ "embed"
	"fmt"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"schema-assistant-api/internal/domain/entity"
)

//go:embed templates/system_prompt.txt
var systemPromptTemplate string

var systemTemplate = einoprompt.FromMessages(schema.FString, schema.SystemMessage(systemPromptTemplate))

// BuildSystemPrompt 按当前编辑上下文渲染系统提示词
func BuildSystemPrompt(ctx context.Context, sc entity.SchemaContext) (*schema.Message, error) {
	msgs, err := systemTemplate.Format(ctx, map[string]any{
		"subject":     sc.Subject,
		"schema_type": string(sc.DocumentType),
		"schema":      sc.CurrentDocument,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}
	if len(msgs) != 1 {
		return nil, fmt.Errorf("unexpected system prompt message count: %d", len(msgs))
	}
	return msgs[0], nil
}

// BuildMessages 组装一次发送的完整消息：系统提示、历史记录（按时间顺序）、本次用户消息
func BuildMessages(ctx context.Context, sc entity.SchemaContext, history []entity.ChatTurn, userText string) ([]*schema.Message, error) {
	system, err := BuildSystemPrompt(ctx, sc)
	if err != nil {
		return nil, err
	}
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, system)
	for _, turn := range history {
		msgs = append(msgs, toMessage(turn))
	}
	msgs = append(msgs, schema.UserMessage(userText))
	return msgs, nil
}

func toMessage(turn entity.ChatTurn) *schema.Message {
	switch turn.Role {
	case entity.RoleAssistant:
		return schema.AssistantMessage(turn.Content, nil)
	case entity.RoleSystem:
		return schema.SystemMessage(turn.Content)
	default:
		return schema.UserMessage(turn.Content)
	}
}
