package openrouter

import (
	"context"
	"strings"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"

	"schema-assistant-api/internal/application/assistant"
	"schema-assistant-api/internal/application/credential"
	"schema-assistant-api/internal/domain/service"
	"schema-assistant-api/internal/infrastructure/llm"
	apperrors "schema-assistant-api/pkg/errors"
)

// ChatModelSource 按凭据提供 ChatModel
type ChatModelSource interface {
	Get(ctx context.Context, apiKey string) (model.BaseChatModel, error)
}

var _ ChatModelSource = (*llm.EinoFactory)(nil)

// ChatProvider 基于 Eino ChatModel 的对话调用实现
type ChatProvider struct {
	name        string
	models      ChatModelSource
	credentials credential.Provider
}

var _ assistant.ChatProvider = (*ChatProvider)(nil)

// NewChatProvider 创建对话调用实现
func NewChatProvider(name string, models ChatModelSource, credentials credential.Provider) *ChatProvider {
	if name == "" {
		name = "openrouter"
	}
	return &ChatProvider{name: name, models: models, credentials: credentials}
}

// Chat 发送一次非流式对话请求，返回第一条候选回复的文本
func (p *ChatProvider) Chat(ctx context.Context, req assistant.ChatRequest) (string, error) {
	apiKey, ok, err := p.credentials.Get(ctx)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeStorageError, "failed to read credential")
	}
	if !ok {
		return "", apperrors.ErrUnauthenticated
	}

	chatModel, err := p.models.Get(ctx, apiKey)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternalError, "failed to create chat model")
	}

	ctx = service.WithProvider(ctx, p.name)
	ctx = service.WithModel(ctx, req.Model)
	ctx = einocallbacks.InitCallbacks(ctx, &einocallbacks.RunInfo{
		Name:      "schema_assistant_chat",
		Type:      p.name,
		Component: components.ComponentOfChatModel,
	})
	ctx, capture := withErrorCapture(ctx)

	opts := []model.Option{model.WithModel(req.Model)}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	msg, err := chatModel.Generate(ctx, req.Messages, opts...)
	if err != nil {
		detail := strings.TrimSpace(capture.text())
		if detail == "" {
			detail = err.Error()
		}
		return "", apperrors.ProviderError("Failed to send chat message: " + detail).WithError(err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}
