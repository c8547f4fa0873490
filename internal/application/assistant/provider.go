// Package assistant 实现 schema 编辑助手的会话控制、会话管理与编辑器绑定
package assistant

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"schema-assistant-api/internal/domain/entity"
)

// ChatRequest 一次补全请求
type ChatRequest struct {
	Model       string
	Messages    []*schema.Message
	Temperature float32
	MaxTokens   int
}

// ChatProvider 对话补全上游接口
// 返回的错误信息会原样展示在会话记录中
type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// TurnObserver 会话记录追加通知
type TurnObserver interface {
	OnTurnAppended(ctx context.Context, turn entity.ChatTurn)
}

// ArtifactObserver 候选方案更新通知
type ArtifactObserver interface {
	OnArtifactProposed(ctx context.Context, sessionID, artifact string)
}

// Event 助手事件
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Subject   string `json:"subject,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// 事件类型
const (
	EventArtifactProposed = "artifact.proposed"
	EventDraftUpdated     = "draft.updated"
	EventSessionClosed    = "session.closed"
)

// EventPublisher 事件发布接口
type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}
