package dto

import (
	"time"

	"schema-assistant-api/internal/application/assistant"
	"schema-assistant-api/internal/domain/entity"
)

// CredentialStatusResponse 凭据状态
type CredentialStatusResponse struct {
	Configured bool   `json:"configured"`
	Backend    string `json:"backend"`
}

// SetCredentialRequest 保存凭据请求
type SetCredentialRequest struct {
	APIKey string `json:"api_key"`
}

// ModelListResponse 模型目录响应
// 目录加载失败时 Error 非空且 Options 为空
type ModelListResponse struct {
	Models   []entity.ModelDescriptor `json:"models"`
	Options  []entity.ModelOption     `json:"options"`
	Selected string                   `json:"selected"`
	Changed  bool                     `json:"changed"`
	Error    string                   `json:"error,omitempty"`
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Schema     string `json:"schema"`
	SchemaType string `json:"schema_type" binding:"required"`
	Model      string `json:"model,omitempty"`
}

// UpdateContextRequest 更新编辑上下文请求
type UpdateContextRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Schema     string `json:"schema"`
	SchemaType string `json:"schema_type" binding:"required"`
}

// UpdateContextResponse 更新编辑上下文响应
type UpdateContextResponse struct {
	ArtifactCleared bool `json:"artifact_cleared"`
}

// SelectModelRequest 切换模型请求
type SelectModelRequest struct {
	Model string `json:"model" binding:"required"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SessionResponse 会话详情
type SessionResponse struct {
	ID         string               `json:"id"`
	State      entity.ChatState     `json:"state"`
	Model      string               `json:"model"`
	Context    entity.SchemaContext `json:"context"`
	Artifact   string               `json:"artifact"`
	TurnCount  int                  `json:"turn_count"`
	Capability assistant.Capability `json:"capability"`
}

// ToSessionResponse 由快照构建会话详情
func ToSessionResponse(s assistant.Snapshot, capability assistant.Capability) *SessionResponse {
	return &SessionResponse{
		ID:         s.ID,
		State:      s.State,
		Model:      s.Model,
		Context:    s.Context,
		Artifact:   s.Artifact,
		TurnCount:  s.TurnCount,
		Capability: capability,
	}
}

// SessionSummary 已持久化会话的摘要
type SessionSummary struct {
	ID         string              `json:"id"`
	Subject    string              `json:"subject"`
	SchemaType entity.DocumentType `json:"schema_type"`
	Model      string              `json:"model"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ToSessionSummaries 转换会话记录列表
func ToSessionSummaries(sessions []*entity.ChatSession) []*SessionSummary {
	out := make([]*SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, &SessionSummary{
			ID:         s.ID,
			Subject:    s.Subject,
			SchemaType: s.DocumentType,
			Model:      s.Model,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.UpdatedAt,
		})
	}
	return out
}

// TurnListResponse 会话记录列表
type TurnListResponse struct {
	Turns []entity.ChatTurn `json:"turns"`
}

// SendMessageResponse 发送消息响应
type SendMessageResponse struct {
	Turns           []entity.ChatTurn `json:"turns"`
	Artifact        string            `json:"artifact"`
	ArtifactChanged bool              `json:"artifact_changed"`
	Failed          bool              `json:"failed"`
	Discarded       bool              `json:"discarded,omitempty"`
	SubjectChanged  bool              `json:"subject_changed,omitempty"`
}

// ToSendMessageResponse 转换发送结果
func ToSendMessageResponse(r *assistant.SendResult) *SendMessageResponse {
	turns := []entity.ChatTurn{r.UserTurn}
	if r.ReplyTurn != nil {
		turns = append(turns, *r.ReplyTurn)
	}
	return &SendMessageResponse{
		Turns:           turns,
		Artifact:        r.Artifact,
		ArtifactChanged: r.ArtifactChanged,
		Failed:          r.Failed,
		Discarded:       r.Discarded,
		SubjectChanged:  r.SubjectChanged,
	}
}

// ArtifactResponse 候选方案
type ArtifactResponse struct {
	Artifact string `json:"artifact"`
	Present  bool   `json:"present"`
}

// UpdateDraftRequest 宿主编辑工作文档请求
type UpdateDraftRequest struct {
	Document string `json:"schema"`
}

// ValidateSchemaRequest 校验请求
type ValidateSchemaRequest struct {
	Schema string `json:"schema"`
}
