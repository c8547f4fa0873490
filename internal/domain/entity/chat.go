// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role 对话角色枚举
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatState 会话发送状态
type ChatState string

const (
	ChatStateIdle    ChatState = "idle"
	ChatStateSending ChatState = "sending"
)

// ChatSession 助手会话，绑定一个 subject 的编辑上下文
type ChatSession struct {
	ID           string       `json:"id" gorm:"type:uuid;primaryKey"`
	Subject      string       `json:"subject" gorm:"type:varchar(255);index;not null"`
	DocumentType DocumentType `json:"schema_type" gorm:"type:varchar(16);not null"`
	Model        string       `json:"model" gorm:"type:varchar(255)"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "assistant_sessions"
}

func NewChatSession(subject string, docType DocumentType, model string) *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:           uuid.NewString(),
		Subject:      subject,
		DocumentType: docType,
		Model:        model,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ChatTurn 会话中的一轮消息，追加后不可修改
type ChatTurn struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:uuid;index;not null"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"timestamp" gorm:"index"`
}

func (ChatTurn) TableName() string {
	return "assistant_turns"
}

func NewChatTurn(sessionID string, role Role, content string) *ChatTurn {
	return &ChatTurn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
