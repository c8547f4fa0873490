// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"schema-assistant-api/internal/domain/entity"
)

// ChatSessionRepository 助手会话持久化接口
type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	GetByID(ctx context.Context, id string) (*entity.ChatSession, error)
	Update(ctx context.Context, session *entity.ChatSession) error
	ListBySubject(ctx context.Context, subject string, pagination Pagination) (*PagedResult[*entity.ChatSession], error)
	Delete(ctx context.Context, id string) error
}

// ChatTurnRepository 会话记录持久化接口，只追加
type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	// ListBySession 按时间正序返回会话记录
	ListBySession(ctx context.Context, sessionID string, pagination Pagination) (*PagedResult[*entity.ChatTurn], error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
