// Package credential 提供模型网关凭据的读写服务
package credential

import (
	"context"
	"fmt"
	"strings"

	"schema-assistant-api/internal/domain/repository"
	"schema-assistant-api/pkg/logger"
)

// DefaultKey 凭据在本地存储中的固定键名
const DefaultKey = "openrouter_api_key"

// Provider 凭据读取接口，供目录客户端与对话提供方注入
type Provider interface {
	Get(ctx context.Context) (string, bool, error)
}

// Service 凭据服务
// 同一时刻最多存在一个凭据，写入后立即对读取方可见
type Service struct {
	store repository.SecretStore
	key   string
}

// NewService 创建凭据服务
func NewService(store repository.SecretStore, key string) *Service {
	if key == "" {
		key = DefaultKey
	}
	return &Service{store: store, key: key}
}

// Set 保存凭据，去除首尾空白；空白输入不做任何写入
func (s *Service) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.store.Put(ctx, s.key, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	logger.Info(ctx, "credential saved")
	return nil
}

// Get 读取凭据，不存在时 ok=false
func (s *Service) Get(ctx context.Context) (string, bool, error) {
	token, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential: %w", err)
	}
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Clear 删除凭据，不存在时为空操作
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	logger.Info(ctx, "credential cleared")
	return nil
}

// Has 判断凭据是否已配置，读取失败视为未配置
func (s *Service) Has(ctx context.Context) bool {
	_, ok, err := s.Get(ctx)
	if err != nil {
		logger.Warn(ctx, "credential lookup failed", "error", err.Error())
		return false
	}
	return ok
}
