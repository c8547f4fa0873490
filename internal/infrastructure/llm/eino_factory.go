// Package llm 管理 Eino ChatModel 客户端实例
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"schema-assistant-api/internal/config"
)

// EinoFactory 按凭据缓存 Eino ChatModel
// 凭据轮换后旧实例被替换，同一时刻只保留一个
type EinoFactory struct {
	config     *config.ProviderConfig
	httpClient *http.Client

	mu          sync.RWMutex
	fingerprint string
	model       model.BaseChatModel
}

// NewEinoFactory 创建 Eino LLM 工厂；httpClient 为 nil 时使用 go-openai 默认客户端
func NewEinoFactory(cfg *config.Config, httpClient *http.Client) *EinoFactory {
	return &EinoFactory{
		config:     &cfg.Provider,
		httpClient: httpClient,
	}
}

// Get 获取绑定到 apiKey 的 ChatModel，惰性创建
func (f *EinoFactory) Get(ctx context.Context, apiKey string) (model.BaseChatModel, error) {
	fp := fingerprint(apiKey)

	f.mu.RLock()
	if f.model != nil && f.fingerprint == fp {
		m := f.model
		f.mu.RUnlock()
		return m, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if f.model != nil && f.fingerprint == fp {
		return f.model, nil
	}

	maxTokens := f.config.MaxTokens
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     f.config.BaseURL,
		Model:       f.config.DefaultModel,
		MaxTokens:   &maxTokens,
		Temperature: ptrFloat32(float32(f.config.Temperature)),
		Timeout:     f.config.Timeout,
		HTTPClient:  f.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", f.config.Name, err)
	}

	f.fingerprint = fp
	f.model = chatModel
	return chatModel, nil
}

// Reset 丢弃缓存的实例，凭据清除后调用
func (f *EinoFactory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fingerprint = ""
	f.model = nil
}

func fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}

func ptrFloat32(f float32) *float32 {
	return &f
}
