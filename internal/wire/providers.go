// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"schema-assistant-api/internal/application/assistant"
	"schema-assistant-api/internal/application/catalog"
	"schema-assistant-api/internal/application/credential"
	"schema-assistant-api/internal/config"
	"schema-assistant-api/internal/domain/entity"
	"schema-assistant-api/internal/domain/repository"
	credstore "schema-assistant-api/internal/infrastructure/credential"
	"schema-assistant-api/internal/infrastructure/llm"
	"schema-assistant-api/internal/infrastructure/messaging"
	"schema-assistant-api/internal/infrastructure/openrouter"
	"schema-assistant-api/internal/infrastructure/persistence/postgres"
	"schema-assistant-api/internal/infrastructure/persistence/redis"
	"schema-assistant-api/internal/interfaces/http/handler"
	"schema-assistant-api/internal/interfaces/http/middleware"
	"schema-assistant-api/internal/interfaces/http/router"
	"schema-assistant-api/pkg/logger"
)

// 凭据存储后端
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// App 应用依赖容器
type App struct {
	Router  *router.Router
	Manager *assistant.Manager
}

// ChatStorage 可选的会话持久化依赖，未启用 PostgreSQL 时各字段为 nil
type ChatStorage struct {
	Sessions   repository.ChatSessionRepository
	Turns      repository.ChatTurnRepository
	Transactor repository.Transactor
}

// ProvidePostgresClient 提供 PostgreSQL 客户端，未启用时返回 nil
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Database.Postgres.Enabled {
		return nil, func() {}, nil
	}
	return ProvideRequiredPostgresClient(ctx, cfg)
}

// ProvideRequiredPostgresClient 提供 PostgreSQL 客户端，忽略启用开关
func ProvideRequiredPostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn(ctx, "failed to close postgres client", "error", err.Error())
		}
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端；凭据后端为 redis 时即使未启用也会创建
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled && backend(cfg) != BackendRedis {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn(ctx, "failed to close redis client", "error", err.Error())
		}
	}
	return client, cleanup, nil
}

// ProvideChatStorage 提供会话持久化依赖
func ProvideChatStorage(cfg *config.Config, pg *postgres.Client) ChatStorage {
	if pg == nil || !cfg.Features.Assistant.PersistTranscripts {
		return ChatStorage{}
	}
	return ChatStorage{
		Sessions:   postgres.NewChatSessionRepository(pg),
		Turns:      postgres.NewChatTurnRepository(pg),
		Transactor: postgres.NewTxManager(pg),
	}
}

// ProvideSecretStore 按配置选择凭据存储后端
func ProvideSecretStore(cfg *config.Config, redisClient *redis.Client) (repository.SecretStore, error) {
	switch backend(cfg) {
	case BackendFile:
		return credstore.NewFileStore(cfg.Credential.FilePath), nil
	case BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("credential backend %q requires a redis client", BackendRedis)
		}
		return redis.NewSecretStore(redisClient, cfg.Credential.RedisPrefix), nil
	case BackendMemory:
		return credential.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", cfg.Credential.Backend)
	}
}

// ProvideCredentialService 提供凭据服务
func ProvideCredentialService(cfg *config.Config, store repository.SecretStore) *credential.Service {
	return credential.NewService(store, cfg.Credential.Key)
}

// ProvideHTTPClient 提供访问模型网关的 HTTP 客户端
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	client := openrouter.NewHTTPClient(cfg.Provider.Referer, cfg.Provider.Title)
	client.Timeout = cfg.Provider.Timeout
	return client
}

// ProvideChatProvider 提供对话调用实现
func ProvideChatProvider(cfg *config.Config, factory *llm.EinoFactory, credentials *credential.Service) assistant.ChatProvider {
	return openrouter.NewChatProvider(cfg.Provider.Name, factory, credentials)
}

// ProvideCatalogCache 提供目录缓存，未启用时返回 nil
func ProvideCatalogCache(cfg *config.Config, redisClient *redis.Client) catalog.Cache {
	if redisClient == nil || !cfg.Catalog.CacheEnabled {
		return nil
	}
	return redis.NewCache(redisClient)
}

// ProvideCatalogService 提供模型目录服务
func ProvideCatalogService(cfg *config.Config, client *openrouter.Client, credentials *credential.Service, cache catalog.Cache) *catalog.Service {
	return catalog.NewService(client, credentials, cache, cfg.Catalog.CacheTTL)
}

// ProvideEventPublisher 提供助手事件发布者，未启用时返回 nil
func ProvideEventPublisher(cfg *config.Config, redisClient *redis.Client) assistant.EventPublisher {
	streamCfg := cfg.Messaging.RedisStream
	if redisClient == nil || !streamCfg.Enabled {
		return nil
	}
	stream := messaging.StreamAssistantEvents
	if streamCfg.Stream != "" {
		stream = messaging.Stream(streamCfg.Stream)
	}
	maxLen := streamCfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return messaging.NewProducer(redisClient.Redis(), stream, int64(maxLen))
}

// ProvideRateLimiter 提供消息发送限流器，未启用 Redis 时返回 nil
func ProvideRateLimiter(redisClient *redis.Client) middleware.RateLimiter {
	if redisClient == nil {
		return nil
	}
	return redis.NewRateLimiter(redisClient)
}

// ProvideManagerConfig 由功能开关与网关配置生成会话管理配置
func ProvideManagerConfig(ctx context.Context, cfg *config.Config) assistant.ManagerConfig {
	feature := cfg.Features.Assistant
	var docTypes []entity.DocumentType
	for _, raw := range feature.DocumentTypes {
		t, ok := entity.ParseDocumentType(raw)
		if !ok {
			logger.Warn(ctx, "ignoring unknown assistant document type", "document_type", raw)
			continue
		}
		docTypes = append(docTypes, t)
	}

	opts := assistant.DefaultOptions()
	if cfg.Provider.Temperature > 0 {
		opts.Temperature = float32(cfg.Provider.Temperature)
	}
	if cfg.Provider.MaxTokens > 0 {
		opts.MaxTokens = cfg.Provider.MaxTokens
	}
	opts.MaxHistoryTurns = feature.MaxHistoryTurns

	return assistant.ManagerConfig{
		Enabled:       feature.Enabled,
		DocumentTypes: docTypes,
		DefaultModel:  cfg.Provider.DefaultModel,
		Persist:       feature.PersistTranscripts,
		Options:       opts,
	}
}

// ProvideManager 提供会话管理器
func ProvideManager(
	managerCfg assistant.ManagerConfig,
	provider assistant.ChatProvider,
	credentials *credential.Service,
	storage ChatStorage,
	events assistant.EventPublisher,
) *assistant.Manager {
	m := assistant.NewManager(managerCfg, provider, credentials, storage.Sessions, storage.Turns, nil, events)
	if storage.Transactor != nil {
		m.UseTransactor(storage.Transactor)
	}
	return m
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, redisClient)
}

// ProvideCredentialHandler 提供凭据管理处理器
func ProvideCredentialHandler(cfg *config.Config, svc *credential.Service, catalogSvc *catalog.Service, factory *llm.EinoFactory) *handler.CredentialHandler {
	return handler.NewCredentialHandler(svc, catalogSvc, factory, backend(cfg))
}

func backend(cfg *config.Config) string {
	b := strings.ToLower(strings.TrimSpace(cfg.Credential.Backend))
	if b == "" {
		return BackendFile
	}
	return b
}
