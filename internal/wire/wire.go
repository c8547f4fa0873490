//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"schema-assistant-api/internal/application/credential"
	"schema-assistant-api/internal/config"
	"schema-assistant-api/internal/infrastructure/llm"
	"schema-assistant-api/internal/infrastructure/openrouter"
	"schema-assistant-api/internal/infrastructure/persistence/postgres"
	"schema-assistant-api/internal/interfaces/http/handler"
	"schema-assistant-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		DataSet,
		CredentialSet,
		ProviderSet,
		AssistantSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeMigrator 仅初始化 PostgreSQL（用于 bootstrap）
func InitializeMigrator(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	wire.Build(ProvideRequiredPostgresClient)
	return nil, nil, nil
}

// DataSet 存储层提供者集合
var DataSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideRedisClient,
	ProvideChatStorage,
	ProvideCatalogCache,
	ProvideEventPublisher,
	ProvideRateLimiter,
)

// CredentialSet 凭据提供者集合
var CredentialSet = wire.NewSet(
	ProvideSecretStore,
	ProvideCredentialService,
	wire.Bind(new(credential.Provider), new(*credential.Service)),
)

// ProviderSet 模型网关提供者集合
var ProviderSet = wire.NewSet(
	ProvideHTTPClient,
	llm.NewEinoFactory,
	openrouter.NewClient,
	ProvideChatProvider,
	ProvideCatalogService,
)

// AssistantSet 对话助手提供者集合
var AssistantSet = wire.NewSet(
	ProvideManagerConfig,
	ProvideManager,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideCredentialHandler,
	handler.NewModelHandler,
	handler.NewAssistantHandler,
	handler.NewSchemaHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
