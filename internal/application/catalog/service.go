package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"schema-assistant-api/internal/application/credential"
	"schema-assistant-api/internal/domain/entity"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
	"schema-assistant-api/pkg/metrics"
)

// ModelLister 模型目录的上游查询接口
type ModelLister interface {
	FetchModels(ctx context.Context) ([]entity.ModelDescriptor, error)
}

// Cache 目录缓存接口（由 Redis 缓存实现）
type Cache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

const cacheKeyPrefix = "catalog:models:"

// Service 模型目录服务，缓存策略由本层决定
type Service struct {
	lister      ModelLister
	credentials credential.Provider
	cache       Cache
	ttl         time.Duration
}

// NewService 创建目录服务；cache 为 nil 时每次都访问上游
func NewService(lister ModelLister, credentials credential.Provider, cache Cache, ttl time.Duration) *Service {
	return &Service{
		lister:      lister,
		credentials: credentials,
		cache:       cache,
		ttl:         ttl,
	}
}

// Listing 一次目录查询的结果
type Listing struct {
	Models   []entity.ModelDescriptor
	Options  []entity.ModelOption
	Selected string
	Changed  bool
}

// ListModels 获取模型目录；refresh 为 true 时跳过缓存
func (s *Service) ListModels(ctx context.Context, refresh bool) ([]entity.ModelDescriptor, error) {
	if s.cache == nil || s.ttl <= 0 {
		return s.fetch(ctx)
	}

	token, ok, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}

	key := cacheKey(token)
	if refresh {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Warn(ctx, "failed to invalidate model catalog cache", "error", err.Error())
		}
	}

	loaded := false
	var loadErr error
	raw, err := s.cache.GetOrLoadSafe(ctx, key, s.ttl, func() (interface{}, error) {
		loaded = true
		models, err := s.fetch(ctx)
		loadErr = err
		return models, err
	})
	if err != nil {
		if loadErr != nil || apperrors.IsAppError(err) {
			return nil, err
		}
		// 缓存不可用时直接访问上游
		logger.Warn(ctx, "model catalog cache unavailable, fetching directly", "error", err.Error())
		return s.fetch(ctx)
	}
	if !loaded {
		metrics.CatalogFetchTotal.WithLabelValues("cache", "success").Inc()
	}

	var models []entity.ModelDescriptor
	if err := json.Unmarshal(raw, &models); err != nil {
		return nil, fmt.Errorf("failed to decode cached model catalog: %w", err)
	}
	return models, nil
}

// Invalidate 清除所有账号的目录缓存，凭据变更时调用
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, cacheKeyPrefix+"*"); err != nil {
		logger.Warn(ctx, "failed to invalidate model catalog cache", "error", err.Error())
	}
}

// Select 获取目录并生成选项，同时校正当前选择
func (s *Service) Select(ctx context.Context, current string, refresh bool) (*Listing, error) {
	models, err := s.ListModels(ctx, refresh)
	if err != nil {
		return nil, err
	}
	selected, changed := Reconcile(models, current)
	if !changed {
		selected = current
	}
	return &Listing{
		Models:   models,
		Options:  BuildOptions(models),
		Selected: selected,
		Changed:  changed,
	}, nil
}

func (s *Service) fetch(ctx context.Context) ([]entity.ModelDescriptor, error) {
	models, err := s.lister.FetchModels(ctx)
	if err != nil {
		metrics.CatalogFetchTotal.WithLabelValues("provider", "error").Inc()
		return nil, err
	}
	metrics.CatalogFetchTotal.WithLabelValues("provider", "success").Inc()
	return models, nil
}

// cacheKey 以凭据摘要区分不同账号的目录
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:8])
}
