// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"schema-assistant-api/internal/config"
	"schema-assistant-api/internal/infrastructure/persistence/redis"
	"schema-assistant-api/internal/interfaces/http/dto"
	apperrors "schema-assistant-api/pkg/errors"
	"schema-assistant-api/pkg/logger"
)

// 默认限流参数
const (
	defaultRateLimit  = 30
	defaultRateWindow = time.Minute
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 滑动窗口限流中间件，按路由模板与客户端 IP 计数
// 未启用或未配置限流器时直接放行；限流器故障时放行
func RateLimit(cfg config.RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	window := cfg.Window
	if window <= 0 {
		window = defaultRateWindow
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := redis.BuildRateLimitKey(route, c.ClientIP())

		ctx := c.Request.Context()
		allowed, err := limiter.Allow(ctx, key, limit, window)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable", "key", key, "error", err.Error())
			c.Next()
			return
		}
		if !allowed {
			dto.FromAppError(c, apperrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
